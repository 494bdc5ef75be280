package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompileCommand(st *state) *cobra.Command {
	var force, stdout bool

	cmd := &cobra.Command{
		Use:   "compile <name|file>...",
		Short: "Compile individual templates",
		Long: `Compile templates by logical name (layouts.app) or by path
(views/layouts/app.blade.php). Fresh artifacts are skipped unless --force is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer st.flushMetrics()
			out := cmd.OutOrStdout()

			for _, arg := range args {
				name := st.templateName(arg)

				if stdout {
					res, err := st.compiler.CompileTemplate(name)
					if err != nil {
						return err
					}
					fmt.Fprint(out, res.Code)
					continue
				}

				if force {
					if _, err := st.compiler.ForceCompile(name); err != nil {
						return err
					}
				} else if _, err := st.compiler.Compile(name); err != nil {
					return err
				}
				fmt.Fprintf(out, "✅ %s -> %s\n", name, st.compiler.CompiledPath(name))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "recompile even when the artifact is fresh")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the compiled PHP instead of writing the cache")
	return cmd
}
