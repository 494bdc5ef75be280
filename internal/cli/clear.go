package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every compiled view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.compiler.ClearCache(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Cleared %s\n", st.compiler.Options().CachePath)
			return nil
		},
	}
}
