package cli

import (
	"errors"
	"fmt"
	"io"

	"bladec/pkg/blade"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("check failed")

type checkWarning struct {
	Template string `json:"template"`
	Message  string `json:"message"`
}

type checkReport struct {
	Success   bool                `json:"success"`
	Templates int                 `json:"templates"`
	Errors    []*blade.Diagnostic `json:"errors"`
	Warnings  []checkWarning      `json:"warnings"`
}

func newCheckCommand(st *state) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check [name|file]...",
		Short: "Compile templates in memory and report errors",
		Long: `Compile templates without writing artifacts. With no arguments every
template under the views path is checked. Exits non-zero on any error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(args))
			for _, arg := range args {
				names = append(names, st.templateName(arg))
			}
			if len(names) == 0 {
				all, err := st.compiler.Finder().Templates()
				if err != nil {
					return err
				}
				names = all
			}

			report := runCheck(st.compiler, names)
			if asJSON {
				if err := writeJSONReport(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				writeTextReport(cmd.OutOrStdout(), report)
			}
			if !report.Success {
				cmd.SilenceErrors = true
				return errCheckFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func runCheck(c *blade.Compiler, names []string) checkReport {
	report := checkReport{
		Templates: len(names),
		Errors:    []*blade.Diagnostic{},
		Warnings:  []checkWarning{},
	}
	for _, name := range names {
		res, err := c.CompileTemplate(name)
		if err != nil {
			report.Errors = append(report.Errors, toDiagnostic(err, c.Finder().Path(name)))
			continue
		}
		for _, w := range res.Warnings {
			report.Warnings = append(report.Warnings, checkWarning{Template: name, Message: w})
		}
	}
	report.Success = len(report.Errors) == 0
	return report
}

func toDiagnostic(err error, path string) *blade.Diagnostic {
	var d *blade.Diagnostic
	if errors.As(err, &d) {
		return d
	}
	return &blade.Diagnostic{Kind: blade.KindIO, Message: err.Error(), Path: path, Offset: -1}
}

func writeJSONReport(w io.Writer, report checkReport) error {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func writeTextReport(w io.Writer, report checkReport) {
	for _, d := range report.Errors {
		fmt.Fprintf(w, "❌ %v\n", d)
	}
	for _, warn := range report.Warnings {
		fmt.Fprintf(w, "⚠️  %s: %s\n", warn.Template, warn.Message)
	}
	if report.Success {
		fmt.Fprintf(w, "✅ %d templates OK\n", report.Templates)
		return
	}
	fmt.Fprintf(w, "%d of %d templates failed\n", len(report.Errors), report.Templates)
}
