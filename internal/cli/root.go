// Package cli implements the bladec command line.
//
// Configuration comes from .env, BLADE_* environment variables and an
// optional .bladec.yaml, in that order of loading; see internal/app.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"bladec/internal/app"
	"bladec/pkg/blade"
	"bladec/pkg/logger"
	"bladec/pkg/metrics"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X bladec/internal/cli.Version=...".
var Version = "dev"

// state is what every subcommand shares once PersistentPreRunE has run.
type state struct {
	cfgFile  string
	logLevel string
	cfg      *app.Config
	compiler *blade.Compiler
}

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:   "bladec",
		Short: "Compile Blade templates to PHP",
		Long: `bladec compiles Blade templates (directives, echoes and <x-...>
component tags) into plain PHP and keeps a cache of compiled views.

Quick Start:
  bladec build                   Compile every template under the views path
  bladec compile welcome         Compile views/welcome.blade.php
  bladec check --json            Report compile errors without writing artifacts
  bladec watch                   Recompile templates as they change`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&st.cfgFile, "config", "", "config file (default is ./.bladec.yaml)")
	root.PersistentFlags().StringVarP(&st.logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newCompileCommand(st),
		newBuildCommand(st),
		newCheckCommand(st),
		newClearCommand(st),
		newWatchCommand(st),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (st *state) init(cmd *cobra.Command) error {
	cfg, err := app.LoadConfig(st.cfgFile)
	if err != nil {
		return err
	}
	if st.logLevel != "" {
		cfg.LogLevel = st.logLevel
	}
	logger.SetupWriter(cmd.ErrOrStderr(), cfg.Env, cfg.LogLevel)

	compiler, err := cfg.NewCompiler()
	if err != nil {
		return err
	}
	st.cfg = cfg
	st.compiler = compiler
	slog.Debug("Loaded configuration",
		"views", cfg.ViewsPath,
		"cache", cfg.CachePath,
		"strict_components", cfg.StrictComponents,
		"directives", len(cfg.Directives))
	return nil
}

// flushMetrics writes the textfile when BLADE_METRICS_FILE is configured.
func (st *state) flushMetrics() {
	if st.cfg == nil || st.cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(st.cfg.MetricsFile); err != nil {
		slog.Error("Failed to write metrics", "path", st.cfg.MetricsFile, "error", err)
	}
}

// templateName maps a CLI argument to a logical name. Paths inside the views
// directory become dot names; anything else is passed through.
func (st *state) templateName(arg string) string {
	if name, ok := st.compiler.Finder().Name(arg); ok {
		return name
	}
	return arg
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bladec version",
		Args:  cobra.NoArgs,
		// The version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "bladec %s\n", Version)
}
