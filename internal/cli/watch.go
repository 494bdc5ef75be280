package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bladec/pkg/blade"
	"bladec/pkg/watcher"

	"github.com/spf13/cobra"
)

func newWatchCommand(st *state) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile templates when they change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := buildAll(ctx, st.compiler, false)
			if err != nil {
				return err
			}
			for _, f := range summary.Failed {
				slog.Error("Template failed", "error", f)
			}
			st.flushMetrics()

			w, err := watcher.New(debounce)
			if err != nil {
				return err
			}
			opts := st.compiler.Options()
			w.AddFilter(watcher.ExtensionFilter(opts.Extension))
			w.AddFilter(watcher.NoHiddenFilter)
			w.AddHandler(func(events []watcher.ChangeEvent) error {
				applyChanges(st.compiler, events)
				st.flushMetrics()
				return nil
			})
			if err := w.AddRecursive(opts.ViewsPath); err != nil {
				w.Close()
				return err
			}

			slog.Info("Watching templates", "path", opts.ViewsPath)
			return w.Run(ctx)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "quiet period before recompiling")
	return cmd
}

// applyChanges recompiles changed templates and drops the artifacts of
// deleted ones.
func applyChanges(c *blade.Compiler, events []watcher.ChangeEvent) {
	for _, ev := range events {
		name, ok := c.Finder().Name(ev.Path)
		if !ok {
			continue
		}

		switch ev.Type {
		case watcher.EventTypeDeleted, watcher.EventTypeRenamed:
			if err := os.Remove(c.CompiledPath(name)); err != nil && !os.IsNotExist(err) {
				slog.Warn("Failed to remove artifact", "name", name, "error", err)
				continue
			}
			slog.Info("Removed artifact", "name", name)
		default:
			if _, err := c.ForceCompile(name); err != nil {
				slog.Error("Template failed", "name", name, "error", err)
				continue
			}
			slog.Info("Recompiled", "name", name, "event", ev.Type.String())
		}
	}
}
