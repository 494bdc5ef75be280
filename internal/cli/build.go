package cli

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"bladec/pkg/blade"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newBuildCommand(st *state) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile every template under the views path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer st.flushMetrics()

			start := time.Now()
			summary, err := buildAll(cmd.Context(), st.compiler, force)
			if err != nil {
				return err
			}
			for _, f := range summary.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "❌ %v\n", f)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Compiled %d of %d templates in %s\n",
				summary.Compiled, summary.Total, time.Since(start).Round(time.Millisecond))
			if len(summary.Failed) > 0 {
				return fmt.Errorf("%d templates failed to compile", len(summary.Failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "recompile fresh artifacts too")
	return cmd
}

type buildSummary struct {
	Total    int
	Compiled int
	Failed   []error
}

// buildAll compiles every template with one worker per CPU. A failing
// template does not stop the others.
func buildAll(ctx context.Context, c *blade.Compiler, force bool) (buildSummary, error) {
	names, err := c.Finder().Templates()
	if err != nil {
		return buildSummary{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		mu      sync.Mutex
		summary = buildSummary{Total: len(names)}
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			var err error
			if force {
				_, err = c.ForceCompile(name)
			} else {
				_, err = c.Compile(name)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Debug("Template failed", "name", name, "error", err)
				summary.Failed = append(summary.Failed, err)
				return nil
			}
			summary.Compiled++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}
