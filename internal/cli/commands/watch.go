package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/propfrag/propfrag/internal/cli/ui"
	"github.com/propfrag/propfrag/internal/compiler/sourcemap"
	"github.com/propfrag/propfrag/internal/compiler/transform"
	"github.com/propfrag/propfrag/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand(root *rootOptions) *cobra.Command {
	var (
		outDir   string
		debounce time.Duration
		noSchema bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate fragments when files change",
		Long: `Generate every file once, then watch the project and regenerate a file
when it changes or when a file it imports types from changes.

Deleted sources have their generated output removed. Errors are printed
as they occur and do not stop the watcher.

Examples:
  propfrag watch
  propfrag watch --out-dir build/src --debounce 250ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := root.loadProject(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer p.logger.Sync()

			tOpts, err := p.transformOptions(noSchema)
			if err != nil {
				return reportSetupError(cmd.ErrOrStderr(), err)
			}

			dir := p.cfg.Path(p.cfg.Output.Dir)
			if outDir != "" {
				dir, _ = filepath.Abs(outDir)
			}
			writeMaps := p.cfg.Output.SourceMaps

			coord := transform.NewCoordinator(transform.New(tOpts), p.cfg.Jobs)
			exclude := append(append([]string{}, p.cfg.Exclude...), outputExclude(p, dir)...)
			ic := watch.NewIncremental(coord, p.cfg.Root, p.cfg.Include, exclude, p.logger)
			ic.Handle = func(res *transform.Result) error {
				if !res.Changed {
					return nil
				}
				return writeResult(p, dir, res, writeMaps)
			}
			ic.OnRemove = func(path string) error {
				return removeOutput(outputPath(p, dir, path))
			}

			ctx, stop := signal.NotifyContext(runContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			report, err := ic.Build(ctx)
			if err != nil {
				return err
			}
			writeSummary(out, p, report, dir)
			ui.WriteCompilerErrors(cmd.ErrOrStderr(), report.Errors, color.NoColor)

			fw, err := watch.NewFileWatcher(watch.Config{
				Root:     p.cfg.Root,
				Include:  p.cfg.Include,
				Exclude:  exclude,
				Debounce: debounce,
				Logger:   p.logger,
				Track:    ic.Tracks,
			}, func(changes watch.Changes) {
				rebuild(ctx, cmd, p, ic, changes, dir)
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			color.New(color.FgCyan, color.Bold).Fprintf(out, "Watching %s\n", p.cfg.Root)
			color.New(color.FgYellow).Fprintln(out, "Press Ctrl+C to stop")

			if err := fw.Run(ctx); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintln(out, "Stopped watching")
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Output directory (default: output.dir from propfrag.yaml)")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before regenerating")
	cmd.Flags().BoolVar(&noSchema, "no-schema", false, "Skip schema validation")

	return cmd
}

func rebuild(ctx context.Context, cmd *cobra.Command, p *project, ic *watch.Incremental, changes watch.Changes, dir string) {
	report, err := ic.Rebuild(ctx, changes)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("rebuild failed", zap.Error(err))
		}
		return
	}

	out := cmd.OutOrStdout()
	for _, res := range report.Changed() {
		ui.WriteSuccess(out, fmt.Sprintf("%s: %d fragment(s)", p.relPath(res.Path), len(res.Fragments)), color.NoColor)
	}
	for _, path := range changes.Removed {
		fmt.Fprint(out, ui.Info(fmt.Sprintf("%s removed", p.relPath(path)), color.NoColor))
	}
	ui.WriteCompilerErrors(cmd.ErrOrStderr(), report.Errors, color.NoColor)
}

// outputExclude keeps the watcher away from its own output when the output
// directory lies inside the project.
func outputExclude(p *project, dir string) []string {
	rel, err := filepath.Rel(p.cfg.Root, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}
	return []string{filepath.ToSlash(rel) + "/**"}
}

func removeOutput(target string) error {
	for _, path := range []string{target, target + sourcemap.Suffix} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}
