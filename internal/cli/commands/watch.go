package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/dlist/internal/scenario"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <scenario.yaml>",
		Short: "Re-run a scenario whenever its file changes",
		Long: `Run a scenario, then run it again each time the file is written.

Violations are reported but never stop the watcher. Bursts of writes are
collapsed into one run after watch_debounce. Press Ctrl+C to exit.`,
		Example: `  dlist watch scenarios/splice.yaml --policy report`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := args[0]
			return watchScenario(ctx, path, cmdCtx.Cfg.WatchDebounce, cmdCtx.Logger, func() {
				s, err := scenario.Load(path)
				if err != nil {
					cmdCtx.Renderer.Warn(err.Error())
					return
				}
				report, runErr := cmdCtx.Runner().Run(s)
				if err := cmdCtx.Renderer.Report(report); err != nil {
					cmdCtx.Logger.Error("render failed", "error", err)
				}
				if runErr != nil {
					cmdCtx.Renderer.Warn(fmt.Sprintf("scenario %s aborted: %v", s.Name, runErr))
				}
			})
		},
	}
}

// watchScenario calls run once, then again after every write to path, until
// ctx is cancelled. Bursts of events are debounced.
func watchScenario(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, run func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// editors often replace the file, so watch its directory
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	run()

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			logger.Debug("scenario changed, re-running", "path", abs)
			run()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}
