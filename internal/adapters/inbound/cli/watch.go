package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openkraft/licensekraft/internal/adapters/outbound/history"
	"github.com/openkraft/licensekraft/internal/domain"
)

const watchDebounce = 300 * time.Millisecond

// ignoredDirs are never watched: VCS metadata and our own output.
var ignoredDirs = map[string]bool{
	".git":          true,
	".licensekraft": true,
	"target":        true,
}

func newWatchCmd() *cobra.Command {
	var (
		opts     runOptions
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-run verification whenever files change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			logger, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("watch init failed: %w", err)
			}
			defer watcher.Close()

			if err := addWatchRecursive(watcher, absPath); err != nil {
				return fmt.Errorf("watch failed: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			var hist domain.RunHistory = history.New()
			trigger := func() {
				cfg, err := opts.loadConfig(cmd, absPath)
				if err != nil {
					logger.Error("loading configuration", zap.Error(err))
					return
				}
				report, runErr := newVerifyService(cfg, logger).Verify(ctx, absPath, cfg)
				if report == nil {
					logger.Error("verification aborted", zap.Error(runErr))
					return
				}
				if !opts.noHistory {
					if err := hist.Save(absPath, domain.EntryFor(report)); err != nil {
						logger.Warn("could not record run history", zap.Error(err))
					}
				}
				if err := renderReport(cmd.OutOrStdout(), report, opts.jsonOutput); err != nil {
					logger.Error("rendering report", zap.Error(err))
				}
			}

			logger.Info("watching for changes", zap.String("root", absPath))
			trigger()
			return watchLoop(ctx, watcher, absPath, debounce, logger, trigger)
		},
	}

	opts.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watchDebounce, "Quiet period before re-running after a change")

	return cmd
}

// watchLoop runs trigger once per burst of events, after debounce of quiet.
// Runs happen on the calling goroutine, one at a time, until ctx is done.
func watchLoop(
	ctx context.Context,
	watcher *fsnotify.Watcher,
	root string,
	debounce time.Duration,
	logger *zap.Logger,
	trigger func(),
) error {
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignoredPath(root, ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addWatchRecursive(watcher, ev.Name); err != nil {
						logger.Warn("could not watch new directory", zap.String("dir", ev.Name), zap.Error(err))
					}
				}
			}
			logger.Debug("change detected", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", zap.Error(err))
		case <-timer.C:
			trigger()
		}
	}
}

func addWatchRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignoredDirs[d.Name()] {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// ignoredPath reports whether name lies inside an ignored directory below root.
func ignoredPath(root, name string) bool {
	rel, err := filepath.Rel(root, name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if ignoredDirs[part] {
			return true
		}
	}
	return false
}
