package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rdfpub/generator/internal/cli/config"
	siteconfig "github.com/rdfpub/generator/internal/config"
	"github.com/rdfpub/generator/internal/site"
)

// watch builds args[0] into args[1] and rebuilds after every change of the
// input tree until ctx is canceled or the process is interrupted. Failed
// builds are reported and do not stop the loop.
func watch(ctx context.Context, cmd *cobra.Command, args []string, opts *BuildOptions, mode string) error {
	logger := config.GetLogger(ctx)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	input, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	output, err := filepath.Abs(args[1])
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := addTree(w, input, output); err != nil {
		return err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	trigger := make(chan struct{}, 1)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if within(ev.Name, output) {
					continue
				}
				if ev.Has(fsnotify.Create) {
					if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
						if err := addTree(w, ev.Name, output); err != nil {
							logger.Warn("failed to watch directory", "path", ev.Name, "error", err)
						}
					}
				}
				logger.Debug("input changed", "path", ev.Name, "op", ev.Op.String())
				select {
				case trigger <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watch error", "error", err)
			}
		}
	})

	g.Go(func() error {
		rebuild := func() {
			settings, err := siteconfig.Load(args[0], args[1])
			if err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return
			}
			report, err := site.Build(gctx, settings, logger)
			if errors.Is(err, context.Canceled) {
				return
			}
			if rerr := renderReport(cmd.OutOrStdout(), report, err, mode); rerr != nil {
				logger.Warn("failed to render report", "error", rerr)
			}
		}

		rebuild()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-trigger:
			}

			timer := time.NewTimer(debounce)
			select {
			case <-gctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
			select {
			case <-trigger:
			default:
			}
			rebuild()
		}
	})

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (press Ctrl+C to stop)\n", input)
	return g.Wait()
}

// addTree watches dir and every directory below it except skip.
func addTree(w *fsnotify.Watcher, dir, skip string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if within(path, skip) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
