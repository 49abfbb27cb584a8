package engine

// walk.go - Depth-first traversal of the input tree

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/rdfpub/generator/internal/config"
	"github.com/rdfpub/generator/internal/resource"
)

// frame is one entered directory.
type frame struct {
	dir string
	res *resource.Resource
}

type walker struct {
	engine *Engine
	agg    *Aggregator
	report *Report
	stack  []frame
}

func (w *walker) walk(ctx context.Context) error {
	root := w.engine.settings.InputDir()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			w.engine.record(w.agg, &BuildError{Reason: "cannot read", Path: path, Err: err})
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if path != root {
			if rel == config.DescriptorFileName {
				return nil
			}
			decision := w.engine.filter.Decide(rel, d.IsDir())
			if decision.Skip() {
				w.engine.logger.Debug("skipping path", "path", rel, "reason", decision.String())
				w.report.Skipped++
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if decision == Included {
				w.engine.logger.Info("including path", "path", rel)
			}
			w.unwind(ctx, filepath.Dir(path))
		}

		if d.IsDir() {
			w.enter(ctx, path, rel)
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			w.engine.logger.Debug("skipping irregular file", "path", rel, "mode", d.Type().String())
			return nil
		}
		w.visit(ctx, path)
		return nil
	})

	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}
	w.unwind(ctx, "")
	return nil
}

// enter pushes a resource for the directory and announces it.
func (w *walker) enter(ctx context.Context, path, rel string) {
	res := resource.New(w.engine.settings, rel)
	w.stack = append(w.stack, frame{dir: path, res: res})
	w.report.Resources = append(w.report.Resources, res)
	w.engine.logger.Debug("entering resource", "resource", res.URI(), "depth", len(w.stack))

	for _, b := range w.engine.builders {
		if err := b.HandleNewResource(ctx, res); err != nil {
			w.engine.record(w.agg, w.wrap(err, "resource failed", path))
		}
	}
}

// visit hands one file to every builder with the resource on top of the stack.
func (w *walker) visit(ctx context.Context, path string) {
	res := w.stack[len(w.stack)-1].res
	file := resource.Classify(path)
	w.report.Files++
	w.engine.logger.Debug("visiting file", "resource", res.URI(), "file", file.FileName(), "kind", file.Kind().String())

	for _, b := range w.engine.builders {
		if err := b.HandleResourceFile(ctx, res, file); err != nil {
			w.engine.record(w.agg, w.wrap(err, "file failed", path))
		}
	}
}

// unwind pops and finishes resources until dir is on top of the stack.
// An empty dir finishes every remaining resource.
func (w *walker) unwind(ctx context.Context, dir string) {
	for len(w.stack) > 0 {
		top := w.stack[len(w.stack)-1]
		if dir != "" && top.dir == dir {
			return
		}
		w.stack = w.stack[:len(w.stack)-1]
		w.engine.logger.Debug("finishing resource", "resource", top.res.URI())

		for _, b := range w.engine.builders {
			if err := b.HandleFinishedResource(ctx, top.res); err != nil {
				w.engine.record(w.agg, w.wrap(err, "resource failed", top.dir))
			}
		}
	}
}

func (w *walker) wrap(err error, reason, path string) *BuildError {
	if be, ok := err.(*BuildError); ok {
		return be
	}
	return &BuildError{Reason: reason, Path: path, Err: err}
}
