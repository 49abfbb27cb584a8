package engine

// run.go - Build orchestration: init, walk, complete, always

import (
	"context"
	"time"
)

// Run performs one build.
//
// Init is called on every builder in order and the first failure aborts the
// build. The input tree is then walked once, and Complete is called on every
// builder. Always is called on every builder before Run returns, on every
// path. A Complete error made only of BuildErrors (alone or joined) is
// recorded as recoverable; any other Complete error aborts the build.
//
// Run returns a *FatalError when the build was aborted, an error wrapping
// ErrBuildFailed when recoverable errors were recorded, and nil otherwise.
// The report is never nil.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{}
	agg := &Aggregator{}

	e.logger.Info("starting build",
		"input", e.settings.InputDir(),
		"output", e.settings.OutputDir(),
		"base", e.settings.BaseURI())

	defer func() {
		cleanup := context.WithoutCancel(ctx)
		for _, b := range e.builders {
			e.logger.Debug("releasing builder", "builder", b.Name())
			b.Always(cleanup)
		}
		report.Errors = agg.Errors()
		report.Duration = time.Since(start)
	}()

	for _, b := range e.builders {
		e.logger.Debug("initializing builder", "builder", b.Name())
		if err := b.Init(ctx); err != nil {
			return report, &FatalError{Phase: "init", Builder: b.Name(), Err: err}
		}
	}

	w := &walker{engine: e, agg: agg, report: report}
	if err := w.walk(ctx); err != nil {
		return report, &FatalError{Phase: "walk", Err: err}
	}

	e.logger.Debug("walk finished",
		"resources", len(report.Resources),
		"files", report.Files,
		"skipped", report.Skipped)

	for _, b := range e.builders {
		e.logger.Debug("completing builder", "builder", b.Name())
		err := b.Complete(ctx)
		if err == nil {
			continue
		}
		recoverable, ok := buildErrors(err)
		if !ok {
			return report, &FatalError{Phase: "complete", Builder: b.Name(), Err: err}
		}
		for _, be := range recoverable {
			e.record(agg, be)
		}
	}

	if err := agg.Err(); err != nil {
		e.logger.Warn("build finished with errors", "errors", agg.Len())
		return report, err
	}
	e.logger.Info("build finished", "resources", len(report.Resources), "files", report.Files)
	return report, nil
}

func (e *Engine) record(agg *Aggregator, be *BuildError) {
	agg.Add("", "", be)
	e.logger.Error(be.Reason, "path", be.Path, "error", be.Err)
}

// buildErrors flattens err into BuildErrors. It reports false when any leaf
// of err is not a BuildError.
func buildErrors(err error) ([]*BuildError, bool) {
	if be, ok := err.(*BuildError); ok {
		return []*BuildError{be}, true
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return nil, false
	}
	var out []*BuildError
	for _, e := range joined.Unwrap() {
		sub, ok := buildErrors(e)
		if !ok {
			return nil, false
		}
		out = append(out, sub...)
	}
	return out, len(out) > 0
}
