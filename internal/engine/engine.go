// Package engine drives a fixed, ordered list of builders over a single
// depth-first walk of the input tree. Every input directory becomes a
// resource and every regular file is handed to the builders with the
// resource it lives in.
package engine

import (
	"errors"
	"log/slog"
	"time"

	"github.com/rdfpub/generator/internal/config"
	"github.com/rdfpub/generator/internal/resource"
)

// Engine runs builds for one site.
type Engine struct {
	settings *config.Settings
	builders []Builder
	filter   *Filter
	logger   *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Settings is the validated site configuration.
	Settings *config.Settings
	// Builders are called in slice order for every event.
	Builders []Builder
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Report summarizes one build.
type Report struct {
	// Resources in the order they were entered.
	Resources []*resource.Resource
	// Files is the number of files handed to the builders.
	Files int
	// Skipped is the number of paths left out by the filter.
	Skipped int
	// Errors are the recoverable errors in the order they were recorded.
	Errors []*BuildError
	// Duration is the wall time from Init to the end of Always.
	Duration time.Duration
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Settings == nil {
		return nil, errors.New("engine: settings are required")
	}

	filter, err := NewFilter(cfg.Settings.IncludeFiles(), cfg.Settings.ExcludeFiles())
	if err != nil {
		return nil, err
	}

	return &Engine{
		settings: cfg.Settings,
		builders: cfg.Builders,
		filter:   filter,
		logger:   logger,
	}, nil
}

// Settings returns the site configuration the engine builds with.
func (e *Engine) Settings() *config.Settings { return e.settings }

// Builders returns the names of the builders in call order.
func (e *Engine) Builders() []string {
	names := make([]string, len(e.builders))
	for i, b := range e.builders {
		names[i] = b.Name()
	}
	return names
}
