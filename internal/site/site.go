// Package site assembles the builders of a build in their fixed order.
package site

import (
	"context"
	"log/slog"

	"github.com/rdfpub/generator/internal/config"
	"github.com/rdfpub/generator/internal/content"
	"github.com/rdfpub/generator/internal/engine"
	"github.com/rdfpub/generator/internal/framework"
	"github.com/rdfpub/generator/internal/layout"
	"github.com/rdfpub/generator/internal/proxy"
)

// Builders returns the framework, content, layout and proxy builders.
// Layout evaluates queries against the content store, and proxy reads the
// data flags content sets in the same finishing pass, so the order matters.
func Builders(s *config.Settings, logger *slog.Logger) []engine.Builder {
	c := content.New(s, logger)
	return []engine.Builder{
		framework.New(s, logger),
		c,
		layout.New(s, c.Store(), logger),
		proxy.New(s, logger),
	}
}

// Build runs one complete build of s.
func Build(ctx context.Context, s *config.Settings, logger *slog.Logger) (*engine.Report, error) {
	e, err := engine.New(engine.Config{
		Settings: s,
		Builders: Builders(s, logger),
		Logger:   logger,
	})
	if err != nil {
		return &engine.Report{}, err
	}
	return e.Run(ctx)
}
