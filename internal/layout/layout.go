// Package layout mirrors the input tree into the output, collects index and
// partial templates, and propagates partial templates and queries from each
// resource to its descendants.
package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/text/language"

	"github.com/rdfpub/generator/internal/config"
	"github.com/rdfpub/generator/internal/engine"
	"github.com/rdfpub/generator/internal/resource"
	"github.com/rdfpub/generator/internal/sparql"
)

// PartialExtension is the extension partial templates are published with.
const PartialExtension = ".handlebars"

// ErrNoDefaultIndex is wrapped by the error reported for a resource that
// has index templates but none in the default language.
var ErrNoDefaultIndex = errors.New("no index template for the default language")

// Builder is the layout concern.
type Builder struct {
	engine.NopBuilder

	settings *config.Settings
	queries  sparql.Source
	logger   *slog.Logger

	// visited holds every entered resource in pre-order.
	visited []*resource.Resource
}

// New creates the layout builder. Queries collected on resources are
// evaluated against src when the build completes.
func New(s *config.Settings, src sparql.Source, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{settings: s, queries: src, logger: logger}
}

// Name implements engine.Builder.
func (b *Builder) Name() string { return "layout" }

// Resources returns the resources seen so far in the order they were entered.
func (b *Builder) Resources() []*resource.Resource { return b.visited }

// Init creates the resources and layouts output directories.
func (b *Builder) Init(context.Context) error {
	for _, dir := range []string{resource.ResourcesDir, resource.LayoutsDir} {
		if err := os.MkdirAll(filepath.Join(b.settings.OutputDir(), dir), 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}
	return nil
}

// HandleNewResource creates the mirrored output directories.
func (b *Builder) HandleNewResource(_ context.Context, r *resource.Resource) error {
	if err := os.MkdirAll(r.ResourcePath(), 0o755); err != nil {
		return &engine.BuildError{Reason: "error while creating resource directory", Path: r.URI(), Err: err}
	}
	if err := os.MkdirAll(r.LayoutPath(), 0o755); err != nil {
		return &engine.BuildError{Reason: "error while creating layout directory", Path: r.URI(), Err: err}
	}
	b.visited = append(b.visited, r)
	return nil
}

// HandleResourceFile records templates and copies static files.
func (b *Builder) HandleResourceFile(_ context.Context, r *resource.Resource, f *resource.File) error {
	switch f.Kind() {
	case resource.KindRDF, resource.KindQuery:
		return nil
	case resource.KindTemplate:
		return b.addTemplate(r, f)
	}

	b.logger.Debug("processing static file", "file", f.Path())
	dst := filepath.Join(r.ResourcePath(), filepath.Base(f.Path()))
	if err := copyFile(f.Path(), dst); err != nil {
		return &engine.BuildError{Reason: "failed to copy static file", Path: f.Path(), Err: err}
	}
	return nil
}

func (b *Builder) addTemplate(r *resource.Resource, f *resource.File) error {
	if !f.IsIndexTemplate() {
		if !r.AddPartial(f) {
			b.logger.Debug("partial template already registered", "resource", r.URI(), "name", f.Name())
		}
		return nil
	}

	if f.Language() == "" {
		f.SetLanguage(b.settings.DefaultLanguage())
	}
	if _, err := language.Parse(f.Language()); err != nil {
		return &engine.BuildError{Reason: "invalid index template language", Path: f.Path(), Err: err}
	}
	if !r.AddIndexTemplate(f) {
		b.logger.Warn("ignoring second index template for language",
			"resource", r.URI(), "language", f.Language(), "file", f.Path())
	}
	return nil
}

// HandleFinishedResource propagates the resource's layout to its
// descendants and checks that it renders the default language.
func (b *Builder) HandleFinishedResource(_ context.Context, r *resource.Resource) error {
	if r.HasLayout() {
		b.logger.Debug("propagating layout", "resource", r.URI())
		for _, child := range b.descendants(r) {
			if n := child.Inherit(r); n > 0 {
				b.logger.Debug("propagated to child", "resource", child.URI(), "entries", n)
			}
		}
	}

	if len(r.Languages()) > 0 && !r.HasLanguage(b.settings.DefaultLanguage()) {
		return &engine.BuildError{
			Reason: "missing default language index",
			Path:   r.URI(),
			Err:    fmt.Errorf("%w '%s' (has %v)", ErrNoDefaultIndex, b.settings.DefaultLanguage(), r.Languages()),
		}
	}
	return nil
}

// descendants returns the resources entered after r. While r is being
// finished these are exactly the resources below it.
func (b *Builder) descendants(r *resource.Resource) []*resource.Resource {
	for i := len(b.visited) - 1; i >= 0; i-- {
		if b.visited[i].Equal(r) {
			return b.visited[i+1:]
		}
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
