package layout

// render.go - Layout output written once the whole tree is known

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/geoknoesis/rdf-go/rdf"

	"github.com/rdfpub/generator/internal/engine"
	"github.com/rdfpub/generator/internal/resource"
	"github.com/rdfpub/generator/internal/sparql"
)

// Complete writes the layout of every resource that has index templates:
// the templates themselves, one result file per query and language, and
// the partial templates. Failing queries are reported as recoverable
// errors; failing copies abort the build.
func (b *Builder) Complete(ctx context.Context) error {
	var queryErrs []error
	for _, r := range b.visited {
		if len(r.Languages()) == 0 {
			b.logger.Debug("no index templates", "resource", r.URI())
			continue
		}
		b.logger.Info("processing layout", "resource", r.URI())

		errs, err := b.render(ctx, r)
		if err != nil {
			return err
		}
		queryErrs = append(queryErrs, errs...)
	}
	return errors.Join(queryErrs...)
}

func (b *Builder) render(ctx context.Context, r *resource.Resource) ([]error, error) {
	var queryErrs []error

	for _, index := range r.IndexTemplates() {
		if err := copyFile(index.Path(), filepath.Join(r.LayoutPath(), index.FileName())); err != nil {
			return nil, fmt.Errorf("failed to copy index template %s: %w", index.Path(), err)
		}

		for _, name := range r.QueryNames() {
			q, _ := r.Query(name)
			b.logger.Debug("executing query", "resource", r.URI(), "query", name, "language", index.Language())

			file := fmt.Sprintf("%s@%s.rq", name, index.Language())
			if err := b.evaluate(ctx, q, r, index.Language(), filepath.Join(r.LayoutPath(), file)); err != nil {
				queryErrs = append(queryErrs, &engine.BuildError{
					Reason: "query failed",
					Path:   filepath.Join(r.LayoutPath(), file),
					Err:    err,
				})
			}
		}
	}

	for _, name := range r.PartialNames() {
		p, _ := r.Partial(name)
		b.logger.Debug("copying partial template", "resource", r.URI(), "name", name)
		if err := copyFile(p.Path(), filepath.Join(r.LayoutPath(), name+PartialExtension)); err != nil {
			return nil, fmt.Errorf("failed to copy partial template %s: %w", p.Path(), err)
		}
	}
	return queryErrs, nil
}

// evaluate runs q bound to the resource and language and writes SPARQL JSON
// results to path.
func (b *Builder) evaluate(ctx context.Context, q *sparql.Query, r *resource.Resource, lang, path string) (err error) {
	if b.queries == nil {
		return errors.New("no query source configured")
	}
	results, err := q.Evaluate(ctx, b.queries, sparql.Bindings{
		"resource": r.IRI(),
		"language": rdf.Literal{Lexical: lang},
	})
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return results.WriteJSON(f)
}
