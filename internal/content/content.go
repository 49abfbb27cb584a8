// Package content ingests RDF data and SPARQL queries into the build store
// and publishes every resource's named graph in each output syntax,
// together with a SPARQL service description of the dataset.
package content

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/geoknoesis/rdf-go/rdf"

	"github.com/rdfpub/generator/internal/config"
	"github.com/rdfpub/generator/internal/engine"
	"github.com/rdfpub/generator/internal/rdfio"
	"github.com/rdfpub/generator/internal/resource"
	"github.com/rdfpub/generator/internal/sparql"
	"github.com/rdfpub/generator/internal/store"
	"github.com/rdfpub/generator/internal/vocab"
)

// Output locations below the output directory.
const (
	DBDir          = "db"
	StoreFile      = "store.db"
	ConfigArtifact = "config.ttl"
)

//go:embed config.ttl
var configArtifact []byte

// Fixed blank nodes of the service description.
var (
	serviceNode = rdf.BlankNode{ID: "sdroot"}
	datasetNode = rdf.BlankNode{ID: "dataset"}
)

// Builder is the content-store concern.
type Builder struct {
	engine.NopBuilder

	settings *config.Settings
	logger   *slog.Logger
	store    *store.Store
	endpoint rdf.IRI

	// now and newBlank are replaced in tests.
	now      func() time.Time
	newBlank func() string
}

// New creates the content builder. The store is opened by Init.
func New(s *config.Settings, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		settings: s,
		logger:   logger,
		store:    store.New(),
		endpoint: rdf.IRI{Value: s.SPARQLEndpoint()},
		now:      time.Now,
		newBlank: rdfio.NewBlankLabel,
	}
}

// Name implements engine.Builder.
func (b *Builder) Name() string { return "content" }

// Store returns the build store. It is open between Init and Always.
func (b *Builder) Store() *store.Store { return b.store }

// Init opens the store, registers the configured prefixes and writes the
// service description into the endpoint graph.
func (b *Builder) Init(ctx context.Context) error {
	dir := filepath.Join(b.settings.OutputDir(), DBDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := b.store.Open(filepath.Join(dir, StoreFile)); err != nil {
		return err
	}
	if err := b.store.Migrate(); err != nil {
		return err
	}

	return b.store.Update(ctx, func(tx *store.Tx) error {
		if err := tx.ClearNamespaces(ctx); err != nil {
			return err
		}
		for prefix, ns := range b.settings.Prefixes() {
			if err := tx.SetNamespace(ctx, prefix, ns); err != nil {
				return err
			}
		}
		return tx.Add(ctx,
			b.describe(serviceNode, vocab.RDFType, iri(vocab.SDService)),
			b.describe(serviceNode, vocab.SDEndpoint, b.endpoint),
			b.describe(serviceNode, vocab.SDSupportedLanguage, iri(vocab.SDSPARQL11Query)),
			b.describe(serviceNode, vocab.SDDefaultDataset, datasetNode),
		)
	})
}

// HandleNewResource marks the endpoint resource as having data.
func (b *Builder) HandleNewResource(_ context.Context, r *resource.Resource) error {
	if b.isEndpoint(r) {
		r.SetHasData(true)
	}
	return nil
}

// HandleResourceFile ingests RDF files and prepares query files. Other
// files are ignored.
func (b *Builder) HandleResourceFile(ctx context.Context, r *resource.Resource, f *resource.File) error {
	switch f.Kind() {
	case resource.KindRDF:
		return b.ingest(ctx, r, f)
	case resource.KindQuery:
		return b.prepare(r, f)
	}
	return nil
}

func (b *Builder) ingest(ctx context.Context, r *resource.Resource, f *resource.File) error {
	if b.isEndpoint(r) {
		b.logger.Warn("ignoring RDF file found at the SPARQL endpoint", "file", f.Path(), "endpoint", r.URI())
		return nil
	}

	format, err := rdfio.FormatForExtension(f.Extension())
	if err != nil {
		return &engine.BuildError{Reason: "unsupported RDF file", Path: f.Path(), Err: err}
	}

	in, err := os.Open(f.Path())
	if err != nil {
		return &engine.BuildError{Reason: "error reading RDF file", Path: f.Path(), Err: err}
	}
	defer in.Close()

	doc, err := rdfio.Parse(ctx, in, format, rdfio.ParseOptions{
		Base:  r.URI(),
		Graph: r.IRI(),
	})
	switch {
	case errors.Is(err, rdfio.ErrSyntax):
		return &engine.BuildError{Reason: "file is not valid syntax for its extension", Path: f.Path(), Err: err}
	case err != nil:
		return &engine.BuildError{Reason: "error reading RDF file", Path: f.Path(), Err: err}
	}

	if err := b.store.Update(ctx, func(tx *store.Tx) error {
		return tx.Add(ctx, doc.Quads...)
	}); err != nil {
		return &engine.BuildError{Reason: "error storing RDF file", Path: f.Path(), Err: err}
	}

	r.AddPrefixes(doc.Prefixes)
	r.SetHasData(true)
	b.logger.Info("added RDF triples", "resource", r.URI(), "file", f.FileName(), "count", len(doc.Quads))
	return nil
}

func (b *Builder) prepare(r *resource.Resource, f *resource.File) error {
	data, err := os.ReadFile(f.Path())
	if err != nil {
		return &engine.BuildError{Reason: "error reading query file", Path: f.Path(), Err: err}
	}
	text := string(data)

	q, err := sparql.Prepare(sparql.Preamble(b.settings.Prefixes(), text)+text, b.settings.BaseURI())
	if err != nil {
		return &engine.BuildError{Reason: "not a valid SPARQL tuple query", Path: f.Path(), Err: err}
	}

	if !r.AddQuery(f.Name(), q) {
		b.logger.Debug("query name already registered", "resource", r.URI(), "query", f.Name())
		return nil
	}
	b.logger.Debug("prepared query", "resource", r.URI(), "query", f.Name())
	return nil
}

// HandleFinishedResource describes the resource's graph in the dataset and
// writes the graph in every output syntax.
func (b *Builder) HandleFinishedResource(ctx context.Context, r *resource.Resource) error {
	if !r.HasData() || b.isEndpoint(r) {
		return nil
	}

	named := rdf.BlankNode{ID: b.newBlank()}
	graph := rdf.BlankNode{ID: b.newBlank()}
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		n, err := tx.Count(ctx, r.IRI())
		if err != nil {
			return err
		}
		return tx.Add(ctx, b.namedGraph(named, graph, r.IRI(), n)...)
	})
	if err != nil {
		return &engine.BuildError{Reason: "error describing graph", Path: r.URI(), Err: err}
	}

	prefixes := b.settings.Prefixes()
	maps.Copy(prefixes, r.Prefixes())
	if err := b.export(ctx, r.IRI(), r.ResourcePath(), prefixes); err != nil {
		return &engine.BuildError{Reason: "cannot output serialized resource RDF", Path: r.URI(), Err: err}
	}
	return nil
}

// Complete finishes the service description, publishes the endpoint graph
// and writes the store configuration artifact.
func (b *Builder) Complete(ctx context.Context) error {
	named := rdf.BlankNode{ID: b.newBlank()}
	graph := rdf.BlankNode{ID: b.newBlank()}
	def := rdf.BlankNode{ID: b.newBlank()}

	err := b.store.Update(ctx, func(tx *store.Tx) error {
		quads := b.namedGraph(named, graph, b.endpoint, -1)
		quads = append(quads,
			b.describe(datasetNode, vocab.SDDefaultGraph, def),
			b.describe(def, vocab.RDFType, iri(vocab.SDGraphClass)),
		)
		if err := tx.Add(ctx, quads...); err != nil {
			return err
		}

		// Both counts include the count statements themselves.
		n, err := tx.Count(ctx, b.endpoint)
		if err != nil {
			return err
		}
		if err := tx.Add(ctx, b.describe(graph, vocab.VOIDTriples, integer(n+2))); err != nil {
			return err
		}
		total, err := tx.CountAll(ctx)
		if err != nil {
			return err
		}
		return tx.Add(ctx, b.describe(def, vocab.VOIDTriples, integer(total+1)))
	})
	if err != nil {
		return fmt.Errorf("error finalizing service description: %w", err)
	}

	endpointRel := strings.TrimPrefix(b.settings.SPARQLEndpointPath(), "/")
	dir := resource.New(b.settings, endpointRel).ResourcePath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create endpoint directory: %w", err)
	}
	if err := b.export(ctx, b.endpoint, dir, b.settings.Prefixes()); err != nil {
		return fmt.Errorf("unable to write RDF files for SPARQL endpoint: %w", err)
	}

	path := filepath.Join(b.settings.OutputDir(), DBDir, ConfigArtifact)
	if err := os.WriteFile(path, configArtifact, 0o644); err != nil {
		return fmt.Errorf("failed to write store configuration: %w", err)
	}
	return nil
}

// Always closes the store.
func (b *Builder) Always(context.Context) {
	if err := b.store.Close(); err != nil {
		b.logger.Warn("failed to close store", "error", err)
	}
}

func (b *Builder) isEndpoint(r *resource.Resource) bool {
	return r.Is(b.endpoint.Value)
}

func (b *Builder) export(ctx context.Context, graph rdf.IRI, dir string, prefixes map[string]string) error {
	quads, err := b.store.Export(ctx, graph)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return rdfio.WriteFiles(ctx, dir, quads, prefixes)
}

// namedGraph returns the description of one named graph. A negative count
// leaves out the void:triples statement.
func (b *Builder) namedGraph(named, graph rdf.BlankNode, name rdf.IRI, count int64) []rdf.Quad {
	quads := []rdf.Quad{
		b.describe(datasetNode, vocab.SDNamedGraph, named),
		b.describe(named, vocab.RDFType, iri(vocab.SDNamedGraphClass)),
		b.describe(named, vocab.SDName, name),
		b.describe(named, vocab.SDGraph, graph),
		b.describe(graph, vocab.RDFType, iri(vocab.SDGraphClass)),
		b.describe(named, vocab.DCTermsCreated, rdf.Literal{
			Lexical:  b.now().UTC().Format(time.RFC3339),
			Datatype: iri(vocab.XSDDateTime),
		}),
	}
	if count >= 0 {
		quads = append(quads, b.describe(graph, vocab.VOIDTriples, integer(count)))
	}
	return quads
}

// describe returns a statement in the endpoint graph.
func (b *Builder) describe(s rdf.Term, p string, o rdf.Term) rdf.Quad {
	return rdf.Quad{S: s, P: iri(p), O: o, G: b.endpoint}
}

func iri(v string) rdf.IRI { return rdf.IRI{Value: v} }

func integer(n int64) rdf.Literal {
	return rdf.Literal{Lexical: strconv.FormatInt(n, 10), Datatype: iri(vocab.XSDInteger)}
}
