// Package proxy generates the nginx configuration that serves a built site:
// one location rule per published file, the rules that negotiate between
// rendered pages and RDF representations, and the language tables used for
// negotiation.
//
// A resource's languages are registered for negotiation in ascending tag
// order ("de,en"), not in the order its templates were found, so repeated
// builds of the same tree write identical fragments.
package proxy

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/rdfpub/generator/internal/config"
	"github.com/rdfpub/generator/internal/engine"
	"github.com/rdfpub/generator/internal/resource"
)

// Output locations below the output directory.
const (
	Dir           = "nginx"
	LocationsFile = "locations.nginx.conf"
	ConnegFile    = "conneg.nginx.conf"
	mainConf      = "nginx.conf"
)

//go:embed boilerplate/*.conf
var boilerplate embed.FS

// verbatim are copied into the output unchanged.
var verbatim = []string{
	dataConf,
	indexConf,
	langConf,
	resourceConf,
	staticConf,
	"types.nginx.conf",
	endpointConf,
}

// Builder is the proxy configuration concern.
type Builder struct {
	engine.NopBuilder

	settings *config.Settings
	types    *TypeTable
	logger   *slog.Logger

	locations *os.File
	conneg    *os.File

	endpointDone bool
}

// New creates the proxy builder.
func New(s *config.Settings, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		settings: s,
		types:    NewTypeTable(s.FileTypes()),
		logger:   logger,
	}
}

// Name implements engine.Builder.
func (b *Builder) Name() string { return "proxy" }

// Init writes the boilerplate and opens both generated fragments. They stay
// open until Always.
func (b *Builder) Init(context.Context) error {
	dir := filepath.Join(b.settings.OutputDir(), Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", Dir, err)
	}

	tmpl, err := boilerplate.ReadFile("boilerplate/" + mainConf)
	if err != nil {
		return err
	}
	conf := strings.NewReplacer(
		"$DEFAULT_LANG", b.settings.DefaultLanguage(),
		"$SERVER_NAME", b.settings.Host(),
	).Replace(string(tmpl))
	if err := os.WriteFile(filepath.Join(dir, mainConf), []byte(conf), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", mainConf, err)
	}

	for _, name := range verbatim {
		if err := b.copyBoilerplate(dir, name); err != nil {
			return err
		}
	}

	if b.locations, err = os.Create(filepath.Join(dir, LocationsFile)); err != nil {
		return fmt.Errorf("failed to create %s: %w", LocationsFile, err)
	}
	if b.conneg, err = os.Create(filepath.Join(dir, ConnegFile)); err != nil {
		return fmt.Errorf("failed to create %s: %w", ConnegFile, err)
	}
	header, err := boilerplate.ReadFile("boilerplate/" + ConnegFile)
	if err != nil {
		return err
	}
	if _, err := b.conneg.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", ConnegFile, err)
	}
	return nil
}

func (b *Builder) copyBoilerplate(dir, name string) error {
	data, err := boilerplate.ReadFile("boilerplate/" + name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// HandleResourceFile adds a rule for every static file.
func (b *Builder) HandleResourceFile(_ context.Context, r *resource.Resource, f *resource.File) error {
	if f.Kind() != resource.KindStatic {
		return nil
	}

	name := filepath.Base(f.Path())
	rule := staticRule(join(r.URIPath(), name), b.types.TypeOf(f.Extension()), b.compress(r, name))
	if _, err := b.locations.WriteString(rule); err != nil {
		return &engine.BuildError{Reason: "failed to append nginx config", Path: f.Path(), Err: err}
	}
	return nil
}

// compress reports whether a compression pattern matches the file's path
// relative to the input directory.
func (b *Builder) compress(r *resource.Resource, name string) bool {
	rel := name
	if r.RelPath() != "" {
		rel = r.RelPath() + "/" + name
	}
	for _, pattern := range b.settings.CompressFiles() {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// HandleFinishedResource writes the data, language and catch-all rules of
// the resource. Resources with neither data nor index templates get none.
func (b *Builder) HandleFinishedResource(_ context.Context, r *resource.Resource) error {
	isEndpoint := r.Is(b.settings.SPARQLEndpoint())
	if isEndpoint {
		b.logger.Info("processing SPARQL endpoint nginx config", "endpoint", r.URI())
		b.endpointDone = true
	}

	hasData := r.HasData() || isEndpoint
	langs := r.Languages()
	hasIndex := len(langs) > 0
	if !hasData && !hasIndex {
		return nil
	}

	path := r.URIPath()
	var rules strings.Builder
	if hasData {
		rules.WriteString(dataRules(path))
	}
	for _, lang := range langs {
		rules.WriteString(languageRules(path, lang))
	}
	rules.WriteString(resourceRule(path, hasData, hasIndex, isEndpoint))
	rules.WriteString("\n")

	if _, err := b.locations.WriteString(rules.String()); err != nil {
		return &engine.BuildError{Reason: "failed to append nginx config", Path: r.URI(), Err: err}
	}
	if hasIndex {
		if _, err := b.conneg.WriteString(connegLine(path, langs)); err != nil {
			return &engine.BuildError{Reason: "failed to append conneg config", Path: r.URI(), Err: err}
		}
	}
	return nil
}

// Complete closes the language tables and adds the endpoint rules when no
// directory exists at the endpoint path.
func (b *Builder) Complete(context.Context) error {
	if _, err := b.conneg.WriteString("}"); err != nil {
		return fmt.Errorf("failed to close %s: %w", ConnegFile, err)
	}

	if !b.endpointDone {
		b.logger.Info("appending SPARQL endpoint nginx config")
		path := b.settings.SPARQLEndpointPath()
		rules := resourceRule(path, true, false, true) + dataRules(path)
		if _, err := b.locations.WriteString(rules); err != nil {
			return fmt.Errorf("failed to append nginx config for %s: %w", b.settings.SPARQLEndpoint(), err)
		}
	}
	return nil
}

// Always closes both fragments.
func (b *Builder) Always(context.Context) {
	var errs []error
	for _, f := range []*os.File{b.locations, b.conneg} {
		if f != nil {
			errs = append(errs, f.Close())
		}
	}
	b.locations, b.conneg = nil, nil
	if err := errors.Join(errs...); err != nil {
		b.logger.Warn("failed to close nginx config", "error", err)
	}
}
