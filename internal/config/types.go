// Package config loads and validates the site descriptor (.rdfpub) that
// drives a build.
package config

import (
	"maps"
	"net/url"
	"slices"

	"github.com/rdfpub/generator/internal/vocab"
)

// DescriptorFileName is the name of the site descriptor inside the input directory.
const DescriptorFileName = ".rdfpub"

// DefaultSPARQLEndpoint is used when the descriptor does not name an endpoint.
const DefaultSPARQLEndpoint = "/sparql"

// Descriptor is the raw content of a site descriptor, before validation.
type Descriptor struct {
	BaseURI              string            `koanf:"BaseURI" yaml:"BaseURI"`
	DefaultLanguage      string            `koanf:"DefaultLanguage" yaml:"DefaultLanguage"`
	CleanOutputDirectory bool              `koanf:"CleanOutputDirectory" yaml:"CleanOutputDirectory"`
	SPARQLEndpoint       string            `koanf:"SPARQLEndpoint" yaml:"SPARQLEndpoint,omitempty"`
	Prefixes             map[string]string `koanf:"Prefixes" yaml:"Prefixes,omitempty"`
	ExcludeFiles         []string          `koanf:"ExcludeFiles" yaml:"ExcludeFiles,omitempty"`
	IncludeFiles         []string          `koanf:"IncludeFiles" yaml:"IncludeFiles,omitempty"`
	CompressFiles        []string          `koanf:"CompressFiles" yaml:"CompressFiles,omitempty"`
	FileTypes            map[string]string `koanf:"FileTypes" yaml:"FileTypes,omitempty"`
}

// Settings is the validated, read-only configuration of one build.
type Settings struct {
	inputDir        string
	outputDir       string
	baseURI         *url.URL
	configuredBase  *url.URL
	defaultLanguage string
	clean           bool
	endpoint        *url.URL
	prefixes        map[string]string
	exclude         []string
	include         []string
	compress        []string
	fileTypes       map[string]string
}

// InputDir returns the directory the site is built from.
func (s *Settings) InputDir() string { return s.inputDir }

// OutputDir returns the directory the site is built into.
func (s *Settings) OutputDir() string { return s.outputDir }

// BaseURI returns the base URI of the site. It always has the path "/".
func (s *Settings) BaseURI() string { return s.baseURI.String() }

// Host returns the host name of the base URI.
func (s *Settings) Host() string { return s.baseURI.Hostname() }

// DefaultLanguage returns the lower-cased default language tag.
func (s *Settings) DefaultLanguage() string { return s.defaultLanguage }

// CleanOutputDirectory reports whether an existing output directory is removed first.
func (s *Settings) CleanOutputDirectory() bool { return s.clean }

// SPARQLEndpoint returns the absolute URI of the SPARQL endpoint resource.
func (s *Settings) SPARQLEndpoint() string { return s.endpoint.String() }

// SPARQLEndpointPath returns the path component of the SPARQL endpoint URI.
func (s *Settings) SPARQLEndpointPath() string {
	if s.endpoint.Path == "" {
		return "/"
	}
	return s.endpoint.Path
}

// Prefixes returns a copy of the namespace prefix table. Values are absolute.
func (s *Settings) Prefixes() map[string]string { return maps.Clone(s.prefixes) }

// ExcludeFiles returns the exclusion patterns.
func (s *Settings) ExcludeFiles() []string { return slices.Clone(s.exclude) }

// IncludeFiles returns the inclusion patterns.
func (s *Settings) IncludeFiles() []string { return slices.Clone(s.include) }

// CompressFiles returns the compression patterns.
func (s *Settings) CompressFiles() []string { return slices.Clone(s.compress) }

// FileTypes returns a copy of the user MIME type overrides keyed by extension
// without a leading dot.
func (s *Settings) FileTypes() map[string]string { return maps.Clone(s.fileTypes) }

// Resolve resolves ref against the base URI as configured, before it is
// rebased to the root path.
func (s *Settings) Resolve(ref string) (string, error) {
	return vocab.Resolve(s.configuredBase, ref)
}
