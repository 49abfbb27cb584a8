package config

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// Pre-flight validation errors. Each one aborts the build before any
// output is written.
var (
	ErrInputNotFound     = errors.New("input directory does not exist")
	ErrMissingDescriptor = errors.New("site descriptor not found")
	ErrInvalidLanguage   = errors.New("invalid default language")
	ErrInvalidBaseURI    = errors.New("invalid base URI")
)

var (
	languagePattern = regexp.MustCompile(`^[a-zA-Z]{1,8}(?:-[a-zA-Z0-9]{1,8})*$`)
	baseURIPattern  = regexp.MustCompile(`^https?://[a-zA-Z0-9]`)
)

// ValidLanguage reports whether tag is acceptable as a default language.
func ValidLanguage(tag string) bool {
	return languagePattern.MatchString(tag)
}

// New validates a descriptor and returns the resulting settings.
func New(inputDir, outputDir string, d Descriptor) (*Settings, error) {
	if d.DefaultLanguage == "" {
		return nil, fmt.Errorf("%w: DefaultLanguage must be set in %s", ErrInvalidLanguage, DescriptorFileName)
	}
	if !ValidLanguage(d.DefaultLanguage) {
		return nil, fmt.Errorf("%w: %q is not a valid language tag", ErrInvalidLanguage, d.DefaultLanguage)
	}
	if d.BaseURI == "" {
		return nil, fmt.Errorf("%w: BaseURI must be set in %s", ErrInvalidBaseURI, DescriptorFileName)
	}
	if !baseURIPattern.MatchString(d.BaseURI) {
		return nil, fmt.Errorf("%w: %q must be an http or https URL", ErrInvalidBaseURI, d.BaseURI)
	}

	parsed, err := url.Parse(d.BaseURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURI, err)
	}
	base := parsed.ResolveReference(&url.URL{Path: "/"})

	s := &Settings{
		inputDir:        filepath.Clean(inputDir),
		outputDir:       filepath.Clean(outputDir),
		baseURI:         base,
		configuredBase:  parsed,
		defaultLanguage: strings.ToLower(d.DefaultLanguage),
		clean:           d.CleanOutputDirectory,
		prefixes:        make(map[string]string, len(d.Prefixes)),
		exclude:         slices.Clone(d.ExcludeFiles),
		include:         slices.Clone(d.IncludeFiles),
		compress:        slices.Clone(d.CompressFiles),
		fileTypes:       make(map[string]string, len(d.FileTypes)),
	}

	endpoint := d.SPARQLEndpoint
	if endpoint == "" {
		endpoint = DefaultSPARQLEndpoint
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid SPARQLEndpoint %q: %w", endpoint, err)
	}
	s.endpoint = parsed.ResolveReference(ref)

	for _, prefix := range slices.Sorted(maps.Keys(d.Prefixes)) {
		ns, err := s.Resolve(d.Prefixes[prefix])
		if err != nil {
			return nil, fmt.Errorf("invalid namespace for prefix %q: %w", prefix, err)
		}
		s.prefixes[prefix] = ns
	}

	for ext, mime := range d.FileTypes {
		s.fileTypes[strings.ToLower(strings.TrimPrefix(ext, "."))] = mime
	}

	return s, nil
}

// checkInput verifies that dir is an existing directory holding a descriptor.
func checkInput(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrInputNotFound, dir)
	}
	path := filepath.Join(dir, DescriptorFileName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingDescriptor, path)
	}
	return path, nil
}
