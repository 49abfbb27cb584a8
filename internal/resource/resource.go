// Package resource models the addressable nodes of a published site and
// the files found in them.
package resource

import (
	"maps"
	"net/url"
	"path/filepath"
	"slices"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/rdfpub/generator/internal/config"
	"github.com/rdfpub/generator/internal/sparql"
)

// Output subdirectories of a build.
const (
	ResourcesDir = "resources"
	LayoutsDir   = "layouts"
)

// Resource is one directory of the input tree, identified by its URI.
// Two resources are equal when their URIs are equal.
type Resource struct {
	uri          *url.URL
	rel          string
	resourcePath string
	layoutPath   string

	hasData  bool
	queries  map[string]*sparql.Query
	indexes  map[string]*File
	partials map[string]*File
	prefixes map[string]string
}

// New creates the resource for the directory at rel, a path relative to the
// input directory ("." or "" for the root).
func New(s *config.Settings, rel string) *Resource {
	rel = filepath.ToSlash(filepath.Clean(rel))
	if rel == "." {
		rel = ""
	}

	base, _ := url.Parse(s.BaseURI())
	uri := base.ResolveReference(&url.URL{Path: rel})

	return &Resource{
		uri:          uri,
		rel:          rel,
		resourcePath: filepath.Join(s.OutputDir(), ResourcesDir, filepath.FromSlash(rel)),
		layoutPath:   filepath.Join(s.OutputDir(), LayoutsDir, filepath.FromSlash(rel)),
		queries:      make(map[string]*sparql.Query),
		indexes:      make(map[string]*File),
		partials:     make(map[string]*File),
		prefixes:     make(map[string]string),
	}
}

// URI returns the absolute URI of the resource.
func (r *Resource) URI() string { return r.uri.String() }

// IRI returns the URI as an RDF term.
func (r *Resource) IRI() rdf.IRI { return rdf.IRI{Value: r.URI()} }

// URIPath returns the path component of the URI, "/" for the root.
func (r *Resource) URIPath() string {
	if r.uri.Path == "" {
		return "/"
	}
	return r.uri.Path
}

// RelPath returns the slash-separated path relative to the input directory.
func (r *Resource) RelPath() string { return r.rel }

// IsRoot reports whether this is the root resource of the site.
func (r *Resource) IsRoot() bool { return r.URIPath() == "/" }

// Is reports whether the resource is identified by uri.
func (r *Resource) Is(uri string) bool { return r.URI() == uri }

// Equal reports whether both resources have the same URI.
func (r *Resource) Equal(other *Resource) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.URI() == other.URI()
}

// ResourcePath returns the output directory for published content.
func (r *Resource) ResourcePath() string { return r.resourcePath }

// LayoutPath returns the output directory for layout artifacts.
func (r *Resource) LayoutPath() string { return r.layoutPath }

// HasData reports whether RDF data has been ingested for the resource.
func (r *Resource) HasData() bool { return r.hasData }

// SetHasData sets the data flag.
func (r *Resource) SetHasData(v bool) { r.hasData = v }

// AddQuery registers q under name unless the name is taken.
// It reports whether q was registered.
func (r *Resource) AddQuery(name string, q *sparql.Query) bool {
	if _, ok := r.queries[name]; ok {
		return false
	}
	r.queries[name] = q
	return true
}

// Query returns the query registered under name.
func (r *Resource) Query(name string) (*sparql.Query, bool) {
	q, ok := r.queries[name]
	return q, ok
}

// QueryNames returns the registered query names in sorted order.
func (r *Resource) QueryNames() []string {
	return slices.Sorted(maps.Keys(r.queries))
}

// AddIndexTemplate records f as the index template for its language unless
// that language already has one. It reports whether f was recorded.
func (r *Resource) AddIndexTemplate(f *File) bool {
	if _, ok := r.indexes[f.Language()]; ok {
		return false
	}
	r.indexes[f.Language()] = f
	return true
}

// IndexTemplates returns the index templates ordered by language.
func (r *Resource) IndexTemplates() []*File {
	files := make([]*File, 0, len(r.indexes))
	for _, lang := range r.Languages() {
		files = append(files, r.indexes[lang])
	}
	return files
}

// Languages returns the sorted languages the resource has index templates for.
func (r *Resource) Languages() []string {
	return slices.Sorted(maps.Keys(r.indexes))
}

// HasLanguage reports whether an index template exists for lang.
func (r *Resource) HasLanguage(lang string) bool {
	_, ok := r.indexes[lang]
	return ok
}

// AddPartial registers f under its name unless the name is taken.
func (r *Resource) AddPartial(f *File) bool {
	return r.addPartial(f.Name(), f)
}

func (r *Resource) addPartial(name string, f *File) bool {
	if _, ok := r.partials[name]; ok {
		return false
	}
	r.partials[name] = f
	return true
}

// Partial returns the partial template registered under name.
func (r *Resource) Partial(name string) (*File, bool) {
	f, ok := r.partials[name]
	return f, ok
}

// PartialNames returns the registered partial names in sorted order.
func (r *Resource) PartialNames() []string {
	return slices.Sorted(maps.Keys(r.partials))
}

// HasLayout reports whether the resource owns partial templates or queries
// that descendants inherit.
func (r *Resource) HasLayout() bool {
	return len(r.partials) > 0 || len(r.queries) > 0
}

// Inherit copies the queries and partial templates of ancestor into r,
// keeping any name r already defines. It returns the number of entries added.
func (r *Resource) Inherit(ancestor *Resource) int {
	added := 0
	for name, q := range ancestor.queries {
		if r.AddQuery(name, q) {
			added++
		}
	}
	for name, f := range ancestor.partials {
		if r.addPartial(name, f) {
			added++
		}
	}
	return added
}

// AddPrefixes records namespace prefixes discovered in the resource's data.
// Later declarations of the same prefix replace earlier ones.
func (r *Resource) AddPrefixes(prefixes map[string]string) {
	maps.Copy(r.prefixes, prefixes)
}

// Prefixes returns a copy of the discovered prefixes.
func (r *Resource) Prefixes() map[string]string { return maps.Clone(r.prefixes) }

func (r *Resource) String() string { return r.URI() }
