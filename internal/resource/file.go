package resource

import (
	"path/filepath"
	"strings"
)

// Kind is the dispatch key every build concern switches on.
type Kind int

const (
	// KindStatic is any file not claimed by another kind; it is published as-is.
	KindStatic Kind = iota
	// KindRDF is an RDF document ingested into the resource's named graph.
	KindRDF
	// KindQuery is a SPARQL query made available to templates.
	KindQuery
	// KindTemplate is an index or partial template.
	KindTemplate
)

func (k Kind) String() string {
	switch k {
	case KindRDF:
		return "rdf"
	case KindQuery:
		return "query"
	case KindTemplate:
		return "template"
	default:
		return "static"
	}
}

var kinds = map[string]Kind{
	"ttl":        KindRDF,
	"nt":         KindRDF,
	"ntriples":   KindRDF,
	"rdf":        KindRDF,
	"rdfxml":     KindRDF,
	"json":       KindRDF,
	"jsonld":     KindRDF,
	"rq":         KindQuery,
	"sparql":     KindQuery,
	"hbs":        KindTemplate,
	"handlebars": KindTemplate,
	"html":       KindTemplate,
	"md":         KindTemplate,
}

// IndexName is the stem shared by all index templates.
const IndexName = "index"

// File is a single visited file decomposed by Classify.
type File struct {
	path      string
	name      string
	extension string
	language  string
	kind      Kind
}

// Classify decomposes the file at path. Only the base name is inspected.
func Classify(path string) *File {
	f := &File{path: path}
	base := filepath.Base(path)

	stem := base
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		stem = base[:i]
		f.extension = base[i+1:]
	}
	f.kind = kinds[strings.ToLower(f.extension)]

	f.name = stem
	if f.kind == KindTemplate {
		if lang, ok := strings.CutPrefix(stem, IndexName+"@"); ok {
			f.name = IndexName
			f.language = lang
		}
	}
	return f
}

// Path returns the path the file was classified from.
func (f *File) Path() string { return f.path }

// Name returns the stem with any index language suffix removed.
func (f *File) Name() string { return f.name }

// Extension returns the text after the last dot, or "" if there is none.
func (f *File) Extension() string { return f.extension }

// Language returns the index template language, or "" when unset.
func (f *File) Language() string { return f.language }

// SetLanguage sets the language, typically to apply the site default.
func (f *File) SetLanguage(lang string) { f.language = lang }

// Kind returns the dispatch kind derived from the extension.
func (f *File) Kind() Kind { return f.kind }

// IsTemplate reports whether the file is an index or partial template.
func (f *File) IsTemplate() bool { return f.kind == KindTemplate }

// IsIndexTemplate reports whether the file is an index template.
func (f *File) IsIndexTemplate() bool { return f.kind == KindTemplate && f.name == IndexName }

// FileName rebuilds the file name from its parts, including a defaulted language.
func (f *File) FileName() string {
	var b strings.Builder
	b.WriteString(f.name)
	if f.language != "" {
		b.WriteByte('@')
		b.WriteString(f.language)
	}
	if f.extension != "" {
		b.WriteByte('.')
		b.WriteString(f.extension)
	}
	return b.String()
}

func (f *File) String() string { return f.path }
