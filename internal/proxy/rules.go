package proxy

import (
	"fmt"
	"strings"

	"github.com/rdfpub/generator/internal/rdfio"
)

// Included configuration files.
const (
	staticConf   = "static.nginx.conf"
	langConf     = "lang.nginx.conf"
	endpointConf = "sparql-endpoint.nginx.conf"
	resourceConf = "resource.nginx.conf"
	indexConf    = "index-only.nginx.conf"
	dataConf     = "data-only.nginx.conf"
)

// staticRule serves one file as-is.
func staticRule(path, mimeType string, gzip bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "location = %s { ", path)
	if mimeType != "" {
		fmt.Fprintf(&b, "types { } default_type %s; ", mimeType)
	}
	if gzip {
		b.WriteString("gzip on; ")
	}
	fmt.Fprintf(&b, "include %s; }\n", staticConf)
	return b.String()
}

// dataRules serves every RDF representation of the resource at path.
func dataRules(path string) string {
	var b strings.Builder
	for _, out := range rdfio.OutputFiles {
		b.WriteString(staticRule(join(path, out.Name), "", false))
	}
	return b.String()
}

// languageRules serves the rendered page and the language redirect of one
// language.
func languageRules(path, lang string) string {
	return staticRule(join(path, "index@"+lang+".html"), "", false) +
		fmt.Sprintf("location = %s@%s { set $lang %q; set $target %q; include %s; }\n", path, lang, lang, path, langConf)
}

// resourceRule is the catch-all rule of the resource at path.
func resourceRule(path string, hasData, hasIndex, isEndpoint bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "location = %s { include ", path)
	if isEndpoint {
		fmt.Fprintf(&b, "%s; include ", endpointConf)
	}
	switch {
	case hasData && hasIndex:
		b.WriteString(resourceConf)
	case hasIndex:
		b.WriteString(indexConf)
	default:
		b.WriteString(dataConf)
	}
	b.WriteString("; }\n")
	return b.String()
}

// connegLine registers the languages of the resource at path. langs must
// already be sorted.
func connegLine(path string, langs []string) string {
	return fmt.Sprintf("  conneg.accept_language.register(\"languages%s\",\"%s\")\n", path, strings.Join(langs, ","))
}

// join appends name to the URI path, which is "/" for the root.
func join(path, name string) string {
	return strings.TrimSuffix(path, "/") + "/" + name
}
