// Package rdfio reads RDF files into quads for a named graph and writes a
// graph back out in every published serialization.
package rdfio

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSyntax reports input that is not valid for its format.
	ErrSyntax = errors.New("invalid RDF syntax")
	// ErrUnsupportedFormat reports an extension with no RDF format.
	ErrUnsupportedFormat = errors.New("unsupported RDF format")
)

// Format names understood by Parse and Write.
const (
	Turtle   = "turtle"
	NTriples = "ntriples"
	RDFXML   = "rdfxml"
	JSONLD   = "jsonld"
)

var extensions = map[string]string{
	"ttl":      Turtle,
	"nt":       NTriples,
	"ntriples": NTriples,
	"rdf":      RDFXML,
	"rdfxml":   RDFXML,
	"json":     JSONLD,
	"jsonld":   JSONLD,
}

// FormatForExtension returns the format of a file extension, with or
// without its leading dot.
func FormatForExtension(ext string) (string, error) {
	f, ok := extensions[strings.ToLower(strings.TrimPrefix(ext, "."))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// OutputFile is one published serialization of a graph.
type OutputFile struct {
	Name   string
	Format string
}

// OutputFiles lists the files written for every graph, in rule order.
var OutputFiles = []OutputFile{
	{Name: "data.jsonld", Format: JSONLD},
	{Name: "data.nt", Format: NTriples},
	{Name: "data.rdf", Format: RDFXML},
	{Name: "data.ttl", Format: Turtle},
}
