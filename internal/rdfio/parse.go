package rdfio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/google/uuid"

	"github.com/rdfpub/generator/internal/vocab"
)

// ParseOptions controls how a document is read.
type ParseOptions struct {
	// Base resolves relative IRIs in the document.
	Base string
	// Graph names the graph every statement is placed in.
	Graph rdf.Term
	// BlankNode returns a fresh blank-node label. Labels are scoped to one
	// document, so the same label in two files yields two nodes.
	BlankNode func() string
}

// Document is the result of parsing one file.
type Document struct {
	Quads    []rdf.Quad
	Prefixes map[string]string
}

var (
	turtlePrefix = regexp.MustCompile(`(?im)^[ \t]*(?:@prefix|prefix)[ \t]+([A-Za-z][\w.-]*)?:[ \t]*<([^>]*)>`)
	xmlnsPrefix  = regexp.MustCompile(`xmlns:([A-Za-z_][\w.-]*)[ \t\r\n]*=[ \t\r\n]*["']([^"']*)["']`)
)

// Parse reads a document of the given format. Failures to read r are
// returned as is; everything the parser rejects wraps ErrSyntax.
func Parse(ctx context.Context, r io.Reader, format string, opts ParseOptions) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var base *url.URL
	if opts.Base != "" {
		if base, err = url.Parse(opts.Base); err != nil {
			return nil, fmt.Errorf("invalid base IRI %q: %w", opts.Base, err)
		}
	}

	input := data
	anyOpts := rdf.AnyFormatOptions{}
	switch format {
	case Turtle:
		if opts.Base != "" {
			input = append([]byte("@base <"+opts.Base+"> .\n"), data...)
		}
	case JSONLD:
		anyOpts.JSONLD = &rdf.JSONLDOptions{Context: ctx, BaseIRI: opts.Base}
	case NTriples, RDFXML:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	quads, err := rdf.ParseAny(ctx, bytes.NewReader(input), format, anyOpts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	newBlank := opts.BlankNode
	if newBlank == nil {
		newBlank = NewBlankLabel
	}
	s := &scope{base: base, newBlank: newBlank, blanks: make(map[string]string)}
	for i := range quads {
		quads[i].S = s.term(quads[i].S)
		quads[i].P = s.iri(quads[i].P)
		quads[i].O = s.term(quads[i].O)
		quads[i].G = opts.Graph
	}

	return &Document{Quads: quads, Prefixes: s.prefixes(format, data)}, nil
}

// NewBlankLabel returns a random blank-node label that is also a valid XML
// name, so every output syntax can carry it.
func NewBlankLabel() string {
	return "b" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// scope rewrites terms of one document: relative IRIs are resolved and
// blank-node labels are replaced with fresh ones.
type scope struct {
	base     *url.URL
	newBlank func() string
	blanks   map[string]string
}

func (s *scope) iri(i rdf.IRI) rdf.IRI {
	if resolved, err := vocab.Resolve(s.base, i.Value); err == nil {
		i.Value = resolved
	}
	return i
}

func (s *scope) term(t rdf.Term) rdf.Term {
	switch v := t.(type) {
	case rdf.IRI:
		return s.iri(v)
	case *rdf.IRI:
		return s.iri(*v)
	case rdf.BlankNode:
		return s.blank(v)
	case *rdf.BlankNode:
		return s.blank(*v)
	case rdf.Literal:
		return s.literal(v)
	case *rdf.Literal:
		return s.literal(*v)
	case rdf.TripleTerm:
		v.S = s.term(v.S)
		v.P = s.iri(v.P)
		v.O = s.term(v.O)
		return v
	}
	return t
}

func (s *scope) literal(l rdf.Literal) rdf.Literal {
	if l.Datatype.Value != "" {
		l.Datatype = s.iri(l.Datatype)
	}
	return l
}

func (s *scope) blank(b rdf.BlankNode) rdf.BlankNode {
	label, ok := s.blanks[b.ID]
	if !ok {
		label = s.newBlank()
		s.blanks[b.ID] = label
	}
	return rdf.BlankNode{ID: label}
}

// prefixes returns the namespace declarations found in data.
func (s *scope) prefixes(format string, data []byte) map[string]string {
	found := make(map[string]string)
	add := func(prefix, ns string) {
		if resolved, err := vocab.Resolve(s.base, ns); err == nil {
			found[prefix] = resolved
		}
	}

	switch format {
	case Turtle:
		for _, m := range turtlePrefix.FindAllSubmatch(data, -1) {
			add(string(m[1]), string(m[2]))
		}
	case RDFXML:
		for _, m := range xmlnsPrefix.FindAllSubmatch(data, -1) {
			add(string(m[1]), string(m[2]))
		}
	case JSONLD:
		var doc struct {
			Context json.RawMessage `json:"@context"`
		}
		if json.Unmarshal(data, &doc) != nil {
			break
		}
		var ctx map[string]any
		if json.Unmarshal(doc.Context, &ctx) != nil {
			break
		}
		for key, v := range ctx {
			ns, ok := v.(string)
			if !ok || key == "" || key[0] == '@' {
				continue
			}
			if !strings.HasSuffix(ns, "/") && !strings.HasSuffix(ns, "#") {
				continue
			}
			if u, err := url.Parse(ns); err == nil && u.IsAbs() {
				add(key, ns)
			}
		}
	}
	return found
}
