package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/rdfpub/generator/internal/vocab"
)

// DefaultGraph is the encoded name of the default graph.
const DefaultGraph = ""

// EncodeTerm returns the canonical text form of t used in the quads table.
// IRIs are written <iri>, blank nodes _:id and literals as a Go-quoted
// lexical form followed by @lang or ^^<datatype>. Language tags are
// lower-cased and xsd:string is implied, so equal terms encode equally.
func EncodeTerm(t rdf.Term) (string, error) {
	switch v := t.(type) {
	case rdf.IRI:
		return "<" + v.Value + ">", nil
	case *rdf.IRI:
		return "<" + v.Value + ">", nil
	case rdf.BlankNode:
		return "_:" + v.ID, nil
	case *rdf.BlankNode:
		return "_:" + v.ID, nil
	case rdf.Literal:
		return encodeLiteral(v), nil
	case *rdf.Literal:
		return encodeLiteral(*v), nil
	case nil:
		return "", fmt.Errorf("cannot encode nil term")
	default:
		return "", fmt.Errorf("unsupported term kind %T", t)
	}
}

func encodeLiteral(l rdf.Literal) string {
	lexical := strconv.Quote(l.Lexical)
	switch {
	case l.Lang != "":
		return lexical + "@" + strings.ToLower(l.Lang)
	case l.Datatype.Value == "" || l.Datatype.Value == vocab.XSDString:
		return lexical
	default:
		return lexical + "^^<" + l.Datatype.Value + ">"
	}
}

// EncodeGraph encodes a graph name, mapping nil to the default graph.
func EncodeGraph(g rdf.Term) (string, error) {
	if g == nil {
		return DefaultGraph, nil
	}
	return EncodeTerm(g)
}

// DecodeTerm parses the output of EncodeTerm.
func DecodeTerm(s string) (rdf.Term, error) {
	switch {
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">"):
		return rdf.IRI{Value: s[1 : len(s)-1]}, nil
	case strings.HasPrefix(s, "_:"):
		return rdf.BlankNode{ID: s[2:]}, nil
	case strings.HasPrefix(s, `"`):
		quoted, err := strconv.QuotedPrefix(s)
		if err != nil {
			return nil, fmt.Errorf("malformed literal %q: %w", s, err)
		}
		lexical, err := strconv.Unquote(quoted)
		if err != nil {
			return nil, fmt.Errorf("malformed literal %q: %w", s, err)
		}
		lit := rdf.Literal{Lexical: lexical}
		switch rest := s[len(quoted):]; {
		case rest == "":
		case strings.HasPrefix(rest, "@"):
			lit.Lang = rest[1:]
		case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
			lit.Datatype = rdf.IRI{Value: rest[3 : len(rest)-1]}
		default:
			return nil, fmt.Errorf("malformed literal suffix in %q", s)
		}
		return lit, nil
	default:
		return nil, fmt.Errorf("malformed term %q", s)
	}
}

// LanguageOf returns the lower-cased language tag of a literal, or "".
func LanguageOf(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.Literal:
		return strings.ToLower(v.Lang)
	case *rdf.Literal:
		return strings.ToLower(v.Lang)
	}
	return ""
}
