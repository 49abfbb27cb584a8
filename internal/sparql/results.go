package sparql

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/rdfpub/generator/internal/vocab"
)

// Solution maps variable names to terms. Unbound variables are absent.
type Solution map[string]rdf.Term

// Results holds the solutions of one evaluation.
type Results struct {
	Vars      []string
	Solutions []Solution
}

// Len returns the number of solutions.
func (r *Results) Len() int { return len(r.Solutions) }

type jsonResults struct {
	Head    jsonHead     `json:"head"`
	Results jsonBindings `json:"results"`
}

type jsonHead struct {
	Vars []string `json:"vars"`
}

type jsonBindings struct {
	Bindings []map[string]jsonTerm `json:"bindings"`
}

type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// WriteJSON writes r in the SPARQL 1.1 Query Results JSON format.
func (r *Results) WriteJSON(w io.Writer) error {
	out := jsonResults{
		Head:    jsonHead{Vars: make([]string, 0, len(r.Vars))},
		Results: jsonBindings{Bindings: make([]map[string]jsonTerm, 0, len(r.Solutions))},
	}
	out.Head.Vars = append(out.Head.Vars, r.Vars...)

	for _, sol := range r.Solutions {
		row := make(map[string]jsonTerm, len(sol))
		for name, t := range sol {
			jt, err := toJSONTerm(t)
			if err != nil {
				return fmt.Errorf("failed to encode ?%s: %w", name, err)
			}
			row[name] = jt
		}
		out.Results.Bindings = append(out.Results.Bindings, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func toJSONTerm(t rdf.Term) (jsonTerm, error) {
	switch v := t.(type) {
	case rdf.IRI:
		return jsonTerm{Type: "uri", Value: v.Value}, nil
	case rdf.BlankNode:
		return jsonTerm{Type: "bnode", Value: v.ID}, nil
	case rdf.Literal:
		jt := jsonTerm{Type: "literal", Value: v.Lexical, Lang: v.Lang}
		if v.Lang == "" && v.Datatype.Value != vocab.XSDString {
			jt.Datatype = v.Datatype.Value
		}
		return jt, nil
	}
	return jsonTerm{}, fmt.Errorf("unsupported term kind %T", t)
}
