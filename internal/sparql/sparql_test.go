package sparql

import (
	"bytes"
	"context"
	"testing"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdfpub/generator/internal/store"
	"github.com/rdfpub/generator/internal/vocab"
)

const rdfsLabel = "http://www.w3.org/2000/01/rdf-schema#label"

var (
	page  = rdf.IRI{Value: "https://example.org/page/"}
	other = rdf.IRI{Value: "https://example.org/other/"}
	label = rdf.IRI{Value: rdfsLabel}
	kind  = rdf.IRI{Value: "https://example.org/ns#Page"}
	typ   = rdf.IRI{Value: vocab.RDFType}
)

func setupStore(t *testing.T, quads ...rdf.Quad) *store.Store {
	t.Helper()
	s := store.New()
	require.NoError(t, s.Open(":memory:"))
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx *store.Tx) error {
		return tx.Add(ctx, quads...)
	}))
	return s
}

func siteStore(t *testing.T) *store.Store {
	return setupStore(t,
		rdf.Quad{S: page, P: label, O: rdf.Literal{Lexical: "Hello", Lang: "en"}, G: page},
		rdf.Quad{S: page, P: label, O: rdf.Literal{Lexical: "Hallo", Lang: "de"}, G: page},
		rdf.Quad{S: page, P: typ, O: kind, G: page},
		rdf.Quad{S: other, P: label, O: rdf.Literal{Lexical: "Other", Lang: "en"}, G: other},
		rdf.Quad{S: other, P: typ, O: kind, G: other},
	)
}

func evaluate(t *testing.T, s *store.Store, text string, b Bindings) *Results {
	t.Helper()
	q, err := Prepare(text, "https://example.org/")
	require.NoError(t, err)
	res, err := q.Evaluate(context.Background(), s, b)
	require.NoError(t, err)
	return res
}

func TestDeclaredPrefixes(t *testing.T) {
	text := `# leading comment
BASE <https://example.org/>
PREFIX ex: <https://example.org/ns#>
prefix : <https://example.org/default#>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT * WHERE { ?s ex:p ?o } PREFIX late: <urn:late#>`

	assert.Equal(t, map[string]bool{"ex": true, "": true, "rdfs": true}, DeclaredPrefixes(text))
	assert.Empty(t, DeclaredPrefixes("SELECT * WHERE { }"))
	assert.Equal(t, map[string]bool{"ex": true}, DeclaredPrefixes("PREFIX ex: <urn:ex#> PREFIX broken <urn:x>"))
}

func TestPreamble(t *testing.T) {
	prefixes := map[string]string{
		"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
		"ex":   "https://example.org/ns#",
		"dc":   "http://purl.org/dc/terms/",
	}

	got := Preamble(prefixes, "PREFIX ex: <urn:other#>\nSELECT * WHERE { ?s ?p ?o }")
	assert.Equal(t,
		"PREFIX dc: <http://purl.org/dc/terms/>\nPREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>\n",
		got)
	assert.Empty(t, Preamble(nil, "SELECT * WHERE { }"))
}

func TestPrepare_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  error
	}{
		{"empty", "", ErrMalformedQuery},
		{"unterminated group", "SELECT * WHERE { ?s ?p ?o", ErrMalformedQuery},
		{"undeclared prefix", "SELECT * WHERE { ?s ex:p ?o }", ErrMalformedQuery},
		{"unterminated string", `SELECT * WHERE { ?s ?p "abc }`, ErrMalformedQuery},
		{"missing projection", "SELECT WHERE { ?s ?p ?o }", ErrMalformedQuery},
		{"negative limit", "SELECT * WHERE { ?s ?p ?o } LIMIT -1", ErrMalformedQuery},
		{"missing dot", "SELECT * WHERE { ?s ?p ?o ?x ?y ?z }", ErrMalformedQuery},
		{"construct", "CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }", ErrUnsupported},
		{"ask", "ASK { ?s ?p ?o }", ErrUnsupported},
		{"union", "SELECT * WHERE { { ?s ?p ?o } UNION { ?o ?p ?s } }", ErrUnsupported},
		{"from", "SELECT * FROM <urn:g> WHERE { ?s ?p ?o }", ErrUnsupported},
		{"property path", "SELECT * WHERE { ?s <urn:p>/<urn:q> ?o }", ErrUnsupported},
		{"group by", "SELECT ?s WHERE { ?s ?p ?o } GROUP BY ?s", ErrUnsupported},
		{"ordering operator", "SELECT * WHERE { ?s ?p ?o FILTER(?o < 3) }", ErrUnsupported},
		{"regex", `SELECT * WHERE { ?s ?p ?o FILTER(REGEX(?o, "x")) }`, ErrUnsupported},
		{"blank node property list", "SELECT * WHERE { [ <urn:p> ?o ] }", ErrUnsupported},
		{"describe", "DESCRIBE <urn:s>", ErrUnsupported},
		{"minus", "SELECT * WHERE { ?s ?p ?o MINUS { ?s <urn:p> ?o } }", ErrUnsupported},
		{"values", "SELECT * WHERE { VALUES ?s { <urn:s> } ?s ?p ?o }", ErrUnsupported},
		{"subquery", "SELECT * WHERE { { SELECT ?s WHERE { ?s ?p ?o } } }", ErrUnsupported},
		{"str function", `SELECT * WHERE { ?s ?p ?o FILTER(STR(?o) = "x") }`, ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(tt.query, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPrepare_ResolvesIRIs(t *testing.T) {
	q, err := Prepare(`PREFIX ex: <ns#>
SELECT ?s WHERE { ?s a ex:Page ; <rel> "x"@EN-gb , 42 }`, "https://example.org/base/")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"ex": "https://example.org/base/ns#"}, q.Prefixes())
	require.Len(t, q.where.patterns, 3)
	assert.Equal(t, "<"+vocab.RDFType+">", q.where.patterns[0].p.value)
	assert.Equal(t, "<https://example.org/base/ns#Page>", q.where.patterns[0].o.value)
	assert.Equal(t, "<https://example.org/base/rel>", q.where.patterns[1].p.value)
	assert.Equal(t, `"x"@en-gb`, q.where.patterns[1].o.value)
	assert.Equal(t, `"42"^^<`+vocab.XSDInteger+`>`, q.where.patterns[2].o.value)
}

func TestQuery_Vars(t *testing.T) {
	q, err := Prepare("SELECT * WHERE { ?s ?p _:b . _:b ?q ?o OPTIONAL { ?s ?r ?extra } }", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"s", "p", "q", "o", "r", "extra"}, q.Vars())

	q, err = Prepare("SELECT ?o ?s WHERE { ?s ?p ?o }", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"o", "s"}, q.Vars())
}

func TestEvaluate_BoundResourceAndLanguage(t *testing.T) {
	s := siteStore(t)
	text := `PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT ?resource ?label WHERE {
  GRAPH ?resource { ?resource rdfs:label ?label }
  FILTER(lang(?label) = ?language)
}`

	res := evaluate(t, s, text, Bindings{
		"resource": page,
		"language": rdf.Literal{Lexical: "de"},
	})
	require.Equal(t, 1, res.Len())
	assert.Equal(t, []string{"resource", "label"}, res.Vars)
	assert.Equal(t, page, res.Solutions[0]["resource"])
	assert.Equal(t, rdf.Literal{Lexical: "Hallo", Lang: "de"}, res.Solutions[0]["label"])
}

func TestEvaluate_UnionDefaultGraph(t *testing.T) {
	s := siteStore(t)
	text := `SELECT ?s WHERE { ?s a <https://example.org/ns#Page> } ORDER BY ?s`

	res := evaluate(t, s, text, nil)
	require.Equal(t, 2, res.Len())
	assert.Equal(t, other, res.Solutions[0]["s"])
	assert.Equal(t, page, res.Solutions[1]["s"])
}

func TestEvaluate_Optional(t *testing.T) {
	s := siteStore(t)
	text := `PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT ?s ?label WHERE {
  ?s a <https://example.org/ns#Page>
  OPTIONAL { ?s rdfs:label ?label FILTER(langMatches(lang(?label), "de")) }
} ORDER BY ?s`

	res := evaluate(t, s, text, nil)
	require.Equal(t, 2, res.Len())
	assert.Equal(t, other, res.Solutions[0]["s"])
	assert.NotContains(t, res.Solutions[0], "label")
	assert.Equal(t, rdf.Literal{Lexical: "Hallo", Lang: "de"}, res.Solutions[1]["label"])
}

func TestEvaluate_Filters(t *testing.T) {
	s := siteStore(t)

	tests := []struct {
		name   string
		filter string
		want   int
	}{
		{"bound", "BOUND(?o)", 5},
		{"is iri", "isIRI(?o)", 2},
		{"is literal", "isLiteral(?o)", 3},
		{"is blank", "isBlank(?o)", 0},
		{"lang matches wildcard", `langMatches(lang(?o), "*")`, 3},
		{"not equal", `?o != "Other"@en && isLiteral(?o)`, 2},
		{"or", `?o = "Hello"@en || ?o = "Other"@en`, 2},
		{"negation", `!isLiteral(?o)`, 2},
		{"same term", `sameTerm(?s, <https://example.org/other/>)`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := evaluate(t, s, "SELECT ?s ?o WHERE { ?s ?p ?o FILTER("+tt.filter+") }", nil)
			assert.Equal(t, tt.want, res.Len())
		})
	}
}

func TestEvaluate_SolutionModifiers(t *testing.T) {
	g := rdf.IRI{Value: "https://example.org/list/"}
	second := rdf.IRI{Value: "https://example.org/copy/"}
	s := setupStore(t,
		rdf.Quad{S: g, P: label, O: rdf.Literal{Lexical: "a"}, G: g},
		rdf.Quad{S: g, P: label, O: rdf.Literal{Lexical: "b"}, G: g},
		rdf.Quad{S: g, P: label, O: rdf.Literal{Lexical: "c"}, G: g},
		rdf.Quad{S: g, P: label, O: rdf.Literal{Lexical: "c"}, G: second},
	)

	lexicals := func(res *Results) []string {
		var out []string
		for _, sol := range res.Solutions {
			out = append(out, sol["o"].(rdf.Literal).Lexical)
		}
		return out
	}

	res := evaluate(t, s, "SELECT ?o WHERE { ?s ?p ?o } ORDER BY DESC(?o) LIMIT 2", nil)
	assert.Equal(t, []string{"c", "c"}, lexicals(res))

	res = evaluate(t, s, "SELECT DISTINCT ?o WHERE { ?s ?p ?o } ORDER BY DESC(?o) LIMIT 2", nil)
	assert.Equal(t, []string{"c", "b"}, lexicals(res))

	res = evaluate(t, s, "SELECT DISTINCT ?o WHERE { ?s ?p ?o } ORDER BY ?o OFFSET 1", nil)
	assert.Equal(t, []string{"b", "c"}, lexicals(res))

	res = evaluate(t, s, "SELECT ?o WHERE { GRAPH <https://example.org/copy/> { ?s ?p ?o } }", nil)
	assert.Equal(t, []string{"c"}, lexicals(res))
}

func TestEvaluate_EmptyGroup(t *testing.T) {
	s := siteStore(t)
	res := evaluate(t, s, "SELECT * WHERE { }", nil)
	assert.Equal(t, 1, res.Len())
	assert.Empty(t, res.Vars)
}

func TestResults_WriteJSON(t *testing.T) {
	res := &Results{
		Vars: []string{"resource", "label", "n", "b"},
		Solutions: []Solution{
			{
				"resource": page,
				"label":    rdf.Literal{Lexical: "Hello", Lang: "en"},
				"n":        rdf.Literal{Lexical: "3", Datatype: rdf.IRI{Value: vocab.XSDInteger}},
				"b":        rdf.BlankNode{ID: "x1"},
			},
			{"label": rdf.Literal{Lexical: "plain", Datatype: rdf.IRI{Value: vocab.XSDString}}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, res.WriteJSON(&buf))
	assert.JSONEq(t, `{
  "head": {"vars": ["resource", "label", "n", "b"]},
  "results": {"bindings": [
    {
      "resource": {"type": "uri", "value": "https://example.org/page/"},
      "label": {"type": "literal", "value": "Hello", "xml:lang": "en"},
      "n": {"type": "literal", "value": "3", "datatype": "http://www.w3.org/2001/XMLSchema#integer"},
      "b": {"type": "bnode", "value": "x1"}
    },
    {"label": {"type": "literal", "value": "plain"}}
  ]}
}`, buf.String())

	buf.Reset()
	require.NoError(t, (&Results{}).WriteJSON(&buf))
	assert.JSONEq(t, `{"head": {"vars": []}, "results": {"bindings": []}}`, buf.String())
}
