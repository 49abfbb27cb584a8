// Package sparql evaluates a subset of SPARQL 1.1 SELECT queries against
// the quads table of the content store.
//
// Supported: BASE and PREFIX declarations, SELECT [DISTINCT|REDUCED] with
// a variable list or *, basic graph patterns with ';' ',' and 'a', GRAPH,
// OPTIONAL, nested groups, FILTER over =, !=, &&, ||, !, LANG,
// LANGMATCHES, BOUND, SAMETERM, ISIRI, ISLITERAL and ISBLANK, and
// ORDER BY, LIMIT and OFFSET. Patterns outside GRAPH match the union of
// all graphs.
//
// Not supported: ASK, CONSTRUCT and DESCRIBE queries, FROM and FROM NAMED,
// UNION, MINUS, BIND, VALUES, SERVICE, subqueries, property paths, blank
// node property lists, GROUP BY, HAVING and aggregates, the ordering
// operators < <= > >=, arithmetic, and any function not listed above
// (REGEX, STR, CONTAINS and so on). Such queries fail with ErrUnsupported
// when they are prepared, never during evaluation.
package sparql

import (
	"context"
	"database/sql"
	"fmt"
	"maps"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/rdfpub/generator/internal/store"
)

// Source runs SQL against a database holding the quads table.
type Source interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Bindings fixes variables to terms before evaluation.
type Bindings map[string]rdf.Term

// Query is a prepared SELECT query. It is immutable and may be evaluated
// any number of times with different bindings.
type Query struct {
	text     string
	base     string
	prefixes map[string]string

	distinct bool
	star     bool
	vars     []string
	where    *group
	order    []orderKey
	limit    int64
	offset   int64
}

// Prepare parses text, resolving relative IRIs against base.
func Prepare(text, base string) (*Query, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedQuery, err)
	}

	p := &parser{toks: toks, prefixes: make(map[string]string)}
	if base != "" {
		p.base, err = parseBase(base)
		if err != nil {
			return nil, err
		}
	}

	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	q.text = text
	q.base = base
	return q, nil
}

// Text returns the query text as prepared.
func (q *Query) Text() string { return q.text }

// Base returns the base IRI the query was prepared with.
func (q *Query) Base() string { return q.base }

// Prefixes returns the prefixes declared by the query.
func (q *Query) Prefixes() map[string]string { return maps.Clone(q.prefixes) }

// Vars returns the projected variable names.
func (q *Query) Vars() []string {
	if q.star {
		return q.where.vars(make(map[string]bool), nil)
	}
	return append([]string(nil), q.vars...)
}

// Evaluate runs the query against src with b fixing variables.
func (q *Query) Evaluate(ctx context.Context, src Source, b Bindings) (*Results, error) {
	text, args, err := q.translate(b)
	if err != nil {
		return nil, err
	}

	rows, err := src.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	vars := q.Vars()
	res := &Results{Vars: vars}
	cols := make([]sql.NullString, len(vars))
	dest := make([]any, len(vars))
	for i := range cols {
		dest[i] = &cols[i]
	}
	if len(dest) == 0 {
		// an empty projection still selects one placeholder column
		dest = []any{new(any)}
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan solution: %w", err)
		}
		sol := make(Solution, len(vars))
		for i, col := range cols {
			if !col.Valid {
				continue
			}
			t, err := store.DecodeTerm(col.String)
			if err != nil {
				return nil, err
			}
			sol[vars[i]] = t
		}
		res.Solutions = append(res.Solutions, sol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read solutions: %w", err)
	}
	return res, nil
}
