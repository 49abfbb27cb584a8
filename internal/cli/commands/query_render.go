package commands

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rdfpub/generator/internal/sparql"
	"github.com/rdfpub/generator/internal/store"
)

func checkFormat(format string) error {
	switch format {
	case "table", "json", "csv":
		return nil
	}
	return fmt.Errorf("invalid format %q (want table, json or csv)", format)
}

func renderResults(w io.Writer, results *sparql.Results, format string) error {
	switch format {
	case "json":
		return results.WriteJSON(w)
	case "csv":
		return renderCSV(w, results)
	default:
		return renderTable(w, results)
	}
}

func renderTable(w io.Writer, results *sparql.Results) error {
	if results.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(results.Vars))
	for i, v := range results.Vars {
		header[i] = v
	}
	t.AppendHeader(header)

	for _, sol := range results.Solutions {
		row := make(table.Row, len(results.Vars))
		for i, v := range results.Vars {
			row[i] = formatTerm(sol[v])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", results.Len())
	return nil
}

func renderCSV(w io.Writer, results *sparql.Results) error {
	_, _ = fmt.Fprintln(w, strings.Join(results.Vars, ","))

	for _, sol := range results.Solutions {
		values := make([]string, len(results.Vars))
		for i, v := range results.Vars {
			values[i] = escapeCSV(plainValue(sol[v]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

// formatTerm renders a term in N-Triples notation. Unbound is empty.
func formatTerm(t rdf.Term) string {
	if t == nil {
		return ""
	}
	s, err := store.EncodeTerm(t)
	if err != nil {
		return fmt.Sprintf("%v", t)
	}
	return s
}

// plainValue renders the lexical value of a term as SPARQL CSV results do.
func plainValue(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.IRI:
		return v.Value
	case rdf.BlankNode:
		return "_:" + v.ID
	case rdf.Literal:
		return v.Lexical
	case nil:
		return ""
	default:
		return formatTerm(t)
	}
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func listPrefixes(ctx context.Context, w io.Writer, st *store.Store) error {
	ns, err := st.Namespaces(ctx)
	if err != nil {
		return err
	}
	if len(ns) == 0 {
		_, _ = fmt.Fprintln(w, "(no prefixes)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Prefix", "Namespace"})
	for _, prefix := range slices.Sorted(maps.Keys(ns)) {
		t.AppendRow(table.Row{prefix, ns[prefix]})
	}
	t.Render()
	return nil
}

func listGraphs(ctx context.Context, w io.Writer, st *store.Store) error {
	graphs, err := st.Graphs(ctx)
	if err != nil {
		return err
	}
	if len(graphs) == 0 {
		_, _ = fmt.Fprintln(w, "(no graphs)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Graph", "Triples"})
	for _, g := range graphs {
		n, err := st.Count(ctx, rdf.IRI{Value: g})
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{g, n})
	}
	t.Render()
	return nil
}
