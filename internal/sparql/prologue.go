package sparql

import (
	"maps"
	"slices"
	"strings"
)

// DeclaredPrefixes returns the namespace prefixes declared in the prologue
// of a query. Scanning stops at the first token that is not part of a BASE
// or PREFIX declaration, so a query that fails to parse later still reports
// what it declared up front.
func DeclaredPrefixes(text string) map[string]bool {
	declared := make(map[string]bool)
	l := &lexer{src: text}
	for {
		tok, err := l.next()
		if err != nil {
			return declared
		}
		switch {
		case tok.is("BASE"):
			if next, err := l.next(); err != nil || next.kind != tokIRI {
				return declared
			}
		case tok.is("PREFIX"):
			name, err := l.next()
			if err != nil || name.kind != tokPName || !strings.HasSuffix(name.text, ":") {
				return declared
			}
			if iri, err := l.next(); err != nil || iri.kind != tokIRI {
				return declared
			}
			declared[strings.TrimSuffix(name.text, ":")] = true
		default:
			return declared
		}
	}
}

// Preamble returns PREFIX declarations for every entry of prefixes that
// text does not declare itself, sorted by prefix.
func Preamble(prefixes map[string]string, text string) string {
	declared := DeclaredPrefixes(text)
	var b strings.Builder
	for _, prefix := range slices.Sorted(maps.Keys(prefixes)) {
		if declared[prefix] {
			continue
		}
		b.WriteString("PREFIX ")
		b.WriteString(prefix)
		b.WriteString(": <")
		b.WriteString(prefixes[prefix])
		b.WriteString(">\n")
	}
	return b.String()
}
