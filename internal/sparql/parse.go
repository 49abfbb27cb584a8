package sparql

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/rdfpub/generator/internal/store"
	"github.com/rdfpub/generator/internal/vocab"
)

var (
	// ErrMalformedQuery reports query text that is not valid SPARQL.
	ErrMalformedQuery = errors.New("malformed query")
	// ErrUnsupported reports valid SPARQL outside the supported SELECT subset.
	ErrUnsupported = errors.New("unsupported query feature")
)

var builtins = map[string]int{
	"LANG":        1,
	"LANGMATCHES": 2,
	"BOUND":       1,
	"SAMETERM":    2,
	"ISIRI":       1,
	"ISURI":       1,
	"ISLITERAL":   1,
	"ISBLANK":     1,
}

var unsupportedKeywords = []string{
	"ASK", "CONSTRUCT", "DESCRIBE", "FROM", "UNION", "MINUS", "BIND", "VALUES",
	"SERVICE", "GROUP", "HAVING", "SELECT",
}

type parser struct {
	toks     []token
	pos      int
	base     *url.URL
	prefixes map[string]string
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(s string) bool {
	if p.peek().is(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(s string) error {
	if !p.accept(s) {
		return p.malformed("expected %q, found %s", s, p.peek())
	}
	return nil
}

func (p *parser) malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedQuery, fmt.Sprintf(format, args...))
}

func (p *parser) unsupported(t token) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, t)
}

func (p *parser) checkUnsupported() error {
	t := p.peek()
	for _, kw := range unsupportedKeywords {
		if t.is(kw) {
			return p.unsupported(t)
		}
	}
	return nil
}

func (p *parser) parseQuery() (*Query, error) {
	q := &Query{limit: -1, offset: -1}

	for {
		switch {
		case p.accept("BASE"):
			t := p.advance()
			if t.kind != tokIRI {
				return nil, p.malformed("expected IRI after BASE, found %s", t)
			}
			base, err := url.Parse(p.resolve(t.text))
			if err != nil {
				return nil, p.malformed("invalid BASE IRI %q", t.text)
			}
			p.base = base
			continue
		case p.accept("PREFIX"):
			name, iri := p.advance(), p.advance()
			if name.kind != tokPName || !strings.HasSuffix(name.text, ":") || strings.Count(name.text, ":") != 1 {
				return nil, p.malformed("expected prefix name, found %s", name)
			}
			if iri.kind != tokIRI {
				return nil, p.malformed("expected IRI for prefix %s, found %s", name.text, iri)
			}
			p.prefixes[strings.TrimSuffix(name.text, ":")] = p.resolve(iri.text)
			continue
		}
		break
	}
	q.prefixes = p.prefixes

	if !p.accept("SELECT") {
		if err := p.checkUnsupported(); err != nil {
			return nil, err
		}
		return nil, p.malformed("expected SELECT, found %s", p.peek())
	}
	switch {
	case p.accept("DISTINCT"):
		q.distinct = true
	case p.accept("REDUCED"):
	}

	if p.accept("*") {
		q.star = true
	} else {
		for p.peek().kind == tokVar {
			q.vars = append(q.vars, p.advance().text)
		}
		if p.peek().is("(") {
			return nil, p.unsupported(p.peek())
		}
		if len(q.vars) == 0 {
			return nil, p.malformed("expected projection, found %s", p.peek())
		}
	}

	if err := p.checkUnsupported(); err != nil {
		return nil, err
	}
	p.accept("WHERE")
	where, err := p.parseGroup(nil)
	if err != nil {
		return nil, err
	}
	q.where = where

	if err := p.parseModifiers(q); err != nil {
		return nil, err
	}
	if err := p.checkUnsupported(); err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.malformed("unexpected %s", t)
	}
	return q, nil
}

func (p *parser) parseModifiers(q *Query) error {
	if err := p.checkUnsupported(); err != nil {
		return err
	}
	if p.accept("ORDER") {
		if err := p.expect("BY"); err != nil {
			return err
		}
		for {
			key, ok, err := p.parseOrderKey()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			q.order = append(q.order, key)
		}
		if len(q.order) == 0 {
			return p.malformed("expected ORDER BY condition, found %s", p.peek())
		}
	}

	for {
		var target *int64
		switch {
		case p.accept("LIMIT"):
			target = &q.limit
		case p.accept("OFFSET"):
			target = &q.offset
		default:
			return nil
		}
		t := p.advance()
		n, err := strconv.ParseInt(t.text, 10, 64)
		if t.kind != tokNumber || err != nil || n < 0 {
			return p.malformed("expected non-negative integer, found %s", t)
		}
		*target = n
	}
}

func (p *parser) parseOrderKey() (orderKey, bool, error) {
	t := p.peek()
	switch {
	case t.is("ASC"), t.is("DESC"):
		p.advance()
		if err := p.expect("("); err != nil {
			return orderKey{}, false, err
		}
		x, err := p.parseExpr()
		if err != nil {
			return orderKey{}, false, err
		}
		if err := p.expect(")"); err != nil {
			return orderKey{}, false, err
		}
		return orderKey{x: x, desc: t.is("DESC")}, true, nil
	case t.kind == tokVar, t.is("("):
		x, err := p.parsePrimary()
		return orderKey{x: x}, err == nil, err
	case t.kind == tokWord:
		if _, ok := builtins[strings.ToUpper(t.text)]; ok {
			x, err := p.parsePrimary()
			return orderKey{x: x}, err == nil, err
		}
	}
	return orderKey{}, false, nil
}

func (p *parser) parseGroup(graph *node) (*group, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	g := &group{}
	for {
		t := p.peek()
		switch {
		case t.is("}"):
			p.advance()
			return g, nil
		case t.is("."):
			p.advance()
		case t.is("OPTIONAL"):
			p.advance()
			og, err := p.parseGroup(graph)
			if err != nil {
				return nil, err
			}
			g.optionals = append(g.optionals, og)
		case t.is("GRAPH"):
			p.advance()
			n, err := p.parseNode(posGraph)
			if err != nil {
				return nil, err
			}
			sub, err := p.parseGroup(&n)
			if err != nil {
				return nil, err
			}
			g.merge(sub)
		case t.is("FILTER"):
			p.advance()
			x, err := p.parseConstraint()
			if err != nil {
				return nil, err
			}
			g.filters = append(g.filters, x)
		case t.is("{"):
			sub, err := p.parseGroup(graph)
			if err != nil {
				return nil, err
			}
			if p.peek().is("UNION") {
				return nil, p.unsupported(p.peek())
			}
			g.merge(sub)
		case t.kind == tokEOF:
			return nil, p.malformed("unterminated group pattern")
		default:
			if err := p.checkUnsupported(); err != nil {
				return nil, err
			}
			if err := p.parseTriples(g, graph); err != nil {
				return nil, err
			}
		}
	}
}

func (g *group) merge(sub *group) {
	g.patterns = append(g.patterns, sub.patterns...)
	g.optionals = append(g.optionals, sub.optionals...)
	g.filters = append(g.filters, sub.filters...)
}

func (p *parser) parseTriples(g *group, graph *node) error {
	s, err := p.parseNode(posSubject)
	if err != nil {
		return err
	}
	for {
		pred, err := p.parseNode(posPredicate)
		if err != nil {
			return err
		}
		if t := p.peek(); t.is("/") || t.is("|") || t.is("^") || t.is("*") || t.is("+") {
			return p.unsupported(t)
		}
		for {
			o, err := p.parseNode(posObject)
			if err != nil {
				return err
			}
			g.patterns = append(g.patterns, triplePattern{graph: graph, s: s, p: pred, o: o})
			if !p.accept(",") {
				break
			}
		}
		if !p.accept(";") {
			break
		}
		for p.accept(";") {
		}
		if t := p.peek(); t.is(".") || t.is("}") {
			break
		}
	}

	if t := p.peek(); !t.is(".") && !t.is("}") && !t.is("{") && t.kind != tokWord {
		return p.malformed("expected '.', found %s", t)
	}
	return nil
}

type position int

const (
	posGraph position = iota
	posSubject
	posPredicate
	posObject
)

func (p *parser) parseNode(pos position) (node, error) {
	t := p.advance()
	switch {
	case t.kind == tokVar:
		return node{kind: nodeVar, name: t.text}, nil
	case t.kind == tokBlank && (pos == posSubject || pos == posObject):
		return node{kind: nodeVar, name: "_:" + t.text}, nil
	case t.kind == tokIRI, t.kind == tokPName:
		iri, err := p.iri(t)
		if err != nil {
			return node{}, err
		}
		return constNode(rdf.IRI{Value: iri})
	case pos == posPredicate && t.kind == tokWord && t.text == "a":
		return constNode(rdf.IRI{Value: vocab.RDFType})
	case pos == posObject:
		lit, ok, err := p.literal(t)
		if err != nil {
			return node{}, err
		}
		if ok {
			return constNode(lit)
		}
	}
	if t.is("[") || t.is("(") {
		return node{}, p.unsupported(t)
	}
	return node{}, p.malformed("unexpected %s", t)
}

func constNode(t rdf.Term) (node, error) {
	v, err := store.EncodeTerm(t)
	if err != nil {
		return node{}, err
	}
	return node{kind: nodeConst, value: v}, nil
}

// literal converts t (already consumed) and any trailing language tag or
// datatype into a literal.
func (p *parser) literal(t token) (rdf.Literal, bool, error) {
	switch t.kind {
	case tokString:
		lit := rdf.Literal{Lexical: t.text}
		switch {
		case p.peek().kind == tokLangTag:
			lit.Lang = strings.ToLower(p.advance().text)
		case p.accept("^^"):
			dt := p.advance()
			if dt.kind != tokIRI && dt.kind != tokPName {
				return rdf.Literal{}, false, p.malformed("expected datatype IRI, found %s", dt)
			}
			iri, err := p.iri(dt)
			if err != nil {
				return rdf.Literal{}, false, err
			}
			lit.Datatype = rdf.IRI{Value: iri}
		}
		return lit, true, nil
	case tokNumber:
		dt := vocab.XSDInteger
		switch {
		case strings.ContainsAny(t.text, "eE"):
			dt = vocab.XSDDouble
		case strings.Contains(t.text, "."):
			dt = vocab.XSDDecimal
		}
		return rdf.Literal{Lexical: t.text, Datatype: rdf.IRI{Value: dt}}, true, nil
	case tokWord:
		if t.text == "true" || t.text == "false" {
			return rdf.Literal{Lexical: t.text, Datatype: rdf.IRI{Value: vocab.XSDBoolean}}, true, nil
		}
	}
	return rdf.Literal{}, false, nil
}

func (p *parser) iri(t token) (string, error) {
	if t.kind == tokIRI {
		return p.resolve(t.text), nil
	}
	prefix, local, _ := strings.Cut(t.text, ":")
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", p.malformed("undeclared prefix %q", prefix)
	}
	return ns + local, nil
}

func (p *parser) resolve(ref string) string {
	resolved, err := vocab.Resolve(p.base, ref)
	if err != nil {
		return ref
	}
	return resolved
}

func (p *parser) parseConstraint() (expr, error) {
	t := p.peek()
	if t.is("(") || t.kind == tokWord {
		return p.parsePrimary()
	}
	return nil, p.malformed("expected constraint, found %s", t)
}

func (p *parser) parseExpr() (expr, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept("||") {
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = binaryExpr{op: "||", l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseAnd() (expr, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept("&&") {
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = binaryExpr{op: "&&", l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseUnary() (expr, error) {
	if p.accept("!") {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{x: x}, nil
	}
	return p.parseRelational()
}

func (p *parser) parseRelational() (expr, error) {
	l, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	switch t := p.peek(); {
	case t.is("="), t.is("!="):
		p.advance()
		r, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return binaryExpr{op: t.text, l: l, r: r}, nil
	case t.is("<"), t.is(">"), t.is("<="), t.is(">="), t.is("+"), t.is("-"), t.is("*"), t.is("/"):
		return nil, p.unsupported(t)
	}
	return l, nil
}

func (p *parser) parsePrimary() (expr, error) {
	t := p.advance()
	switch {
	case t.is("("):
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return x, nil
	case t.kind == tokVar:
		return varExpr{name: t.text}, nil
	case t.kind == tokIRI, t.kind == tokPName:
		if p.peek().is("(") {
			return nil, p.unsupported(t)
		}
		iri, err := p.iri(t)
		if err != nil {
			return nil, err
		}
		n, err := constNode(rdf.IRI{Value: iri})
		if err != nil {
			return nil, err
		}
		return constExpr{value: n.value}, nil
	case t.kind == tokWord && (t.text == "true" || t.text == "false"):
		return boolExpr{value: t.text == "true"}, nil
	case t.kind == tokWord:
		return p.parseCall(t)
	}

	lit, ok, err := p.literal(t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.malformed("unexpected %s in expression", t)
	}
	n, err := constNode(lit)
	if err != nil {
		return nil, err
	}
	return constExpr{value: n.value, lexical: lit.Lexical, literal: true}, nil
}

func (p *parser) parseCall(name token) (expr, error) {
	fn := strings.ToUpper(name.text)
	arity, ok := builtins[fn]
	if !ok {
		if p.peek().is("(") {
			return nil, p.unsupported(name)
		}
		return nil, p.malformed("unexpected %s in expression", name)
	}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var args []expr
	for !p.peek().is(")") {
		if len(args) > 0 {
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, x)
	}
	p.advance()
	if len(args) != arity {
		return nil, p.malformed("%s expects %d arguments, found %d", fn, arity, len(args))
	}
	return callExpr{fn: fn, args: args}, nil
}

func parseBase(base string) (*url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base IRI %q", ErrMalformedQuery, base)
	}
	return u, nil
}
