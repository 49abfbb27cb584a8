package sparql

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/rdfpub/generator/internal/store"
)

// column is the SQL for a variable's encoded value and its language tag.
type column struct {
	value    string
	lang     string
	nullable bool
}

type scope map[string]column

type valueKind int

const (
	kindTerm valueKind = iota
	kindLang
	kindBool
)

// translator turns a query into one SQL statement over the quads table.
// Parameters are numbered, so fragments may be built in any order.
type translator struct {
	args    []any
	aliases int
	bound   map[string]string
	terms   Bindings
}

func (q *Query) translate(b Bindings) (string, []any, error) {
	t := &translator{bound: make(map[string]string, len(b)), terms: b}
	for name, term := range b {
		v, err := store.EncodeTerm(term)
		if err != nil {
			return "", nil, fmt.Errorf("binding ?%s: %w", name, err)
		}
		t.bound[name] = v
	}

	local := make(scope)
	from, filters, err := t.group(q.where, local)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if q.distinct {
		sb.WriteString("DISTINCT ")
	}
	vars := q.Vars()
	if len(vars) == 0 {
		sb.WriteString("1 AS c0")
	}
	for i, name := range vars {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s AS c%d", t.varValue(name, local), i)
	}
	sb.WriteString(" FROM ")
	sb.WriteString(from)

	if len(filters) > 0 {
		conds := make([]string, 0, len(filters))
		for _, f := range filters {
			c, err := t.condition(f, local)
			if err != nil {
				return "", nil, err
			}
			conds = append(conds, c)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if len(q.order) > 0 {
		keys := make([]string, 0, len(q.order))
		for _, k := range q.order {
			s, _, err := t.expr(k.x, local)
			if err != nil {
				return "", nil, err
			}
			if k.desc {
				s += " DESC"
			}
			keys = append(keys, s)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(keys, ", "))
	}

	if q.limit >= 0 {
		sb.WriteString(" LIMIT " + strconv.FormatInt(q.limit, 10))
	}
	if q.offset >= 0 {
		if q.limit < 0 {
			sb.WriteString(" LIMIT -1")
		}
		sb.WriteString(" OFFSET " + strconv.FormatInt(q.offset, 10))
	}
	return sb.String(), t.args, nil
}

func (t *translator) param(v any) string {
	t.args = append(t.args, v)
	return "?" + strconv.Itoa(len(t.args))
}

func (t *translator) alias(prefix string) string {
	t.aliases++
	return prefix + strconv.Itoa(t.aliases-1)
}

func (t *translator) varValue(name string, sc scope) string {
	if v, ok := t.bound[name]; ok {
		return t.param(v)
	}
	if c, ok := sc[name]; ok {
		return c.value
	}
	return "NULL"
}

// group returns the FROM clause for g, recording the variables it binds in
// local. Filters of g are returned untranslated since they are evaluated
// against the enclosing scope.
func (t *translator) group(g *group, local scope) (string, []expr, error) {
	var b strings.Builder
	b.WriteString("(SELECT 1) AS " + t.alias("u"))

	for _, tp := range g.patterns {
		alias := t.alias("q")
		positions := []struct {
			n   *node
			col string
		}{{tp.graph, "g"}, {&tp.s, "s"}, {&tp.p, "p"}, {&tp.o, "o"}}

		var conds []string
		for _, pos := range positions {
			if pos.n == nil {
				continue
			}
			col := alias + "." + pos.col
			n := *pos.n
			switch {
			case n.kind == nodeConst:
				conds = append(conds, col+" = "+t.param(n.value))
			case t.isBound(n.name):
				conds = append(conds, col+" = "+t.param(t.bound[n.name]))
			default:
				if c, ok := local[n.name]; ok {
					conds = append(conds, c.value+" = "+col)
					continue
				}
				lang := "''"
				if pos.col == "o" {
					lang = alias + ".o_lang"
				}
				local[n.name] = column{value: col, lang: lang}
			}
		}
		fmt.Fprintf(&b, " INNER JOIN %s AS %s ON %s", store.QuadsTable, alias, andAll(conds))
	}

	for _, og := range g.optionals {
		inner := make(scope)
		from, filters, err := t.group(og, inner)
		if err != nil {
			return "", nil, err
		}

		alias := t.alias("o")
		names := slices.Sorted(maps.Keys(inner))
		cols := []string{"1 AS present"}
		var conds []string
		for i, name := range names {
			c := inner[name]
			cols = append(cols, fmt.Sprintf("%s AS v%d, %s AS l%d", c.value, i, c.lang, i))
			ref := column{
				value:    fmt.Sprintf("%s.v%d", alias, i),
				lang:     fmt.Sprintf("%s.l%d", alias, i),
				nullable: true,
			}
			prev, ok := local[name]
			switch {
			case !ok:
				local[name] = ref
			case prev.nullable:
				conds = append(conds, fmt.Sprintf("(%s IS NULL OR %s = %s)", prev.value, prev.value, ref.value))
				local[name] = column{
					value:    fmt.Sprintf("COALESCE(%s, %s)", prev.value, ref.value),
					lang:     fmt.Sprintf("COALESCE(%s, %s)", prev.lang, ref.lang),
					nullable: true,
				}
			default:
				conds = append(conds, prev.value+" = "+ref.value)
			}
		}

		for _, f := range filters {
			c, err := t.condition(f, local)
			if err != nil {
				return "", nil, err
			}
			conds = append(conds, c)
		}
		fmt.Fprintf(&b, " LEFT JOIN (SELECT %s FROM %s) AS %s ON %s",
			strings.Join(cols, ", "), from, alias, andAll(conds))
	}

	return b.String(), g.filters, nil
}

func (t *translator) isBound(name string) bool {
	_, ok := t.bound[name]
	return ok
}

func andAll(conds []string) string {
	if len(conds) == 0 {
		return "1"
	}
	return strings.Join(conds, " AND ")
}

func (t *translator) condition(x expr, sc scope) (string, error) {
	s, kind, err := t.expr(x, sc)
	if err != nil {
		return "", err
	}
	if kind != kindBool {
		return "", fmt.Errorf("%w: non-boolean filter expression", ErrUnsupported)
	}
	return s, nil
}

func (t *translator) expr(x expr, sc scope) (string, valueKind, error) {
	switch x := x.(type) {
	case varExpr:
		return t.varValue(x.name, sc), kindTerm, nil
	case constExpr:
		return t.param(x.value), kindTerm, nil
	case boolExpr:
		if x.value {
			return "1", kindBool, nil
		}
		return "0", kindBool, nil
	case notExpr:
		s, err := t.condition(x.x, sc)
		if err != nil {
			return "", 0, err
		}
		return "(NOT " + s + ")", kindBool, nil
	case binaryExpr:
		if x.op == "=" || x.op == "!=" {
			return t.compare(x.op == "!=", x.l, x.r, sc)
		}
		l, err := t.condition(x.l, sc)
		if err != nil {
			return "", 0, err
		}
		r, err := t.condition(x.r, sc)
		if err != nil {
			return "", 0, err
		}
		op := " AND "
		if x.op == "||" {
			op = " OR "
		}
		return "(" + l + op + r + ")", kindBool, nil
	case callExpr:
		return t.call(x, sc)
	}
	return "", 0, fmt.Errorf("%w: expression %T", ErrUnsupported, x)
}

func (t *translator) compare(negate bool, l, r expr, sc scope) (string, valueKind, error) {
	ls, lk, err := t.operand(l, r, sc)
	if err != nil {
		return "", 0, err
	}
	rs, rk, err := t.operand(r, l, sc)
	if err != nil {
		return "", 0, err
	}
	if lk != rk {
		return "", 0, fmt.Errorf("%w: comparison of mixed operand kinds", ErrUnsupported)
	}
	op := " = "
	if negate {
		op = " <> "
	}
	return "(" + ls + op + rs + ")", kindBool, nil
}

// operand translates x. A literal compared with LANG() compares by its
// lower-cased lexical form, matching the stored language column.
func (t *translator) operand(x, other expr, sc scope) (string, valueKind, error) {
	if call, ok := other.(callExpr); ok && call.fn == "LANG" {
		if lexical, ok := t.literalArg(x); ok {
			return t.param(strings.ToLower(lexical)), kindLang, nil
		}
	}
	return t.expr(x, sc)
}

// literalArg returns the lexical form of a literal constant or of a
// variable bound to a literal.
func (t *translator) literalArg(x expr) (string, bool) {
	switch x := x.(type) {
	case constExpr:
		return x.lexical, x.literal
	case varExpr:
		switch lit := t.terms[x.name].(type) {
		case rdf.Literal:
			return lit.Lexical, true
		case *rdf.Literal:
			return lit.Lexical, true
		}
	}
	return "", false
}

func (t *translator) call(x callExpr, sc scope) (string, valueKind, error) {
	switch x.fn {
	case "LANG":
		v, ok := x.args[0].(varExpr)
		if !ok {
			return "", 0, fmt.Errorf("%w: LANG of a non-variable", ErrUnsupported)
		}
		if term, ok := t.terms[v.name]; ok {
			return t.param(store.LanguageOf(term)), kindLang, nil
		}
		if c, ok := sc[v.name]; ok {
			return c.lang, kindLang, nil
		}
		return "NULL", kindLang, nil

	case "LANGMATCHES":
		tag, kind, err := t.expr(x.args[0], sc)
		if err != nil {
			return "", 0, err
		}
		rng, ok := t.literalArg(x.args[1])
		if kind != kindLang || !ok {
			return "", 0, fmt.Errorf("%w: LANGMATCHES needs LANG() and a literal range", ErrUnsupported)
		}
		r := strings.ToLower(rng)
		if r == "*" {
			return "(" + tag + " <> '')", kindBool, nil
		}
		return fmt.Sprintf("(%s = %s OR %s LIKE %s ESCAPE '\\')",
			tag, t.param(r), tag, t.param(escapeLike(r)+"-%")), kindBool, nil

	case "BOUND":
		v, ok := x.args[0].(varExpr)
		if !ok {
			return "", 0, fmt.Errorf("%w: BOUND of a non-variable", ErrMalformedQuery)
		}
		if t.isBound(v.name) {
			return "1", kindBool, nil
		}
		if c, ok := sc[v.name]; ok {
			return "(" + c.value + " IS NOT NULL)", kindBool, nil
		}
		return "0", kindBool, nil

	case "SAMETERM":
		return t.compare(false, x.args[0], x.args[1], sc)

	case "ISIRI", "ISURI", "ISLITERAL", "ISBLANK":
		s, kind, err := t.expr(x.args[0], sc)
		if err != nil {
			return "", 0, err
		}
		if kind != kindTerm {
			return "", 0, fmt.Errorf("%w: %s of a non-term", ErrUnsupported, x.fn)
		}
		switch x.fn {
		case "ISLITERAL":
			return "(" + s + ` LIKE '"%')`, kindBool, nil
		case "ISBLANK":
			return "(" + s + ` LIKE '\_:%' ESCAPE '\')`, kindBool, nil
		}
		return "(" + s + " LIKE '<%')", kindBool, nil
	}
	return "", 0, fmt.Errorf("%w: function %s", ErrUnsupported, x.fn)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
