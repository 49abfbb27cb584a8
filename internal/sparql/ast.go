package sparql

import "strings"

type nodeKind int

const (
	nodeConst nodeKind = iota
	nodeVar
)

// node is a triple-pattern position: either a variable or an encoded term.
// Blank-node labels become variables named "_:label", which never appear in
// SELECT * projections.
type node struct {
	kind  nodeKind
	name  string
	value string
}

func (n node) hidden() bool { return n.kind == nodeVar && strings.HasPrefix(n.name, "_:") }

type triplePattern struct {
	graph   *node
	s, p, o node
}

type group struct {
	patterns  []triplePattern
	optionals []*group
	filters   []expr
}

type expr interface{ exprNode() }

type (
	varExpr struct{ name string }

	// constExpr carries both the encoded term and, for literals, the lexical
	// form used when comparing against lang().
	constExpr struct {
		value   string
		lexical string
		literal bool
	}

	boolExpr struct{ value bool }

	notExpr struct{ x expr }

	binaryExpr struct {
		op   string
		l, r expr
	}

	callExpr struct {
		fn   string
		args []expr
	}
)

func (varExpr) exprNode()    {}
func (constExpr) exprNode()  {}
func (boolExpr) exprNode()   {}
func (notExpr) exprNode()    {}
func (binaryExpr) exprNode() {}
func (callExpr) exprNode()   {}

type orderKey struct {
	x    expr
	desc bool
}

// vars appends the visible variables of g in order of first appearance.
func (g *group) vars(seen map[string]bool, out []string) []string {
	add := func(n node) {
		if n.kind == nodeVar && !n.hidden() && !seen[n.name] {
			seen[n.name] = true
			out = append(out, n.name)
		}
	}
	for _, tp := range g.patterns {
		if tp.graph != nil {
			add(*tp.graph)
		}
		add(tp.s)
		add(tp.p)
		add(tp.o)
	}
	for _, og := range g.optionals {
		out = og.vars(seen, out)
	}
	return out
}
