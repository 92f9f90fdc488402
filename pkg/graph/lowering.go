package graph

import (
	"fmt"

	"gonum.org/v1/gonum/graph/multi"

	"github.com/j-hui/MicroHs/pkg/comb"
)

// ----------------------------------------------------------------------------
// Program Lowerer

// The Lowerer takes a flat 'comb.Program' and materializes it as a
// 'CombGraph' in a single pass over the body.
//
// The subtlety is forward references: the body is in post-order, but a
// reference can name a definition whose slot points at an index the pass has
// not reached yet (that is exactly how the source encodes cycles). The
// lowerer handles this with placeholders: a node is allocated the first
// time its index is mentioned, and its payload is filled in (back-patched)
// when the pass finally reaches that index.
type Lowerer struct {
	program *comb.Program

	g     *multi.DirectedGraph
	index []*Node // flat index -> allocated node, nil until first mention
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
func NewLowerer(p *comb.Program) Lowerer {
	return Lowerer{
		program: p,
		g:       multi.NewDirectedGraph(),
		index:   make([]*Node, len(p.Body)),
	}
}

// FromProgram lowers a program into its graph form and computes the per-node
// layout metadata. This is the one-stop entry point callers want.
func FromProgram(p *comb.Program) *CombGraph {
	l := NewLowerer(p)
	cg := l.Lower()
	buildMetadata(p, l.index)
	return cg
}

// Lower runs the lowering pass proper. Inconsistencies here (an out-of-range
// child index, an empty payload at the end) are parser bugs, not user
// errors, so they panic.
func (l *Lowerer) Lower() *CombGraph {
	cg := &CombGraph{g: l.g}

	for i, expr := range l.program.Body {
		this := l.ensure(i)
		this.Expr = expr // back-patch if 'this' was born as a placeholder

		switch e := expr.(type) {
		case comb.App:
			cg.addLine(this, l.ensure(e.Fun), FunEdge, 0)
			cg.addLine(this, l.ensure(e.Arg), ArgEdge, 1)
		case comb.Ref:
			cg.addLine(this, l.ensure(l.program.Defs[comb.Label(e)]), IndEdge, 0)
		case comb.Array:
			for ord, el := range e.Elems {
				cg.addLine(this, l.ensure(el), ArrEdge, ord)
			}
		}
	}

	for i, n := range l.index {
		if n != nil && n.Expr == nil {
			panic(fmt.Sprintf("graph: placeholder for index %d was never filled", i))
		}
	}

	cg.root = l.index[l.program.Root]
	if cg.root == nil {
		panic(fmt.Sprintf("graph: root index %d has no node", l.program.Root))
	}
	return cg
}

// ensure returns the node for a flat index, allocating a placeholder on
// first mention.
func (l *Lowerer) ensure(i comb.Index) *Node {
	if i < 0 || i >= len(l.index) {
		panic(fmt.Sprintf("graph: expression index %d outside of body", i))
	}
	if l.index[i] == nil {
		n := &Node{
			id:        l.g.NewNode().ID(),
			Reachable: true,         // reachable by construction
			Redex:     comb.NoPrim,  // assume irreducible at first
			Index:     i,
		}
		l.g.AddNode(n)
		l.index[i] = n
	}
	return l.index[i]
}
