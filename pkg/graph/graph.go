package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"

	"github.com/j-hui/MicroHs/pkg/comb"
)

// ----------------------------------------------------------------------------
// General information

// This section contains the graph-form representation of a combinator
// program.
//
// Where the flat 'comb.Program' encodes sharing by repeating indices, the
// graph materializes it: one node per flat index, with references resolved
// into real edges. That also makes cycles real: a definition whose body
// refers back to an enclosing application becomes an actual loop in the
// graph, which is why this sits on a directed *multigraph* with stable node
// identifiers (two parallel edges when a function is applied to itself,
// self-loops through indirections, and deletions that never renumber the
// survivors).

// The four flavors of edge in a combinator graph.
type EdgeKind uint8

const (
	FunEdge EdgeKind = iota // Application -> its function
	ArgEdge                 // Application -> its argument
	IndEdge                 // Reference -> its definition (transparent)
	ArrEdge                 // Array -> one of its elements, in order
)

func (k EdgeKind) String() string {
	switch k {
	case FunEdge:
		return "fun"
	case ArgEdge:
		return "arg"
	case IndEdge:
		return "ind"
	default:
		return "arr"
	}
}

// A single node of the combinator graph. Implements 'graph.Node' so it can
// be stored directly in the underlying multigraph.
//
// 'Reachable' and 'Redex' are flipped by the analysis passes (which require
// exclusive access to the graph); 'Index' remembers the flat origin of the
// node, and 'Meta' holds the layout hints computed at lowering time.
type Node struct {
	id int64

	Expr      comb.Expr // The expression this node was lowered from
	Reachable bool      // Set by 'Mark': a directed path from the root exists
	Redex     comb.Prim // The combinator this node is a redex site for, or 'comb.NoPrim'
	Index     comb.Index
	Meta      Metadata
}

func (n *Node) ID() int64 { return n.id }

// A labeled edge. Embedding 'multi.Line' keeps the unique line identifier
// the multigraph needs to hold parallel edges apart.
//
// 'Ordinal' is the edge's position among its siblings leaving the same node
// (fun before arg, array elements in element order). The multigraph itself
// answers queries in randomized map order, so this is what lets a reader
// recover the order the edges were emitted in.
type Line struct {
	multi.Line
	Kind    EdgeKind
	Ordinal int
}

// The graph form of a combinator program, plus its distinguished root.
type CombGraph struct {
	g    *multi.DirectedGraph
	root *Node
}

// Root returns the node corresponding to the program's root expression.
func (cg *CombGraph) Root() *Node { return cg.root }

// Nodes returns every node currently in the graph, ordered by identifier so
// that callers (and tests) see a deterministic view.
func (cg *CombGraph) Nodes() []*Node {
	var nodes []*Node
	it := cg.g.Nodes()
	for it.Next() {
		nodes = append(nodes, it.Node().(*Node))
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].id < nodes[j].id })
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (cg *CombGraph) NodeCount() int { return cg.g.Nodes().Len() }

// EdgeCount returns the number of (labeled, parallel counted) edges.
func (cg *CombGraph) EdgeCount() int {
	count := 0
	it := cg.g.Nodes()
	for it.Next() {
		count += len(cg.Outgoing(it.Node().(*Node)))
	}
	return count
}

// Outgoing returns every edge leaving 'n', in emission order: fun before
// arg for applications, element order for arrays.
func (cg *CombGraph) Outgoing(n *Node) []Line {
	var lines []Line
	succs := cg.g.From(n.id)
	for succs.Next() {
		ls := cg.g.Lines(n.id, succs.Node().ID())
		for ls.Next() {
			lines = append(lines, ls.Line().(Line))
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Ordinal < lines[j].Ordinal })
	return lines
}

// Incoming returns every edge arriving at 'n'.
func (cg *CombGraph) Incoming(n *Node) []Line {
	var lines []Line
	preds := cg.g.To(n.id)
	for preds.Next() {
		ls := cg.g.Lines(preds.Node().ID(), n.id)
		for ls.Next() {
			lines = append(lines, ls.Line().(Line))
		}
	}
	return lines
}

// Leaves returns the nodes with no outgoing edges (literals, primitives,
// foreign symbols and unknowns), ordered by identifier.
func (cg *CombGraph) Leaves() []*Node {
	var leaves []*Node
	it := cg.g.Nodes()
	for it.Next() {
		n := it.Node().(*Node)
		if cg.g.From(n.id).Len() == 0 {
			leaves = append(leaves, n)
		}
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].id < leaves[j].id })
	return leaves
}

// addLine attaches a new labeled edge from 'u' to 'v', with its position
// among the edges leaving 'u'.
func (cg *CombGraph) addLine(u, v *Node, kind EdgeKind, ordinal int) {
	cg.g.SetLine(Line{Line: cg.g.NewLine(u, v).(multi.Line), Kind: kind, Ordinal: ordinal})
}

var _ graph.Node = (*Node)(nil)
var _ graph.Line = Line{}
