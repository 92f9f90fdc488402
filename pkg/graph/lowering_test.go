package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-hui/MicroHs/pkg/comb"
	"github.com/j-hui/MicroHs/pkg/graph"
)

func mustParse(t *testing.T, src string) *comb.CombFile {
	t.Helper()
	f, err := comb.NewParser(strings.NewReader(src), "test.comb").Parse()
	require.NoError(t, err)
	return f
}

// kinds tallies the edge flavors in a slice of lines.
func kinds(lines []graph.Line) map[graph.EdgeKind]int {
	m := make(map[graph.EdgeKind]int)
	for _, l := range lines {
		m[l.Kind]++
	}
	return m
}

func TestGraphStructure(t *testing.T) {
	f := mustParse(t, "v6.19\n1\n(IO.>>= :0 ([5 #-42 &-4.2 \"Hello world!\\13\\10\" !\"Lyme's\" ^fork] K4))")
	g := graph.FromProgram(&f.Program)

	for _, n := range g.Nodes() {
		out := g.Outgoing(n)
		switch e := n.Expr.(type) {
		case comb.App:
			require.Len(t, out, 2, "application node %d", n.ID())
			assert.Equal(t, 1, kinds(out)[graph.FunEdge])
			assert.Equal(t, 1, kinds(out)[graph.ArgEdge])
		case comb.Array:
			require.Len(t, out, e.Size, "array node %d", n.ID())
			assert.Equal(t, e.Size, kinds(out)[graph.ArrEdge])
			// Element order must survive the trip through the multigraph.
			for ord, l := range out {
				assert.Equal(t, e.Elems[ord], l.To().(*graph.Node).Index,
					"array node %d, element %d", n.ID(), ord)
			}
		case comb.Ref:
			require.Len(t, out, 1, "reference node %d", n.ID())
			assert.Equal(t, 1, kinds(out)[graph.IndEdge])
		default:
			assert.Empty(t, out, "leaf node %d (%s)", n.ID(), n.Expr)
		}
	}

	// One node per flat index, each remembering where it came from.
	require.Equal(t, len(f.Program.Body), g.NodeCount())
	for _, n := range g.Nodes() {
		assert.Equal(t, f.Program.Body[n.Index], n.Expr)
	}

	assert.Len(t, g.Leaves(), 7)
	assert.Equal(t, f.Program.Body[f.Program.Root], g.Root().Expr)
}

func TestSharingThroughReference(t *testing.T) {
	f := mustParse(t, "v1.0\n1\n((I :0 K) _0)")
	g := graph.FromProgram(&f.Program)

	var labeled, ref *graph.Node
	for _, n := range g.Nodes() {
		switch e := n.Expr.(type) {
		case comb.App:
			if e.Label == 0 {
				labeled = n
			}
		case comb.Ref:
			ref = n
		}
	}
	require.NotNil(t, labeled)
	require.NotNil(t, ref)

	// The reference's indirection and the labeled application's argument
	// edge must land on the very same node.
	var argTarget, indTarget *graph.Node
	for _, l := range g.Outgoing(labeled) {
		if l.Kind == graph.ArgEdge {
			argTarget = l.To().(*graph.Node)
		}
	}
	for _, l := range g.Outgoing(ref) {
		if l.Kind == graph.IndEdge {
			indTarget = l.To().(*graph.Node)
		}
	}
	require.NotNil(t, argTarget)
	require.NotNil(t, indTarget)
	assert.Equal(t, argTarget.ID(), indTarget.ID())
	assert.Equal(t, comb.Prim(comb.K), indTarget.Expr)

	// Shared means more than one incoming edge.
	assert.Len(t, g.Incoming(indTarget), 2)
}

func TestCycleThroughLabel(t *testing.T) {
	// defs[0] is the application (K _0), whose argument refers back to the
	// application itself: a real cycle in the graph.
	f := mustParse(t, "v1.0\n1\n(Y :0 (K _0))")
	g := graph.FromProgram(&f.Program)

	require.Equal(t, 5, g.NodeCount())

	var ref *graph.Node
	for _, n := range g.Nodes() {
		if _, ok := n.Expr.(comb.Ref); ok {
			ref = n
		}
	}
	require.NotNil(t, ref)

	var inner *graph.Node
	for _, n := range g.Nodes() {
		if n.Index == f.Program.Defs[0] {
			inner = n
		}
	}
	require.NotNil(t, inner)
	_, isApp := inner.Expr.(comb.App)
	require.True(t, isApp)

	// inner -Arg-> ref -Ind-> inner closes the loop.
	foundArg, foundInd := false, false
	for _, l := range g.Outgoing(inner) {
		if l.Kind == graph.ArgEdge && l.To().ID() == ref.ID() {
			foundArg = true
		}
	}
	for _, l := range g.Outgoing(ref) {
		if l.Kind == graph.IndEdge && l.To().ID() == inner.ID() {
			foundInd = true
		}
	}
	assert.True(t, foundArg, "inner application should have an arg edge to the reference")
	assert.True(t, foundInd, "the reference should point back at the inner application")

	// Both traversal passes must terminate on the cycle, and the cycle is
	// reachable so nothing is swept.
	g.Mark()
	for _, n := range g.Nodes() {
		assert.True(t, n.Reachable, "node %d", n.ID())
	}
	assert.Zero(t, g.GC())
	assert.Equal(t, 5, g.NodeCount())
}

func TestSelfApplication(t *testing.T) {
	// (x x) with both children the same expression index is two parallel
	// edges between the same pair of nodes.
	f := &comb.Program{
		Root: 1,
		Body: []comb.Expr{
			comb.Prim(comb.I),
			comb.App{Fun: 0, Label: comb.NoLabel, Arg: 0},
		},
	}
	g := graph.FromProgram(f)

	require.Equal(t, 2, g.NodeCount())
	out := g.Outgoing(g.Root())
	require.Len(t, out, 2)
	assert.Equal(t, 1, kinds(out)[graph.FunEdge])
	assert.Equal(t, 1, kinds(out)[graph.ArgEdge])
	assert.Equal(t, out[0].To().ID(), out[1].To().ID())
}

func TestMetadata(t *testing.T) {
	f := mustParse(t, "v1.0\n0\n((S K) #1)")
	g := graph.FromProgram(&f.Program)

	byIndex := make(map[comb.Index]*graph.Node)
	for _, n := range g.Nodes() {
		byIndex[n.Index] = n
	}

	// Body: S=0, K=1, (S K)=2, #1=3, root=4.
	root, inner := byIndex[4], byIndex[2]
	s, k, one := byIndex[0], byIndex[1], byIndex[3]

	assert.Equal(t, 0, root.Meta.Depth)
	assert.Equal(t, 1, inner.Meta.Depth)
	assert.Equal(t, 2, s.Meta.Depth)
	assert.Equal(t, 2, k.Meta.Depth)
	assert.Equal(t, 1, one.Meta.Depth)

	// Leaves take increasing slots in visit order; parents average.
	assert.Equal(t, 1.0, s.Meta.XPos)
	assert.Equal(t, 2.0, k.Meta.XPos)
	assert.Equal(t, 3.0, one.Meta.XPos)
	assert.Equal(t, 1.5, inner.Meta.XPos)
	assert.Equal(t, 2.25, root.Meta.XPos)

	// Heights: leaves are 0, parents take the max of their children.
	assert.Equal(t, 0, s.Meta.Height)
	assert.Equal(t, 0, inner.Meta.Height)
	assert.Equal(t, 0, root.Meta.Height)
}
