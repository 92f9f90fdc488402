package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-hui/MicroHs/pkg/comb"
	"github.com/j-hui/MicroHs/pkg/graph"
)

// A hand-built program with a tangle of body entries that the root never
// reaches (indices 1, 9, 11, 12, 14, 15).
func tangledProgram() *comb.Program {
	return &comb.Program{
		Root: 10,
		Body: []comb.Expr{
			/* 0 */ comb.Prim(comb.K4),
			/* 1 */ comb.Prim(comb.CCB),
			/* 2 */ comb.Prim(comb.IOBind),
			/* 3 */ comb.Int(-42),
			/* 4 */ comb.Float(-4.2),
			/* 5 */ comb.String("Hello world!\r\n"),
			/* 6 */ comb.Tick("Lyme's"),
			/* 7 */ comb.Ffi("fork"),
			/* 8 */ comb.Array{Size: 5, Elems: []comb.Index{3, 4, 5, 6, 7}},
			/* 9 */ comb.Ffi("unreachable"),
			/* 10 */ comb.App{Fun: 2, Label: 0, Arg: 13},
			/* 11 */ comb.App{Fun: 10, Label: comb.NoLabel, Arg: 14},
			/* 12 */ comb.App{Fun: 1, Label: comb.NoLabel, Arg: 2},
			/* 13 */ comb.App{Fun: 8, Label: comb.NoLabel, Arg: 0},
			/* 14 */ comb.App{Fun: 12, Label: comb.NoLabel, Arg: 15},
			/* 15 */ comb.Ref(0),
		},
		Defs: []comb.Index{13},
	}
}

func TestMarkAndSweep(t *testing.T) {
	g := graph.FromProgram(tangledProgram())
	require.Equal(t, 16, g.NodeCount())

	g.Mark()
	reachable := 0
	for _, n := range g.Nodes() {
		if n.Reachable {
			reachable++
		}
	}
	assert.Equal(t, 10, reachable)

	// Marking again changes nothing.
	g.Mark()
	again := 0
	for _, n := range g.Nodes() {
		if n.Reachable {
			again++
		}
	}
	assert.Equal(t, reachable, again)

	survivors := make(map[int64]bool)
	for _, n := range g.Nodes() {
		if n.Reachable {
			survivors[n.ID()] = true
		}
	}

	assert.Equal(t, 6, g.GC())
	require.Equal(t, 10, g.NodeCount())
	for _, n := range g.Nodes() {
		assert.True(t, n.Reachable)
		assert.True(t, survivors[n.ID()], "gc must not renumber survivors")
	}

	// GC is idempotent.
	assert.Zero(t, g.GC())
	assert.Equal(t, 10, g.NodeCount())
}

func TestRedexSpine(t *testing.T) {
	// K4 wants five arguments; this spine supplies exactly five, so the
	// outermost application is the redex site.
	f := mustParse(t, "v1.0\n0\n(((((K4 #1) #2) #3) #4) #5)")
	g := graph.FromProgram(&f.Program)
	g.MarkRedexes()

	var sites []*graph.Node
	for _, n := range g.Nodes() {
		if n.Redex != comb.NoPrim {
			sites = append(sites, n)
		}
	}
	require.Len(t, sites, 1)
	assert.Equal(t, comb.Prim(comb.K4), sites[0].Redex)
	assert.Equal(t, g.Root().ID(), sites[0].ID())
}

func TestRedexTooFewArguments(t *testing.T) {
	// One application above K4 is not enough for an arity of five.
	f := mustParse(t, "v6.19\n1\n(IO.>>= :0 ([5 #-42 &-4.2 \"Hello world!\\13\\10\" !\"Lyme's\" ^fork] K4))")
	g := graph.FromProgram(&f.Program)
	g.MarkRedexes()

	for _, n := range g.Nodes() {
		assert.Equal(t, comb.NoPrim, n.Redex, "node %d", n.ID())
	}
}

func TestRedexThroughIndirection(t *testing.T) {
	// K is defined once and applied through a reference; the climb crosses
	// the indirection without consuming a spine step.
	f := mustParse(t, "v1.0\n1\n((I :0 K) ((_0 #1) #2))")
	g := graph.FromProgram(&f.Program)
	g.MarkRedexes()

	sites := make(map[comb.Index]comb.Prim)
	for _, n := range g.Nodes() {
		if n.Redex != comb.NoPrim {
			sites[n.Index] = n.Redex
		}
	}

	// Body: I=0, K=1, (I :0 K)=2, _0=3, #1=4, (_0 #1)=5, #2=6,
	// ((_0 #1) #2)=7, root=8.
	require.Len(t, sites, 2)
	assert.Equal(t, comb.Prim(comb.I), sites[2])
	assert.Equal(t, comb.Prim(comb.K), sites[7])
}

func TestRedexMonotonic(t *testing.T) {
	f := mustParse(t, "v1.0\n1\n((I :0 K) ((_0 #1) #2))")
	g := graph.FromProgram(&f.Program)

	g.MarkRedexes()
	first := make(map[int64]comb.Prim)
	for _, n := range g.Nodes() {
		first[n.ID()] = n.Redex
	}

	g.MarkRedexes()
	for _, n := range g.Nodes() {
		assert.Equal(t, first[n.ID()], n.Redex, "node %d", n.ID())
	}
}

func TestLeavesReport(t *testing.T) {
	f := mustParse(t, "v1.0\n1\n((I :0 K) _0)")
	g := graph.FromProgram(&f.Program)
	g.Mark()

	leaves := g.Leaves()
	require.Len(t, leaves, 2)
	for _, n := range leaves {
		assert.True(t, n.Reachable)
		_, isPrim := n.Expr.(comb.Prim)
		assert.True(t, isPrim, "leaf %s", n.Expr)
	}
}
