package graph

import (
	"fortio.org/log"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/j-hui/MicroHs/pkg/comb"
	"github.com/j-hui/MicroHs/pkg/utils"
)

// ----------------------------------------------------------------------------
// Reachability & GC

// Mark flags every node unreachable, then walks the graph depth-first from
// the root (following every edge flavor) flagging what it visits. Running it
// twice is the same as running it once.
func (cg *CombGraph) Mark() {
	it := cg.g.Nodes()
	for it.Next() {
		it.Node().(*Node).Reachable = false
	}

	dfs := traverse.DepthFirst{
		Visit: func(n graph.Node) { n.(*Node).Reachable = true },
	}
	dfs.Walk(cg.g, cg.root, nil)
}

// GC is the good old mark and sweep: everything 'Mark' cannot reach gets
// deleted. Surviving nodes keep their identifiers, and the storage itself is
// not reclaimed until the graph is dropped, an acceptable trade for a
// structure that only lives through compile-time analysis. Returns the
// number of nodes swept.
func (cg *CombGraph) GC() int {
	cg.Mark()

	var dead []int64
	it := cg.g.Nodes()
	for it.Next() {
		if n := it.Node().(*Node); !n.Reachable {
			dead = append(dead, n.id)
		}
	}
	for _, id := range dead {
		cg.g.RemoveNode(id)
	}

	log.Debugf("gc swept %d of %d nodes", len(dead), len(dead)+cg.g.Nodes().Len())
	return len(dead)
}

// ----------------------------------------------------------------------------
// Redex detection

// MarkRedexes finds the redex sites of the graph: for each leaf holding a
// combinator c, the application nodes sitting exactly arity(c) spine steps
// above it.
//
// The spine is climbed through incoming 'fun' edges. Incoming indirections
// are crossed transparently, to any depth: a reference node borrows its own
// parents' edges for the climb without consuming a spine step. Annotations
// are monotonic (never cleared here), so a second run is a no-op, and
// several leaves may annotate the same spine.
func (cg *CombGraph) MarkRedexes() {
	visited := make(map[int64]bool)

	for _, leaf := range cg.Leaves() {
		c, ok := leaf.Expr.(comb.Prim)
		if !ok || !c.IsCombinator() {
			continue
		}

		frontier := []*Node{leaf}
		for step := 0; step < c.Arity(); step++ {
			var above []*Node
			for _, n := range frontier {
				if visited[n.id] {
					continue
				}
				visited[n.id] = true

				pending := utils.NewStack(cg.Incoming(n)...)
				for pending.Count() > 0 {
					edge, _ := pending.Pop()
					switch edge.Kind {
					case FunEdge:
						above = append(above, edge.From().(*Node))
					case IndEdge:
						for _, borrowed := range cg.Incoming(edge.From().(*Node)) {
							pending.Push(borrowed)
						}
					}
				}
			}
			frontier = above
		}

		for _, n := range frontier {
			// No need to re-check visited here, the field is monotonic.
			log.Debugf("found redex for %s at node %d", c, n.id)
			n.Redex = c
		}
	}
}
