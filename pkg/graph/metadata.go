package graph

import "github.com/j-hui/MicroHs/pkg/comb"

// ----------------------------------------------------------------------------
// Layout metadata

// Per-node layout hints, computed once at lowering time.
//
// These are hints, nothing more: a shared node is visited once per path and
// keeps whatever the last visitor wrote, so a renderer that needs a
// deterministic layering should compute its own.
type Metadata struct {
	Height int     // Leaves 0; parents take the max of their children (no per-level increment)
	Depth  int     // Distance to the root
	XPos   float64 // Horizontal slot: leaves count up from 1.0, parents average
}

// buildMetadata walks the flat program from the root, children before
// parents. References count as leaves of this walk (their indirection edge
// is a graph-level artifact), which is also what makes the recursion
// terminate on programs whose definitions loop back on themselves.
func buildMetadata(p *comb.Program, index []*Node) {
	xpos := 1.0

	var walk func(i comb.Index, depth int)
	walk = func(i comb.Index, depth int) {
		m := &index[i].Meta
		m.Depth = depth

		switch e := p.Body[i].(type) {
		case comb.App:
			walk(e.Fun, depth+1)
			walk(e.Arg, depth+1)
			fun, arg := &index[e.Fun].Meta, &index[e.Arg].Meta
			m.Height = max(fun.Height, arg.Height)
			m.XPos = (fun.XPos + arg.XPos) / 2
		case comb.Array:
			if len(e.Elems) == 0 {
				// An empty array sits on the leaf row and takes a slot.
				m.Height = 0
				m.XPos = xpos
				xpos += 1.0
				return
			}
			height, x := 0, 0.0
			for _, el := range e.Elems {
				walk(el, depth+1)
				height = max(height, index[el].Meta.Height)
				x += index[el].Meta.XPos
			}
			m.Height = height
			m.XPos = x / float64(len(e.Elems))
		default:
			m.Height = 0
			m.XPos = xpos
			xpos += 1.0
		}
	}

	walk(p.Root, 0)
}
