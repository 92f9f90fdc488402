package comb

import (
	"fmt"
	"strconv"
	"strings"
)

// ----------------------------------------------------------------------------
// Textual round-trip

// This section turns a parsed program back into the same grammar it was
// parsed from. Printing follows the tree through 'Body' indices, so shared
// subterms are re-expanded at each occurrence; only an explicit ':label' in
// the source survives as sharing at the textual level.

// String emits the full file: header line, definition count, then the root
// expression.
func (c *CombFile) String() string {
	return fmt.Sprintf("v%d.%d\n%d\n%s", c.Major, c.Minor, c.Size, &c.Program)
}

// String emits the root expression in source syntax.
func (p *Program) String() string {
	var out strings.Builder
	p.writeExpr(&out, p.Root)
	return out.String()
}

// Recursive descent mirroring the grammar. In a parsed program, application
// children always have a smaller index than the application itself, and
// references are printed as
// '_label' without being followed, so this terminates even on programs whose
// graph form is cyclic.
func (p *Program) writeExpr(out *strings.Builder, idx Index) {
	switch e := p.Body[idx].(type) {
	case App:
		out.WriteByte('(')
		p.writeExpr(out, e.Fun)
		out.WriteByte(' ')
		if e.Label != NoLabel {
			fmt.Fprintf(out, ":%d ", e.Label)
		}
		p.writeExpr(out, e.Arg)
		out.WriteByte(')')
	case Array:
		fmt.Fprintf(out, "[%d", e.Size)
		for _, el := range e.Elems {
			out.WriteByte(' ')
			p.writeExpr(out, el)
		}
		out.WriteByte(']')
	case Ref:
		fmt.Fprintf(out, "_%d", Label(e))
	default:
		// Every leaf variant's node label is already its source form.
		out.WriteString(e.String())
	}
}

// escapeString renders a literal's payload byte-wise: printable ASCII other
// than '"' and '\' goes through verbatim, everything else (those two
// included) becomes a decimal escape, so the output always re-parses.
func escapeString(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= 0x20 && b <= 0x7e && b != '"' && b != '\\' {
			out.WriteByte(b)
		} else {
			fmt.Fprintf(&out, "\\%d", b)
		}
	}
	return out.String()
}

// formatFloat prints the shortest decimal form that round-trips, avoiding
// exponent notation so the output stays inside the '&double' grammar.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
