package comb

import "fmt"

// ----------------------------------------------------------------------------
// General information

// This section contains the in-memory representation of a combinator file.
//
// A combinator file is the compiled output of a lazy functional language: one
// big applicative expression over a fixed set of primitives, flattened into a
// linear textual form. We keep the program "flat" after parsing: every
// expression lives in a dense pool ('Program.Body') and refers to its children
// by index, never by ownership. This is what makes sharing (and later on,
// cycles) representable without copying anything.

// Index of an expression inside 'Program.Body'.
type Index = int

// Label is the numeric name attached to a definition via the ':label' syntax.
type Label = int

// Sentinel values for "no index yet" and "no label attached".
const (
	NilIndex Index = -1
	NoLabel  Label = -1
)

// In-memory representation of a whole combinator file.
//
// The header carries a format version pair and the declared capacity of the
// definition table; everything else is the program itself.
type CombFile struct {
	Major, Minor int // Format version, as declared by the 'vM.m' header

	Size int // (Maximum) number of definitions in the program

	Program Program // The program embedded in the comb file
}

// A combinator program in flat form.
//
// 'Body' is populated in parse order, which is a post-order traversal of the
// source text: children of an application are pushed before the application
// itself. Note that 'Root' is not necessarily the last entry.
// 'Defs' maps each label to the index of its definition; every slot must be
// assigned by the time parsing completes.
type Program struct {
	Root Index   // The root combinator expression
	Body []Expr  // Map<Index, Expr>
	Defs []Index // Map<Label, Index>
}

// ----------------------------------------------------------------------------
// Expressions

// Just used to put together every expression variant in the same datatype,
// use a type switch to disambiguate (much like the instruction unions of a
// typical assembler IR).
type Expr interface{ fmt.Stringer }

// Application of two expressions, with a possible definition label:
// '(func [:label] arg)'. When 'Label' is not 'NoLabel' the argument becomes
// the target of every '_label' reference in the program.
type App struct {
	Fun   Index // The function being applied
	Label Label // Definition label, or 'NoLabel'
	Arg   Index // The argument it is applied to
}

// Integer literal, possibly negative: '#[-]int'.
type Int int64

// Floating point literal: '&float'.
type Float float64

// String literal: '"str"'. Carries arbitrary bytes; anything outside
// printable ASCII is escaped as '\DEC' in the textual form.
type String string

// Tick mark: '!"tick"'. Same payload rules as 'String'.
type Tick string

// FFI symbol: '^symbol'.
type Ffi string

// Reference to some labeled definition: '_label'.
type Ref Label

// Fixed size array of expressions: '[size e0 e1 ...]'. The declared size
// always equals len(Elems) once parsing has succeeded.
type Array struct {
	Size  int
	Elems []Index
}

// Unknown primitive-looking token, retained for diagnostics: '?!tok'.
// The parser never emits this for well-formed input.
type Unknown string

// ----------------------------------------------------------------------------
// Node labels

// The String methods below are deliberately *not* the round-trip form (see
// codegen.go for that): they are the compact per-node labels used when a
// single expression has to stand on its own, e.g. in logs, leaf reports, or
// a rendered graph. Interior variants collapse to a glyph since their
// children are not at hand here.

func (App) String() string       { return "@" }
func (Ref) String() string       { return "*" }
func (a Array) String() string   { return fmt.Sprintf("[%d]", a.Size) }
func (i Int) String() string     { return fmt.Sprintf("#%d", int64(i)) }
func (f Float) String() string   { return "&" + formatFloat(float64(f)) }
func (s String) String() string  { return `"` + escapeString(string(s)) + `"` }
func (t Tick) String() string    { return `!"` + escapeString(string(t)) + `"` }
func (f Ffi) String() string     { return "^" + string(f) }
func (u Unknown) String() string { return "?!" + string(u) }
