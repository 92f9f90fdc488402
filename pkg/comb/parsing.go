package comb

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"fortio.org/log"
	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the terminals for every lexeme of the comb file
// grammar. Whitespace is insignificant between tokens (the terminals skip it
// themselves), and each sigil'd literal is lexed as a single token so that
// the terminal's position doubles as the byte offset for error reporting.
//
// The primitive token is the catch-all: the longest run over the primitive
// alphabet. Lexing maximal runs is what gives longest-match semantics for
// primitives ("S'" is one token, never "S" followed by a stray quote).

var (
	pVersion = pc.Token(`v[0-9]+\.[0-9]+`, "VERSION")
	pUint    = pc.Token(`[0-9]+`, "UINT")
	pInt     = pc.Token(`#-?[0-9]+`, "INT")
	pFloat   = pc.Token(`&-?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?`, "FLOAT")
	pRef     = pc.Token(`_[0-9]+`, "REF")
	pString  = pc.Token(`"(\\[0-9]+|[^"\\])*"`, "STRING")
	pTick    = pc.Token(`!"(\\[0-9]+|[^"\\])*"`, "TICK")
	pFfi     = pc.Token(`\^[0-9A-Za-z]+`, "FFI")
	pPrimTok = pc.Token(`[0-9A-Za-z'.+\-*/=<>&|!]+`, "PRIM")
	pDefine  = pc.Token(`:[0-9]+`, "LABEL")

	pLParen = pc.Atom("(", "LPAREN")
	pRParen = pc.Atom(")", "RPAREN")
	pLBrack = pc.Atom("[", "LBRACK")
	pRBrack = pc.Atom("]", "RBRACK")
)

// ----------------------------------------------------------------------------
// Parse errors

// ErrorKind partitions everything that can go wrong while parsing.
type ErrorKind uint8

const (
	LexicalError    ErrorKind = iota // Input matches no 'expr' production
	NumericError                     // Number or escape out of range
	ArrayMismatch                    // Declared array size != element count
	UnresolvedLabel                  // Label out of range, or slot never assigned
	TrailingInput                    // Non-whitespace content after the root
)

func (k ErrorKind) String() string {
	switch k {
	case LexicalError:
		return "lexical error"
	case NumericError:
		return "numeric error"
	case ArrayMismatch:
		return "array size mismatch"
	case UnresolvedLabel:
		return "unresolved label"
	case TrailingInput:
		return "trailing input"
	default:
		return "parse error"
	}
}

// ParseError reports the first failure encountered, with the byte offset at
// which it was detected and the (optional) name of the input it came from.
type ParseError struct {
	Kind   ErrorKind
	Offset int
	File   string
	Msg    string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: offset %d: %s: %s", e.File, e.Offset, e.Kind, e.Msg)
	}
	return fmt.Sprintf("offset %d: %s: %s", e.Offset, e.Kind, e.Msg)
}

// ----------------------------------------------------------------------------
// Comb file Parser

// The Parser reads a whole comb file and produces its flat in-memory form.
//
// The grammar is recursive, and the flat 'Program' is built by side effect:
// on completion of each expression the parser pushes it into 'Body' and hands
// the new index to the enclosing production. The resulting body order is a
// post-order traversal of the source text. Terminals come from the parser
// combinator library above; the recursive structure is driven by hand over
// its Scanner, since the grammar threads state (the body pool, the
// definition table, strict array counts) through every production.
type Parser struct {
	reader io.Reader
	name   string
}

// Initializes and returns to the caller a brand new 'Parser' struct.
// The 'name' argument only labels errors (usually the file name); it can be
// left empty.
func NewParser(r io.Reader, name string) Parser {
	return Parser{reader: r, name: name}
}

// Parse consumes the whole input and returns the parsed comb file, or the
// first error encountered (a '*ParseError' for anything grammar-related).
func (p Parser) Parse() (*CombFile, error) {
	src, err := io.ReadAll(p.reader)
	if err != nil {
		return nil, fmt.Errorf("cannot read from 'io.Reader': %w", err)
	}

	run := &parseRun{src: src, file: p.name, prog: &Program{Root: NilIndex}}
	cf := run.parseFile(pc.NewScanner(src))
	if run.err != nil {
		return nil, run.err
	}
	return cf, nil
}

// parseRun is the mutable state threaded through one parse: the raw input
// (for single-byte dispatch), the program under construction, and the first
// error raised. Once 'err' is set every production bails out immediately.
type parseRun struct {
	src  []byte
	file string
	prog *Program
	err  *ParseError
}

func (r *parseRun) fail(offset int, kind ErrorKind, msg string) {
	if r.err == nil {
		r.err = &ParseError{Kind: kind, Offset: offset, File: r.file, Msg: msg}
	}
}

// failAt reports at the scanner's cursor, past any leading whitespace.
func (r *parseRun) failAt(s pc.Scanner, kind ErrorKind, msg string) {
	_, s = s.SkipWS()
	r.fail(s.GetCursor(), kind, msg)
}

// push appends a completed expression and returns its (new) index.
func (r *parseRun) push(e Expr) Index {
	r.prog.Body = append(r.prog.Body, e)
	return len(r.prog.Body) - 1
}

// file := "v" uint "." uint  uint  expr
func (r *parseRun) parseFile(s pc.Scanner) *CombFile {
	node, s := pVersion(s)
	if node == nil {
		r.failAt(s, LexicalError, "expected version header 'vMAJOR.MINOR'")
		return nil
	}
	version := node.(*pc.Terminal).Value
	dot := strings.IndexByte(version, '.')
	major, _ := strconv.Atoi(version[1:dot])
	minor, _ := strconv.Atoi(version[dot+1:])

	node, s = pUint(s)
	if node == nil {
		r.failAt(s, LexicalError, "expected definition count after version header")
		return nil
	}
	sizeTok := node.(*pc.Terminal)
	size, err := strconv.Atoi(sizeTok.Value)
	if err != nil {
		r.fail(sizeTok.Position, NumericError, "definition count out of range")
		return nil
	}

	r.prog.Defs = make([]Index, size)
	for i := range r.prog.Defs {
		r.prog.Defs[i] = NilIndex
	}

	root, s := r.expr(s)
	if r.err != nil {
		return nil
	}
	r.prog.Root = root

	_, s = s.SkipWS()
	if !s.Endof() {
		r.fail(s.GetCursor(), TrailingInput, "unexpected content after the root expression")
		return nil
	}

	for label, def := range r.prog.Defs {
		if def == NilIndex {
			r.fail(len(r.src), UnresolvedLabel, fmt.Sprintf("label %d is never defined", label))
			return nil
		}
	}

	return &CombFile{Major: major, Minor: minor, Size: size, Program: *r.prog}
}

// expr := app | array | float | int | ref | string | tick | ffi | prim
//
// Dispatch happens on the first significant byte; only '&' (float vs. a
// primitive like "&&") and '!' (tick vs. a primitive starting with '!') need
// a speculative match with fallback to the primitive token run.
func (r *parseRun) expr(s pc.Scanner) (Index, pc.Scanner) {
	if r.err != nil {
		return NilIndex, s
	}
	_, s = s.SkipWS()
	if s.Endof() {
		r.fail(s.GetCursor(), LexicalError, "unexpected end of input, expected an expression")
		return NilIndex, s
	}

	switch r.src[s.GetCursor()] {
	case '(':
		return r.app(s)
	case '[':
		return r.array(s)
	case '#':
		node, s2 := pInt(s)
		if node == nil {
			r.failAt(s, LexicalError, "expected digits after '#'")
			return NilIndex, s
		}
		t := node.(*pc.Terminal)
		v, err := strconv.ParseInt(t.Value[1:], 10, 64)
		if err != nil {
			r.fail(t.Position, NumericError, fmt.Sprintf("integer literal %s out of range", t.Value[1:]))
			return NilIndex, s2
		}
		return r.push(Int(v)), s2
	case '_':
		node, s2 := pRef(s)
		if node == nil {
			r.failAt(s, LexicalError, "expected a label after '_'")
			return NilIndex, s
		}
		t := node.(*pc.Terminal)
		label, err := strconv.Atoi(t.Value[1:])
		if err != nil || label >= len(r.prog.Defs) {
			r.fail(t.Position, UnresolvedLabel,
				fmt.Sprintf("reference to label %s outside of [0, %d)", t.Value[1:], len(r.prog.Defs)))
			return NilIndex, s2
		}
		return r.push(Ref(label)), s2
	case '"':
		node, s2 := pString(s)
		if node == nil {
			r.failAt(s, LexicalError, "malformed string literal")
			return NilIndex, s
		}
		t := node.(*pc.Terminal)
		decoded, perr := decodeLiteral(t.Value, t.Position)
		if perr != nil {
			perr.File = r.file
			if r.err == nil {
				r.err = perr
			}
			return NilIndex, s2
		}
		return r.push(String(decoded)), s2
	case '^':
		node, s2 := pFfi(s)
		if node == nil {
			r.failAt(s, LexicalError, "expected an identifier after '^'")
			return NilIndex, s
		}
		return r.push(Ffi(node.(*pc.Terminal).Value[1:])), s2
	case '&':
		if node, s2 := pFloat(s); node != nil {
			t := node.(*pc.Terminal)
			v, err := strconv.ParseFloat(t.Value[1:], 64)
			if err != nil {
				r.fail(t.Position, NumericError, fmt.Sprintf("float literal %s out of range", t.Value[1:]))
				return NilIndex, s2
			}
			return r.push(Float(v)), s2
		}
		return r.prim(s)
	case '!':
		if node, s2 := pTick(s); node != nil {
			t := node.(*pc.Terminal)
			decoded, perr := decodeLiteral(t.Value[1:], t.Position+1)
			if perr != nil {
				perr.File = r.file
				if r.err == nil {
					r.err = perr
				}
				return NilIndex, s2
			}
			return r.push(Tick(decoded)), s2
		}
		return r.prim(s)
	default:
		return r.prim(s)
	}
}

// prim := primtok, looked up against the primitive table. A token that looks
// like a primitive but matches no family is kept as 'Unknown' for downstream
// diagnostics rather than failing the parse.
func (r *parseRun) prim(s pc.Scanner) (Index, pc.Scanner) {
	node, s2 := pPrimTok(s)
	if node == nil {
		_, s = s.SkipWS()
		r.fail(s.GetCursor(), LexicalError,
			fmt.Sprintf("no expression starts with %q", rune(r.src[s.GetCursor()])))
		return NilIndex, s
	}
	t := node.(*pc.Terminal)
	if p, ok := ParsePrim(t.Value); ok {
		return r.push(p), s2
	}
	log.Debugf("unknown primitive token %q at offset %d", t.Value, t.Position)
	return r.push(Unknown(t.Value)), s2
}

// app := "(" expr (":" uint)? expr ")"
//
// When a definition label is present, the slot is assigned at the closing
// paren; a label defined more than once keeps the later assignment.
func (r *parseRun) app(s pc.Scanner) (Index, pc.Scanner) {
	_, s = pLParen(s) // dispatched on '(', cannot fail

	fun, s := r.expr(s)
	if r.err != nil {
		return NilIndex, s
	}

	label := NoLabel
	if node, s2 := pDefine(s); node != nil {
		t := node.(*pc.Terminal)
		l, err := strconv.Atoi(t.Value[1:])
		if err != nil || l >= len(r.prog.Defs) {
			r.fail(t.Position, UnresolvedLabel,
				fmt.Sprintf("definition label %s outside of [0, %d)", t.Value[1:], len(r.prog.Defs)))
			return NilIndex, s2
		}
		label, s = l, s2
	}

	arg, s := r.expr(s)
	if r.err != nil {
		return NilIndex, s
	}

	node, s2 := pRParen(s)
	if node == nil {
		r.failAt(s, LexicalError, "expected ')' to close an application")
		return NilIndex, s
	}
	s = s2

	if label != NoLabel {
		r.prog.Defs[label] = arg
	}
	return r.push(App{Fun: fun, Label: label, Arg: arg}), s
}

// array := "[" uint (expr)* "]", where the element count must equal the
// declared size.
func (r *parseRun) array(s pc.Scanner) (Index, pc.Scanner) {
	_, s = pLBrack(s) // dispatched on '[', cannot fail

	node, s := pUint(s)
	if node == nil {
		r.failAt(s, LexicalError, "expected an element count after '['")
		return NilIndex, s
	}
	sizeTok := node.(*pc.Terminal)
	size, err := strconv.Atoi(sizeTok.Value)
	if err != nil {
		r.fail(sizeTok.Position, NumericError, "array size out of range")
		return NilIndex, s
	}

	elems := make([]Index, 0, size)
	for {
		if closing, s2 := pRBrack(s); closing != nil {
			s = s2
			break
		}
		_, s = s.SkipWS()
		if s.Endof() {
			r.fail(s.GetCursor(), LexicalError, "unexpected end of input inside an array")
			return NilIndex, s
		}
		var el Index
		el, s = r.expr(s)
		if r.err != nil {
			return NilIndex, s
		}
		elems = append(elems, el)
	}

	if len(elems) != size {
		r.fail(sizeTok.Position, ArrayMismatch,
			fmt.Sprintf("array declares %d elements but contains %d", size, len(elems)))
		return NilIndex, s
	}
	return r.push(Array{Size: size, Elems: elems}), s
}

// decodeLiteral strips the surrounding quotes off a lexed string token and
// resolves its decimal escapes. 'pos' is the byte offset of the opening
// quote, used to point errors at the offending escape.
func decodeLiteral(tok string, pos int) (string, *ParseError) {
	body := tok[1 : len(tok)-1]
	var out strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' {
			out.WriteByte(body[i])
			continue
		}
		j := i + 1
		for j < len(body) && body[j] >= '0' && body[j] <= '9' {
			j++
		}
		v, err := strconv.Atoi(body[i+1 : j])
		if err != nil || v > 255 {
			return "", &ParseError{
				Kind:   NumericError,
				Offset: pos + 1 + i,
				Msg:    fmt.Sprintf("escape \\%s does not fit in a byte", body[i+1:j]),
			}
		}
		out.WriteByte(byte(v))
		i = j - 1
	}
	return out.String(), nil
}
