package comb

import "fmt"

// ----------------------------------------------------------------------------
// Primitive table

// This section contains the closed set of primitives a combinator program can
// mention: the combinators proper (each with a fixed arity) plus the built-in
// operator families. Each primitive has exactly one canonical token; the
// token alphabet is shared with the lexer, which always grabs the longest
// possible run, so multi-character tokens like "S'" or "C'B" never split.

// A primitive expression, e.g. 'S' or 'IO.>>='. Doubles as an 'Expr' variant.
type Prim int

// NoPrim is the "no primitive" sentinel, used e.g. for nodes that are not
// known redex sites.
const NoPrim Prim = -1

// Family partitions the primitive table.
type Family uint8

const (
	Combinator Family = iota // S, K, I, ... with a fixed arity each
	BuiltIn                  // error, seq, compare, ...
	Arith                    // integer arithmetic, bitwise ops and comparisons
	Pointer                  // raw pointer manipulation
	IO                       // the IO monad operations
	FArith                   // floating point arithmetic and comparisons
	ArrayOp                  // primitive array operations
)

// Combinators. Keep these first and contiguous: 'IsCombinator' and 'Family'
// below rely on the [S, CCB] range.
const (
	S Prim = iota
	K
	I
	B
	C
	A
	Y
	SS  // S'
	BB  // B'
	CC  // C'
	P
	R
	O
	U
	Z
	K2
	K3
	K4
	CCB // C'B

	Error
	NoDefault
	NoMatch
	Seq
	Equal
	SEqual
	Compare
	SCmp
	ICmp
	Rnf

	Add
	Sub
	Mul
	Quot
	Rem
	Subtract
	UQuot
	URem
	Neg
	And
	Or
	Xor
	Inv
	Shl
	Shr
	AShr
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	ULt
	ULe
	UGt
	UGe
	ToInt

	PEq
	PNull
	PAdd
	PSub
	ToPtr

	IOBind
	IOThen
	IOReturn
	IOSerialize
	IODeserialize
	IOStdIn
	IOStdOut
	IOStdErr
	IOGetArgs
	IOPerformIO
	IOGetTimeMilli
	IOPrint
	IOCatch
	DynSym

	FAdd
	FSub
	FMul
	FDiv
	FNeg
	IToF
	FEq
	FNe
	FLt
	FLe
	FGt
	FGe
	FShow
	FRead

	AAlloc
	ASize
	ARead
	AWrite
	AEq
	NewCAStringLen
	PeekCAString
	PeekCAStringLen

	numPrims
)

// Canonical token for every primitive, indexed by the 'Prim' value itself.
var primTokens = [numPrims]string{
	S: "S", K: "K", I: "I", B: "B", C: "C", A: "A", Y: "Y",
	SS: "S'", BB: "B'", CC: "C'",
	P: "P", R: "R", O: "O", U: "U", Z: "Z",
	K2: "K2", K3: "K3", K4: "K4", CCB: "C'B",

	Error: "error", NoDefault: "noDefault", NoMatch: "noMatch",
	Seq: "seq", Equal: "equal", SEqual: "sequal",
	Compare: "compare", SCmp: "scmp", ICmp: "icmp", Rnf: "rnf",

	Add: "+", Sub: "-", Mul: "*",
	Quot: "quot", Rem: "rem", Subtract: "subtract",
	UQuot: "uquot", URem: "urem", Neg: "neg",
	And: "and", Or: "or", Xor: "xor", Inv: "inv",
	Shl: "shl", Shr: "shr", AShr: "ashr",
	Eq: "eq", Ne: "ne", Lt: "lt", Le: "le", Gt: "gt", Ge: "ge",
	ULt: "u<", ULe: "u<=", UGt: "u>", UGe: "u>=",
	ToInt: "toInt",

	PEq: "p==", PNull: "pnull", PAdd: "p+", PSub: "p=", ToPtr: "toPtr",

	IOBind: "IO.>>=", IOThen: "IO.>>", IOReturn: "IO.return",
	IOSerialize: "IO.serialize", IODeserialize: "IO.deserialize",
	IOStdIn: "IO.stdin", IOStdOut: "IO.stdout", IOStdErr: "IO.stderr",
	IOGetArgs: "IO.getArgs", IOPerformIO: "IO.performIO",
	IOGetTimeMilli: "IO.getTimeMilli", IOPrint: "IO.print",
	IOCatch: "IO.catch", DynSym: "dynsym",

	FAdd: "f+", FSub: "f-", FMul: "f*", FDiv: "f/", FNeg: "fneg",
	IToF: "itof",
	FEq: "f==", FNe: "f/=", FLt: "f<", FLe: "f<=", FGt: "f>", FGe: "f>=",
	FShow: "fshow", FRead: "fread",

	AAlloc: "A.alloc", ASize: "A.size", ARead: "A.read", AWrite: "A.write",
	AEq: "A.==",
	NewCAStringLen: "newCAStringLen", PeekCAString: "peekCAString",
	PeekCAStringLen: "peekCAStringLen",
}

// Fixed arity of every combinator: the number of arguments it must have
// accumulated along its spine before it can fire.
var combArity = map[Prim]int{
	S: 3, K: 2, I: 1, B: 3, C: 3, A: 2, Y: 1,
	SS: 4, BB: 4, CC: 4,
	P: 3, R: 3, O: 3, U: 2, Z: 3,
	K2: 3, K3: 4, K4: 5, CCB: 4,
}

// Reverse lookup, canonical token -> primitive. Built once at startup.
var primByToken = func() map[string]Prim {
	m := make(map[string]Prim, numPrims)
	for p := Prim(0); p < numPrims; p++ {
		m[primTokens[p]] = p
	}
	return m
}()

// ParsePrim resolves a token against the primitive table. The second return
// is false when no family matches (the caller decides whether that is a
// diagnostic or an error).
func ParsePrim(tok string) (Prim, bool) {
	p, ok := primByToken[tok]
	return p, ok
}

// Prims returns the whole (closed) primitive enumeration, in table order.
func Prims() []Prim {
	ps := make([]Prim, numPrims)
	for i := range ps {
		ps[i] = Prim(i)
	}
	return ps
}

// String returns the canonical token, the exact inverse of 'ParsePrim'.
func (p Prim) String() string {
	if p < 0 || p >= numPrims {
		return fmt.Sprintf("Prim(%d)", int(p))
	}
	return primTokens[p]
}

// Family returns which of the seven primitive families 'p' belongs to.
func (p Prim) Family() Family {
	switch {
	case p >= S && p <= CCB:
		return Combinator
	case p >= Error && p <= Rnf:
		return BuiltIn
	case p >= Add && p <= ToInt:
		return Arith
	case p >= PEq && p <= ToPtr:
		return Pointer
	case p >= IOBind && p <= DynSym:
		return IO
	case p >= FAdd && p <= FRead:
		return FArith
	default:
		return ArrayOp
	}
}

// IsCombinator reports whether 'p' is a combinator proper (and therefore has
// an arity and can head a redex).
func (p Prim) IsCombinator() bool {
	return p >= S && p <= CCB
}

// Arity returns the fixed arity of a combinator. Calling it on any other
// primitive is a programming error.
func (p Prim) Arity() int {
	n, ok := combArity[p]
	if !ok {
		panic(fmt.Sprintf("comb: %q is not a combinator, it has no arity", p))
	}
	return n
}
