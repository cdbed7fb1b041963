// Package pattern compiles and resolves the content patterns used to
// synthesize file bytes.
//
// The grammar is a small subset of regular expressions:
//
//	Pattern    ::= Expression*
//	Expression ::= Char [Multiplier] | "(" Pattern ")" [Multiplier] | "[" Set "]" [Multiplier]
//	Multiplier ::= "*" | "+" | "?" | "{" Digits "}"
//	Set        ::= (Char | Char "-" Char)+
//
// A backslash makes the following byte literal. Patterns generate bytes;
// they are never matched against input.
package pattern

import (
	"math"
	"math/bits"
)

type Kind int

const (
	KindLiteral Kind = iota
	KindClass
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindClass:
		return "class"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

type MultKind int

const (
	MultOne MultKind = iota // no multiplier
	MultExact
	MultZeroOrOne
	MultZeroOrMore
	MultOneOrMore
)

// Multiplier says how many times a node is resolved. Count is only used by
// MultExact.
type Multiplier struct {
	Kind  MultKind
	Count int
}

// IsRandom reports whether the repeat count is drawn at resolution time.
func (m Multiplier) IsRandom() bool {
	return m.Kind == MultZeroOrOne || m.Kind == MultZeroOrMore || m.Kind == MultOneOrMore
}

// Range is an inclusive byte range inside a character class.
type Range struct {
	Low  byte
	High byte
}

func (r Range) width() int {
	return int(r.High) - int(r.Low) + 1
}

// Node is one element of a compiled pattern. Nodes are treated as read-only
// once compiled.
type Node struct {
	Kind     Kind
	Literal  byte    // KindLiteral
	Ranges   []Range // KindClass, union of ranges, duplicates allowed
	Children []Node  // KindGroup
	Mult     Multiplier
}

func (n *Node) classWidth() int {
	total := 0
	for _, r := range n.Ranges {
		total += r.width()
	}
	return total
}

func (n *Node) deterministic() bool {
	if n.Mult.IsRandom() {
		return false
	}
	switch n.Kind {
	case KindClass:
		return n.classWidth() == 1
	case KindGroup:
		for i := range n.Children {
			if !n.Children[i].deterministic() {
				return false
			}
		}
	}
	return true
}

// Pattern is a compiled pattern together with the text it came from.
type Pattern struct {
	Source string
	Nodes  []Node
}

func (p Pattern) String() string {
	return p.Source
}

// Empty reports whether the pattern can only ever produce nothing.
func (p Pattern) Empty() bool {
	return len(p.Nodes) == 0
}

// Deterministic reports whether resolving p never consults the random source.
func (p Pattern) Deterministic() bool {
	for i := range p.Nodes {
		if !p.Nodes[i].deterministic() {
			return false
		}
	}
	return true
}

// MaxLen is the most bytes resolving p with maxRandom can produce,
// saturating at the uint64 maximum.
func (p Pattern) MaxLen(maxRandom int) uint64 {
	return sequenceMaxLen(p.Nodes, maxRandom)
}

func sequenceMaxLen(nodes []Node, maxRandom int) uint64 {
	var total uint64
	for i := range nodes {
		total = saturatingAdd(total, nodes[i].maxLen(maxRandom))
	}
	return total
}

func (n *Node) maxLen(maxRandom int) uint64 {
	unit := uint64(1)
	if n.Kind == KindGroup {
		unit = sequenceMaxLen(n.Children, maxRandom)
	}
	return saturatingMul(unit, maxRepeat(n.Mult, maxRandom))
}

func maxRepeat(m Multiplier, maxRandom int) uint64 {
	switch m.Kind {
	case MultExact:
		return uint64(m.Count)
	case MultZeroOrMore:
		return uint64(max(maxRandom, 0))
	case MultOneOrMore:
		return uint64(max(maxRandom, 1))
	default:
		return 1
	}
}

func saturatingAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

func saturatingMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

// MustCompile is like Compile but panics on error. It is meant for patterns
// known at build time, such as the built-in defaults.
func MustCompile(text string) Pattern {
	p, err := Compile(text)
	if err != nil {
		panic(err)
	}
	return p
}
