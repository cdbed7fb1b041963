package pattern

import (
	"sync"

	"golang.org/x/exp/rand"
)

// Rand is the random source consulted while resolving a pattern. Intn must
// return a value in [0, n).
type Rand interface {
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Intn(n int) int {
	return rand.Intn(n)
}

// DefaultRand draws from the package-level x/exp/rand source, which is safe
// for concurrent use.
var DefaultRand Rand = globalRand{}

// NewRand returns a seeded source. The result is not safe for concurrent use.
func NewRand(seed uint64) Rand {
	return rand.New(rand.NewSource(seed))
}

// Resolve expands p into concrete bytes. Random multipliers and class
// choices are drawn from rng; every repetition is drawn independently.
// maxRandom bounds the repeat count of '*' and '+'.
func Resolve(p Pattern, maxRandom int, rng Rand) []byte {
	if rng == nil {
		rng = DefaultRand
	}
	if maxRandom < 0 {
		maxRandom = 0
	}

	var out []byte
	for i := range p.Nodes {
		out = appendNode(out, &p.Nodes[i], maxRandom, rng)
	}
	return out
}

func appendNode(out []byte, n *Node, maxRandom int, rng Rand) []byte {
	count := repeatCount(n.Mult, maxRandom, rng)
	for i := 0; i < count; i++ {
		switch n.Kind {
		case KindLiteral:
			out = append(out, n.Literal)
		case KindClass:
			out = append(out, drawClass(n, rng))
		case KindGroup:
			for j := range n.Children {
				out = appendNode(out, &n.Children[j], maxRandom, rng)
			}
		}
	}
	return out
}

func repeatCount(m Multiplier, maxRandom int, rng Rand) int {
	switch m.Kind {
	case MultExact:
		return m.Count
	case MultZeroOrOne:
		return rng.Intn(2)
	case MultZeroOrMore:
		return rng.Intn(maxRandom + 1)
	case MultOneOrMore:
		if maxRandom <= 1 {
			return 1
		}
		return 1 + rng.Intn(maxRandom)
	default:
		return 1
	}
}

func drawClass(n *Node, rng Rand) byte {
	total := n.classWidth()
	if total == 1 {
		return n.Ranges[0].Low
	}

	k := rng.Intn(total)
	for _, r := range n.Ranges {
		w := r.width()
		if k < w {
			return r.Low + byte(k)
		}
		k -= w
	}
	// unreachable while Intn honors its contract
	return n.Ranges[len(n.Ranges)-1].High
}

type lockedRand struct {
	mu  sync.Mutex
	src Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

// Locked serializes calls to src so it can be shared between goroutines.
func Locked(src Rand) Rand {
	if src == nil {
		return DefaultRand
	}
	if _, ok := src.(globalRand); ok {
		return DefaultRand
	}
	return &lockedRand{src: src}
}
