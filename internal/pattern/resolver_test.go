package pattern

import (
	"testing"

	"github.com/AnishMulay/sizefs/internal/pattern/patterntest"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		maxRandom int
		rng       Rand
		want      string
	}{
		{name: "empty", pattern: "", maxRandom: 10, rng: &patterntest.SequenceRand{}, want: ""},
		{name: "literals", pattern: "abc", maxRandom: 10, rng: &patterntest.SequenceRand{}, want: "abc"},
		{name: "exact literal", pattern: "a{3}", maxRandom: 10, rng: &patterntest.SequenceRand{}, want: "aaa"},
		{name: "exact zero", pattern: "xa{0}y", maxRandom: 10, rng: &patterntest.SequenceRand{}, want: "xy"},
		{name: "exact class redraws", pattern: "[a-c]{3}", maxRandom: 10, rng: &patterntest.SequenceRand{Values: []int{0, 1, 2}}, want: "abc"},
		{name: "exact group redraws", pattern: "(x[01]){2}", maxRandom: 10, rng: &patterntest.SequenceRand{Values: []int{1, 0}}, want: "x1x0"},
		{name: "star count", pattern: "(ab)*", maxRandom: 10, rng: &patterntest.SequenceRand{Values: []int{3}}, want: "ababab"},
		{name: "star zero max", pattern: "x*", maxRandom: 0, rng: patterntest.MaxRand{}, want: ""},
		{name: "plus at max", pattern: "x+", maxRandom: 5, rng: patterntest.MaxRand{}, want: "xxxxx"},
		{name: "plus at min", pattern: "x+", maxRandom: 5, rng: &patterntest.SequenceRand{}, want: "x"},
		{name: "plus zero max", pattern: "x+", maxRandom: 0, rng: patterntest.MaxRand{}, want: "x"},
		{name: "optional present", pattern: "ab?", maxRandom: 10, rng: &patterntest.SequenceRand{Values: []int{1}}, want: "ab"},
		{name: "optional absent", pattern: "ab?", maxRandom: 10, rng: &patterntest.SequenceRand{Values: []int{0}}, want: "a"},
		{name: "class union", pattern: "[a-cx]", maxRandom: 10, rng: &patterntest.SequenceRand{Values: []int{3}}, want: "x"},
		{name: "class duplicates", pattern: "[aa]", maxRandom: 10, rng: &patterntest.SequenceRand{Values: []int{1}}, want: "a"},
		{name: "escaped", pattern: `\*\[x\]`, maxRandom: 10, rng: &patterntest.SequenceRand{}, want: "*[x]"},
		{name: "nested star", pattern: "(a*)*", maxRandom: 3, rng: patterntest.MaxRand{}, want: "aaaaaaaaa"},
		{name: "negative max treated as zero", pattern: "a*b", maxRandom: -4, rng: patterntest.MaxRand{}, want: "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MustCompile(tt.pattern)
			got := Resolve(p, tt.maxRandom, tt.rng)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestResolve_ClassStaysInRange(t *testing.T) {
	p := MustCompile("[a-zA-Z0-9]{64}")
	rng := NewRand(42)
	for i := 0; i < 50; i++ {
		out := Resolve(p, 10, rng)
		assert.Len(t, out, 64)
		for _, b := range out {
			ok := (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
			assert.True(t, ok, "byte %q outside class", b)
		}
	}
}

func TestResolve_RandomBounds(t *testing.T) {
	p := MustCompile("x*")
	rng := NewRand(7)
	for i := 0; i < 200; i++ {
		out := Resolve(p, 4, rng)
		assert.LessOrEqual(t, len(out), 4)
	}

	p = MustCompile("y+")
	for i := 0; i < 200; i++ {
		out := Resolve(p, 4, rng)
		assert.GreaterOrEqual(t, len(out), 1)
		assert.LessOrEqual(t, len(out), 4)
	}
}

func TestResolve_NilRandUsesDefault(t *testing.T) {
	out := Resolve(MustCompile("[01]{16}"), 10, nil)
	assert.Len(t, out, 16)
}

func TestResolve_SeededIsReproducible(t *testing.T) {
	p := MustCompile("a(bcd)*e{4}[a-z03]*")
	first := Resolve(p, 10, NewRand(99))
	second := Resolve(p, 10, NewRand(99))
	assert.Equal(t, first, second)
}

func TestLocked(t *testing.T) {
	assert.Equal(t, DefaultRand, Locked(nil))
	assert.Equal(t, DefaultRand, Locked(DefaultRand))

	// a struct value holding a slice cannot be compared with ==
	seq := sliceRand{values: []int{3}}
	assert.NotPanics(t, func() { assert.Equal(t, 3, Locked(seq).Intn(5)) })

	src := &patterntest.SequenceRand{Values: []int{2}}
	r := Locked(src)
	assert.Equal(t, 2, r.Intn(5))
	assert.Equal(t, 1, src.Calls)
}

type sliceRand struct {
	values []int
}

func (r sliceRand) Intn(n int) int {
	return r.values[0] % n
}
