package generator

import (
	"bytes"
	"math"
	"testing"

	cs "github.com/AnishMulay/sizefs/internal/content_service"
	"github.com/AnishMulay/sizefs/internal/log_service"
	"github.com/AnishMulay/sizefs/internal/log_service/memory"
	"github.com/AnishMulay/sizefs/internal/pattern"
	"github.com/AnishMulay/sizefs/internal/pattern/patterntest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patterns(prefix, suffix, filler, padder string, maxRandom int) cs.PatternSet {
	return cs.PatternSet{
		Prefix:    pattern.MustCompile(prefix),
		Suffix:    pattern.MustCompile(suffix),
		Filler:    pattern.MustCompile(filler),
		Padder:    pattern.MustCompile(padder),
		MaxRandom: maxRandom,
	}
}

func descriptor(size uint64, ps cs.PatternSet) cs.FileDescriptor {
	return cs.FileDescriptor{Size: size, Patterns: ps}
}

func warnings(ls *memory.MemoryLogService) int {
	return ls.Count(log_service.WarnLevel, cs.SizeInsufficientWarning)
}

func TestRead_Examples(t *testing.T) {
	presets := cs.Presets()

	got := Read(descriptor(5, presets[cs.PresetZeros]), 0, 5, nil, nil)
	assert.Equal(t, "00000", string(got))

	got = Read(descriptor(5, presets[cs.PresetOnes]), 0, 5, nil, nil)
	assert.Equal(t, "11111", string(got))

	ps := patterns("", "", "a(bcd)*e{4}[a-z03]*", "0", 10)
	got = Read(descriptor(128<<10, ps), 0, 131072, pattern.NewRand(1), nil)
	require.Len(t, got, 131072)
	assert.Equal(t, byte('a'), got[0])
}

func TestRead_AlphaNumStaysInClass(t *testing.T) {
	got := Read(descriptor(4096, cs.Presets()[cs.PresetAlphaNum]), 0, 4096, pattern.NewRand(3), nil)
	require.Len(t, got, 4096)
	for _, b := range got {
		ok := (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
		require.True(t, ok, "byte %q", b)
	}
}

func TestRead_Clamping(t *testing.T) {
	desc := descriptor(100, patterns("", "", "ab", "0", 10))

	tests := []struct {
		name   string
		offset uint64
		length int
		want   int
	}{
		{name: "whole file", offset: 0, length: 100, want: 100},
		{name: "past end", offset: 90, length: 50, want: 10},
		{name: "at end", offset: 100, length: 10, want: 0},
		{name: "beyond end", offset: 1 << 62, length: 10, want: 0},
		{name: "zero length", offset: 10, length: 0, want: 0},
		{name: "negative length", offset: 10, length: -5, want: 0},
		{name: "inside", offset: 33, length: 7, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Read(desc, tt.offset, tt.length, nil, nil)
			assert.Len(t, got, tt.want)
			assert.NotNil(t, got)
		})
	}
}

func TestRead_DeterministicPatterns(t *testing.T) {
	desc := descriptor(1<<20+13, patterns("HEAD", "TAIL", "(ab){3}c", "xy", 10))
	require.True(t, desc.Patterns.Deterministic())

	first := Read(desc, 1000, 5000, nil, nil)
	second := Read(desc, 1000, 5000, nil, nil)
	assert.Equal(t, first, second)
}

func TestRead_Concatenation(t *testing.T) {
	const size = 97
	desc := descriptor(size, patterns("<<", ">>>", "abcde", "xy", 10))
	whole := Read(desc, 0, size, nil, nil)
	require.Len(t, whole, size)

	for k := 0; k <= size; k++ {
		head := Read(desc, 0, k, nil, nil)
		tail := Read(desc, uint64(k), size-k, nil, nil)
		require.Equal(t, whole, append(head, tail...), "split at %d", k)
	}
}

func TestRead_Layout(t *testing.T) {
	// middle is 6: one full "abcd" and a two byte padder
	desc := descriptor(10, patterns("P", "SSS", "abcd", "xyz", 10))
	assert.Equal(t, "PabcdxySSS", string(Read(desc, 0, 10, nil, nil)))

	// padder shorter than the remainder is cycled
	desc = descriptor(9, patterns("", "", "abcdef", "xy", 10))
	assert.Equal(t, "abcdefxyx", string(Read(desc, 0, 9, nil, nil)))
}

func TestPlan_SegmentSum(t *testing.T) {
	sizes := []uint64{
		0, 1, 2, 3, 7, 8, 100, 4095, 4096, 4097,
		1<<20 - 1, 1 << 20, 1<<32 + 1,
		1 << 40, 1<<40 + 1, 1<<40 + 12345, 1 << 50, 3<<50 + 7,
		10 << 60, math.MaxUint64 - 1, math.MaxUint64,
	}
	sets := []cs.PatternSet{
		cs.DefaultPatternSet(),
		patterns("HEAD", "TAIL", "abc", "xy", 10),
		patterns("[a-z]{3}", "(xy)+", "a(bcd)*e{4}[a-z03]*", "[01]*", 10),
		patterns("", "", "", "", 10),
		patterns("pre", "", "", "pad", 10),
		patterns("", "suf", "0123456", "", 10),
	}

	rng := pattern.NewRand(11)
	for _, ps := range sets {
		for _, size := range sizes {
			plan := Plan(descriptor(size, ps), rng, nil)
			require.Equal(t, size, plan.Len(), "size %d filler %q", size, ps.Filler.Source)
		}
	}
}

func TestPlan_LargeFileTail(t *testing.T) {
	const size = 1<<40 + 3
	desc := descriptor(size, patterns("P", "S", "abc", "0", 10))

	plan := Plan(desc, nil, nil)
	// 2^40+1 bytes of middle leaves a two byte remainder
	assert.Equal(t, uint64((1<<40+1)/3), plan.FillerRepeats)
	assert.Equal(t, uint64(2), plan.PadderLength)

	assert.Equal(t, "bc00S", string(Read(desc, size-5, 100, nil, nil)))
	assert.Equal(t, "Pabca", string(Read(desc, 0, 5, nil, nil)))
}

func TestRead_TenExabytes(t *testing.T) {
	size := uint64(10) << 60
	desc := descriptor(size, patterns("", "END", "0123456789", "-", 10))

	// middle is size-3, which leaves a remainder of 7
	got := Read(desc, size-12, 64, nil, nil)
	assert.Equal(t, "89-------END", string(got))
	assert.Equal(t, size, desc.SizeOf())
}

func TestPlan_TruncationWarnsOnce(t *testing.T) {
	ls := memory.New()
	desc := descriptor(1, patterns("abc", "xyz", "0", "0", 10))

	got := Read(desc, 0, 10, nil, ls)
	assert.Equal(t, "a", string(got))
	assert.Equal(t, 1, warnings(ls))
}

func TestPlan_TruncationOrder(t *testing.T) {
	tests := []struct {
		size uint64
		want string
	}{
		{size: 6, want: "abcxyz"},
		{size: 5, want: "abcyz"},
		{size: 4, want: "abcz"},
		{size: 3, want: "abc"},
		{size: 2, want: "ab"},
	}

	for _, tt := range tests {
		ls := memory.New()
		desc := descriptor(tt.size, patterns("abc", "xyz", "0", "0", 10))
		got := Read(desc, 0, 10, nil, ls)
		assert.Equal(t, tt.want, string(got), "size %d", tt.size)

		wantWarnings := 1
		if tt.size == 6 {
			wantWarnings = 0
		}
		assert.Equal(t, wantWarnings, warnings(ls), "size %d", tt.size)
	}

	ls := memory.New()
	plan := Plan(descriptor(0, patterns("abc", "xyz", "0", "0", 10)), nil, ls)
	assert.Zero(t, plan.Len())
	assert.Empty(t, plan.Prefix)
	assert.Empty(t, plan.Suffix)
	assert.Equal(t, 1, warnings(ls))
}

func TestPlan_EmptyPadder(t *testing.T) {
	ls := memory.New()
	desc := descriptor(5, patterns("", "", "abc", "", 10))

	got := Read(desc, 0, 5, nil, ls)
	assert.Equal(t, []byte{'a', 'b', 'c', 0, 0}, got)
	assert.Equal(t, 1, warnings(ls))

	entries := ls.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(2), entries[0].Event.Metadata["remainder"])
}

func TestPlan_EmptyPadderNotNeeded(t *testing.T) {
	ls := memory.New()
	desc := descriptor(6, patterns("", "", "abc", "", 10))
	assert.Equal(t, "abcabc", string(Read(desc, 0, 6, nil, ls)))
	assert.Equal(t, 0, warnings(ls))
}

func TestPlan_EmptyFiller(t *testing.T) {
	ls := memory.New()
	desc := descriptor(5, patterns("", "", "", "xy", 10))
	assert.Equal(t, "xyxyx", string(Read(desc, 0, 5, nil, ls)))
	assert.Equal(t, 0, warnings(ls))

	desc = descriptor(3, patterns("", "", "", "", 10))
	assert.Equal(t, []byte{0, 0, 0}, Read(desc, 0, 3, nil, ls))
	assert.Equal(t, 1, warnings(ls))
}

func TestPlan_ResolvesEachPatternOnce(t *testing.T) {
	// draw order: prefix, suffix, two for the filler, then the padder
	rng := &patterntest.SequenceRand{Values: []int{0, 1, 2, 3}}
	desc := descriptor(7, patterns("[ab]", "[ab]", "[a-c]{2}", "[a-d]", 10))

	plan := Plan(desc, rng, nil)
	assert.Equal(t, "a", string(plan.Prefix))
	assert.Equal(t, "b", string(plan.Suffix))
	assert.Equal(t, "ca", string(plan.FillerUnit))
	assert.Equal(t, uint64(2), plan.FillerRepeats)
	assert.Equal(t, "a", string(plan.PadderUnit))
	assert.Equal(t, 5, rng.Calls)
}

func TestGenerator(t *testing.T) {
	ls := memory.New()
	g := NewGenerator(ls, nil)
	desc := cs.NewFileDescriptor(10, patterns("", "", "0123456789", "0", 10))

	assert.Equal(t, "3456", string(g.Read(desc, 3, 4)))
	assert.Equal(t, uint64(10), g.Plan(desc).Len())

	dest := make([]byte, 8)
	n := g.ReadInto(desc, dest, 6)
	assert.Equal(t, 4, n)
	assert.Equal(t, "6789", string(dest[:n]))
	assert.Equal(t, 0, g.ReadInto(desc, dest, 10))

	small := cs.NewFileDescriptor(1, patterns("ab", "", "0", "0", 10))
	assert.Equal(t, "a", string(g.Read(small, 0, 1)))
	assert.Equal(t, 1, warnings(ls))
}

func TestGenerator_SeededSourceIsReproducible(t *testing.T) {
	desc := cs.NewFileDescriptor(256, cs.Presets()[cs.PresetAlphaNum])
	a := NewGenerator(nil, pattern.NewRand(5)).Read(desc, 0, 256)
	b := NewGenerator(nil, pattern.NewRand(5)).Read(desc, 0, 256)
	assert.True(t, bytes.Equal(a, b))
}
