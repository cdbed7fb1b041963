package content_service

import (
	"fmt"

	"github.com/AnishMulay/sizefs/internal/pattern"
)

const DefaultMaxRandom = 10

// MaxRandomLimit caps max_random so a single '*' cannot expand without bound.
const MaxRandomLimit = 1 << 16

// PatternSet is the effective set of patterns for one file.
type PatternSet struct {
	Prefix    pattern.Pattern
	Suffix    pattern.Pattern
	Filler    pattern.Pattern
	Padder    pattern.Pattern
	MaxRandom int
}

// DefaultPatternSet fills with '0' and pads with '0'.
func DefaultPatternSet() PatternSet {
	return PatternSet{
		Filler:    pattern.MustCompile("0"),
		Padder:    pattern.MustCompile("0"),
		MaxRandom: DefaultMaxRandom,
	}
}

// Deterministic reports whether every plan of the set yields the same bytes.
func (ps PatternSet) Deterministic() bool {
	return ps.Prefix.Deterministic() && ps.Suffix.Deterministic() &&
		ps.Filler.Deterministic() && ps.Padder.Deterministic()
}

// CheckExpansion fails with ErrInvalidAttributeValue when one of the
// patterns could resolve to more than pattern.MaxExpansion bytes under
// ps.MaxRandom.
func (ps PatternSet) CheckExpansion() error {
	fields := []struct {
		name string
		p    pattern.Pattern
	}{
		{AttrPrefix, ps.Prefix},
		{AttrSuffix, ps.Suffix},
		{AttrFiller, ps.Filler},
		{AttrPadder, ps.Padder},
	}
	for _, f := range fields {
		if n := f.p.MaxLen(ps.MaxRandom); n > pattern.MaxExpansion {
			return fmt.Errorf("%w: %s %q can expand past %d bytes with max_random %d",
				ErrInvalidAttributeValue, f.name, f.p.Source, pattern.MaxExpansion, ps.MaxRandom)
		}
	}
	return nil
}

// FileDescriptor is the immutable description of a generated file. It is a
// snapshot: later attribute changes on the directory do not reach it.
type FileDescriptor struct {
	Size     uint64
	Patterns PatternSet
}

func NewFileDescriptor(size uint64, patterns PatternSet) *FileDescriptor {
	return &FileDescriptor{Size: size, Patterns: patterns}
}

func (d *FileDescriptor) SizeOf() uint64 {
	return d.Size
}
