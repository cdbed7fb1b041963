package content_service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AnishMulay/sizefs/internal/pattern"
)

const UserNamespace = "user."

const (
	AttrPrefix    = "user.prefix"
	AttrSuffix    = "user.suffix"
	AttrFiller    = "user.filler"
	AttrPadder    = "user.padder"
	AttrMaxRandom = "user.max_random"
)

var patternAttributes = []string{AttrPrefix, AttrSuffix, AttrFiller, AttrPadder, AttrMaxRandom}

// PatternAttributes lists the attribute names that shape generated content.
func PatternAttributes() []string {
	out := make([]string, len(patternAttributes))
	copy(out, patternAttributes)
	return out
}

// NormalizeAttributeName puts names without a namespace into "user.".
func NormalizeAttributeName(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return UserNamespace + name
}

// IsPatternAttribute reports whether name, once normalized, is one of the
// pattern attributes.
func IsPatternAttribute(name string) bool {
	name = NormalizeAttributeName(name)
	for _, a := range patternAttributes {
		if a == name {
			return true
		}
	}
	return false
}

// ValidateAttribute checks value for a pattern attribute on its own. Other
// names are accepted unchanged. The expansion budget also depends on the
// other attributes, which PatternSetFromAttributes checks.
func ValidateAttribute(name, value string) error {
	switch NormalizeAttributeName(name) {
	case AttrPrefix, AttrSuffix, AttrFiller, AttrPadder:
		if _, err := pattern.Compile(value); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidAttributeValue, name, err)
		}
	case AttrMaxRandom:
		if _, err := ParseMaxRandom(value); err != nil {
			return err
		}
	}
	return nil
}

// ParseMaxRandom accepts a decimal integer in [0, MaxRandomLimit].
func ParseMaxRandom(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: max_random %q is not an integer", ErrInvalidAttributeValue, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: max_random %d is negative", ErrInvalidAttributeValue, n)
	}
	if n > MaxRandomLimit {
		return 0, fmt.Errorf("%w: max_random %d exceeds %d", ErrInvalidAttributeValue, n, MaxRandomLimit)
	}
	return n, nil
}

// PatternSetFromAttributes compiles the pattern attributes in attrs. Missing
// attributes take the DefaultPatternSet values.
func PatternSetFromAttributes(attrs map[string]string) (PatternSet, error) {
	ps := DefaultPatternSet()

	fields := []struct {
		name string
		dst  *pattern.Pattern
	}{
		{AttrPrefix, &ps.Prefix},
		{AttrSuffix, &ps.Suffix},
		{AttrFiller, &ps.Filler},
		{AttrPadder, &ps.Padder},
	}
	for _, f := range fields {
		text, ok := attrs[f.name]
		if !ok {
			continue
		}
		p, err := pattern.Compile(text)
		if err != nil {
			return PatternSet{}, fmt.Errorf("%w: %s: %w", ErrInvalidAttributeValue, f.name, err)
		}
		*f.dst = p
	}

	if text, ok := attrs[AttrMaxRandom]; ok {
		n, err := ParseMaxRandom(text)
		if err != nil {
			return PatternSet{}, err
		}
		ps.MaxRandom = n
	}
	if err := ps.CheckExpansion(); err != nil {
		return PatternSet{}, err
	}
	return ps, nil
}

// Attributes renders ps back into attribute form. Empty prefix and suffix
// are omitted.
func (ps PatternSet) Attributes() map[string]string {
	attrs := map[string]string{
		AttrFiller:    ps.Filler.Source,
		AttrPadder:    ps.Padder.Source,
		AttrMaxRandom: strconv.Itoa(ps.MaxRandom),
	}
	if ps.Prefix.Source != "" {
		attrs[AttrPrefix] = ps.Prefix.Source
	}
	if ps.Suffix.Source != "" {
		attrs[AttrSuffix] = ps.Suffix.Source
	}
	return attrs
}
