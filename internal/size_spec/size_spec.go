// Package size_spec turns file names such as "128K-1B" or "10E" into exact
// byte counts.
//
// A valid name matches ^<digits><unit>([+-]<digits><unit>)?$ where unit is
// one of B, K, M, G, T, P, E (powers of 1024). Arithmetic is done on uint64
// and fails instead of wrapping.
package size_spec

import (
	"fmt"
	"math/bits"
)

// Units maps each unit letter to its multiplier.
var Units = map[byte]uint64{
	'B': 1,
	'K': 1 << 10,
	'M': 1 << 20,
	'G': 1 << 30,
	'T': 1 << 40,
	'P': 1 << 50,
	'E': 1 << 60,
}

// unitOrder lists units from largest to smallest for Format.
var unitOrder = []byte{'E', 'P', 'T', 'G', 'M', 'K', 'B'}

// Parse returns the byte count described by text.
func Parse(text string) (uint64, error) {
	base, rest, err := parseTerm(text, text)
	if err != nil {
		return 0, err
	}
	if rest == "" {
		return base, nil
	}

	sign := rest[0]
	if sign != '+' && sign != '-' {
		return 0, fmt.Errorf("%w: %q: unexpected %q after unit", ErrInvalidSizeFormat, text, sign)
	}

	delta, rest, err := parseTerm(text, rest[1:])
	if err != nil {
		return 0, err
	}
	if rest != "" {
		return 0, fmt.Errorf("%w: %q: trailing %q", ErrInvalidSizeFormat, text, rest)
	}

	if sign == '+' {
		sum, carry := bits.Add64(base, delta, 0)
		if carry != 0 {
			return 0, fmt.Errorf("%w: %q", ErrSizeOverflow, text)
		}
		return sum, nil
	}

	if delta > base {
		return 0, fmt.Errorf("%w: %q", ErrSizeUnderflow, text)
	}
	return base - delta, nil
}

// Valid reports whether name is a well-formed size descriptor whose value
// fits in 64 bits.
func Valid(name string) bool {
	_, err := Parse(name)
	return err == nil
}

// parseTerm consumes <digits><unit> from the front of s. full is the whole
// input, used for error messages.
func parseTerm(full, s string) (uint64, string, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, "", fmt.Errorf("%w: %q: expected digits", ErrInvalidSizeFormat, full)
	}
	if i == len(s) {
		return 0, "", fmt.Errorf("%w: %q: missing unit", ErrInvalidSizeFormat, full)
	}

	unit, ok := Units[s[i]]
	if !ok {
		return 0, "", fmt.Errorf("%w: %q: unknown unit %q", ErrInvalidSizeFormat, full, s[i])
	}

	// A digit string that overflows is still well formed, so report overflow
	// rather than a format error.
	var n uint64
	overflow := false
	for _, c := range []byte(s[:i]) {
		hi, lo := bits.Mul64(n, 10)
		sum, carry := bits.Add64(lo, uint64(c-'0'), 0)
		if hi != 0 || carry != 0 {
			overflow = true
		}
		n = sum
	}

	hi, value := bits.Mul64(n, unit)
	if overflow || hi != 0 {
		return 0, "", fmt.Errorf("%w: %q", ErrSizeOverflow, full)
	}

	return value, s[i+1:], nil
}

// Format renders n using the largest unit that divides it exactly, so that
// Parse(Format(n)) == n.
func Format(n uint64) string {
	if n == 0 {
		return "0B"
	}
	for _, u := range unitOrder {
		mult := Units[u]
		if n%mult == 0 {
			return fmt.Sprintf("%d%c", n/mult, u)
		}
	}
	return fmt.Sprintf("%dB", n)
}
