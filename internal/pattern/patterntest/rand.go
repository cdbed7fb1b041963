// Package patterntest provides deterministic random sources for tests.
package patterntest

// SequenceRand replays Values in order, wrapping around, and reduces each
// value modulo n. With no values it always returns 0.
type SequenceRand struct {
	Values []int
	next   int
	Calls  int
}

func (s *SequenceRand) Intn(n int) int {
	s.Calls++
	if len(s.Values) == 0 || n <= 0 {
		return 0
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	if v < 0 {
		v = -v
	}
	return v % n
}

// MaxRand always returns the largest allowed value.
type MaxRand struct{}

func (MaxRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}
