package pattern

import (
	"errors"
	"fmt"
)

var ErrPatternSyntax = errors.New("pattern syntax error")

// SyntaxError reports where compilation of a pattern failed. Pos is the byte
// offset in the source text.
type SyntaxError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pattern %q: %s at position %d", e.Source, e.Msg, e.Pos)
}

func (e *SyntaxError) Unwrap() error {
	return ErrPatternSyntax
}
