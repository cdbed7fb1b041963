package pattern

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Structure(t *testing.T) {
	p, err := Compile("a(bcd)*e{4}[a-z03]*")
	require.NoError(t, err)
	require.Len(t, p.Nodes, 4)

	assert.Equal(t, KindLiteral, p.Nodes[0].Kind)
	assert.Equal(t, byte('a'), p.Nodes[0].Literal)
	assert.Equal(t, MultOne, p.Nodes[0].Mult.Kind)

	group := p.Nodes[1]
	assert.Equal(t, KindGroup, group.Kind)
	assert.Equal(t, MultZeroOrMore, group.Mult.Kind)
	require.Len(t, group.Children, 3)
	assert.Equal(t, byte('d'), group.Children[2].Literal)

	assert.Equal(t, Multiplier{Kind: MultExact, Count: 4}, p.Nodes[2].Mult)

	class := p.Nodes[3]
	assert.Equal(t, KindClass, class.Kind)
	assert.Equal(t, []Range{{'a', 'z'}, {'0', '0'}, {'3', '3'}}, class.Ranges)
	assert.Equal(t, MultZeroOrMore, class.Mult.Kind)

	assert.Equal(t, "a(bcd)*e{4}[a-z03]*", p.String())
}

func TestCompile_Valid(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNodes int
	}{
		{name: "empty", input: "", wantNodes: 0},
		{name: "single literal", input: "0", wantNodes: 1},
		{name: "literal run", input: "hello", wantNodes: 5},
		{name: "nested groups", input: "((ab)+c){2}", wantNodes: 1},
		{name: "escaped specials", input: `\(\)\[\]\*\+\?\{\}\-\\`, wantNodes: 11},
		{name: "escaped inside class", input: `[\]\-\\]`, wantNodes: 1},
		{name: "parens inside class", input: "[()]", wantNodes: 1},
		{name: "dash literal outside class", input: "a-b", wantNodes: 3},
		{name: "zero count", input: "a{0}", wantNodes: 1},
		{name: "optional", input: "ab?", wantNodes: 2},
		{name: "alpha num", input: "[a-zA-Z0-9]", wantNodes: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.input)
			require.NoError(t, err)
			assert.Len(t, p.Nodes, tt.wantNodes)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantPos int
		wantMsg string
	}{
		{name: "unmatched open paren", input: "(abc", wantPos: 0, wantMsg: "unmatched '('"},
		{name: "unmatched close paren", input: "ab)", wantPos: 2, wantMsg: "unmatched ')'"},
		{name: "unmatched open bracket", input: "x[abc", wantPos: 1, wantMsg: "unmatched '['"},
		{name: "unmatched close bracket", input: "abc]", wantPos: 3, wantMsg: "unmatched ']'"},
		{name: "unmatched close brace", input: "a}", wantPos: 1, wantMsg: "unmatched '}'"},
		{name: "empty class", input: "[]", wantPos: 0, wantMsg: "empty character class"},
		{name: "empty group", input: "a()", wantPos: 1, wantMsg: "empty group"},
		{name: "non numeric count", input: "a{x}", wantPos: 2, wantMsg: "invalid multiplier count"},
		{name: "negative count", input: "a{-1}", wantPos: 2, wantMsg: "invalid multiplier count"},
		{name: "empty count", input: "a{}", wantPos: 1, wantMsg: "empty multiplier count"},
		{name: "unterminated count", input: "a{3", wantPos: 1, wantMsg: "unterminated multiplier"},
		{name: "count too large", input: "a{70000}", wantPos: 1, wantMsg: "exceeds limit"},
		{name: "leading multiplier", input: "*a", wantPos: 0, wantMsg: "nothing to modify"},
		{name: "leading brace", input: "{2}", wantPos: 0, wantMsg: "nothing to modify"},
		{name: "stacked multiplier", input: "a*+", wantPos: 2, wantMsg: "nothing to modify"},
		{name: "multiplier after open paren", input: "(*a)", wantPos: 1, wantMsg: "nothing to modify"},
		{name: "trailing escape", input: `ab\`, wantPos: 2, wantMsg: "trailing escape"},
		{name: "reversed range", input: "[z-a]", wantPos: 2, wantMsg: "reversed range"},
		{name: "range without start", input: "[-a]", wantPos: 1, wantMsg: "without a start"},
		{name: "range without end", input: "[a-]", wantPos: 2, wantMsg: "without an end"},
		{name: "unescaped star in class", input: "[a*]", wantPos: 2, wantMsg: "unescaped '*'"},
		{name: "nested class", input: "[a[b]]", wantPos: 2, wantMsg: "unescaped '['"},
		{name: "nested repeats", input: "((a{65536}){65536}){65536}", wantPos: 0, wantMsg: "can expand past"},
		{name: "group repeat past budget", input: "(a{65536}){257}", wantPos: 0, wantMsg: "can expand past"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.input)
			require.Error(t, err)
			require.ErrorIs(t, err, ErrPatternSyntax)

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, tt.wantPos, syntaxErr.Pos)
			assert.Contains(t, syntaxErr.Msg, tt.wantMsg)
			assert.Equal(t, tt.input, syntaxErr.Source)
		})
	}
}

func TestCompile_DepthLimit(t *testing.T) {
	deep := strings.Repeat("(", maxDepth+1) + "a" + strings.Repeat(")", maxDepth+1)
	_, err := Compile(deep)
	require.ErrorIs(t, err, ErrPatternSyntax)

	ok := strings.Repeat("(", maxDepth) + "a" + strings.Repeat(")", maxDepth)
	_, err = Compile(ok)
	require.NoError(t, err)
}

func TestPattern_Deterministic(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"abc", true},
		{"a{3}", true},
		{"(ab){2}c", true},
		{"[a]", true},
		{"[aa]", false},
		{"[ab]", false},
		{"a*", false},
		{"a+", false},
		{"a?", false},
		{"(a[bc]){2}", false},
	}

	for _, tt := range tests {
		p := MustCompile(tt.input)
		assert.Equal(t, tt.want, p.Deterministic(), tt.input)
	}
}

func TestPattern_MaxLen(t *testing.T) {
	tests := []struct {
		input     string
		maxRandom int
		want      uint64
	}{
		{"", 10, 0},
		{"abc", 10, 3},
		{"a?b", 10, 2},
		{"a*", 10, 10},
		{"a*", 0, 0},
		{"a+", 0, 1},
		{"(ab{3}){4}c", 10, 17},
		{"(a{256}){256}", 10, 1 << 16},
		{"((a{256})*)+", 1 << 16, 1 << 40},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MustCompile(tt.input).MaxLen(tt.maxRandom), tt.input)
	}
}

func TestCompile_ExpansionBudget(t *testing.T) {
	_, err := Compile("(a{256}){65536}")
	require.NoError(t, err, "exactly at the budget")

	_, err = Compile("((a{256}){65536})a")
	require.ErrorIs(t, err, ErrPatternSyntax)

	// random multipliers count once until max_random is known
	p, err := Compile("((a{256}){65536})*")
	require.NoError(t, err)
	assert.Greater(t, p.MaxLen(2), uint64(MaxExpansion))
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("(") })
}
