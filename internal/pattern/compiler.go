package pattern

import (
	"strconv"
	"strings"
)

// MaxExactRepeat bounds n in a single "{n}".
const MaxExactRepeat = 1 << 16

// MaxExpansion bounds the bytes one resolution may produce. Nested
// multipliers multiply, so the bound is checked over the whole tree.
const MaxExpansion = 16 << 20

const maxDepth = 64

type parser struct {
	src   string
	pos   int
	depth int
}

// Compile parses text into a Pattern. The empty string compiles to a pattern
// that produces no bytes.
func Compile(text string) (Pattern, error) {
	p := &parser{src: text}
	nodes, err := p.parseSequence()
	if err != nil {
		return Pattern{}, err
	}
	pat := Pattern{Source: text, Nodes: nodes}
	// Random multipliers count once here; callers that know max_random
	// check again with MaxLen.
	if pat.MaxLen(1) > MaxExpansion {
		return Pattern{}, p.errorf(0, "pattern can expand past "+strconv.Itoa(MaxExpansion)+" bytes")
	}
	return pat, nil
}

func (p *parser) errorf(pos int, msg string) error {
	return &SyntaxError{Source: p.src, Pos: pos, Msg: msg}
}

// parseSequence reads expressions until the end of input or, inside a group,
// until the closing parenthesis, which is left unconsumed.
func (p *parser) parseSequence() ([]Node, error) {
	var nodes []Node
	for p.pos < len(p.src) {
		start := p.pos
		var node Node

		switch c := p.src[p.pos]; c {
		case ')':
			if p.depth == 0 {
				return nil, p.errorf(start, "unmatched ')'")
			}
			return nodes, nil
		case '(':
			group, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			node = group
		case '[':
			class, err := p.parseClass()
			if err != nil {
				return nil, err
			}
			node = class
		case ']':
			return nil, p.errorf(start, "unmatched ']'")
		case '}':
			return nil, p.errorf(start, "unmatched '}'")
		case '*', '+', '?', '{':
			return nil, p.errorf(start, "multiplier "+quote(c)+" has nothing to modify")
		case '\\':
			lit, err := p.parseEscape()
			if err != nil {
				return nil, err
			}
			node = Node{Kind: KindLiteral, Literal: lit}
		default:
			p.pos++
			node = Node{Kind: KindLiteral, Literal: c}
		}

		mult, err := p.parseMultiplier()
		if err != nil {
			return nil, err
		}
		node.Mult = mult
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (p *parser) parseGroup() (Node, error) {
	start := p.pos
	if p.depth >= maxDepth {
		return Node{}, p.errorf(start, "groups nested too deeply")
	}
	p.pos++

	p.depth++
	children, err := p.parseSequence()
	p.depth--
	if err != nil {
		return Node{}, err
	}

	if p.pos >= len(p.src) {
		return Node{}, p.errorf(start, "unmatched '('")
	}
	p.pos++ // ')'

	if len(children) == 0 {
		return Node{}, p.errorf(start, "empty group")
	}
	return Node{Kind: KindGroup, Children: children}, nil
}

func (p *parser) parseClass() (Node, error) {
	start := p.pos
	p.pos++

	var ranges []Range
	for {
		if p.pos >= len(p.src) {
			return Node{}, p.errorf(start, "unmatched '['")
		}
		if p.src[p.pos] == ']' {
			if len(ranges) == 0 {
				return Node{}, p.errorf(start, "empty character class")
			}
			p.pos++
			return Node{Kind: KindClass, Ranges: ranges}, nil
		}
		if p.src[p.pos] == '-' {
			return Node{}, p.errorf(p.pos, "range without a start in character class")
		}

		low, err := p.parseClassChar()
		if err != nil {
			return Node{}, err
		}

		if p.pos >= len(p.src) || p.src[p.pos] != '-' {
			ranges = append(ranges, Range{Low: low, High: low})
			continue
		}

		dash := p.pos
		p.pos++
		if p.pos >= len(p.src) {
			return Node{}, p.errorf(start, "unmatched '['")
		}
		if p.src[p.pos] == ']' {
			return Node{}, p.errorf(dash, "range without an end in character class")
		}
		high, err := p.parseClassChar()
		if err != nil {
			return Node{}, err
		}
		if high < low {
			return Node{}, p.errorf(dash, "reversed range "+quote(low)+"-"+quote(high))
		}
		ranges = append(ranges, Range{Low: low, High: high})
	}
}

func (p *parser) parseClassChar() (byte, error) {
	c := p.src[p.pos]
	switch c {
	case '\\':
		return p.parseEscape()
	case '[', '{', '}', '*', '+', '?':
		return 0, p.errorf(p.pos, "unescaped "+quote(c)+" in character class")
	}
	p.pos++
	return c, nil
}

func (p *parser) parseEscape() (byte, error) {
	if p.pos+1 >= len(p.src) {
		return 0, p.errorf(p.pos, "trailing escape")
	}
	c := p.src[p.pos+1]
	p.pos += 2
	return c, nil
}

func (p *parser) parseMultiplier() (Multiplier, error) {
	if p.pos >= len(p.src) {
		return Multiplier{}, nil
	}

	switch p.src[p.pos] {
	case '*':
		p.pos++
		return Multiplier{Kind: MultZeroOrMore}, nil
	case '+':
		p.pos++
		return Multiplier{Kind: MultOneOrMore}, nil
	case '?':
		p.pos++
		return Multiplier{Kind: MultZeroOrOne}, nil
	case '{':
	default:
		return Multiplier{}, nil
	}

	start := p.pos
	end := strings.IndexByte(p.src[start:], '}')
	if end < 0 {
		return Multiplier{}, p.errorf(start, "unterminated multiplier")
	}
	digits := p.src[start+1 : start+end]
	if digits == "" {
		return Multiplier{}, p.errorf(start, "empty multiplier count")
	}

	count := 0
	for i := 0; i < len(digits); i++ {
		d := digits[i]
		if d < '0' || d > '9' {
			return Multiplier{}, p.errorf(start+1+i, "invalid multiplier count "+strconv.Quote(digits))
		}
		count = count*10 + int(d-'0')
		if count > MaxExactRepeat {
			return Multiplier{}, p.errorf(start, "multiplier count exceeds limit")
		}
	}

	p.pos = start + end + 1
	return Multiplier{Kind: MultExact, Count: count}, nil
}

func quote(c byte) string {
	return "'" + string(c) + "'"
}
