package codec

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// LiteralError reports where a legacy literal failed to parse
type LiteralError struct {
	Pos int
	Msg string
}

func (e *LiteralError) Error() string {
	return fmt.Sprintf("literal syntax error at offset %d: %s", e.Pos, e.Msg)
}

// ParseLiteral parses the legacy payload encoding: the literal subset of
// Python expression syntax. Strings decode to string, integers to int64,
// floats to float64, True/False to bool, None to nil, dicts to
// map[string]any (non-string keys are formatted) and lists, tuples and
// sets to []any. Nothing is ever evaluated.
func ParseLiteral(s string) (any, error) {
	p := &literalParser{src: s}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected trailing input %q", p.rest(10))
	}
	return v, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) eof() bool { return p.pos >= len(p.src) }

func (p *literalParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) rest(n int) string {
	end := min(p.pos+n, len(p.src))
	return p.src[p.pos:end]
}

func (p *literalParser) errorf(format string, args ...any) error {
	return &LiteralError{Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *literalParser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) value() (any, error) {
	if p.eof() {
		return nil, p.errorf("unexpected end of input")
	}

	c := p.peek()
	switch {
	case c == '{':
		return p.dict()
	case c == '[':
		return p.sequence('[', ']')
	case c == '(':
		return p.sequence('(', ')')
	case c == '\'' || c == '"':
		return p.str(false)
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return p.number()
	case isIdentStart(c):
		return p.keywordOrPrefixedString()
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

func (p *literalParser) keywordOrPrefixedString() (any, error) {
	start := p.pos
	for !p.eof() && isIdentStart(p.peek()) {
		p.pos++
	}
	word := p.src[start:p.pos]

	if q := p.peek(); (q == '\'' || q == '"') && len(word) <= 2 {
		raw := false
		for _, r := range strings.ToLower(word) {
			switch r {
			case 'u', 'b':
			case 'r':
				raw = true
			default:
				p.pos = start
				return nil, p.errorf("invalid string prefix %q", word)
			}
		}
		return p.str(raw)
	}

	switch word {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return nil, nil
	}
	p.pos = start
	return nil, p.errorf("unknown name %q", word)
}

func (p *literalParser) str(raw bool) (string, error) {
	quote := p.peek()
	triple := strings.HasPrefix(p.src[p.pos:], strings.Repeat(string(quote), 3))
	if triple {
		p.pos += 3
	} else {
		p.pos++
	}

	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}
		c := p.src[p.pos]

		if c == quote {
			if !triple {
				p.pos++
				return b.String(), nil
			}
			if strings.HasPrefix(p.src[p.pos:], strings.Repeat(string(quote), 3)) {
				p.pos += 3
				return b.String(), nil
			}
		}
		if c == '\n' && !triple {
			return "", p.errorf("newline in string")
		}
		if c == '\\' && !raw {
			if err := p.escape(&b); err != nil {
				return "", err
			}
			continue
		}

		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		b.WriteRune(r)
		p.pos += size
	}
}

func (p *literalParser) escape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.eof() {
		return p.errorf("unterminated escape")
	}
	c := p.src[p.pos]
	p.pos++

	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '0':
		b.WriteByte(0)
	case '\\', '\'', '"':
		b.WriteByte(c)
	case '\n':
		// line continuation
	case 'x':
		return p.hexEscape(b, 2)
	case 'u':
		return p.hexEscape(b, 4)
	case 'U':
		return p.hexEscape(b, 8)
	default:
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (p *literalParser) hexEscape(b *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return p.errorf("truncated escape")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil {
		return p.errorf("invalid hex escape %q", p.src[p.pos:p.pos+digits])
	}
	p.pos += digits
	b.WriteRune(rune(n))
	return nil
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}

	isFloat := false
scan:
	for !p.eof() {
		c := p.peek()
		switch {
		case isDigit(c) || c == '_':
			p.pos++
		case c == '.':
			isFloat = true
			p.pos++
		case c == 'e' || c == 'E':
			isFloat = true
			p.pos++
			if s := p.peek(); s == '-' || s == '+' {
				p.pos++
			}
		default:
			break scan
		}
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	// Python 2 long suffix
	if c := p.peek(); c == 'L' || c == 'l' {
		p.pos++
	}

	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.pos = start
			return nil, p.errorf("invalid number %q", text)
		}
		return f, nil
	}
	n, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("invalid number %q", text)
	}
	return n, nil
}

func (p *literalParser) dict() (any, error) {
	p.pos++ // {
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return map[string]any{}, nil
	}

	first, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != ':' {
		// set literal
		return p.continueSequence([]any{first}, '}')
	}

	out := map[string]any{}
	key := first
	for {
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':' after dict key")
		}
		p.pos++
		p.skipSpace()
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		out[stringify(key)] = val

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == '}' {
				p.pos++
				return out, nil
			}
		case '}':
			p.pos++
			return out, nil
		default:
			return nil, p.errorf("expected ',' or '}' in dict")
		}

		if key, err = p.value(); err != nil {
			return nil, err
		}
	}
}

func (p *literalParser) sequence(open, end byte) (any, error) {
	p.pos++ // open
	p.skipSpace()
	if p.peek() == end {
		p.pos++
		return []any{}, nil
	}
	first, err := p.value()
	if err != nil {
		return nil, err
	}
	return p.continueSequence([]any{first}, end)
}

func (p *literalParser) continueSequence(items []any, end byte) (any, error) {
	for {
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == end {
				p.pos++
				return items, nil
			}
		case end:
			p.pos++
			return items, nil
		default:
			return nil, p.errorf("expected ',' or %q", end)
		}

		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
