// Package partialjson parses syntactically incomplete JSON documents,
// reconstructing the deepest consistent prefix of the value. It exists
// because model output arrives token by token and encoding/json rejects
// any document that is not yet closed.
package partialjson

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

// State reports whether the parsed value covered a closed document or a
// truncated one.
type State int

const (
	// StateComplete means the input contained one whole JSON value.
	StateComplete State = iota
	// StateIncomplete means the input was a prefix of a JSON value; the
	// returned value is the best-effort reconstruction so far.
	StateIncomplete
)

// Parse leniently parses input. It tolerates an unclosed top-level array,
// unclosed objects, unterminated strings (returned truncated), partial
// numbers and literals, and a trailing comma at the cut point. A non-nil
// error means the input is genuinely malformed, not merely truncated;
// truncation is the expected state during streaming and is reported via
// StateIncomplete.
func Parse(input string) (any, State, error) {
	p := &parser{s: input}
	p.skipSpace()
	if p.eof() {
		return nil, StateIncomplete, nil
	}

	val, hasVal, complete, err := p.parseValue()
	if err != nil {
		return nil, StateIncomplete, err
	}
	if !complete {
		if !hasVal {
			return nil, StateIncomplete, nil
		}
		return val, StateIncomplete, nil
	}

	p.skipSpace()
	if !p.eof() {
		return nil, StateIncomplete, fmt.Errorf("partialjson: trailing data at offset %d", p.i)
	}
	return val, StateComplete, nil
}

type parser struct {
	s string
	i int
}

func (p *parser) eof() bool { return p.i >= len(p.s) }

func (p *parser) skipSpace() {
	for p.i < len(p.s) {
		switch p.s[p.i] {
		case ' ', '\t', '\n', '\r':
			p.i++
		default:
			return
		}
	}
}

// parseValue returns the value, whether any value could be reconstructed,
// whether it was closed, and a malformed error if the input can never
// become valid JSON.
func (p *parser) parseValue() (val any, hasVal bool, complete bool, err error) {
	switch c := p.s[p.i]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		return p.parseString()
	case c == 't' || c == 'f' || c == 'n':
		return p.parseLiteral()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return nil, false, false, fmt.Errorf("partialjson: unexpected character %q at offset %d", c, p.i)
	}
}

func (p *parser) parseArray() (any, bool, bool, error) {
	p.i++ // consume '['
	items := []any{}
	for {
		p.skipSpace()
		if p.eof() {
			return items, true, false, nil
		}
		if p.s[p.i] == ']' {
			p.i++
			return items, true, true, nil
		}

		val, hasVal, complete, err := p.parseValue()
		if err != nil {
			return nil, false, false, err
		}
		if !complete {
			if hasVal {
				items = append(items, val)
			}
			return items, true, false, nil
		}
		items = append(items, val)

		p.skipSpace()
		if p.eof() {
			return items, true, false, nil
		}
		switch p.s[p.i] {
		case ',':
			p.i++
		case ']':
			p.i++
			return items, true, true, nil
		default:
			return nil, false, false, fmt.Errorf("partialjson: expected ',' or ']' at offset %d", p.i)
		}
	}
}

func (p *parser) parseObject() (any, bool, bool, error) {
	p.i++ // consume '{'
	obj := map[string]any{}
	for {
		p.skipSpace()
		if p.eof() {
			return obj, true, false, nil
		}
		if p.s[p.i] == '}' {
			p.i++
			return obj, true, true, nil
		}
		if p.s[p.i] != '"' {
			return nil, false, false, fmt.Errorf("partialjson: expected object key at offset %d", p.i)
		}

		key, _, keyComplete, err := p.parseString()
		if err != nil {
			return nil, false, false, err
		}
		if !keyComplete {
			// A half-written key carries no usable information yet.
			return obj, true, false, nil
		}

		p.skipSpace()
		if p.eof() {
			return obj, true, false, nil
		}
		if p.s[p.i] != ':' {
			return nil, false, false, fmt.Errorf("partialjson: expected ':' at offset %d", p.i)
		}
		p.i++
		p.skipSpace()
		if p.eof() {
			return obj, true, false, nil
		}

		val, hasVal, complete, err := p.parseValue()
		if err != nil {
			return nil, false, false, err
		}
		if !complete {
			if hasVal {
				obj[key.(string)] = val
			}
			return obj, true, false, nil
		}
		obj[key.(string)] = val

		p.skipSpace()
		if p.eof() {
			return obj, true, false, nil
		}
		switch p.s[p.i] {
		case ',':
			p.i++
		case '}':
			p.i++
			return obj, true, true, nil
		default:
			return nil, false, false, fmt.Errorf("partialjson: expected ',' or '}' at offset %d", p.i)
		}
	}
}

func (p *parser) parseString() (any, bool, bool, error) {
	p.i++ // consume opening quote
	var b strings.Builder
	for {
		if p.eof() {
			// Closing quote never arrived: return what we have.
			return b.String(), true, false, nil
		}
		c := p.s[p.i]
		if c == '"' {
			p.i++
			return b.String(), true, true, nil
		}
		if c != '\\' {
			b.WriteByte(c)
			p.i++
			continue
		}

		// Escape sequence. A truncated one is dropped rather than emitted
		// half-decoded.
		if p.i+1 >= len(p.s) {
			return b.String(), true, false, nil
		}
		esc := p.s[p.i+1]
		switch esc {
		case '"', '\\', '/':
			b.WriteByte(esc)
			p.i += 2
		case 'b':
			b.WriteByte('\b')
			p.i += 2
		case 'f':
			b.WriteByte('\f')
			p.i += 2
		case 'n':
			b.WriteByte('\n')
			p.i += 2
		case 'r':
			b.WriteByte('\r')
			p.i += 2
		case 't':
			b.WriteByte('\t')
			p.i += 2
		case 'u':
			if p.i+6 > len(p.s) {
				return b.String(), true, false, nil
			}
			n, err := strconv.ParseUint(p.s[p.i+2:p.i+6], 16, 32)
			if err != nil {
				return nil, false, false, fmt.Errorf("partialjson: invalid unicode escape at offset %d", p.i)
			}
			r := rune(n)
			p.i += 6
			if utf16.IsSurrogate(r) {
				rest := p.s[p.i:]
				// Defer only while the remaining input is still a prefix of
				// a possible \uXXXX pair partner cut off at end of input.
				if rest == "" || rest == "\\" || (strings.HasPrefix(rest, "\\u") && len(rest) < 6) {
					return b.String(), true, false, nil
				}
				if strings.HasPrefix(rest, "\\u") {
					if n2, err2 := strconv.ParseUint(rest[2:6], 16, 32); err2 == nil {
						if dec := utf16.DecodeRune(r, rune(n2)); dec != 0xFFFD {
							b.WriteRune(dec)
							p.i += 6
							continue
						}
					}
				}
				// Unpaired surrogate, same replacement encoding/json makes.
				b.WriteRune(0xFFFD)
				continue
			}
			b.WriteRune(r)
		default:
			return nil, false, false, fmt.Errorf("partialjson: invalid escape %q at offset %d", esc, p.i)
		}
	}
}

func (p *parser) parseNumber() (any, bool, bool, error) {
	start := p.i
	for p.i < len(p.s) && isNumberChar(p.s[p.i]) {
		p.i++
	}
	tok := p.s[start:p.i]
	atEOF := p.eof()

	f, err := strconv.ParseFloat(tok, 64)
	if err == nil {
		return f, true, !atEOF, nil
	}
	if !atEOF {
		return nil, false, false, fmt.Errorf("partialjson: invalid number %q at offset %d", tok, start)
	}
	// Truncated mid-number ("-", "1.", "2e"): back off trailing partial
	// syntax and keep what still parses.
	trimmed := strings.TrimRight(tok, "+-.eE")
	if trimmed == "" {
		return nil, false, false, nil
	}
	f, err = strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, false, false, nil
	}
	return f, true, false, nil
}

func isNumberChar(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E'
}

func (p *parser) parseLiteral() (any, bool, bool, error) {
	for _, lit := range []struct {
		text string
		val  any
	}{
		{"true", true},
		{"false", false},
		{"null", nil},
	} {
		rest := p.s[p.i:]
		if strings.HasPrefix(rest, lit.text) {
			p.i += len(lit.text)
			return lit.val, true, true, nil
		}
		if strings.HasPrefix(lit.text, rest) {
			// Input ends inside the literal; nothing to salvage yet.
			p.i = len(p.s)
			return nil, false, false, nil
		}
	}
	return nil, false, false, fmt.Errorf("partialjson: unexpected token at offset %d", p.i)
}
