package descriptor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// repairParse is the last-resort descriptor reader: a recovery parser for
// the JSON-like dialect real mod descriptors are written in. It tolerates
// C-style and # comments, unquoted and single-quoted keys and values,
// stray or missing commas, and duplicate keys (last write wins).
func repairParse(data []byte) (any, error) {
	p := &repairParser{src: data}
	p.skipJunk()
	return p.parseValue(0)
}

type repairParser struct {
	src []byte
	pos int
}

const maxRepairDepth = 100

func (p *repairParser) parseValue(depth int) (any, error) {
	if depth > maxRepairDepth {
		return nil, fmt.Errorf("repair: nesting too deep")
	}
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("repair: unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseObject(depth)
	case c == '[':
		return p.parseArray(depth)
	case c == '"' || c == '\'':
		return p.parseString(c)
	default:
		return p.parseBare()
	}
}

func (p *repairParser) parseObject(depth int) (any, error) {
	p.pos++ // consume '{'
	obj := make(map[string]any)
	for {
		p.skipJunk()
		p.skipCommas()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("repair: unterminated object")
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return obj, nil
		}

		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		p.skipJunk()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, fmt.Errorf("repair: missing ':' after key %q", key)
		}
		p.pos++
		p.skipJunk()

		v, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		obj[key] = v // duplicate keys: last write wins
	}
}

func (p *repairParser) parseArray(depth int) (any, error) {
	p.pos++ // consume '['
	arr := []any{}
	for {
		p.skipJunk()
		p.skipCommas()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("repair: unterminated array")
		}
		if p.src[p.pos] == ']' {
			p.pos++
			return arr, nil
		}

		v, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func (p *repairParser) parseKey() (string, error) {
	if c := p.src[p.pos]; c == '"' || c == '\'' {
		return p.parseString(c)
	}
	start := p.pos
	for p.pos < len(p.src) && !isDelim(p.src[p.pos]) && !isSpace(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("repair: expected key at offset %d", p.pos)
	}
	return string(p.src[start:p.pos]), nil
}

func (p *repairParser) parseString(quote byte) (string, error) {
	p.pos++ // consume opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\' && p.pos+1 < len(p.src):
			p.pos++
			esc := p.src[p.pos]
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'u':
				if p.pos+4 < len(p.src) {
					if n, err := strconv.ParseUint(string(p.src[p.pos+1:p.pos+5]), 16, 32); err == nil {
						b.WriteRune(rune(n))
						p.pos += 4
						break
					}
				}
				b.WriteByte('u')
			default:
				b.WriteByte(esc)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("repair: unterminated string")
}

func (p *repairParser) parseBare() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && !isDelim(p.src[p.pos]) && !isSpace(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, fmt.Errorf("repair: unexpected character %q at offset %d", p.src[start], start)
	}
	tok := string(p.src[start:p.pos])
	switch tok {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if _, err := strconv.ParseFloat(tok, 64); err == nil {
		return json.Number(tok), nil
	}
	return tok, nil // bare word becomes a string
}

func isDelim(c byte) bool {
	switch c {
	case '{', '}', '[', ']', ':', ',', '"', '\'':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// skipJunk consumes whitespace, C-style comments, and the # line comments
// version files tend to carry.
func (p *repairParser) skipJunk() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case isSpace(c):
			p.pos++
		case c == '#':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		case c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '/':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		case c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*':
			p.pos += 2
			for p.pos+1 < len(p.src) && !(p.src[p.pos] == '*' && p.src[p.pos+1] == '/') {
				p.pos++
			}
			p.pos += 2
		default:
			return
		}
	}
}

// skipCommas consumes runs of stray separator commas.
func (p *repairParser) skipCommas() {
	for p.pos < len(p.src) && p.src[p.pos] == ',' {
		p.pos++
		p.skipJunk()
	}
}
