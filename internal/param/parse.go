package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Parse reads an infix parameter expression.
//
// Supported forms:
//   - Plain numbers: "1.5707", "-0.5", "3.14e-2"
//   - Pi: "pi", "pi/2", "2pi", "3*pi/4", "-pi"
//   - Declared symbols: "theta", "-theta/2", "2*(theta + phi)"
//
// Identifiers other than pi must be present in symbols.
func Parse(s string, symbols map[string]Symbol) (Value, error) {
	p := &parser{src: strings.TrimSpace(s), symbols: symbols}
	if p.src == "" {
		return nil, fmt.Errorf("empty parameter expression")
	}
	v, err := p.parseSum()
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("parse %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return v, nil
}

type parser struct {
	src     string
	pos     int
	symbols map[string]Symbol
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parseSum() (Value, error) {
	lhs, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			if lhs, err = Add(lhs, rhs); err != nil {
				return nil, err
			}
		case '-':
			p.pos++
			rhs, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			if lhs, err = Sub(lhs, rhs); err != nil {
				return nil, err
			}
		default:
			return lhs, nil
		}
	}
}

func (p *parser) parseProduct() (Value, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if lhs, err = Mul(lhs, rhs); err != nil {
				return nil, err
			}
		case '/':
			p.pos++
			rhs, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if lhs, err = Div(lhs, rhs); err != nil {
				return nil, err
			}
		default:
			return lhs, nil
		}
	}
}

func (p *parser) parseUnary() (Value, error) {
	if p.peek() == '-' {
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Neg(v), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Value, error) {
	c := p.peek()
	switch {
	case c == 0:
		return nil, fmt.Errorf("unexpected end of expression")
	case c == '(':
		p.pos++
		v, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	case c == '.' || (c >= '0' && c <= '9'):
		x, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		// "2pi" is accepted as 2*pi.
		if strings.HasPrefix(p.src[p.pos:], "pi") {
			p.pos += 2
			return Float(x * math.Pi), nil
		}
		return Float(x), nil
	case isIdentStart(rune(c)):
		name := p.parseIdent()
		if name == "pi" {
			return Float(math.Pi), nil
		}
		sym, ok := p.symbols[name]
		if !ok {
			return nil, fmt.Errorf("undeclared symbol %q", name)
		}
		return sym.Expr(), nil
	}
	return nil, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
}

func (p *parser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c >= '0' && c <= '9', c == '.':
			p.pos++
		case (c == 'e' || c == 'E') && p.pos+1 < len(p.src):
			next := p.src[p.pos+1]
			if next >= '0' && next <= '9' {
				p.pos++
			} else if (next == '-' || next == '+') && p.pos+2 < len(p.src) && p.src[p.pos+2] >= '0' && p.src[p.pos+2] <= '9' {
				p.pos += 2
			} else {
				return strconv.ParseFloat(p.src[start:p.pos], 64)
			}
		default:
			return strconv.ParseFloat(p.src[start:p.pos], 64)
		}
	}
	return strconv.ParseFloat(p.src[start:p.pos], 64)
}

func (p *parser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if !isIdentStart(r) && !unicode.IsDigit(r) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}
