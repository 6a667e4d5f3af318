package visibility

import (
	"fmt"
	"strings"
)

// ParseError reports an expression outside the supported grammar.
type ParseError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("visibility expression %q at offset %d: %s", e.Input, e.Offset, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokField
	tokString
	tokWord // true, false, or a bare number
	tokEq
	tokNe
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case strings.HasPrefix(input[i:], "==="):
			toks = append(toks, token{tokEq, "===", i})
			i += 3
		case strings.HasPrefix(input[i:], "!=="):
			toks = append(toks, token{tokNe, "!==", i})
			i += 3
		case strings.HasPrefix(input[i:], "=="):
			toks = append(toks, token{tokEq, "==", i})
			i += 2
		case strings.HasPrefix(input[i:], "!="):
			toks = append(toks, token{tokNe, "!=", i})
			i += 2
		case strings.HasPrefix(input[i:], "&&"):
			toks = append(toks, token{tokAnd, "&&", i})
			i += 2
		case strings.HasPrefix(input[i:], "||"):
			toks = append(toks, token{tokOr, "||", i})
			i += 2
		case c == '!':
			toks = append(toks, token{tokNot, "!", i})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(input[i+1:], c)
			if end < 0 {
				return nil, &ParseError{Input: input, Offset: i, Msg: "unterminated string"}
			}
			toks = append(toks, token{tokString, input[i+1 : i+1+end], i})
			i += end + 2
		case c == '.':
			start := i + 1
			j := start
			for j < len(input) && isNameByte(input[j]) {
				j++
			}
			if j == start {
				return nil, &ParseError{Input: input, Offset: i, Msg: "expected property name after '.'"}
			}
			toks = append(toks, token{tokField, input[start:j], i})
			i = j
		case isNameByte(c):
			j := i
			for j < len(input) && isNameByte(input[j]) {
				j++
			}
			toks = append(toks, token{tokWord, input[i:j], i})
			i = j
		default:
			return nil, &ParseError{Input: input, Offset: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return append(toks, token{tokEOF, "", len(input)}), nil
}

// isNameByte accepts property path characters, including the dots of
// embedded paths such as Address.City. Bytes of multi-byte UTF-8
// sequences are accepted as is.
func isNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '.', c == '-', c >= 0x80:
		return true
	}
	return false
}

type parser struct {
	input string
	toks  []token
	pos   int
}

// Parse parses an expression such as:
//
//	.Status == 'Open' && !(.Type === "Internal" || .Closed)
//
// Supported: .Property, quoted strings, true, false, numbers (compared as
// strings), ==, !=, === and !== (treated as == and !=), &&, ||, ! and
// parentheses. A bare operand is true when non-empty.
func Parse(input string) (Expr, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, toks: toks}
	e, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return e, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &ParseError{Input: p.input, Offset: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) or() (Expr, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) and() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) unary() (Expr, error) {
	if p.peek().kind == tokNot {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Expr, error) {
	if p.peek().kind == tokLParen {
		p.next()
		e, err := p.or()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, p.errorf(t, "expected ')'")
		}
		return e, nil
	}

	start := p.peek()
	left, err := p.operand()
	if err != nil {
		return nil, err
	}

	switch p.peek().kind {
	case tokEq:
		p.next()
		right, err := p.operand()
		if err != nil {
			return nil, err
		}
		return Equals{Left: left, Right: right}, nil
	case tokNe:
		p.next()
		right, err := p.operand()
		if err != nil {
			return nil, err
		}
		return NotEquals{Left: left, Right: right}, nil
	}

	if start.kind == tokWord {
		switch start.text {
		case "true":
			return Literal{Value: true}, nil
		case "false":
			return Literal{Value: false}, nil
		}
	}
	return Truthy{X: left}, nil
}

func (p *parser) operand() (Operand, error) {
	t := p.next()
	switch t.kind {
	case tokField:
		return Field{Name: t.text}, nil
	case tokString:
		return Str{Value: t.text}, nil
	case tokWord:
		if t.text == "true" || t.text == "false" || isNumber(t.text) {
			return Str{Value: t.text}, nil
		}
		return nil, p.errorf(t, "unsupported identifier %q", t.text)
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of expression")
	}
	return nil, p.errorf(t, "unexpected %q", t.text)
}

func isNumber(s string) bool {
	dot := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !dot && i > 0:
			dot = true
		case r == '-' && i == 0 && len(s) > 1:
		default:
			return false
		}
	}
	return s != ""
}
