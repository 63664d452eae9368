package fiql

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("fiql parse error")

// ParseError reports malformed FIQL input.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("fiql: %s at position %d in %q", e.Msg, e.Pos, e.Input)
}

// Is lets errors.Is(err, ErrParse) match.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Parse parses a FIQL string into an expression tree.
//
//	expression := and ( "," and )*
//	and        := primary ( ";" primary )*
//	primary    := "(" expression ")" | constraint
//	constraint := selector [ comparison argument ]
func Parse(query string) (*Expression, error) {
	p := &parser{input: query}

	if strings.TrimSpace(query) == "" {
		return nil, p.errorf("empty expression")
	}

	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if !p.done() {
		return nil, p.errorf("unexpected %q", p.input[p.pos])
	}

	if len(expr.Operands) == 1 {
		if nested, ok := expr.Operands[0].(*Expression); ok {
			return nested, nil
		}

		return &Expression{Operator: And, Operands: expr.Operands}, nil
	}

	return expr, nil
}

// ParseSelector returns the selector of the first constraint in query.
func ParseSelector(query string) (string, error) {
	expr, err := Parse(query)
	if err != nil {
		return "", err
	}

	c := expr.FirstConstraint()
	if c == nil {
		return "", &ParseError{Input: query, Msg: "no constraint found"}
	}

	return c.Selector, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) done() bool {
	return p.pos >= len(p.input)
}

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}

	return p.input[p.pos]
}

func (p *parser) errorf(format string, args ...interface{}) *ParseError {
	return &ParseError{Input: p.input, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseOr() (*Expression, error) {
	return p.parseList(Or, p.parseAnd)
}

func (p *parser) parseAnd() (*Expression, error) {
	return p.parseList(And, p.parsePrimary)
}

func (p *parser) parseList(op Operator, operand func() (*Expression, error)) (*Expression, error) {
	expr := &Expression{Operator: op}

	for {
		sub, err := operand()
		if err != nil {
			return nil, err
		}

		expr.Operands = append(expr.Operands, flatten(sub))

		if p.peek() != op[0] {
			break
		}

		p.pos++
	}

	return expr, nil
}

// flatten unwraps single-operand expressions so trees stay shallow.
func flatten(e *Expression) Node {
	if len(e.Operands) == 1 {
		return e.Operands[0]
	}

	return e
}

func (p *parser) parsePrimary() (*Expression, error) {
	if p.peek() == '(' {
		p.pos++

		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		if p.peek() != ')' {
			return nil, p.errorf("missing closing parenthesis")
		}

		p.pos++

		return &Expression{Operator: And, Operands: []Node{flatten(inner)}}, nil
	}

	c, err := p.parseConstraint()
	if err != nil {
		return nil, err
	}

	return &Expression{Operator: And, Operands: []Node{c}}, nil
}

func (p *parser) parseConstraint() (*Constraint, error) {
	start := p.pos

	err := p.scan(isUnreserved)
	if err != nil {
		return nil, err
	}

	if p.pos == start {
		if p.done() {
			return nil, p.errorf("expected selector, found end of input")
		}

		return nil, p.errorf("expected selector, found %q", p.peek())
	}

	c := &Constraint{Selector: p.input[start:p.pos]}

	if p.done() || isDelimiter(p.peek()) {
		return c, nil
	}

	comparison, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	c.Comparison = comparison

	start = p.pos

	err = p.scan(isArgumentChar)
	if err != nil {
		return nil, err
	}

	if !p.done() && !isDelimiter(p.peek()) {
		return nil, p.errorf("unexpected %q in argument", p.peek())
	}

	if p.pos == start {
		return nil, p.errorf("missing argument after %q", comparison)
	}

	c.Argument = p.input[start:p.pos]

	return c, nil
}

// parseComparison reads ( "=" *ALPHA / fiql-delim ) "=".
func (p *parser) parseComparison() (string, error) {
	start := p.pos

	switch c := p.peek(); {
	case c == '=':
		p.pos++
		for !p.done() && isAlpha(p.peek()) {
			p.pos++
		}
	case isFIQLDelim(c):
		p.pos++
	default:
		return "", p.errorf("expected comparison, found %q", c)
	}

	if p.peek() != '=' {
		return "", p.errorf("unterminated comparison %q", p.input[start:p.pos])
	}

	p.pos++

	return p.input[start:p.pos], nil
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// scan advances over characters accepted by accept and "%XX" escapes. A
// percent sign without two hex digits is an error.
func (p *parser) scan(accept func(byte) bool) error {
	for !p.done() {
		c := p.peek()

		if c == '%' {
			if p.pos+2 >= len(p.input) || !isHex(p.input[p.pos+1]) || !isHex(p.input[p.pos+2]) {
				return p.errorf("invalid percent escape")
			}

			p.pos += 3

			continue
		}

		if !accept(c) {
			return nil
		}

		p.pos++
	}

	return nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// isUnreserved reports RFC 3986 unreserved characters.
func isUnreserved(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9') ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

func isArgumentChar(c byte) bool {
	return isUnreserved(c) || isFIQLDelim(c) || c == '='
}

func isFIQLDelim(c byte) bool {
	return c == '!' || c == '$' || c == '\'' || c == '*' || c == '+'
}

func isDelimiter(c byte) bool {
	return c == ';' || c == ',' || c == '(' || c == ')'
}
