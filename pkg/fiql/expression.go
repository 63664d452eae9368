package fiql

import "strings"

// FIQL comparison operators used by range constraints.
const (
	OpEqual        = "=="
	OpNotEqual     = "!="
	OpGreaterThan  = "=gt="
	OpGreaterEqual = "=ge="
	OpLessThan     = "=lt="
	OpLessEqual    = "=le="
)

// Operator joins the operands of an Expression.
type Operator string

const (
	// And is the FIQL conjunction.
	And Operator = ";"
	// Or is the FIQL disjunction.
	Or Operator = ","
)

// Node is an element of a parsed FIQL tree.
type Node interface {
	String() string
	node()
}

// Constraint is a single "selector comparison argument" term.
// A bare selector has an empty Comparison and Argument.
type Constraint struct {
	Selector   string
	Comparison string
	Argument   string
}

func (*Constraint) node() {}

// String renders the constraint in FIQL form.
func (c *Constraint) String() string {
	return c.Selector + c.Comparison + c.Argument
}

// Expression is a list of operands joined by a single operator.
type Expression struct {
	Operator Operator
	Operands []Node
}

func (*Expression) node() {}

// String renders the expression. An OR group nested inside an AND is
// parenthesized; AND binds tighter and needs no grouping.
func (e *Expression) String() string {
	op := e.Operator
	if op == "" {
		op = And
	}

	parts := make([]string, 0, len(e.Operands))

	for _, operand := range e.Operands {
		if nested, ok := operand.(*Expression); ok && op == And && nested.Operator == Or && len(nested.Operands) > 1 {
			parts = append(parts, "("+nested.String()+")")

			continue
		}

		parts = append(parts, operand.String())
	}

	return strings.Join(parts, string(op))
}

// FirstConstraint returns the leftmost constraint of the tree.
func (e *Expression) FirstConstraint() *Constraint {
	for _, operand := range e.Operands {
		switch n := operand.(type) {
		case *Constraint:
			return n
		case *Expression:
			if c := n.FirstConstraint(); c != nil {
				return c
			}
		}
	}

	return nil
}

// Constraints returns every constraint of the tree in document order.
func (e *Expression) Constraints() []*Constraint {
	var out []*Constraint

	for _, operand := range e.Operands {
		switch n := operand.(type) {
		case *Constraint:
			out = append(out, n)
		case *Expression:
			out = append(out, n.Constraints()...)
		}
	}

	return out
}

// Build returns the range expression for selector over [start, end).
//
// With no end bound a single open-ended "selector=ge=start" constraint is
// produced. When both bounds are integers and end is below start the
// interval is reversed: "selector=gt=end;selector=le=start".
func Build(selector string, start, end Value) string {
	return BuildExpression(selector, start, end).String()
}

// BuildExpression is Build returning the tree instead of its string form.
func BuildExpression(selector string, start, end Value) *Expression {
	if end.IsNone() {
		return &Expression{
			Operator: And,
			Operands: []Node{&Constraint{Selector: selector, Comparison: OpGreaterEqual, Argument: start.String()}},
		}
	}

	if start.Kind() == KindInt && end.Kind() == KindInt {
		if cmp, _ := end.Compare(start); cmp < 0 {
			return &Expression{
				Operator: And,
				Operands: []Node{
					&Constraint{Selector: selector, Comparison: OpGreaterThan, Argument: end.String()},
					&Constraint{Selector: selector, Comparison: OpLessEqual, Argument: start.String()},
				},
			}
		}
	}

	return &Expression{
		Operator: And,
		Operands: []Node{
			&Constraint{Selector: selector, Comparison: OpGreaterEqual, Argument: start.String()},
			&Constraint{Selector: selector, Comparison: OpLessThan, Argument: end.String()},
		},
	}
}

// Join ANDs two FIQL strings. Empty operands are dropped and an operand
// containing a top-level OR is parenthesized so the conjunction binds to
// the whole of it.
func Join(left, right string) string {
	switch {
	case left == "":
		return right
	case right == "":
		return left
	}

	return groupOr(left) + string(And) + groupOr(right)
}

func groupOr(s string) string {
	depth := 0

	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				return "(" + s + ")"
			}
		}
	}

	return s
}
