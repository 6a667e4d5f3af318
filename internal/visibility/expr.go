// Package visibility evaluates component visibility conditions.
//
// A condition is a boolean, a reference to a server-computed when rule
// ("@W Name"), or an expression ("@E .Status == 'Open'"). Expressions are
// parsed into a small predicate tree limited to equality tests over case
// content, then compiled to CEL. Arbitrary code is never evaluated.
package visibility

import (
	"strconv"
	"strings"
)

// Operand is a value in a comparison.
type Operand interface {
	operand()
	String() string
	cel(b *strings.Builder)
}

// Field reads a content property. Missing properties read as "".
type Field struct {
	Name string
}

// Str is a string literal.
type Str struct {
	Value string
}

func (Field) operand() {}
func (Str) operand()   {}

func (f Field) String() string { return "." + f.Name }
func (s Str) String() string   { return strconv.Quote(s.Value) }

func (f Field) cel(b *strings.Builder) {
	q := strconv.Quote(f.Name)
	b.WriteString("(" + q + " in content ? content[" + q + `] : "")`)
}

func (s Str) cel(b *strings.Builder) {
	b.WriteString(strconv.Quote(s.Value))
}

// Expr is a node of the predicate tree.
type Expr interface {
	expr()
	String() string
	cel(b *strings.Builder)
}

// Literal is a constant.
type Literal struct {
	Value bool
}

// Truthy holds when its operand is non-empty.
type Truthy struct {
	X Operand
}

// Equals holds when both operands are the same string.
type Equals struct {
	Left, Right Operand
}

// NotEquals holds when the operands differ.
type NotEquals struct {
	Left, Right Operand
}

// And is logical conjunction.
type And struct {
	Left, Right Expr
}

// Or is logical disjunction.
type Or struct {
	Left, Right Expr
}

// Not is logical negation.
type Not struct {
	X Expr
}

func (Literal) expr()   {}
func (Truthy) expr()    {}
func (Equals) expr()    {}
func (NotEquals) expr() {}
func (And) expr()       {}
func (Or) expr()        {}
func (Not) expr()       {}

func (e Literal) String() string   { return strconv.FormatBool(e.Value) }
func (e Truthy) String() string    { return e.X.String() }
func (e Equals) String() string    { return e.Left.String() + " == " + e.Right.String() }
func (e NotEquals) String() string { return e.Left.String() + " != " + e.Right.String() }
func (e And) String() string       { return "(" + e.Left.String() + " && " + e.Right.String() + ")" }
func (e Or) String() string        { return "(" + e.Left.String() + " || " + e.Right.String() + ")" }
func (e Not) String() string       { return "!" + e.X.String() }

func (e Literal) cel(b *strings.Builder) {
	b.WriteString(strconv.FormatBool(e.Value))
}

func (e Truthy) cel(b *strings.Builder) {
	b.WriteString("(")
	e.X.cel(b)
	b.WriteString(` != "")`)
}

func (e Equals) cel(b *strings.Builder)    { binary(b, e.Left.cel, "==", e.Right.cel) }
func (e NotEquals) cel(b *strings.Builder) { binary(b, e.Left.cel, "!=", e.Right.cel) }
func (e And) cel(b *strings.Builder)       { binary(b, e.Left.cel, "&&", e.Right.cel) }
func (e Or) cel(b *strings.Builder)        { binary(b, e.Left.cel, "||", e.Right.cel) }

func (e Not) cel(b *strings.Builder) {
	b.WriteString("!")
	e.X.cel(b)
}

func binary(b *strings.Builder, left func(*strings.Builder), op string, right func(*strings.Builder)) {
	b.WriteString("(")
	left(b)
	b.WriteString(" " + op + " ")
	right(b)
	b.WriteString(")")
}

// CEL renders e as a CEL expression over the variable "content".
func CEL(e Expr) string {
	var b strings.Builder
	e.cel(&b)
	return b.String()
}

// Fields returns the content properties e reads, in first-use order.
func Fields(e Expr) []string {
	var out []string
	seen := make(map[string]bool)
	addOperand := func(o Operand) {
		if f, ok := o.(Field); ok && !seen[f.Name] {
			seen[f.Name] = true
			out = append(out, f.Name)
		}
	}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case Truthy:
			addOperand(n.X)
		case Equals:
			addOperand(n.Left)
			addOperand(n.Right)
		case NotEquals:
			addOperand(n.Left)
			addOperand(n.Right)
		case And:
			walk(n.Left)
			walk(n.Right)
		case Or:
			walk(n.Left)
			walk(n.Right)
		case Not:
			walk(n.X)
		}
	}
	walk(e)
	return out
}
