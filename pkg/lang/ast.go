package lang

import (
	"strconv"
	"strings"
)

// Expr is a node in a parsed statement tree. A node is immutable once
// constructed and owns its children outright; a top-level script is an
// ordered sequence of Expr, one per statement.
type Expr interface {
	// Pos returns the node's source position (1-based line and column).
	Pos() (line, col int)
	// String renders the node as canonical s-expression text. Sugar does
	// not survive parsing, so two scripts that parse to the same tree
	// render identically.
	String() string

	exprNode()
}

// NumberLit is a numeric literal atom.
type NumberLit struct {
	Value float64
	Line  int
	Col   int
}

// StringLit is a string literal atom.
type StringLit struct {
	Value string
	Line  int
	Col   int
}

// Symbol is a bare name, resolved against the environment at evaluation
// time.
type Symbol struct {
	Name string
	Line int
	Col  int
}

// Call applies its head expression to zero or more arguments.
type Call struct {
	Head Expr
	Args []Expr
	Line int
	Col  int
}

func (n *NumberLit) exprNode() {}
func (n *StringLit) exprNode() {}
func (n *Symbol) exprNode()    {}
func (n *Call) exprNode()      {}

// Pos returns the literal's source position.
func (n *NumberLit) Pos() (int, int) { return n.Line, n.Col }

// Pos returns the literal's source position.
func (n *StringLit) Pos() (int, int) { return n.Line, n.Col }

// Pos returns the symbol's source position.
func (n *Symbol) Pos() (int, int) { return n.Line, n.Col }

// Pos returns the position of the call's opening '(' or '$'.
func (n *Call) Pos() (int, int) { return n.Line, n.Col }

func (n *NumberLit) String() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (n *StringLit) String() string {
	return strconv.Quote(n.Value)
}

func (n *Symbol) String() string {
	return n.Name
}

func (n *Call) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(n.Head.String())
	for _, arg := range n.Args {
		sb.WriteByte(' ')
		sb.WriteString(arg.String())
	}
	sb.WriteByte(')')
	return sb.String()
}
