package parser

import "el/internal/lexer"

// Expr is an expression node.
type Expr interface {
	exprNode()
}

// Truth is a three-valued boolean literal as it appears in source.
type Truth int

const (
	TruthFalse Truth = iota
	TruthUnknown
	TruthTrue
)

func (t Truth) String() string {
	switch t {
	case TruthTrue:
		return "true"
	case TruthFalse:
		return "false"
	default:
		return "realistic"
	}
}

// Literal expression: integer, real, string, or truth value.
// Value holds int64, float64, string, or Truth.
type Literal struct {
	Value interface{}
	Tok   lexer.Token
}

// Variable expression: x
type Variable struct {
	Name string
	Tok  lexer.Token
}

// Binary expression: a + b, a < b
type Binary struct {
	Left  Expr
	Op    lexer.TokenType
	Right Expr
	Tok   lexer.Token
}

// Logical expression: a and b, a or b
type Logical struct {
	Left  Expr
	Op    lexer.TokenType
	Right Expr
	Tok   lexer.Token
}

// Unary expression: not x, -x
type Unary struct {
	Op      lexer.TokenType
	Operand Expr
	Tok     lexer.Token
}

// Call expression: callee(args...). El functions are called by name.
type CallExpr struct {
	Callee string
	Args   []Expr
	Tok    lexer.Token
}

// Index expression: array[index]
type IndexExpr struct {
	Object Expr
	Index  Expr
	Tok    lexer.Token
}

// Array literal: [1, 2, 3]
type ArrayLit struct {
	Elements []Expr
	Tok      lexer.Token
}

func (*Literal) exprNode()   {}
func (*Variable) exprNode()  {}
func (*Binary) exprNode()    {}
func (*Logical) exprNode()   {}
func (*Unary) exprNode()     {}
func (*CallExpr) exprNode()  {}
func (*IndexExpr) exprNode() {}
func (*ArrayLit) exprNode()  {}
