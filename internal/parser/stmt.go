package parser

import "el/internal/lexer"

// Stmt is a statement node.
type Stmt interface {
	stmtNode()
}

// Program is the root node: an optionally named statement list.
type Program struct {
	Name  string
	Stmts []Stmt
}

// TypeRef is a declared type annotation. Array annotations may carry a size;
// the size is advisory and never enforced.
type TypeRef struct {
	Kind    lexer.TokenType
	Size    int
	HasSize bool
}

// VarDecl declares one or more variables: var x, y: integer = 5
type VarDecl struct {
	Names []string
	Type  TypeRef
	Value Expr // nil when uninitialized
	Tok   lexer.Token
}

// ConstDecl declares one or more constants; the initializer is mandatory.
type ConstDecl struct {
	Names []string
	Type  TypeRef
	Value Expr
	Tok   lexer.Token
}

// AssignStmt assigns to an existing variable: x = expr
type AssignStmt struct {
	Name  string
	Value Expr
	Tok   lexer.Token
}

// IndexAssignStmt assigns to an array element: xs[i] = expr
type IndexAssignStmt struct {
	Name  string
	Index Expr
	Value Expr
	Tok   lexer.Token
}

// IfStmt with optional else branch (else-if chains nest in Else).
type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
	Tok  lexer.Token
}

type WhileStmt struct {
	Cond Expr
	Body []Stmt
	Tok  lexer.Token
}

// DoWhileStmt runs its body once before the first condition check.
type DoWhileStmt struct {
	Body []Stmt
	Cond Expr
	Tok  lexer.Token
}

// ForStmt is the counted form: for (init; cond; step) { ... }
type ForStmt struct {
	Init Stmt // VarDecl or AssignStmt, may be nil
	Cond Expr // may be nil (loops until break)
	Step Stmt // AssignStmt, may be nil
	Body []Stmt
	Tok  lexer.Token
}

// ForEachStmt iterates an array: for x in expr { ... }
type ForEachStmt struct {
	Name string
	Seq  Expr
	Body []Stmt
	Tok  lexer.Token
}

// SwitchStmt with ordered case clauses. Stacked labels (case "A": case "B":)
// collapse into one clause with multiple values.
type SwitchStmt struct {
	Subject Expr
	Cases   []CaseClause
	Tok     lexer.Token
}

type CaseClause struct {
	Values  []Expr // empty for default
	Body    []Stmt
	Default bool
	Tok     lexer.Token
}

type Param struct {
	Name string
	Type TypeRef
}

type FunctionDecl struct {
	Name   string
	Params []Param
	Body   []Stmt
	Tok    lexer.Token
}

type ReturnStmt struct {
	Value Expr // nil returns the unit value
	Tok   lexer.Token
}

type BreakStmt struct {
	Tok lexer.Token
}

// ShowStmt prints an expression's canonical string form.
type ShowStmt struct {
	Value Expr
	Tok   lexer.Token
}

// ExprStmt wraps a bare expression evaluated for effect.
type ExprStmt struct {
	X   Expr
	Tok lexer.Token
}

// TheoremDecl names a proposition pending proof.
type TheoremDecl struct {
	Name string
	Prop Expr
	Tok  lexer.Token
}

// AxiomDecl names a proposition accepted without proof.
type AxiomDecl struct {
	Name string
	Prop Expr
	Tok  lexer.Token
}

// ProofBlock is the ordered step list for a named theorem. Completed records
// whether the QED marker was present; the checker, not the parser, rejects
// incomplete proofs.
type ProofBlock struct {
	Theorem   string
	Steps     []ProofStep
	Completed bool
	Tok       lexer.Token
}

// ProofStep is one entry in a proof block.
type ProofStep interface {
	proofStepNode()
}

// HypothesisStep binds a named assumption: hypothesis h: expr
type HypothesisStep struct {
	Name string
	Prop Expr
	Tok  lexer.Token
}

// TestStep asserts a subject's truth value: test t1: expr: true
type TestStep struct {
	Label    string
	Subject  Expr
	Expected Truth
	Tok      lexer.Token
}

// ExprStep is a bare proposition updating the proof's current conclusion.
type ExprStep struct {
	X   Expr
	Tok lexer.Token
}

func (*VarDecl) stmtNode()         {}
func (*ConstDecl) stmtNode()       {}
func (*AssignStmt) stmtNode()      {}
func (*IndexAssignStmt) stmtNode() {}
func (*IfStmt) stmtNode()          {}
func (*WhileStmt) stmtNode()       {}
func (*DoWhileStmt) stmtNode()     {}
func (*ForStmt) stmtNode()         {}
func (*ForEachStmt) stmtNode()     {}
func (*SwitchStmt) stmtNode()      {}
func (*FunctionDecl) stmtNode()    {}
func (*ReturnStmt) stmtNode()      {}
func (*BreakStmt) stmtNode()       {}
func (*ShowStmt) stmtNode()        {}
func (*ExprStmt) stmtNode()        {}
func (*TheoremDecl) stmtNode()     {}
func (*AxiomDecl) stmtNode()       {}
func (*ProofBlock) stmtNode()      {}

func (*HypothesisStep) proofStepNode() {}
func (*TestStep) proofStepNode()       {}
func (*ExprStep) proofStepNode()       {}
