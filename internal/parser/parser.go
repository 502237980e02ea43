// Package parser builds El abstract syntax trees from token streams by
// recursive descent. Parsing stops at the first mismatch: no error recovery,
// no partial AST.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"el/internal/errors"
	"el/internal/lexer"
)

// Binding strength, loosest to tightest. Unary, postfix, and primary forms
// sit above everything listed here.
var precedence = map[lexer.TokenType]int{
	lexer.TokenOr:       1,
	lexer.TokenPipePipe: 1,
	lexer.TokenAnd:      2,
	lexer.TokenAmpAmp:   2,

	lexer.TokenDoubleEqual: 3,
	lexer.TokenNotEqual:    3,

	lexer.TokenLT: 4,
	lexer.TokenGT: 4,
	lexer.TokenLE: 4,
	lexer.TokenGE: 4,

	lexer.TokenPlus:  5,
	lexer.TokenMinus: 5,

	lexer.TokenStar:    6,
	lexer.TokenSlash:   6,
	lexer.TokenPercent: 6,
}

type Parser struct {
	tokens      []lexer.Token
	current     int
	file        string
	sourceLines []string // for error rendering
}

func NewParser(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

func NewParserWithSource(tokens []lexer.Token, source, file string) *Parser {
	return &Parser{
		tokens:      tokens,
		file:        file,
		sourceLines: strings.Split(source, "\n"),
	}
}

// Parse consumes the whole token stream and returns the program. The
// `program name { ... }` wrapper is optional; a bare statement list is an
// implicit program.
func (p *Parser) Parse() (prog *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*errors.ElError); ok {
				prog, err = nil, e
				return
			}
			panic(r)
		}
	}()

	prog = &Program{}
	if p.match(lexer.TokenProgram) {
		prog.Name = p.consume(lexer.TokenIdent, "expect program name").Lexeme
		p.consume(lexer.TokenLBrace, "expect '{' after program name")
		for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
			prog.Stmts = append(prog.Stmts, p.statement())
		}
		p.consume(lexer.TokenRBrace, "expect '}' to close program block")
	} else {
		for !p.isAtEnd() {
			prog.Stmts = append(prog.Stmts, p.statement())
		}
	}
	if !p.isAtEnd() {
		p.fail(p.peek(), "unexpected input after program block")
	}
	return prog, nil
}

func (p *Parser) statement() Stmt {
	switch {
	case p.check(lexer.TokenVar):
		return p.varDeclaration()
	case p.check(lexer.TokenConst):
		return p.constDeclaration()
	case p.check(lexer.TokenFunction):
		return p.functionDeclaration()
	case p.check(lexer.TokenIf):
		return p.ifStatement()
	case p.check(lexer.TokenWhile):
		return p.whileStatement()
	case p.check(lexer.TokenDo):
		return p.doWhileStatement()
	case p.check(lexer.TokenFor):
		return p.forStatement()
	case p.check(lexer.TokenSwitch):
		return p.switchStatement()
	case p.check(lexer.TokenShow):
		return p.showStatement()
	case p.check(lexer.TokenReturn):
		return p.returnStatement()
	case p.check(lexer.TokenBreak):
		tok := p.advance()
		p.consume(lexer.TokenSemicolon, "expect ';' after break")
		return &BreakStmt{Tok: tok}
	case p.check(lexer.TokenTheorem):
		return p.theoremDeclaration()
	case p.check(lexer.TokenAxiom):
		return p.axiomDeclaration()
	case p.check(lexer.TokenProof):
		return p.proofBlock()
	}

	// Assignment or expression statement. Look ahead past the identifier;
	// rewind when it turns out to be a plain expression.
	if p.check(lexer.TokenIdent) {
		saved := p.current
		nameTok := p.advance()
		if p.match(lexer.TokenEqual) {
			value := p.expression()
			p.consume(lexer.TokenSemicolon, "expect ';' after assignment")
			return &AssignStmt{Name: nameTok.Lexeme, Value: value, Tok: nameTok}
		}
		if p.match(lexer.TokenLBracket) {
			index := p.expression()
			p.consume(lexer.TokenRBracket, "expect ']' after index")
			if p.match(lexer.TokenEqual) {
				value := p.expression()
				p.consume(lexer.TokenSemicolon, "expect ';' after assignment")
				return &IndexAssignStmt{Name: nameTok.Lexeme, Index: index, Value: value, Tok: nameTok}
			}
		}
		p.current = saved
	}

	tok := p.peek()
	expr := p.expression()
	p.consume(lexer.TokenSemicolon, "expect ';' after expression")
	return &ExprStmt{X: expr, Tok: tok}
}

// varDeclaration: var name (, name)* : type (= expr)? ;
func (p *Parser) varDeclaration() Stmt {
	tok := p.consume(lexer.TokenVar, "expect 'var'")
	names, typ := p.declarationHead()
	var value Expr
	if p.match(lexer.TokenEqual) {
		value = p.expression()
	}
	p.consume(lexer.TokenSemicolon, "expect ';' after variable declaration")
	return &VarDecl{Names: names, Type: typ, Value: value, Tok: tok}
}

// constDeclaration: const name (, name)* : type = expr ;
func (p *Parser) constDeclaration() Stmt {
	tok := p.consume(lexer.TokenConst, "expect 'const'")
	names, typ := p.declarationHead()
	if !p.check(lexer.TokenEqual) {
		p.fail(p.peek(), "constants must be initialized with a value")
	}
	p.advance()
	value := p.expression()
	p.consume(lexer.TokenSemicolon, "expect ';' after constant declaration")
	return &ConstDecl{Names: names, Type: typ, Value: value, Tok: tok}
}

func (p *Parser) declarationHead() ([]string, TypeRef) {
	names := []string{p.consume(lexer.TokenIdent, "expect name in declaration").Lexeme}
	for p.match(lexer.TokenComma) {
		names = append(names, p.consume(lexer.TokenIdent, "expect name after ','").Lexeme)
	}
	p.consume(lexer.TokenColon, "expect ':' before declared type")
	return names, p.typeRef()
}

func (p *Parser) typeRef() TypeRef {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenIntegerT, lexer.TokenRealT, lexer.TokenStringT,
		lexer.TokenBooleanT, lexer.TokenObjectT:
		p.advance()
		return TypeRef{Kind: tok.Type}
	case lexer.TokenArrayT:
		p.advance()
		ref := TypeRef{Kind: tok.Type}
		// Optional advisory size: array[3]. Parsed, never enforced.
		if p.match(lexer.TokenLBracket) {
			sizeTok := p.consume(lexer.TokenInt, "expect array size")
			n, _ := strconv.Atoi(sizeTok.Lexeme)
			ref.Size = n
			ref.HasSize = true
			p.consume(lexer.TokenRBracket, "expect ']' after array size")
		}
		return ref
	}
	p.fail(tok, "expect type name (integer, real, string, boolean, object, array)")
	return TypeRef{}
}

// functionDeclaration: function name ( params? ) { body }
// Parameter groups share a type and are separated by ';':
// function f(a, b: integer; c: real) { ... }
func (p *Parser) functionDeclaration() Stmt {
	tok := p.consume(lexer.TokenFunction, "expect 'function'")
	name := p.consume(lexer.TokenIdent, "expect function name").Lexeme

	var params []Param
	if p.match(lexer.TokenLParen) {
		for !p.check(lexer.TokenRParen) {
			group := []string{p.consume(lexer.TokenIdent, "expect parameter name").Lexeme}
			for p.match(lexer.TokenComma) {
				group = append(group, p.consume(lexer.TokenIdent, "expect parameter name").Lexeme)
			}
			p.consume(lexer.TokenColon, "expect ':' before parameter type")
			typ := p.typeRef()
			for _, g := range group {
				params = append(params, Param{Name: g, Type: typ})
			}
			if !p.match(lexer.TokenSemicolon) {
				break
			}
		}
		p.consume(lexer.TokenRParen, "expect ')' after parameters")
	}

	body := p.block("function body")
	return &FunctionDecl{Name: name, Params: params, Body: body, Tok: tok}
}

func (p *Parser) ifStatement() Stmt {
	tok := p.consume(lexer.TokenIf, "expect 'if'")
	cond := p.expression()
	then := p.block("if body")

	var elseBranch []Stmt
	if p.match(lexer.TokenElse) {
		if p.check(lexer.TokenIf) {
			elseBranch = []Stmt{p.ifStatement()}
		} else {
			elseBranch = p.block("else body")
		}
	}
	return &IfStmt{Cond: cond, Then: then, Else: elseBranch, Tok: tok}
}

func (p *Parser) whileStatement() Stmt {
	tok := p.consume(lexer.TokenWhile, "expect 'while'")
	cond := p.expression()
	body := p.block("while body")
	return &WhileStmt{Cond: cond, Body: body, Tok: tok}
}

func (p *Parser) doWhileStatement() Stmt {
	tok := p.consume(lexer.TokenDo, "expect 'do'")
	body := p.block("do body")
	p.consume(lexer.TokenWhile, "expect 'while' after do body")
	cond := p.expression()
	p.consume(lexer.TokenSemicolon, "expect ';' after do-while condition")
	return &DoWhileStmt{Body: body, Cond: cond, Tok: tok}
}

func (p *Parser) forStatement() Stmt {
	tok := p.consume(lexer.TokenFor, "expect 'for'")

	// for x in expr { ... }
	if p.check(lexer.TokenIdent) && p.checkNext(lexer.TokenIn) {
		name := p.advance().Lexeme
		p.advance() // in
		seq := p.expression()
		body := p.block("for body")
		return &ForEachStmt{Name: name, Seq: seq, Body: body, Tok: tok}
	}

	// for (init; cond; step) { ... }
	p.consume(lexer.TokenLParen, "expect '(' or 'name in' after 'for'")

	var init Stmt
	if !p.check(lexer.TokenSemicolon) {
		if p.check(lexer.TokenVar) {
			varTok := p.advance()
			names, typ := p.declarationHead()
			var value Expr
			if p.match(lexer.TokenEqual) {
				value = p.expression()
			}
			init = &VarDecl{Names: names, Type: typ, Value: value, Tok: varTok}
		} else {
			init = p.bareAssignment()
		}
	}
	p.consume(lexer.TokenSemicolon, "expect ';' after for initializer")

	var cond Expr
	if !p.check(lexer.TokenSemicolon) {
		cond = p.expression()
	}
	p.consume(lexer.TokenSemicolon, "expect ';' after for condition")

	var step Stmt
	if !p.check(lexer.TokenRParen) {
		step = p.bareAssignment()
	}
	p.consume(lexer.TokenRParen, "expect ')' after for clauses")

	body := p.block("for body")
	return &ForStmt{Init: init, Cond: cond, Step: step, Body: body, Tok: tok}
}

// bareAssignment parses `name = expr` without a trailing semicolon.
func (p *Parser) bareAssignment() Stmt {
	nameTok := p.consume(lexer.TokenIdent, "expect variable name")
	p.consume(lexer.TokenEqual, "expect '=' in assignment")
	value := p.expression()
	return &AssignStmt{Name: nameTok.Lexeme, Value: value, Tok: nameTok}
}

// switchStatement: switch (expr) { case v: ... break; default: ... }
// Consecutive empty case labels stack onto the next body; that stacking is
// the only permitted fallthrough, so every other case body must end with a
// break (or return).
func (p *Parser) switchStatement() Stmt {
	tok := p.consume(lexer.TokenSwitch, "expect 'switch'")
	p.consume(lexer.TokenLParen, "expect '(' after 'switch'")
	subject := p.expression()
	p.consume(lexer.TokenRParen, "expect ')' after switch expression")
	p.consume(lexer.TokenLBrace, "expect '{' to open switch block")

	var cases []CaseClause
	var pending []Expr // stacked case values awaiting a body
	sawDefault := false

	for p.check(lexer.TokenCase) || p.check(lexer.TokenDefault) {
		clauseTok := p.peek()
		if p.match(lexer.TokenCase) {
			pending = append(pending, p.expression())
			p.consume(lexer.TokenColon, "expect ':' after case value")
			if p.check(lexer.TokenCase) {
				continue // stacked label, body follows a later case
			}
			body := p.caseBody()
			if !endsControl(body) {
				p.fail(clauseTok, "case body must end with 'break' (stack cases to share a body)")
			}
			cases = append(cases, CaseClause{Values: pending, Body: body, Tok: clauseTok})
			pending = nil
			continue
		}

		p.advance() // default
		if len(pending) > 0 {
			p.fail(clauseTok, "case labels cannot stack onto 'default'")
		}
		if sawDefault {
			p.fail(clauseTok, "multiple default cases in switch")
		}
		sawDefault = true
		p.consume(lexer.TokenColon, "expect ':' after 'default'")
		cases = append(cases, CaseClause{Body: p.caseBody(), Default: true, Tok: clauseTok})
	}

	if len(pending) > 0 {
		p.fail(tok, "stacked case labels have no body")
	}
	p.consume(lexer.TokenRBrace, "expect '}' to close switch block")
	return &SwitchStmt{Subject: subject, Cases: cases, Tok: tok}
}

func (p *Parser) caseBody() []Stmt {
	var body []Stmt
	for !p.check(lexer.TokenCase) && !p.check(lexer.TokenDefault) &&
		!p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		body = append(body, p.statement())
	}
	return body
}

func endsControl(body []Stmt) bool {
	if len(body) == 0 {
		return false
	}
	switch body[len(body)-1].(type) {
	case *BreakStmt, *ReturnStmt:
		return true
	}
	return false
}

func (p *Parser) showStatement() Stmt {
	tok := p.consume(lexer.TokenShow, "expect 'show'")
	value := p.expression()
	p.consume(lexer.TokenSemicolon, "expect ';' after show")
	return &ShowStmt{Value: value, Tok: tok}
}

func (p *Parser) returnStatement() Stmt {
	tok := p.consume(lexer.TokenReturn, "expect 'return'")
	var value Expr
	if !p.check(lexer.TokenSemicolon) {
		value = p.expression()
	}
	p.consume(lexer.TokenSemicolon, "expect ';' after return")
	return &ReturnStmt{Value: value, Tok: tok}
}

// theoremDeclaration: theorem name: expr ;
func (p *Parser) theoremDeclaration() Stmt {
	tok := p.consume(lexer.TokenTheorem, "expect 'theorem'")
	name := p.consume(lexer.TokenIdent, "expect theorem name").Lexeme
	p.consume(lexer.TokenColon, "expect ':' after theorem name")
	prop := p.expression()
	p.consume(lexer.TokenSemicolon, "expect ';' after theorem proposition")
	return &TheoremDecl{Name: name, Prop: prop, Tok: tok}
}

// axiomDeclaration: axiom name: expr ;
func (p *Parser) axiomDeclaration() Stmt {
	tok := p.consume(lexer.TokenAxiom, "expect 'axiom'")
	name := p.consume(lexer.TokenIdent, "expect axiom name").Lexeme
	p.consume(lexer.TokenColon, "expect ':' after axiom name")
	prop := p.expression()
	p.consume(lexer.TokenSemicolon, "expect ';' after axiom proposition")
	return &AxiomDecl{Name: name, Prop: prop, Tok: tok}
}

// proofBlock: proof name { step* QED ;? }
// A missing QED parses fine; the checker reports it as an incomplete proof.
func (p *Parser) proofBlock() Stmt {
	tok := p.consume(lexer.TokenProof, "expect 'proof'")
	theorem := p.consume(lexer.TokenIdent, "expect theorem name after 'proof'").Lexeme
	p.consume(lexer.TokenLBrace, "expect '{' to open proof block")

	block := &ProofBlock{Theorem: theorem, Tok: tok}
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		if p.match(lexer.TokenQED) {
			p.match(lexer.TokenSemicolon)
			block.Completed = true
			break
		}
		block.Steps = append(block.Steps, p.proofStep())
	}
	p.consume(lexer.TokenRBrace, "expect '}' to close proof block")
	return block
}

func (p *Parser) proofStep() ProofStep {
	if p.check(lexer.TokenHyp) {
		tok := p.advance()
		name := p.consume(lexer.TokenIdent, "expect hypothesis name").Lexeme
		p.consume(lexer.TokenColon, "expect ':' after hypothesis name")
		prop := p.expression()
		p.consume(lexer.TokenSemicolon, "expect ';' after hypothesis")
		return &HypothesisStep{Name: name, Prop: prop, Tok: tok}
	}
	if p.check(lexer.TokenTest) {
		tok := p.advance()
		label := p.consume(lexer.TokenIdent, "expect test label").Lexeme
		p.consume(lexer.TokenColon, "expect ':' after test label")
		subject := p.expression()
		p.consume(lexer.TokenColon, "expect ':' before expected truth value")
		expected := p.truthLiteral()
		p.consume(lexer.TokenSemicolon, "expect ';' after test")
		return &TestStep{Label: label, Subject: subject, Expected: expected, Tok: tok}
	}
	tok := p.peek()
	x := p.expression()
	p.consume(lexer.TokenSemicolon, "expect ';' after proof step")
	return &ExprStep{X: x, Tok: tok}
}

func (p *Parser) truthLiteral() Truth {
	switch {
	case p.match(lexer.TokenTrue):
		return TruthTrue
	case p.match(lexer.TokenFalse):
		return TruthFalse
	case p.match(lexer.TokenRealistic):
		return TruthUnknown
	}
	p.fail(p.peek(), "expect 'true', 'false', or 'realistic'")
	return TruthFalse
}

func (p *Parser) block(what string) []Stmt {
	p.consume(lexer.TokenLBrace, "expect '{' before "+what)
	var stmts []Stmt
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		stmts = append(stmts, p.statement())
	}
	p.consume(lexer.TokenRBrace, "expect '}' after "+what)
	return stmts
}

// --- Expression parsing with precedence climbing ---

func (p *Parser) expression() Expr {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPrec int) Expr {
	left := p.parseUnary()
	for {
		tok := p.peek()
		prec, ok := precedence[tok.Type]
		if !ok || prec < minPrec {
			break
		}
		p.advance()
		right := p.parseBinary(prec + 1)
		switch tok.Type {
		case lexer.TokenAnd, lexer.TokenAmpAmp, lexer.TokenOr, lexer.TokenPipePipe:
			left = &Logical{Left: left, Op: normalizeLogical(tok.Type), Right: right, Tok: tok}
		default:
			left = &Binary{Left: left, Op: tok.Type, Right: right, Tok: tok}
		}
	}
	return left
}

func normalizeLogical(t lexer.TokenType) lexer.TokenType {
	switch t {
	case lexer.TokenAmpAmp:
		return lexer.TokenAnd
	case lexer.TokenPipePipe:
		return lexer.TokenOr
	}
	return t
}

func (p *Parser) parseUnary() Expr {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenNot, lexer.TokenBang:
		p.advance()
		return &Unary{Op: lexer.TokenNot, Operand: p.parseUnary(), Tok: tok}
	case lexer.TokenMinus:
		p.advance()
		return &Unary{Op: lexer.TokenMinus, Operand: p.parseUnary(), Tok: tok}
	case lexer.TokenPlus:
		p.advance()
		return p.parseUnary()
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() Expr {
	expr := p.primary()
	for {
		if p.check(lexer.TokenLParen) {
			v, ok := expr.(*Variable)
			if !ok {
				p.fail(p.peek(), "only named functions can be called")
			}
			p.advance()
			expr = p.finishCall(v)
		} else if p.match(lexer.TokenLBracket) {
			tok := p.previous()
			index := p.expression()
			p.consume(lexer.TokenRBracket, "expect ']' after index")
			expr = &IndexExpr{Object: expr, Index: index, Tok: tok}
		} else {
			break
		}
	}
	return expr
}

func (p *Parser) finishCall(callee *Variable) Expr {
	var args []Expr
	if !p.check(lexer.TokenRParen) {
		for {
			args = append(args, p.expression())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "expect ')' after arguments")
	return &CallExpr{Callee: callee.Name, Args: args, Tok: callee.Tok}
}

func (p *Parser) primary() Expr {
	tok := p.advance()
	switch tok.Type {
	case lexer.TokenInt:
		n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			p.fail(tok, "invalid integer literal")
		}
		return &Literal{Value: n, Tok: tok}
	case lexer.TokenReal:
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.fail(tok, "invalid real literal")
		}
		return &Literal{Value: f, Tok: tok}
	case lexer.TokenString:
		return &Literal{Value: tok.Lexeme, Tok: tok}
	case lexer.TokenTrue:
		return &Literal{Value: TruthTrue, Tok: tok}
	case lexer.TokenFalse:
		return &Literal{Value: TruthFalse, Tok: tok}
	case lexer.TokenRealistic:
		return &Literal{Value: TruthUnknown, Tok: tok}
	case lexer.TokenIdent:
		return &Variable{Name: tok.Lexeme, Tok: tok}
	case lexer.TokenLParen:
		expr := p.expression()
		p.consume(lexer.TokenRParen, "expect ')' after expression")
		return expr
	case lexer.TokenLBracket:
		var elements []Expr
		for !p.check(lexer.TokenRBracket) && !p.isAtEnd() {
			elements = append(elements, p.expression())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
		p.consume(lexer.TokenRBracket, "expect ']' after array elements")
		return &ArrayLit{Elements: elements, Tok: tok}
	}
	p.fail(tok, fmt.Sprintf("unexpected token in expression: '%s'", tok.Lexeme))
	return nil
}

// --- Utility methods ---

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(t lexer.TokenType, msg string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	found := p.peek()
	p.fail(found, fmt.Sprintf("%s (got '%s')", msg, found.Lexeme))
	return lexer.Token{}
}

func (p *Parser) fail(tok lexer.Token, msg string) {
	err := errors.New(errors.ParseError, msg, tok.File, tok.Line, tok.Column)
	if p.sourceLines != nil && tok.Line > 0 && tok.Line <= len(p.sourceLines) {
		err = err.WithSource(p.sourceLines[tok.Line-1])
	}
	panic(err)
}

func (p *Parser) check(t lexer.TokenType) bool {
	if p.isAtEnd() {
		return t == lexer.TokenEOF
	}
	return p.peek().Type == t
}

func (p *Parser) checkNext(t lexer.TokenType) bool {
	if p.current+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.current+1].Type == t
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.tokens[p.current-1]
}

func (p *Parser) previous() lexer.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}
