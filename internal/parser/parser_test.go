package parser

import (
	"testing"

	"el/internal/errors"
	"el/internal/lexer"
)

func parseString(t *testing.T, source string) *Program {
	t.Helper()
	tokens, err := lexer.NewScanner(source).ScanTokens()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	prog, err := NewParserWithSource(tokens, source, "test.el").Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return prog
}

func parseError(t *testing.T, source string) error {
	t.Helper()
	tokens, err := lexer.NewScanner(source).ScanTokens()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	_, err = NewParser(tokens).Parse()
	if err == nil {
		t.Fatalf("expected parse error for %q", source)
	}
	if !errors.Is(err, errors.ParseError) {
		t.Fatalf("got %v, want ParseError", err)
	}
	return err
}

func TestProgramWrapperOptional(t *testing.T) {
	named := parseString(t, `program demo { show 1; }`)
	if named.Name != "demo" || len(named.Stmts) != 1 {
		t.Errorf("named program: name=%q stmts=%d", named.Name, len(named.Stmts))
	}

	bare := parseString(t, `show 1;`)
	if bare.Name != "" || len(bare.Stmts) != 1 {
		t.Errorf("bare program: name=%q stmts=%d", bare.Name, len(bare.Stmts))
	}
}

func TestVarDeclForms(t *testing.T) {
	prog := parseString(t, `
		var x: integer;
		var a, b: real = 1.5;
		var names: array[3] = ["x", "y", "z"];
		const pi: real = 3.14;
	`)
	if len(prog.Stmts) != 4 {
		t.Fatalf("got %d statements, want 4", len(prog.Stmts))
	}

	multi := prog.Stmts[1].(*VarDecl)
	if len(multi.Names) != 2 || multi.Names[0] != "a" || multi.Names[1] != "b" {
		t.Errorf("multi-name decl: %v", multi.Names)
	}
	if multi.Value == nil {
		t.Error("multi-name decl lost its initializer")
	}

	arr := prog.Stmts[2].(*VarDecl)
	if arr.Type.Kind != lexer.TokenArrayT || !arr.Type.HasSize || arr.Type.Size != 3 {
		t.Errorf("array type: %+v", arr.Type)
	}

	if _, ok := prog.Stmts[3].(*ConstDecl); !ok {
		t.Errorf("expected ConstDecl, got %T", prog.Stmts[3])
	}
}

func TestConstRequiresInitializer(t *testing.T) {
	parseError(t, `const x: integer;`)
}

func TestOperatorPrecedence(t *testing.T) {
	prog := parseString(t, `var x: integer = 1 + 2 * 3;`)
	decl := prog.Stmts[0].(*VarDecl)
	add, ok := decl.Value.(*Binary)
	if !ok || add.Op != lexer.TokenPlus {
		t.Fatalf("root should be +, got %#v", decl.Value)
	}
	mul, ok := add.Right.(*Binary)
	if !ok || mul.Op != lexer.TokenStar {
		t.Fatalf("right of + should be *, got %#v", add.Right)
	}
}

func TestLogicalPrecedenceAndNormalization(t *testing.T) {
	// `a or b and c` parses as `a or (b and c)`, and && / || collapse to
	// the keyword forms.
	prog := parseString(t, `var x: boolean = a || b && c;`)
	decl := prog.Stmts[0].(*VarDecl)
	or, ok := decl.Value.(*Logical)
	if !ok || or.Op != lexer.TokenOr {
		t.Fatalf("root should be or, got %#v", decl.Value)
	}
	and, ok := or.Right.(*Logical)
	if !ok || and.Op != lexer.TokenAnd {
		t.Fatalf("right of or should be and, got %#v", or.Right)
	}
}

func TestComparisonBindsTighterThanLogical(t *testing.T) {
	prog := parseString(t, `var x: boolean = 1 < 2 and 3 < 4;`)
	decl := prog.Stmts[0].(*VarDecl)
	and, ok := decl.Value.(*Logical)
	if !ok || and.Op != lexer.TokenAnd {
		t.Fatalf("root should be and, got %#v", decl.Value)
	}
	if _, ok := and.Left.(*Binary); !ok {
		t.Errorf("left of and should be a comparison, got %T", and.Left)
	}
}

func TestUnaryForms(t *testing.T) {
	prog := parseString(t, `
		var a: boolean = not x;
		var b: boolean = !x;
		var c: integer = -5;
		var d: integer = +5;
	`)
	notKw := prog.Stmts[0].(*VarDecl).Value.(*Unary)
	notSym := prog.Stmts[1].(*VarDecl).Value.(*Unary)
	if notKw.Op != lexer.TokenNot || notSym.Op != lexer.TokenNot {
		t.Errorf("not forms: %s / %s", notKw.Op, notSym.Op)
	}
	if neg := prog.Stmts[2].(*VarDecl).Value.(*Unary); neg.Op != lexer.TokenMinus {
		t.Errorf("negation op: %s", neg.Op)
	}
	// unary plus is identity and leaves no node behind
	if _, ok := prog.Stmts[3].(*VarDecl).Value.(*Literal); !ok {
		t.Errorf("unary plus should vanish, got %T", prog.Stmts[3].(*VarDecl).Value)
	}
}

func TestCallAndIndexChaining(t *testing.T) {
	prog := parseString(t, `show f(1, 2)[0];`)
	show := prog.Stmts[0].(*ShowStmt)
	idx, ok := show.Value.(*IndexExpr)
	if !ok {
		t.Fatalf("expected IndexExpr, got %T", show.Value)
	}
	call, ok := idx.Object.(*CallExpr)
	if !ok || call.Callee != "f" || len(call.Args) != 2 {
		t.Fatalf("expected f(1, 2), got %#v", idx.Object)
	}
}

func TestOnlyNamesAreCallable(t *testing.T) {
	parseError(t, `show (1 + 2)(3);`)
}

func TestIfElseChain(t *testing.T) {
	prog := parseString(t, `
		if x > 0 {
			show "pos";
		} else if x < 0 {
			show "neg";
		} else {
			show "zero";
		}
	`)
	outer := prog.Stmts[0].(*IfStmt)
	if len(outer.Else) != 1 {
		t.Fatalf("else branch: %d statements", len(outer.Else))
	}
	inner, ok := outer.Else[0].(*IfStmt)
	if !ok {
		t.Fatalf("else-if should nest an IfStmt, got %T", outer.Else[0])
	}
	if len(inner.Else) != 1 {
		t.Errorf("inner else: %d statements", len(inner.Else))
	}
}

func TestLoopForms(t *testing.T) {
	prog := parseString(t, `
		while x < 10 { x = x + 1; }
		do { x = x - 1; } while x > 0;
		for (var i: integer = 0; i < 3; i = i + 1) { show i; }
		for item in xs { show item; }
		for (;;) { break; }
	`)
	if _, ok := prog.Stmts[0].(*WhileStmt); !ok {
		t.Errorf("stmt 0: got %T, want WhileStmt", prog.Stmts[0])
	}
	if _, ok := prog.Stmts[1].(*DoWhileStmt); !ok {
		t.Errorf("stmt 1: got %T, want DoWhileStmt", prog.Stmts[1])
	}
	counted := prog.Stmts[2].(*ForStmt)
	if counted.Init == nil || counted.Cond == nil || counted.Step == nil {
		t.Error("counted for lost a clause")
	}
	each := prog.Stmts[3].(*ForEachStmt)
	if each.Name != "item" {
		t.Errorf("for-each binds %q, want item", each.Name)
	}
	bare := prog.Stmts[4].(*ForStmt)
	if bare.Init != nil || bare.Cond != nil || bare.Step != nil {
		t.Error("empty for clauses should all be nil")
	}
}

func TestSwitchStackedCases(t *testing.T) {
	prog := parseString(t, `
		switch (grade) {
		case "A":
		case "B":
			show "pass";
			break;
		case "F":
			show "fail";
			break;
		default:
			show "unknown";
		}
	`)
	sw := prog.Stmts[0].(*SwitchStmt)
	if len(sw.Cases) != 3 {
		t.Fatalf("got %d clauses, want 3", len(sw.Cases))
	}
	if len(sw.Cases[0].Values) != 2 {
		t.Errorf("stacked clause has %d values, want 2", len(sw.Cases[0].Values))
	}
	if !sw.Cases[2].Default {
		t.Error("last clause should be default")
	}
}

func TestSwitchCaseMustBreak(t *testing.T) {
	parseError(t, `
		switch (x) {
		case 1:
			show "one";
		case 2:
			show "two";
			break;
		}
	`)
}

func TestFunctionParamGroups(t *testing.T) {
	prog := parseString(t, `
		function dist(x1, y1: real; x2, y2: real) {
			return (x2 - x1) * (x2 - x1) + (y2 - y1) * (y2 - y1);
		}
		function hello { show "hi"; }
	`)
	fn := prog.Stmts[0].(*FunctionDecl)
	if len(fn.Params) != 4 {
		t.Fatalf("got %d params, want 4", len(fn.Params))
	}
	for _, p := range fn.Params {
		if p.Type.Kind != lexer.TokenRealT {
			t.Errorf("param %s: type %s, want REAL_T", p.Name, p.Type.Kind)
		}
	}
	noParens := prog.Stmts[1].(*FunctionDecl)
	if len(noParens.Params) != 0 {
		t.Errorf("parenless function has %d params", len(noParens.Params))
	}
}

func TestTheoremAxiomProof(t *testing.T) {
	prog := parseString(t, `
		theorem t1: 1 + 1 == 2;
		axiom identity: x == x;
		proof t1 {
			hypothesis h: 1 + 1 == 2;
			test check: h: true;
			h;
			QED;
		}
	`)
	if _, ok := prog.Stmts[0].(*TheoremDecl); !ok {
		t.Errorf("stmt 0: got %T, want TheoremDecl", prog.Stmts[0])
	}
	if _, ok := prog.Stmts[1].(*AxiomDecl); !ok {
		t.Errorf("stmt 1: got %T, want AxiomDecl", prog.Stmts[1])
	}
	proof := prog.Stmts[2].(*ProofBlock)
	if proof.Theorem != "t1" || !proof.Completed {
		t.Errorf("proof: theorem=%q completed=%v", proof.Theorem, proof.Completed)
	}
	if len(proof.Steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(proof.Steps))
	}
	if _, ok := proof.Steps[0].(*HypothesisStep); !ok {
		t.Errorf("step 0: got %T", proof.Steps[0])
	}
	test, ok := proof.Steps[1].(*TestStep)
	if !ok || test.Label != "check" || test.Expected != TruthTrue {
		t.Errorf("step 1: %#v", proof.Steps[1])
	}
	if _, ok := proof.Steps[2].(*ExprStep); !ok {
		t.Errorf("step 2: got %T", proof.Steps[2])
	}
}

func TestProofWithoutQEDParses(t *testing.T) {
	// Missing QED is a runtime proof failure, not a syntax error.
	prog := parseString(t, `
		theorem t1: true;
		proof t1 { hypothesis h: true; }
	`)
	proof := prog.Stmts[1].(*ProofBlock)
	if proof.Completed {
		t.Error("proof without QED should not be marked complete")
	}
}

func TestTruthLiterals(t *testing.T) {
	prog := parseString(t, `var x: boolean = realistic;`)
	lit := prog.Stmts[0].(*VarDecl).Value.(*Literal)
	if lit.Value != TruthUnknown {
		t.Errorf("got %v, want TruthUnknown", lit.Value)
	}
}

func TestIndexAssignment(t *testing.T) {
	prog := parseString(t, `
		xs[0] = 10;
		xs[i + 1] = xs[i];
		xs[0];
	`)
	if _, ok := prog.Stmts[0].(*IndexAssignStmt); !ok {
		t.Errorf("stmt 0: got %T, want IndexAssignStmt", prog.Stmts[0])
	}
	if _, ok := prog.Stmts[1].(*IndexAssignStmt); !ok {
		t.Errorf("stmt 1: got %T, want IndexAssignStmt", prog.Stmts[1])
	}
	// a bare index read is an expression statement, not an assignment
	if _, ok := prog.Stmts[2].(*ExprStmt); !ok {
		t.Errorf("stmt 2: got %T, want ExprStmt", prog.Stmts[2])
	}
}

func TestParseErrorCarriesPosition(t *testing.T) {
	tokens, err := lexer.NewScannerWithFile("var x integer;", "bad.el").ScanTokens()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	_, err = NewParserWithSource(tokens, "var x integer;", "bad.el").Parse()
	if err == nil {
		t.Fatal("expected parse error")
	}
	e, ok := err.(*errors.ElError)
	if !ok || e.Kind != errors.ParseError {
		t.Fatalf("got %v", err)
	}
	if e.Location.File != "bad.el" || e.Location.Line != 1 {
		t.Errorf("location: %+v", e.Location)
	}
	if e.Source == "" {
		t.Error("error should carry the source line")
	}
}

func TestParseErrorForms(t *testing.T) {
	tests := []string{
		`var x integer;`,              // missing colon
		`show 1`,                      // missing semicolon
		`if x > 0 show 1;`,            // missing brace
		`switch x { case 1: break; }`, // switch needs parens
		`program { show 1; }`,         // program needs a name
		`function (x: integer) { }`,   // function needs a name
		`break`,                       // missing semicolon
	}
	for _, source := range tests {
		parseError(t, source)
	}
}
