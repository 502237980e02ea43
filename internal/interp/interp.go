package interp

import (
	"io"
	"os"

	"el/internal/errors"
	"el/internal/lexer"
	"el/internal/parser"
	"el/internal/turtle"
)

// FileStore abstracts the file builtins so scripts can be run against an
// in-memory store in tests.
type FileStore interface {
	ReadFile(name string) (string, error)
	WriteFile(name, data string) error
}

// OSFileStore reads and writes the real filesystem.
type OSFileStore struct{}

func (OSFileStore) ReadFile(name string) (string, error) {
	data, err := os.ReadFile(name)
	return string(data), err
}

func (OSFileStore) WriteFile(name, data string) error {
	return os.WriteFile(name, []byte(data), 0o644)
}

// Config supplies the interpreter's collaborators. Zero fields get defaults:
// stdout, a headless turtle recorder, and the real filesystem.
type Config struct {
	Output  io.Writer
	Surface turtle.Surface
	Files   FileStore
}

type theorem struct {
	prop    parser.Expr
	env     *Env
	checked bool
	axiom   bool
}

// Interpreter evaluates parsed El programs. One interpreter carries state
// across Run calls, which is what the REPL relies on.
type Interpreter struct {
	out      io.Writer
	surface  turtle.Surface
	files    FileStore
	globals  *Env
	theorems map[string]*theorem
}

func New(cfg Config) *Interpreter {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Surface == nil {
		cfg.Surface = turtle.NewRecorder()
	}
	if cfg.Files == nil {
		cfg.Files = OSFileStore{}
	}
	i := &Interpreter{
		out:      cfg.Output,
		surface:  cfg.Surface,
		files:    cfg.Files,
		globals:  NewEnv(nil),
		theorems: make(map[string]*theorem),
	}
	i.registerBuiltins()
	return i
}

// Globals exposes the top-level scope. The REPL uses it for completion.
func (i *Interpreter) Globals() *Env {
	return i.globals
}

// TheoremChecked reports whether the named theorem has a completed proof
// (axioms count as checked).
func (i *Interpreter) TheoremChecked(name string) bool {
	t, ok := i.theorems[name]
	return ok && t.checked
}

// Run executes a program in the interpreter's global scope.
func (i *Interpreter) Run(prog *parser.Program) error {
	f, err := i.execBlock(prog.Stmts, i.globals)
	if err != nil {
		return err
	}
	if f.kind == flowBreak {
		return errors.Newf(errors.ControlFlowError, "'break' outside of a loop or switch")
	}
	return nil
}

// flow is a statement's control-flow outcome.
type flowKind int

const (
	flowNone flowKind = iota
	flowBreak
	flowReturn
)

type flow struct {
	kind  flowKind
	value Value // return value, set for flowReturn
}

var flowNext = flow{kind: flowNone}

func (i *Interpreter) execBlock(stmts []parser.Stmt, env *Env) (flow, error) {
	for _, stmt := range stmts {
		f, err := i.exec(stmt, env)
		if err != nil {
			return flowNext, err
		}
		if f.kind != flowNone {
			return f, nil
		}
	}
	return flowNext, nil
}

func (i *Interpreter) exec(stmt parser.Stmt, env *Env) (flow, error) {
	switch s := stmt.(type) {
	case *parser.VarDecl:
		value := Value(nil)
		if s.Value != nil {
			v, err := i.eval(s.Value, env)
			if err != nil {
				return flowNext, err
			}
			value = v
		}
		for _, name := range s.Names {
			v := value
			if v == nil {
				v = zeroValue(s.Type)
			}
			if err := env.Define(name, v); err != nil {
				return flowNext, err
			}
		}
		return flowNext, nil

	case *parser.ConstDecl:
		v, err := i.eval(s.Value, env)
		if err != nil {
			return flowNext, err
		}
		for _, name := range s.Names {
			if err := env.DefineConst(name, v); err != nil {
				return flowNext, err
			}
		}
		return flowNext, nil

	case *parser.AssignStmt:
		v, err := i.eval(s.Value, env)
		if err != nil {
			return flowNext, err
		}
		return flowNext, env.Assign(s.Name, v)

	case *parser.IndexAssignStmt:
		return flowNext, i.execIndexAssign(s, env)

	case *parser.IfStmt:
		cond, err := i.evalTruth(s.Cond, env)
		if err != nil {
			return flowNext, err
		}
		// only a definite True selects the then branch
		if cond == True {
			return i.execBlock(s.Then, NewEnv(env))
		}
		if s.Else != nil {
			return i.execBlock(s.Else, NewEnv(env))
		}
		return flowNext, nil

	case *parser.WhileStmt:
		for {
			cond, err := i.evalTruth(s.Cond, env)
			if err != nil {
				return flowNext, err
			}
			if cond != True {
				return flowNext, nil
			}
			f, err := i.execBlock(s.Body, NewEnv(env))
			if err != nil {
				return flowNext, err
			}
			if f.kind == flowBreak {
				return flowNext, nil
			}
			if f.kind == flowReturn {
				return f, nil
			}
		}

	case *parser.DoWhileStmt:
		for {
			f, err := i.execBlock(s.Body, NewEnv(env))
			if err != nil {
				return flowNext, err
			}
			if f.kind == flowBreak {
				return flowNext, nil
			}
			if f.kind == flowReturn {
				return f, nil
			}
			cond, err := i.evalTruth(s.Cond, env)
			if err != nil {
				return flowNext, err
			}
			if cond != True {
				return flowNext, nil
			}
		}

	case *parser.ForStmt:
		return i.execFor(s, env)

	case *parser.ForEachStmt:
		return i.execForEach(s, env)

	case *parser.SwitchStmt:
		return i.execSwitch(s, env)

	case *parser.FunctionDecl:
		fn := &Function{Name: s.Name, Params: s.Params, Body: s.Body, Env: env}
		return flowNext, env.Define(s.Name, fn)

	case *parser.ReturnStmt:
		var value Value = Unit{}
		if s.Value != nil {
			v, err := i.eval(s.Value, env)
			if err != nil {
				return flowNext, err
			}
			value = v
		}
		return flow{kind: flowReturn, value: value}, nil

	case *parser.BreakStmt:
		return flow{kind: flowBreak}, nil

	case *parser.ShowStmt:
		v, err := i.eval(s.Value, env)
		if err != nil {
			return flowNext, err
		}
		_, err = io.WriteString(i.out, ToString(v)+"\n")
		return flowNext, err

	case *parser.ExprStmt:
		_, err := i.eval(s.X, env)
		return flowNext, err

	case *parser.TheoremDecl:
		if _, exists := i.theorems[s.Name]; exists {
			return flowNext, errors.Newf(errors.ProofError, "theorem '%s' is already declared", s.Name)
		}
		i.theorems[s.Name] = &theorem{prop: s.Prop, env: env}
		return flowNext, nil

	case *parser.AxiomDecl:
		if _, exists := i.theorems[s.Name]; exists {
			return flowNext, errors.Newf(errors.ProofError, "'%s' is already declared", s.Name)
		}
		i.theorems[s.Name] = &theorem{prop: s.Prop, env: env, checked: true, axiom: true}
		return flowNext, nil

	case *parser.ProofBlock:
		return flowNext, i.checkProof(s, env)
	}
	return flowNext, errors.Newf(errors.TypeMismatchError, "unsupported statement %T", stmt)
}

func (i *Interpreter) execIndexAssign(s *parser.IndexAssignStmt, env *Env) error {
	target, err := env.Lookup(s.Name)
	if err != nil {
		return err
	}
	arr, ok := target.(*Array)
	if !ok {
		return errors.Newf(errors.TypeMismatchError, "'%s' is not an array (got %s)", s.Name, TypeName(target))
	}
	idx, err := i.evalIndex(s.Index, env, len(arr.Elements))
	if err != nil {
		return err
	}
	v, err := i.eval(s.Value, env)
	if err != nil {
		return err
	}
	arr.Elements[idx] = v
	return nil
}

func (i *Interpreter) execFor(s *parser.ForStmt, env *Env) (flow, error) {
	loopEnv := NewEnv(env)
	if s.Init != nil {
		if _, err := i.exec(s.Init, loopEnv); err != nil {
			return flowNext, err
		}
	}
	for {
		if s.Cond != nil {
			cond, err := i.evalTruth(s.Cond, loopEnv)
			if err != nil {
				return flowNext, err
			}
			if cond != True {
				return flowNext, nil
			}
		}
		f, err := i.execBlock(s.Body, NewEnv(loopEnv))
		if err != nil {
			return flowNext, err
		}
		if f.kind == flowBreak {
			return flowNext, nil
		}
		if f.kind == flowReturn {
			return f, nil
		}
		if s.Step != nil {
			if _, err := i.exec(s.Step, loopEnv); err != nil {
				return flowNext, err
			}
		}
	}
}

func (i *Interpreter) execForEach(s *parser.ForEachStmt, env *Env) (flow, error) {
	seq, err := i.eval(s.Seq, env)
	if err != nil {
		return flowNext, err
	}
	arr, ok := seq.(*Array)
	if !ok {
		return flowNext, errors.Newf(errors.TypeMismatchError, "for-in needs an array, got %s", TypeName(seq))
	}
	// snapshot, so mutation inside the body cannot change the iteration
	elements := append([]Value(nil), arr.Elements...)
	for _, el := range elements {
		iterEnv := NewEnv(env)
		if err := iterEnv.Define(s.Name, el); err != nil {
			return flowNext, err
		}
		f, err := i.execBlock(s.Body, iterEnv)
		if err != nil {
			return flowNext, err
		}
		if f.kind == flowBreak {
			return flowNext, nil
		}
		if f.kind == flowReturn {
			return f, nil
		}
	}
	return flowNext, nil
}

func (i *Interpreter) execSwitch(s *parser.SwitchStmt, env *Env) (flow, error) {
	subject, err := i.eval(s.Subject, env)
	if err != nil {
		return flowNext, err
	}

	var matched *parser.CaseClause
	var defaultClause *parser.CaseClause
	for idx := range s.Cases {
		clause := &s.Cases[idx]
		if clause.Default {
			defaultClause = clause
			continue
		}
		for _, valueExpr := range clause.Values {
			v, err := i.eval(valueExpr, env)
			if err != nil {
				return flowNext, err
			}
			if equal(subject, v) == True {
				matched = clause
				break
			}
		}
		if matched != nil {
			break
		}
	}
	if matched == nil {
		matched = defaultClause
	}
	if matched == nil {
		return flowNext, nil
	}

	f, err := i.execBlock(matched.Body, NewEnv(env))
	if err != nil {
		return flowNext, err
	}
	if f.kind == flowBreak {
		return flowNext, nil // break terminates the switch
	}
	return f, nil
}

// eval evaluates an expression to a value.
func (i *Interpreter) eval(expr parser.Expr, env *Env) (Value, error) {
	switch e := expr.(type) {
	case *parser.Literal:
		if t, ok := e.Value.(parser.Truth); ok {
			return truthValue(t), nil
		}
		return e.Value, nil

	case *parser.Variable:
		v, err := env.Lookup(e.Name)
		if err != nil {
			return nil, locate(err, e.Tok)
		}
		return v, nil

	case *parser.Unary:
		return i.evalUnary(e, env)

	case *parser.Binary:
		return i.evalBinary(e, env)

	case *parser.Logical:
		return i.evalLogical(e, env)

	case *parser.CallExpr:
		return i.evalCall(e, env)

	case *parser.IndexExpr:
		return i.evalIndexExpr(e, env)

	case *parser.ArrayLit:
		arr := &Array{Elements: make([]Value, 0, len(e.Elements))}
		for _, el := range e.Elements {
			v, err := i.eval(el, env)
			if err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, v)
		}
		return arr, nil
	}
	return nil, errors.Newf(errors.TypeMismatchError, "unsupported expression %T", expr)
}

// evalTruth evaluates an expression that must produce a boolean.
func (i *Interpreter) evalTruth(expr parser.Expr, env *Env) (Bool3, error) {
	v, err := i.eval(expr, env)
	if err != nil {
		return False, err
	}
	b, ok := v.(Bool3)
	if !ok {
		return False, errors.Newf(errors.TypeMismatchError, "condition must be boolean, got %s", TypeName(v))
	}
	return b, nil
}

func (i *Interpreter) evalUnary(e *parser.Unary, env *Env) (Value, error) {
	v, err := i.eval(e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case lexer.TokenNot:
		b, ok := v.(Bool3)
		if !ok {
			return nil, locate(errors.Newf(errors.TypeMismatchError, "'not' needs a boolean, got %s", TypeName(v)), e.Tok)
		}
		return b.Not(), nil
	case lexer.TokenMinus:
		switch n := v.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		}
		return nil, locate(errors.Newf(errors.TypeMismatchError, "cannot negate %s", TypeName(v)), e.Tok)
	}
	return nil, errors.Newf(errors.TypeMismatchError, "unsupported unary operator %s", e.Op)
}

func (i *Interpreter) evalLogical(e *parser.Logical, env *Env) (Value, error) {
	left, err := i.evalTruth(e.Left, env)
	if err != nil {
		return nil, err
	}
	// short circuit only on the dominating value; Unknown must still see
	// the right side
	if e.Op == lexer.TokenAnd && left == False {
		return False, nil
	}
	if e.Op == lexer.TokenOr && left == True {
		return True, nil
	}
	right, err := i.evalTruth(e.Right, env)
	if err != nil {
		return nil, err
	}
	if e.Op == lexer.TokenAnd {
		return left.And(right), nil
	}
	return left.Or(right), nil
}

func (i *Interpreter) evalBinary(e *parser.Binary, env *Env) (Value, error) {
	left, err := i.eval(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := i.eval(e.Right, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case lexer.TokenDoubleEqual:
		return equal(left, right), nil
	case lexer.TokenNotEqual:
		return equal(left, right).Not(), nil
	}

	// string concatenation: + with at least one string operand converts
	// the other
	if e.Op == lexer.TokenPlus {
		if _, ok := left.(string); ok {
			return left.(string) + ToString(right), nil
		}
		if _, ok := right.(string); ok {
			return ToString(left) + right.(string), nil
		}
	}

	switch e.Op {
	case lexer.TokenLT, lexer.TokenLE, lexer.TokenGT, lexer.TokenGE:
		return i.compare(e, left, right)
	}

	return i.arithmetic(e, left, right)
}

func (i *Interpreter) compare(e *parser.Binary, left, right Value) (Value, error) {
	if ls, ok := left.(string); ok {
		rs, ok := right.(string)
		if !ok {
			return nil, locate(errors.Newf(errors.TypeMismatchError,
				"cannot compare string with %s", TypeName(right)), e.Tok)
		}
		return FromBool(compareOrdered(e.Op, ls, rs)), nil
	}
	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return nil, locate(errors.Newf(errors.TypeMismatchError,
			"cannot compare %s with %s", TypeName(left), TypeName(right)), e.Tok)
	}
	return FromBool(compareOrdered(e.Op, lf, rf)), nil
}

func compareOrdered[T int64 | float64 | string](op lexer.TokenType, a, b T) bool {
	switch op {
	case lexer.TokenLT:
		return a < b
	case lexer.TokenLE:
		return a <= b
	case lexer.TokenGT:
		return a > b
	case lexer.TokenGE:
		return a >= b
	}
	return false
}

// arithmetic handles + - * / %. Two integers stay integer (/ truncates);
// any real operand promotes the result to real. % is integer-only.
func (i *Interpreter) arithmetic(e *parser.Binary, left, right Value) (Value, error) {
	li, lInt := left.(int64)
	ri, rInt := right.(int64)
	if lInt && rInt {
		switch e.Op {
		case lexer.TokenPlus:
			return li + ri, nil
		case lexer.TokenMinus:
			return li - ri, nil
		case lexer.TokenStar:
			return li * ri, nil
		case lexer.TokenSlash:
			if ri == 0 {
				return nil, locate(errors.Newf(errors.TypeMismatchError, "division by zero"), e.Tok)
			}
			return li / ri, nil
		case lexer.TokenPercent:
			if ri == 0 {
				return nil, locate(errors.Newf(errors.TypeMismatchError, "modulo by zero"), e.Tok)
			}
			return li % ri, nil
		}
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return nil, locate(errors.Newf(errors.TypeMismatchError,
			"operator '%s' needs numbers, got %s and %s", e.Op, TypeName(left), TypeName(right)), e.Tok)
	}
	switch e.Op {
	case lexer.TokenPlus:
		return lf + rf, nil
	case lexer.TokenMinus:
		return lf - rf, nil
	case lexer.TokenStar:
		return lf * rf, nil
	case lexer.TokenSlash:
		if rf == 0 {
			return nil, locate(errors.Newf(errors.TypeMismatchError, "division by zero"), e.Tok)
		}
		return lf / rf, nil
	case lexer.TokenPercent:
		return nil, locate(errors.Newf(errors.TypeMismatchError, "'%%' needs integer operands"), e.Tok)
	}
	return nil, errors.Newf(errors.TypeMismatchError, "unsupported operator %s", e.Op)
}

func (i *Interpreter) evalCall(e *parser.CallExpr, env *Env) (Value, error) {
	callee, err := env.Lookup(e.Callee)
	if err != nil {
		return nil, locate(err, e.Tok)
	}

	args := make([]Value, 0, len(e.Args))
	for _, argExpr := range e.Args {
		v, err := i.eval(argExpr, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	switch fn := callee.(type) {
	case *Function:
		if len(args) != len(fn.Params) {
			return nil, locate(errors.Newf(errors.ArityError,
				"function '%s' expects %d arguments, got %d", fn.Name, len(fn.Params), len(args)), e.Tok)
		}
		return i.callFunction(fn, args)
	case *Builtin:
		if fn.Arity >= 0 && len(args) != fn.Arity {
			return nil, locate(errors.Newf(errors.ArityError,
				"'%s' expects %d arguments, got %d", fn.Name, fn.Arity, len(args)), e.Tok)
		}
		v, err := fn.Fn(args)
		if err != nil {
			return nil, locate(err, e.Tok)
		}
		return v, nil
	}
	return nil, locate(errors.Newf(errors.TypeMismatchError, "'%s' is not a function", e.Callee), e.Tok)
}

// callFunction invokes fn in a fresh scope chained to its defining
// environment, which is what makes closures lexical.
func (i *Interpreter) callFunction(fn *Function, args []Value) (Value, error) {
	callEnv := NewEnv(fn.Env)
	for idx, p := range fn.Params {
		if err := callEnv.Define(p.Name, args[idx]); err != nil {
			return nil, err
		}
	}
	f, err := i.execBlock(fn.Body, callEnv)
	if err != nil {
		return nil, err
	}
	switch f.kind {
	case flowReturn:
		return f.value, nil
	case flowBreak:
		return nil, errors.Newf(errors.ControlFlowError,
			"'break' outside of a loop or switch in function '%s'", fn.Name)
	}
	return Unit{}, nil
}

func (i *Interpreter) evalIndexExpr(e *parser.IndexExpr, env *Env) (Value, error) {
	obj, err := i.eval(e.Object, env)
	if err != nil {
		return nil, err
	}
	switch o := obj.(type) {
	case *Array:
		idx, err := i.evalIndex(e.Index, env, len(o.Elements))
		if err != nil {
			return nil, locate(err, e.Tok)
		}
		return o.Elements[idx], nil
	case string:
		idx, err := i.evalIndex(e.Index, env, len(o))
		if err != nil {
			return nil, locate(err, e.Tok)
		}
		return string(o[idx]), nil
	}
	return nil, locate(errors.Newf(errors.TypeMismatchError, "cannot index %s", TypeName(obj)), e.Tok)
}

// evalIndex evaluates an index expression and bounds-checks it.
func (i *Interpreter) evalIndex(expr parser.Expr, env *Env, length int) (int, error) {
	v, err := i.eval(expr, env)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, errors.Newf(errors.TypeMismatchError, "index must be an integer, got %s", TypeName(v))
	}
	if n < 0 || n >= int64(length) {
		return 0, errors.Newf(errors.IndexError, "index %d out of range (length %d)", n, length)
	}
	return int(n), nil
}

// equal implements El's three-valued equality: if either operand is the
// realistic truth value the comparison itself is realistic. Scalars compare
// by value with numeric promotion; arrays and functions compare by identity
// (the interface fallback compares their pointers).
func equal(a, b Value) Bool3 {
	ab, aBool := a.(Bool3)
	bb, bBool := b.(Bool3)
	if (aBool && ab == Unknown) || (bBool && bb == Unknown) {
		return Unknown
	}
	if aBool && bBool {
		return FromBool(ab == bb)
	}

	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return FromBool(af == bf)
		}
		return False
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return FromBool(as == bs)
		}
		return False
	}
	if _, ok := a.(Unit); ok {
		_, bUnit := b.(Unit)
		return FromBool(bUnit)
	}
	return FromBool(a == b)
}

func toFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func zeroValue(t parser.TypeRef) Value {
	switch t.Kind {
	case lexer.TokenIntegerT:
		return int64(0)
	case lexer.TokenRealT:
		return float64(0)
	case lexer.TokenStringT:
		return ""
	case lexer.TokenBooleanT:
		return False
	case lexer.TokenArrayT:
		return &Array{}
	}
	return Unit{}
}

// locate stamps a token's position onto an error that lacks one.
func locate(err error, tok lexer.Token) error {
	e, ok := err.(*errors.ElError)
	if !ok || e.Location.Line > 0 {
		return err
	}
	e.Location.File = tok.File
	e.Location.Line = tok.Line
	e.Location.Column = tok.Column
	return e
}
