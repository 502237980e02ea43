// Package interp is El's tree-walking evaluator: runtime values, lexical
// environments, statement execution, builtins, and the proof checker.
package interp

import (
	"fmt"
	"strconv"
	"strings"

	"el/internal/parser"
)

// Value is any El runtime value. The concrete types are int64, float64,
// string, Bool3, *Array, *Function, *Builtin, and Unit.
type Value interface{}

// Unit is the result of statements and of functions that return nothing.
type Unit struct{}

// Bool3 is El's three-valued boolean. The ordering False < Unknown < True
// makes Kleene conjunction a min and disjunction a max.
type Bool3 int

const (
	False Bool3 = iota
	Unknown
	True
)

func FromBool(b bool) Bool3 {
	if b {
		return True
	}
	return False
}

func (b Bool3) Not() Bool3 {
	switch b {
	case True:
		return False
	case False:
		return True
	}
	return Unknown
}

func (b Bool3) And(o Bool3) Bool3 {
	if o < b {
		return o
	}
	return b
}

func (b Bool3) Or(o Bool3) Bool3 {
	if o > b {
		return o
	}
	return b
}

func (b Bool3) String() string {
	switch b {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "realistic"
}

func truthValue(t parser.Truth) Bool3 {
	switch t {
	case parser.TruthTrue:
		return True
	case parser.TruthFalse:
		return False
	}
	return Unknown
}

// Array is a mutable, growable sequence. Declared sizes are advisory only.
type Array struct {
	Elements []Value
}

// Function is a user-defined function closing over its defining environment.
type Function struct {
	Name   string
	Params []parser.Param
	Body   []parser.Stmt
	Env    *Env
}

// Builtin is a host-provided function. Arity < 0 means variadic.
type Builtin struct {
	Name  string
	Arity int
	Fn    func(args []Value) (Value, error)
}

// ToString renders a value the way `show` prints it.
func ToString(v Value) string {
	switch x := v.(type) {
	case nil, Unit:
		return "unit"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	case Bool3:
		return x.String()
	case *Array:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, el := range x.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			if s, ok := el.(string); ok {
				sb.WriteString(strconv.Quote(s))
			} else {
				sb.WriteString(ToString(el))
			}
		}
		sb.WriteByte(']')
		return sb.String()
	case *Function:
		return fmt.Sprintf("<function %s>", x.Name)
	case *Builtin:
		return fmt.Sprintf("<builtin %s>", x.Name)
	}
	return fmt.Sprintf("%v", v)
}

// TypeName names a value's runtime type for error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Unit:
		return "unit"
	case int64:
		return "integer"
	case float64:
		return "real"
	case string:
		return "string"
	case Bool3:
		return "boolean"
	case *Array:
		return "array"
	case *Function, *Builtin:
		return "function"
	}
	return fmt.Sprintf("%T", v)
}
