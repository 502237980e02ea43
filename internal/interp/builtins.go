package interp

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"el/internal/errors"
)

func (i *Interpreter) registerBuiltins() {
	add := func(name string, arity int, fn func(args []Value) (Value, error)) {
		i.globals.vars[name] = &Builtin{Name: name, Arity: arity, Fn: fn}
	}

	add("len", 1, func(args []Value) (Value, error) {
		switch x := args[0].(type) {
		case *Array:
			return int64(len(x.Elements)), nil
		case string:
			return int64(len(x)), nil
		}
		return nil, errors.Newf(errors.TypeMismatchError, "len needs an array or string, got %s", TypeName(args[0]))
	})

	add("append", 2, func(args []Value) (Value, error) {
		arr, ok := args[0].(*Array)
		if !ok {
			return nil, errors.Newf(errors.TypeMismatchError, "append needs an array, got %s", TypeName(args[0]))
		}
		arr.Elements = append(arr.Elements, args[1])
		return arr, nil
	})

	add("str", 1, func(args []Value) (Value, error) {
		return ToString(args[0]), nil
	})

	add("int", 1, func(args []Value) (Value, error) {
		switch x := args[0].(type) {
		case int64:
			return x, nil
		case float64:
			return int64(x), nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			if err != nil {
				return nil, errors.Newf(errors.TypeMismatchError, "cannot convert %q to integer", x)
			}
			return n, nil
		}
		return nil, errors.Newf(errors.TypeMismatchError, "cannot convert %s to integer", TypeName(args[0]))
	})

	add("real", 1, func(args []Value) (Value, error) {
		switch x := args[0].(type) {
		case int64:
			return float64(x), nil
		case float64:
			return x, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil, errors.Newf(errors.TypeMismatchError, "cannot convert %q to real", x)
			}
			return f, nil
		}
		return nil, errors.Newf(errors.TypeMismatchError, "cannot convert %s to real", TypeName(args[0]))
	})

	add("abs", 1, func(args []Value) (Value, error) {
		switch x := args[0].(type) {
		case int64:
			if x < 0 {
				return -x, nil
			}
			return x, nil
		case float64:
			return math.Abs(x), nil
		}
		return nil, errors.Newf(errors.TypeMismatchError, "abs needs a number, got %s", TypeName(args[0]))
	})

	add("sqrt", 1, i.mathBuiltin("sqrt", math.Sqrt))
	add("floor", 1, i.mathBuiltin("floor", math.Floor))
	add("ceil", 1, i.mathBuiltin("ceil", math.Ceil))

	add("pow", 2, func(args []Value) (Value, error) {
		base, ok1 := toFloat(args[0])
		exp, ok2 := toFloat(args[1])
		if !ok1 || !ok2 {
			return nil, errors.Newf(errors.TypeMismatchError, "pow needs numbers")
		}
		return math.Pow(base, exp), nil
	})

	add("random", 0, func([]Value) (Value, error) {
		return rand.Float64(), nil
	})

	add("read_file", 1, func(args []Value) (Value, error) {
		name, ok := args[0].(string)
		if !ok {
			return nil, errors.Newf(errors.TypeMismatchError, "read_file needs a string path")
		}
		data, err := i.files.ReadFile(name)
		if err != nil {
			return nil, errors.Newf(errors.IOError, "cannot read '%s': %v", name, err)
		}
		return data, nil
	})

	add("write_file", 2, func(args []Value) (Value, error) {
		name, ok1 := args[0].(string)
		data, ok2 := args[1].(string)
		if !ok1 || !ok2 {
			return nil, errors.Newf(errors.TypeMismatchError, "write_file needs string path and data")
		}
		if err := i.files.WriteFile(name, data); err != nil {
			return nil, errors.Newf(errors.IOError, "cannot write '%s': %v", name, err)
		}
		return Unit{}, nil
	})

	i.registerTurtleBuiltins(add)
}

func (i *Interpreter) mathBuiltin(name string, fn func(float64) float64) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		f, ok := toFloat(args[0])
		if !ok {
			return nil, errors.Newf(errors.TypeMismatchError, "%s needs a number, got %s", name, TypeName(args[0]))
		}
		return fn(f), nil
	}
}

func (i *Interpreter) registerTurtleBuiltins(add func(string, int, func([]Value) (Value, error))) {
	move := func(name string, fn func(float64) error) {
		add(name, 1, func(args []Value) (Value, error) {
			f, ok := toFloat(args[0])
			if !ok {
				return nil, errors.Newf(errors.TypeMismatchError, "%s needs a number, got %s", name, TypeName(args[0]))
			}
			return Unit{}, fn(f)
		})
	}
	plain := func(name string, fn func() error) {
		add(name, 0, func([]Value) (Value, error) {
			return Unit{}, fn()
		})
	}
	query := func(name string, fn func() float64) {
		add(name, 0, func([]Value) (Value, error) {
			return fn(), nil
		})
	}

	move("forward", i.surface.Forward)
	move("backward", i.surface.Backward)
	move("right", i.surface.Right)
	move("left", i.surface.Left)
	move("setx", i.surface.SetX)
	move("sety", i.surface.SetY)
	move("setheading", i.surface.SetHeading)
	move("width", i.surface.Width)

	gotoFn := func(name string) func([]Value) (Value, error) {
		return func(args []Value) (Value, error) {
			x, ok1 := toFloat(args[0])
			y, ok2 := toFloat(args[1])
			if !ok1 || !ok2 {
				return nil, errors.Newf(errors.TypeMismatchError, "%s needs two numbers", name)
			}
			return Unit{}, i.surface.Goto(x, y)
		}
	}
	add("goto", 2, gotoFn("goto"))
	add("setposition", 2, gotoFn("setposition"))

	plain("penup", i.surface.PenUp)
	plain("pendown", i.surface.PenDown)
	plain("clear", i.surface.Clear)
	plain("reset", i.surface.Reset)
	plain("done", i.surface.Done)
	plain("exitonclick", i.surface.ExitOnClick)

	query("xcor", i.surface.XCor)
	query("ycor", i.surface.YCor)
	query("heading", i.surface.Heading)

	add("color", 1, func(args []Value) (Value, error) {
		name, ok := args[0].(string)
		if !ok {
			return nil, errors.Newf(errors.TypeMismatchError, "color needs a string")
		}
		return Unit{}, i.surface.Color(name)
	})

	add("bgcolor", 1, func(args []Value) (Value, error) {
		name, ok := args[0].(string)
		if !ok {
			return nil, errors.Newf(errors.TypeMismatchError, "bgcolor needs a string")
		}
		return Unit{}, i.surface.BgColor(name)
	})

	add("speed", 1, func(args []Value) (Value, error) {
		n, ok := args[0].(int64)
		if !ok {
			return nil, errors.Newf(errors.TypeMismatchError, "speed needs an integer")
		}
		return Unit{}, i.surface.Speed(int(n))
	})

	// circle(radius) or circle(radius, extent)
	add("circle", -1, func(args []Value) (Value, error) {
		if len(args) < 1 || len(args) > 2 {
			return nil, errors.Newf(errors.ArityError, "circle expects 1 or 2 arguments, got %d", len(args))
		}
		radius, ok := toFloat(args[0])
		if !ok {
			return nil, errors.Newf(errors.TypeMismatchError, "circle needs a numeric radius")
		}
		extent := 360.0
		if len(args) == 2 {
			e, ok := toFloat(args[1])
			if !ok {
				return nil, errors.Newf(errors.TypeMismatchError, "circle extent must be a number")
			}
			extent = e
		}
		return Unit{}, i.surface.Circle(radius, extent)
	})

	// dot(), dot(size), or dot(size, color)
	add("dot", -1, func(args []Value) (Value, error) {
		if len(args) > 2 {
			return nil, errors.Newf(errors.ArityError, "dot expects at most 2 arguments, got %d", len(args))
		}
		size := 5.0
		color := ""
		if len(args) >= 1 {
			s, ok := toFloat(args[0])
			if !ok {
				return nil, errors.Newf(errors.TypeMismatchError, "dot size must be a number")
			}
			size = s
		}
		if len(args) == 2 {
			c, ok := args[1].(string)
			if !ok {
				return nil, errors.Newf(errors.TypeMismatchError, "dot color must be a string")
			}
			color = c
		}
		return Unit{}, i.surface.Dot(size, color)
	})

	add("on_click", 1, func(args []Value) (Value, error) {
		fn, err := i.pointerHandler("on_click", args[0])
		if err != nil {
			return nil, err
		}
		i.surface.OnClick(fn)
		return Unit{}, nil
	})

	add("on_release", 1, func(args []Value) (Value, error) {
		fn, err := i.pointerHandler("on_release", args[0])
		if err != nil {
			return nil, err
		}
		i.surface.OnRelease(fn)
		return Unit{}, nil
	})

	add("on_drag", 1, func(args []Value) (Value, error) {
		fn, err := i.pointerHandler("on_drag", args[0])
		if err != nil {
			return nil, err
		}
		i.surface.OnDrag(fn)
		return Unit{}, nil
	})

	add("on_key", 2, func(args []Value) (Value, error) {
		fn, ok := args[0].(*Function)
		if !ok {
			return nil, errors.Newf(errors.TypeMismatchError, "on_key needs a function, got %s", TypeName(args[0]))
		}
		if len(fn.Params) != 0 {
			return nil, errors.Newf(errors.ArityError, "on_key handler '%s' must take no arguments", fn.Name)
		}
		key, ok := args[1].(string)
		if !ok {
			return nil, errors.Newf(errors.TypeMismatchError, "on_key needs a string key name")
		}
		i.surface.OnKey(key, func() {
			if _, err := i.callFunction(fn, nil); err != nil {
				fmt.Fprintln(i.out, err)
			}
		})
		return Unit{}, nil
	})
}

// pointerHandler wraps a two-argument El function as a pointer event
// callback. Handler errors have nowhere to return, so they print.
func (i *Interpreter) pointerHandler(builtin string, v Value) (func(x, y float64), error) {
	fn, ok := v.(*Function)
	if !ok {
		return nil, errors.Newf(errors.TypeMismatchError, "%s needs a function, got %s", builtin, TypeName(v))
	}
	if len(fn.Params) != 2 {
		return nil, errors.Newf(errors.ArityError, "%s handler '%s' must take (x, y)", builtin, fn.Name)
	}
	return func(x, y float64) {
		if _, err := i.callFunction(fn, []Value{x, y}); err != nil {
			fmt.Fprintln(i.out, err)
		}
	}, nil
}
