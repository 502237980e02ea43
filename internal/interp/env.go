package interp

import "el/internal/errors"

// Env is a lexical scope: a name table with a pointer to the enclosing
// scope. Lookup and assignment walk outward; definition is always local.
type Env struct {
	parent *Env
	vars   map[string]Value
	consts map[string]bool
}

func NewEnv(parent *Env) *Env {
	return &Env{
		parent: parent,
		vars:   make(map[string]Value),
		consts: make(map[string]bool),
	}
}

// Define binds a new variable in this scope. Redefining a name already bound
// in the same scope is an error; shadowing an outer binding is not.
func (e *Env) Define(name string, v Value) error {
	if _, exists := e.vars[name]; exists {
		return errors.Newf(errors.RedeclarationError, "'%s' is already declared in this scope", name)
	}
	e.vars[name] = v
	return nil
}

// DefineConst binds a new constant in this scope.
func (e *Env) DefineConst(name string, v Value) error {
	if err := e.Define(name, v); err != nil {
		return err
	}
	e.consts[name] = true
	return nil
}

// Assign updates the nearest enclosing binding of name.
func (e *Env) Assign(name string, v Value) error {
	for scope := e; scope != nil; scope = scope.parent {
		if _, ok := scope.vars[name]; ok {
			if scope.consts[name] {
				return errors.Newf(errors.ConstAssignError, "cannot assign to constant '%s'", name)
			}
			scope.vars[name] = v
			return nil
		}
	}
	return errors.Newf(errors.UnboundNameError, "'%s' is not declared", name)
}

// Names returns every name visible from this scope.
func (e *Env) Names() []string {
	var names []string
	for scope := e; scope != nil; scope = scope.parent {
		for name := range scope.vars {
			names = append(names, name)
		}
	}
	return names
}

// Lookup resolves name against this scope and its ancestors.
func (e *Env) Lookup(name string) (Value, error) {
	for scope := e; scope != nil; scope = scope.parent {
		if v, ok := scope.vars[name]; ok {
			return v, nil
		}
	}
	return nil, errors.Newf(errors.UnboundNameError, "'%s' is not declared", name)
}
