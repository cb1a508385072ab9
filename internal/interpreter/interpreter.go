// Package interpreter tree-walks a dsl.Node program against an
// environment of bound values, producing the primitive result or a typed
// interpreter error.
package interpreter

import (
	"fmt"

	"github.com/jurisagi/core/internal/dsl"
	"github.com/jurisagi/core/internal/dsl/primitives"
	"github.com/jurisagi/core/internal/errs"
	"github.com/jurisagi/core/pkg/types"
)

// Env is a lexical environment: a chain of variable bindings. The special
// name "input" holds the value currently threaded through a Compose
// pipeline or bound for a whole-program call.
type Env struct {
	vars   map[string]interface{}
	parent *Env
}

// NewEnv creates a root environment with the given input grid bound.
func NewEnv(input interface{}) *Env {
	return &Env{vars: map[string]interface{}{"input": input}}
}

// Extend returns a child environment with one additional binding.
func (e *Env) Extend(name string, value interface{}) *Env {
	return &Env{vars: map[string]interface{}{name: value}, parent: e}
}

// Lookup resolves a name, searching outward through parent scopes.
func (e *Env) Lookup(name string) (interface{}, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// WithInput returns a copy of e with "input" rebound in the current scope,
// used by Compose to thread a value left-to-right without disturbing
// outer bindings.
func (e *Env) WithInput(value interface{}) *Env {
	return e.Extend("input", value)
}

// Closure is a first-class lambda value: a parameter list, a body, and the
// environment it closed over.
type Closure struct {
	Params []string
	Body   dsl.Node
	Env    *Env
}

// Interpreter evaluates dsl.Node programs. When tracing is enabled (see
// New), Trace receives one entry per primitive/apply step for debugging
// and audit trails.
type Interpreter struct {
	Trace []string
	trace bool
}

// New creates an Interpreter. If withTrace is true, Eval records a short
// textual trace of each primitive/apply step.
func New(withTrace bool) *Interpreter {
	return &Interpreter{trace: withTrace}
}

// Eval interprets node in env, dispatching on node kind.
func (in *Interpreter) Eval(node dsl.Node, env *Env) (interface{}, error) {
	switch n := node.(type) {
	case *dsl.LiteralNode:
		return n.Value, nil
	case *dsl.VariableNode:
		v, ok := env.Lookup(n.Name)
		if !ok {
			return nil, &errs.InterpreterError{Cause: fmt.Errorf("unbound variable %q", n.Name)}
		}
		return v, nil
	case *dsl.PrimitiveNode:
		return in.evalPrimitive(n, env)
	case *dsl.ComposeNode:
		return in.evalCompose(n, env)
	case *dsl.LambdaNode:
		return &Closure{Params: n.Params, Body: n.Body, Env: env}, nil
	case *dsl.ApplyNode:
		return in.evalApply(n, env)
	case *dsl.LetNode:
		return in.evalLet(n, env)
	case *dsl.CondNode:
		return in.evalCond(n, env)
	case *dsl.MapNode:
		return in.evalMap(n, env)
	case *dsl.FilterNode:
		return in.evalFilter(n, env)
	default:
		return nil, &errs.InternalError{Op: "interpreter.Eval", Cause: fmt.Errorf("unknown node kind %T", node)}
	}
}

func (in *Interpreter) evalPrimitive(n *dsl.PrimitiveNode, env *Env) (interface{}, error) {
	spec, ok := primitives.Get(n.Name)
	if !ok {
		return nil, &errs.InterpreterError{Primitive: n.Name, Cause: fmt.Errorf("unregistered primitive")}
	}

	args := make([]interface{}, 0, len(n.Args)+1)
	for _, a := range n.Args {
		v, err := in.Eval(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	if input, hasInput := env.Lookup("input"); hasInput {
		if len(spec.ArgTypes) > len(args) {
			args = append([]interface{}{input}, args...)
		}
	} else if len(args) == 0 {
		return nil, &errs.InterpreterError{Primitive: n.Name, Cause: fmt.Errorf("no input bound and no arguments given")}
	}

	if in.trace {
		in.Trace = append(in.Trace, dsl.ToSource(n))
	}

	out, err := spec.Impl(args)
	if err != nil {
		return nil, &errs.InterpreterError{Primitive: n.Name, Cause: err}
	}
	return out, nil
}

func (in *Interpreter) evalCompose(n *dsl.ComposeNode, env *Env) (interface{}, error) {
	current, ok := env.Lookup("input")
	if !ok {
		return nil, &errs.InterpreterError{Cause: fmt.Errorf("compose requires an input binding")}
	}

	for _, step := range n.Steps {
		stepEnv := env.WithInput(current)

		if prim, ok := step.(*dsl.PrimitiveNode); ok && len(prim.Args) == 0 {
			spec, found := primitives.Get(prim.Name)
			if !found {
				return nil, &errs.InterpreterError{Primitive: prim.Name, Cause: fmt.Errorf("unregistered primitive")}
			}
			if in.trace {
				in.Trace = append(in.Trace, prim.Name)
			}
			out, err := spec.Impl([]interface{}{current})
			if err != nil {
				return nil, &errs.InterpreterError{Primitive: prim.Name, Cause: err}
			}
			current = out
			continue
		}

		if _, ok := step.(*dsl.PrimitiveNode); ok {
			out, err := in.evalPrimitive(step.(*dsl.PrimitiveNode), stepEnv)
			if err != nil {
				return nil, err
			}
			current = out
			continue
		}

		value, err := in.Eval(step, stepEnv)
		if err != nil {
			return nil, err
		}
		current, err = in.applyCallable(value, []interface{}{current})
		if err != nil {
			return nil, err
		}
	}

	return current, nil
}

func (in *Interpreter) evalApply(n *dsl.ApplyNode, env *Env) (interface{}, error) {
	fn, err := in.Eval(n.Func, env)
	if err != nil {
		return nil, err
	}
	args := make([]interface{}, len(n.Args))
	for i, a := range n.Args {
		v, err := in.Eval(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return in.applyCallable(fn, args)
}

// applyCallable invokes either a Closure (of matching arity) or a
// host-provided func([]interface{}) (interface{}, error) value.
func (in *Interpreter) applyCallable(fn interface{}, args []interface{}) (interface{}, error) {
	switch f := fn.(type) {
	case *Closure:
		if len(f.Params) != len(args) {
			return nil, &errs.InterpreterError{Cause: fmt.Errorf("closure expects %d args, got %d", len(f.Params), len(args))}
		}
		callEnv := f.Env
		for i, p := range f.Params {
			callEnv = callEnv.Extend(p, args[i])
		}
		return in.Eval(f.Body, callEnv)
	case func([]interface{}) (interface{}, error):
		return f(args)
	default:
		return nil, &errs.InterpreterError{Cause: fmt.Errorf("value of type %T is not callable", fn)}
	}
}

func (in *Interpreter) evalLet(n *dsl.LetNode, env *Env) (interface{}, error) {
	v, err := in.Eval(n.Value, env)
	if err != nil {
		return nil, err
	}
	return in.Eval(n.Body, env.Extend(n.Name, v))
}

func (in *Interpreter) evalCond(n *dsl.CondNode, env *Env) (interface{}, error) {
	p, err := in.Eval(n.Pred, env)
	if err != nil {
		return nil, err
	}
	b, ok := p.(bool)
	if !ok {
		return nil, &errs.InterpreterError{Cause: fmt.Errorf("cond predicate must be Bool, got %T", p)}
	}
	if b {
		return in.Eval(n.Then, env)
	}
	return in.Eval(n.Else, env)
}

func (in *Interpreter) evalMap(n *dsl.MapNode, env *Env) (interface{}, error) {
	fn, err := in.Eval(n.Func, env)
	if err != nil {
		return nil, err
	}
	listVal, err := in.Eval(n.List, env)
	if err != nil {
		return nil, err
	}
	list, ok := listVal.([]interface{})
	if !ok {
		return nil, &errs.InterpreterError{Cause: fmt.Errorf("map requires a List, got %T", listVal)}
	}
	out := make([]interface{}, len(list))
	for i, item := range list {
		v, err := in.applyCallable(fn, []interface{}{item})
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (in *Interpreter) evalFilter(n *dsl.FilterNode, env *Env) (interface{}, error) {
	fn, err := in.Eval(n.Pred, env)
	if err != nil {
		return nil, err
	}
	listVal, err := in.Eval(n.List, env)
	if err != nil {
		return nil, err
	}
	list, ok := listVal.([]interface{})
	if !ok {
		return nil, &errs.InterpreterError{Cause: fmt.Errorf("filter requires a List, got %T", listVal)}
	}
	var out []interface{}
	for _, item := range list {
		v, err := in.applyCallable(fn, []interface{}{item})
		if err != nil {
			return nil, err
		}
		keep, ok := v.(bool)
		if !ok {
			return nil, &errs.InterpreterError{Cause: fmt.Errorf("filter predicate must return Bool, got %T", v)}
		}
		if keep {
			out = append(out, item)
		}
	}
	return out, nil
}

// MakeProgram compiles an AST into a function from an input Grid to an
// output Grid, asserting the program's result is in fact a Grid (mirroring
// the reference requirement that every candidate program is a Grid ->
// Grid transform).
func MakeProgram(program dsl.Node) (func(types.Grid) (types.Grid, error), error) {
	return func(input types.Grid) (types.Grid, error) {
		in := New(false)
		env := NewEnv(input)
		result, err := in.Eval(program, env)
		if err != nil {
			return types.Grid{}, err
		}
		g, ok := result.(types.Grid)
		if !ok {
			return types.Grid{}, &errs.InterpreterError{Cause: fmt.Errorf("program did not return a Grid, got %T", result)}
		}
		return g, nil
	}, nil
}

// RunOnGrid compiles and immediately evaluates program on input.
func RunOnGrid(program dsl.Node, input types.Grid) (types.Grid, error) {
	fn, err := MakeProgram(program)
	if err != nil {
		return types.Grid{}, err
	}
	return fn(input)
}
