package interpreter

import (
	"testing"

	"github.com/jurisagi/core/internal/dsl"
	"github.com/jurisagi/core/pkg/types"
)

func grid(t *testing.T, cells [][]int) types.Grid {
	t.Helper()
	g, err := types.NewGrid(cells)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func TestEvalPrimitiveNoArgsUsesInput(t *testing.T) {
	g := grid(t, [][]int{{1, 2}, {3, 4}})
	in := New(false)
	env := NewEnv(g)
	out, err := in.Eval(&dsl.PrimitiveNode{Name: "transpose"}, env)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	want := grid(t, [][]int{{1, 3}, {2, 4}})
	if !out.(types.Grid).Equal(want) {
		t.Errorf("transpose(input) = %v, want %v", out, want)
	}
}

func TestEvalCompose(t *testing.T) {
	g := grid(t, [][]int{{1, 2}, {3, 4}})
	in := New(true)
	env := NewEnv(g)
	program := &dsl.ComposeNode{Steps: []dsl.Node{
		&dsl.PrimitiveNode{Name: "rotate90", Args: []dsl.Node{&dsl.LiteralNode{Value: 1, Type: dsl.Int}}},
		&dsl.PrimitiveNode{Name: "reflect_h"},
	}}
	out, err := in.Eval(program, env)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	want := grid(t, [][]int{{1, 3}, {2, 4}})
	if !out.(types.Grid).Equal(want) {
		t.Errorf("compose result = %v, want %v", out, want)
	}
	if len(in.Trace) == 0 {
		t.Error("expected trace entries to be recorded")
	}
}

func TestEvalLetAndVariable(t *testing.T) {
	g := grid(t, [][]int{{5}})
	in := New(false)
	env := NewEnv(g)
	program := &dsl.LetNode{
		Name:  "x",
		Value: &dsl.VariableNode{Name: "input"},
		Body:  &dsl.VariableNode{Name: "x"},
	}
	out, err := in.Eval(program, env)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !out.(types.Grid).Equal(g) {
		t.Errorf("let/variable roundtrip = %v, want %v", out, g)
	}
}

func TestEvalCondBranches(t *testing.T) {
	in := New(false)
	env := NewEnv(grid(t, [][]int{{1}}))
	truthy := &dsl.CondNode{
		Pred: &dsl.LiteralNode{Value: true, Type: dsl.Bool},
		Then: &dsl.LiteralNode{Value: 1, Type: dsl.Int},
		Else: &dsl.LiteralNode{Value: 2, Type: dsl.Int},
	}
	out, err := in.Eval(truthy, env)
	if err != nil || out.(int) != 1 {
		t.Errorf("cond(true) = %v, %v; want 1, nil", out, err)
	}
	falsy := &dsl.CondNode{
		Pred: &dsl.LiteralNode{Value: false, Type: dsl.Bool},
		Then: &dsl.LiteralNode{Value: 1, Type: dsl.Int},
		Else: &dsl.LiteralNode{Value: 2, Type: dsl.Int},
	}
	out, err = in.Eval(falsy, env)
	if err != nil || out.(int) != 2 {
		t.Errorf("cond(false) = %v, %v; want 2, nil", out, err)
	}
}

func TestEvalLambdaApply(t *testing.T) {
	in := New(false)
	env := NewEnv(nil)
	program := &dsl.ApplyNode{
		Func: &dsl.LambdaNode{Params: []string{"a", "b"}, Body: &dsl.VariableNode{Name: "a"}},
		Args: []dsl.Node{&dsl.LiteralNode{Value: 7, Type: dsl.Int}, &dsl.LiteralNode{Value: 8, Type: dsl.Int}},
	}
	out, err := in.Eval(program, env)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out.(int) != 7 {
		t.Errorf("apply(lambda(a,b)->a, 7, 8) = %v, want 7", out)
	}
}

func TestEvalMapAndFilter(t *testing.T) {
	in := New(false)
	env := NewEnv(nil)
	list := &dsl.LiteralNode{Value: []interface{}{1, 2, 3, 4}, Type: dsl.ListOf(dsl.Int)}

	double := &dsl.LambdaNode{Params: []string{"x"}, Body: &dsl.VariableNode{Name: "x"}}
	mapped, err := in.Eval(&dsl.MapNode{Func: double, List: list}, env)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if len(mapped.([]interface{})) != 4 {
		t.Errorf("map result length = %d, want 4", len(mapped.([]interface{})))
	}

	keepAll := &dsl.LambdaNode{Params: []string{"x"}, Body: &dsl.LiteralNode{Value: true, Type: dsl.Bool}}
	filtered, err := in.Eval(&dsl.FilterNode{Pred: keepAll, List: list}, env)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(filtered.([]interface{})) != 4 {
		t.Errorf("filter(keepAll) length = %d, want 4", len(filtered.([]interface{})))
	}

	keepNone := &dsl.LambdaNode{Params: []string{"x"}, Body: &dsl.LiteralNode{Value: false, Type: dsl.Bool}}
	filtered, err = in.Eval(&dsl.FilterNode{Pred: keepNone, List: list}, env)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(filtered.([]interface{})) != 0 {
		t.Errorf("filter(keepNone) length = %d, want 0", len(filtered.([]interface{})))
	}
}

func TestEvalUnboundVariableErrors(t *testing.T) {
	in := New(false)
	env := NewEnv(nil)
	_, err := in.Eval(&dsl.VariableNode{Name: "nope"}, env)
	if err == nil {
		t.Fatal("expected error for unbound variable")
	}
}

func TestMakeProgramRejectsNonGridResult(t *testing.T) {
	program := &dsl.LiteralNode{Value: 42, Type: dsl.Int}
	fn, err := MakeProgram(program)
	if err != nil {
		t.Fatalf("MakeProgram: %v", err)
	}
	_, err = fn(grid(t, [][]int{{1}}))
	if err == nil {
		t.Fatal("expected error when program does not return a Grid")
	}
}

func TestRunOnGridComposePipeline(t *testing.T) {
	g := grid(t, [][]int{{1, 2}, {3, 4}})
	program := &dsl.ComposeNode{Steps: []dsl.Node{
		&dsl.PrimitiveNode{Name: "identity"},
		&dsl.PrimitiveNode{Name: "transpose"},
	}}
	out, err := RunOnGrid(program, g)
	if err != nil {
		t.Fatalf("RunOnGrid: %v", err)
	}
	want := grid(t, [][]int{{1, 3}, {2, 4}})
	if !out.Equal(want) {
		t.Errorf("RunOnGrid result = %v, want %v", out, want)
	}
}
