// Package refine implements the refinement engine: bounded local edits to
// a near-miss program, guided by the symbolic critic's diffs, applied
// greedily until the program is exact or no edit improves on the current
// best.
package refine

import (
	"fmt"

	"github.com/jurisagi/core/internal/critic"
	"github.com/jurisagi/core/internal/dsl"
)

// EditKind enumerates the edit generators below.
type EditKind int

const (
	SwapPrimitive EditKind = iota
	TweakArg
	InsertPrimitive
	RemovePrimitive
	SwapOrder
	TranslateTweak
	RecolorTweak
)

func (k EditKind) String() string {
	switch k {
	case SwapPrimitive:
		return "swap_primitive"
	case TweakArg:
		return "tweak_arg"
	case InsertPrimitive:
		return "insert_primitive"
	case RemovePrimitive:
		return "remove_primitive"
	case SwapOrder:
		return "swap_order"
	case TranslateTweak:
		return "translate_tweak"
	case RecolorTweak:
		return "recolor_tweak"
	default:
		return "unknown"
	}
}

// EditOperation records what a candidate edit did, for audit trails and
// human-readable descriptions.
type EditOperation struct {
	Kind        EditKind
	Location    int
	Original    string
	Replacement string
	Details     map[string]interface{}
}

// Describe renders a short human-readable summary of the edit.
func (e EditOperation) Describe() string {
	switch e.Kind {
	case SwapPrimitive:
		return fmt.Sprintf("swap %s with %s", e.Original, e.Replacement)
	case TweakArg:
		return fmt.Sprintf("adjust argument at position %d", e.Location)
	case InsertPrimitive:
		return fmt.Sprintf("insert %s at position %d", e.Replacement, e.Location)
	case RemovePrimitive:
		return fmt.Sprintf("remove %s at position %d", e.Original, e.Location)
	case SwapOrder:
		return fmt.Sprintf("swap operation order at %d", e.Location)
	case RecolorTweak:
		return fmt.Sprintf("adjust recolor mapping: %v", e.Details)
	default:
		return fmt.Sprintf("edit: %s", e.Kind)
	}
}

// candidate pairs an edit description with the AST it produces.
type candidate struct {
	edit   EditOperation
	result dsl.Node
}

// replaceAt rebuilds root with the idx-th node, counted in the same
// pre-order dsl.Walk produces, replaced by whatever replacement returns.
// This must walk in the same order as dsl.Walk (visit self, then recurse
// into children left to right) rather than dsl.Transform's bottom-up
// order, since edit generators number nodes via dsl.Walk.
func replaceAt(root dsl.Node, idx int, replacement func(dsl.Node) dsl.Node) dsl.Node {
	counter := -1
	var walkReplace func(n dsl.Node) dsl.Node
	walkReplace = func(n dsl.Node) dsl.Node {
		counter++
		self := counter
		if self == idx {
			return replacement(n)
		}
		switch v := n.(type) {
		case *dsl.LiteralNode, *dsl.VariableNode:
			return n
		case *dsl.PrimitiveNode:
			args := make([]dsl.Node, len(v.Args))
			for i, a := range v.Args {
				args[i] = walkReplace(a)
			}
			return &dsl.PrimitiveNode{Name: v.Name, Args: args}
		case *dsl.ComposeNode:
			steps := make([]dsl.Node, len(v.Steps))
			for i, s := range v.Steps {
				steps[i] = walkReplace(s)
			}
			return &dsl.ComposeNode{Steps: steps}
		case *dsl.LambdaNode:
			return &dsl.LambdaNode{Params: v.Params, Body: walkReplace(v.Body)}
		case *dsl.ApplyNode:
			args := make([]dsl.Node, len(v.Args))
			for i, a := range v.Args {
				args[i] = walkReplace(a)
			}
			return &dsl.ApplyNode{Func: walkReplace(v.Func), Args: args}
		case *dsl.LetNode:
			return &dsl.LetNode{Name: v.Name, Value: walkReplace(v.Value), Body: walkReplace(v.Body)}
		case *dsl.CondNode:
			return &dsl.CondNode{Pred: walkReplace(v.Pred), Then: walkReplace(v.Then), Else: walkReplace(v.Else)}
		case *dsl.MapNode:
			return &dsl.MapNode{Func: walkReplace(v.Func), List: walkReplace(v.List)}
		case *dsl.FilterNode:
			return &dsl.FilterNode{Pred: walkReplace(v.Pred), List: walkReplace(v.List)}
		default:
			return n
		}
	}
	return walkReplace(root)
}

var swapGroups = map[string][]string{
	"rotate90":        {"reflect_h", "reflect_v", "transpose"},
	"reflect_h":       {"reflect_v", "rotate90", "transpose"},
	"reflect_v":       {"reflect_h", "rotate90", "transpose"},
	"crop_to_content": {"identity"},
	"identity":        {"crop_to_content"},
}

func generateSwapEdits(ast dsl.Node, hints []critic.RefinementHint) []candidate {
	var out []candidate
	nodes := dsl.Walk(ast)
	for idx, n := range nodes {
		prim, ok := n.(*dsl.PrimitiveNode)
		if !ok {
			continue
		}
		replacements, ok := swapGroups[prim.Name]
		if !ok {
			continue
		}
		for _, repl := range replacements {
			edit := EditOperation{Kind: SwapPrimitive, Location: idx, Original: prim.Name, Replacement: repl}
			edited := replaceAt(ast, idx, func(n dsl.Node) dsl.Node {
				p := n.(*dsl.PrimitiveNode)
				return &dsl.PrimitiveNode{Name: repl, Args: p.Args}
			})
			out = append(out, candidate{edit, edited})
		}
	}
	return out
}

func generateArgTweaks(ast dsl.Node, hints []critic.RefinementHint) []candidate {
	var out []candidate
	nodes := dsl.Walk(ast)
	for idx, n := range nodes {
		prim, ok := n.(*dsl.PrimitiveNode)
		if !ok || len(prim.Args) == 0 {
			continue
		}

		var tryValues []int
		switch prim.Name {
		case "rotate90":
			tryValues = []int{1, 2, 3}
		case "scale":
			tryValues = []int{2, 3, 4}
		default:
			continue
		}

		lit, isLit := prim.Args[0].(*dsl.LiteralNode)
		for _, v := range tryValues {
			if isLit {
				if cur, ok := lit.Value.(int); ok && cur == v {
					continue
				}
			}
			edit := EditOperation{Kind: TweakArg, Location: idx, Details: map[string]interface{}{"new_value": v}}
			edited := replaceAt(ast, idx, func(n dsl.Node) dsl.Node {
				p := n.(*dsl.PrimitiveNode)
				return &dsl.PrimitiveNode{Name: p.Name, Args: []dsl.Node{&dsl.LiteralNode{Value: v, Type: dsl.Int}}}
			})
			out = append(out, candidate{edit, edited})
		}
	}
	return out
}

func appendOrWrap(ast dsl.Node, prim dsl.Node, atEnd bool) dsl.Node {
	if compose, ok := ast.(*dsl.ComposeNode); ok {
		if atEnd {
			steps := append(append([]dsl.Node{}, compose.Steps...), prim)
			return &dsl.ComposeNode{Steps: steps}
		}
		steps := append([]dsl.Node{prim}, compose.Steps...)
		return &dsl.ComposeNode{Steps: steps}
	}
	if atEnd {
		return &dsl.ComposeNode{Steps: []dsl.Node{ast, prim}}
	}
	return &dsl.ComposeNode{Steps: []dsl.Node{prim, ast}}
}

func insertCandidates() []*dsl.PrimitiveNode {
	prims := []*dsl.PrimitiveNode{
		{Name: "crop_to_content"},
		{Name: "reflect_h"},
		{Name: "reflect_v"},
		{Name: "transpose"},
	}
	for _, n := range []int{1, 2, 3} {
		prims = append(prims, &dsl.PrimitiveNode{Name: "rotate90", Args: []dsl.Node{&dsl.LiteralNode{Value: n, Type: dsl.Int}}})
	}
	return prims
}

func generateInsertEdits(ast dsl.Node, hints []critic.RefinementHint) []candidate {
	var out []candidate
	for _, prim := range insertCandidates() {
		editStart := EditOperation{Kind: InsertPrimitive, Location: 0, Replacement: prim.Name}
		out = append(out, candidate{editStart, appendOrWrap(ast, prim, false)})

		editEnd := EditOperation{Kind: InsertPrimitive, Location: -1, Replacement: prim.Name}
		out = append(out, candidate{editEnd, appendOrWrap(ast, prim, true)})
	}
	return out
}

func generateRemovalEdits(ast dsl.Node, hints []critic.RefinementHint) []candidate {
	var out []candidate
	compose, ok := ast.(*dsl.ComposeNode)
	if !ok || len(compose.Steps) <= 1 {
		return out
	}
	for i, step := range compose.Steps {
		prim, ok := step.(*dsl.PrimitiveNode)
		if !ok || prim.Name == "identity" {
			continue
		}
		edit := EditOperation{Kind: RemovePrimitive, Location: i, Original: prim.Name}
		newSteps := append(append([]dsl.Node{}, compose.Steps[:i]...), compose.Steps[i+1:]...)
		var edited dsl.Node
		if len(newSteps) == 1 {
			edited = newSteps[0]
		} else {
			edited = &dsl.ComposeNode{Steps: newSteps}
		}
		out = append(out, candidate{edit, edited})
	}
	return out
}

func generateOrderSwapEdits(ast dsl.Node, hints []critic.RefinementHint) []candidate {
	var out []candidate
	compose, ok := ast.(*dsl.ComposeNode)
	if !ok || len(compose.Steps) < 2 {
		return out
	}
	for i := 0; i < len(compose.Steps)-1; i++ {
		newSteps := append([]dsl.Node{}, compose.Steps...)
		newSteps[i], newSteps[i+1] = newSteps[i+1], newSteps[i]
		edit := EditOperation{
			Kind:        SwapOrder,
			Location:    i,
			Original:    stepName(compose.Steps[i]) + "," + stepName(compose.Steps[i+1]),
			Replacement: stepName(compose.Steps[i+1]) + "," + stepName(compose.Steps[i]),
		}
		out = append(out, candidate{edit, &dsl.ComposeNode{Steps: newSteps}})
	}
	return out
}

func stepName(n dsl.Node) string {
	if p, ok := n.(*dsl.PrimitiveNode); ok {
		return p.Name
	}
	return "op"
}

func generateTranslateTweaks(ast dsl.Node, hints []critic.RefinementHint) []candidate {
	var out []candidate
	nodes := dsl.Walk(ast)
	deltas := []int{-2, -1, 1, 2}
	for idx, n := range nodes {
		prim, ok := n.(*dsl.PrimitiveNode)
		if !ok || prim.Name != "translate" {
			continue
		}
		curDx, curDy := 0, 0
		if len(prim.Args) >= 2 {
			if lit, ok := prim.Args[0].(*dsl.LiteralNode); ok {
				if v, ok := lit.Value.(int); ok {
					curDx = v
				}
			}
			if lit, ok := prim.Args[1].(*dsl.LiteralNode); ok {
				if v, ok := lit.Value.(int); ok {
					curDy = v
				}
			}
		}
		for _, ddx := range deltas {
			for _, ddy := range deltas {
				newDx, newDy := curDx+ddx, curDy+ddy
				if newDx == curDx && newDy == curDy {
					continue
				}
				edit := EditOperation{
					Kind:        TranslateTweak,
					Location:    idx,
					Original:    fmt.Sprintf("translate(%d, %d)", curDx, curDy),
					Replacement: fmt.Sprintf("translate(%d, %d)", newDx, newDy),
					Details:     map[string]interface{}{"new_dx": newDx, "new_dy": newDy},
				}
				edited := replaceAt(ast, idx, func(n dsl.Node) dsl.Node {
					p := n.(*dsl.PrimitiveNode)
					return &dsl.PrimitiveNode{Name: p.Name, Args: []dsl.Node{
						&dsl.LiteralNode{Value: newDx, Type: dsl.Int},
						&dsl.LiteralNode{Value: newDy, Type: dsl.Int},
					}}
				})
				out = append(out, candidate{edit, edited})
			}
		}
	}
	return out
}

func generateRecolorTweaks(ast dsl.Node, hints []critic.RefinementHint) []candidate {
	var out []candidate
	nodes := dsl.Walk(ast)

	var extraColors, missingColors []int
	for _, h := range hints {
		extraColors = append(extraColors, h.ExtraColors...)
		missingColors = append(missingColors, h.MissingColors...)
	}

	for idx, n := range nodes {
		prim, ok := n.(*dsl.PrimitiveNode)
		if !ok || prim.Name != "recolor_map" {
			continue
		}

		currentMap := map[int]int{}
		if len(prim.Args) > 0 {
			if lit, ok := prim.Args[0].(*dsl.LiteralNode); ok {
				if m, ok := lit.Value.(map[int]int); ok {
					currentMap = m
				}
			}
		}

		if len(extraColors) > 0 && len(missingColors) > 0 {
			for _, extra := range extraColors {
				for _, missing := range missingColors {
					newMap := cloneColorMap(currentMap)
					newMap[extra] = missing
					edit := EditOperation{
						Kind:     RecolorTweak,
						Location: idx,
						Details:  map[string]interface{}{"from": extra, "to": missing, "new_map": newMap},
					}
					edited := recolorReplace(ast, idx, newMap)
					out = append(out, candidate{edit, edited})
				}
			}
			continue
		}

		for src, dst := range currentMap {
			for _, newDst := range []int{dst - 1, dst + 1} {
				if newDst < 0 || newDst > 9 || newDst == dst {
					continue
				}
				newMap := cloneColorMap(currentMap)
				newMap[src] = newDst
				edit := EditOperation{
					Kind:     RecolorTweak,
					Location: idx,
					Details:  map[string]interface{}{"adjusted": src, "from": dst, "to": newDst},
				}
				edited := recolorReplace(ast, idx, newMap)
				out = append(out, candidate{edit, edited})
			}
		}
	}
	return out
}

func recolorReplace(ast dsl.Node, idx int, newMap map[int]int) dsl.Node {
	return replaceAt(ast, idx, func(n dsl.Node) dsl.Node {
		p := n.(*dsl.PrimitiveNode)
		return &dsl.PrimitiveNode{Name: p.Name, Args: []dsl.Node{&dsl.LiteralNode{Value: newMap, Type: dsl.ColorMap}}}
	})
}

func cloneColorMap(m map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
