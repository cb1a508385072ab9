package sketcher

import (
	"context"

	"github.com/jurisagi/core/internal/dsl"
	igrid "github.com/jurisagi/core/internal/grid"
	"github.com/jurisagi/core/pkg/types"
)

// largestObject returns the largest connected foreground component of g, or
// ok=false if g is entirely background.
func largestObject(g types.Grid) (types.GridObject, bool) {
	objs := igrid.ExtractObjects(g)
	if len(objs) == 0 {
		return types.GridObject{}, false
	}
	largest := objs[0]
	for _, o := range objs[1:] {
		if o.Size > largest.Size {
			largest = o
		}
	}
	return largest, true
}

// categoryRule is one entry of the heuristic backend's transformation
// table: a program builder plus the grid-shape predicate under which it
// applies. This intentionally duplicates the spirit of the controller's
// world-model priors rather than importing that package directly, since
// the controller is the thing that wires a Sketcher in — importing it
// here would create a package cycle.
type categoryRule struct {
	name    string
	build   func() dsl.Node
	matches func(input, output types.Grid) bool
	weight  float64
}

var heuristicRules = []categoryRule{
	{
		name:    "identity",
		build:   func() dsl.Node { return &dsl.PrimitiveNode{Name: "identity"} },
		matches: func(in, out types.Grid) bool { return in.Shape() == out.Shape() },
		weight:  0.3,
	},
	{
		name: "rotate90",
		build: func() dsl.Node {
			return &dsl.PrimitiveNode{Name: "rotate90", Args: []dsl.Node{&dsl.LiteralNode{Value: 1, Type: dsl.Int}}}
		},
		matches: func(in, out types.Grid) bool { return in.Height == out.Width && in.Width == out.Height },
		weight:  0.25,
	},
	{
		name:    "reflect_h",
		build:   func() dsl.Node { return &dsl.PrimitiveNode{Name: "reflect_h"} },
		matches: func(in, out types.Grid) bool { return in.Shape() == out.Shape() },
		weight:  0.2,
	},
	{
		name:    "reflect_v",
		build:   func() dsl.Node { return &dsl.PrimitiveNode{Name: "reflect_v"} },
		matches: func(in, out types.Grid) bool { return in.Shape() == out.Shape() },
		weight:  0.2,
	},
	{
		name:    "crop_to_content",
		build:   func() dsl.Node { return &dsl.PrimitiveNode{Name: "crop_to_content"} },
		matches: func(in, out types.Grid) bool { return out.Height <= in.Height && out.Width <= in.Width && in.Shape() != out.Shape() },
		weight:  0.3,
	},
	{
		name: "scale2",
		build: func() dsl.Node {
			return &dsl.PrimitiveNode{Name: "scale", Args: []dsl.Node{&dsl.LiteralNode{Value: 2, Type: dsl.Int}}}
		},
		matches: func(in, out types.Grid) bool { return out.Height == in.Height*2 && out.Width == in.Width*2 },
		weight:  0.35,
	},
	{
		name: "tile2x2",
		build: func() dsl.Node {
			return &dsl.PrimitiveNode{Name: "tile_repeat", Args: []dsl.Node{
				&dsl.LiteralNode{Value: 2, Type: dsl.Int}, &dsl.LiteralNode{Value: 2, Type: dsl.Int}}}
		},
		matches: func(in, out types.Grid) bool { return out.Height == in.Height*2 && out.Width == in.Width*2 },
		weight:  0.3,
	},
	{
		name:  "extract_object",
		build: func() dsl.Node { return &dsl.PrimitiveNode{Name: "extract_object"} },
		matches: func(in, out types.Grid) bool {
			largest, ok := largestObject(in)
			if !ok || !largest.IsRectangular {
				return false
			}
			return largest.BBox.Height() == out.Height && largest.BBox.Width() == out.Width
		},
		weight: 0.28,
	},
}

// HeuristicBackend is the no-network default: it matches the first train
// pair's input/output shape relationship against a small fixed table of
// transformation categories and proposes the programs whose predicate
// holds, in table order, each with its rule's fixed weight as its
// confidence. This satisfies the requirement that
// the core "run with heuristic sketcher/critic fallbacks" with no
// learned model configured.
type HeuristicBackend struct{}

// NewHeuristicBackend constructs the zero-config default backend.
func NewHeuristicBackend() *HeuristicBackend {
	return &HeuristicBackend{}
}

func (b *HeuristicBackend) Name() string { return "heuristic" }

func (b *HeuristicBackend) Suggest(ctx context.Context, task types.ARCTask, maxSuggestions int) ([]Suggestion, error) {
	if len(task.Train) == 0 {
		return nil, nil
	}
	pair := task.Train[0]

	var out []Suggestion
	for _, rule := range heuristicRules {
		if !rule.matches(pair.Input, pair.Output) {
			continue
		}
		out = append(out, Suggestion{Program: rule.build(), Confidence: rule.weight, Source: b.Name()})
		if len(out) >= maxSuggestions {
			break
		}
	}
	return out, nil
}
