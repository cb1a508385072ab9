package robustness

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

func TestPerturbationGeneratorProducesRequestedCount(t *testing.T) {
	g := NewPerturbationGenerator(0.2, 1)
	input := grid(t, [][]int{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	cfs := g.Generate(input, 5)
	if len(cfs) != 5 {
		t.Fatalf("len(cfs) = %d, want 5", len(cfs))
	}
	for _, cf := range cfs {
		if cf.ExpectedBehavior != SameTransformation {
			t.Errorf("ModificationType %q: ExpectedBehavior = %v, want SameTransformation", cf.ModificationType, cf.ExpectedBehavior)
		}
	}
}

func TestPerturbationGeneratorPixelNoisePreservesShape(t *testing.T) {
	g := NewPerturbationGenerator(1.0, 2)
	input := grid(t, [][]int{{1, 1}, {1, 1}})
	cf := g.pixelNoise(input)
	if cf.Modified.Shape() != input.Shape() {
		t.Errorf("expected pixel noise to preserve shape")
	}
}

func TestPerturbationGeneratorColorSwapPreservesShape(t *testing.T) {
	g := NewPerturbationGenerator(0.1, 3)
	input := grid(t, [][]int{{1, 2}, {2, 1}})
	cf := g.colorSwap(input)
	if cf == nil {
		t.Fatal("expected a color-swap counterfactual with 2 colors present")
	}
	if cf.Modified.Shape() != input.Shape() {
		t.Errorf("color swap should not change shape")
	}
}

func TestPerturbationGeneratorShiftStaysInBounds(t *testing.T) {
	g := NewPerturbationGenerator(0.1, 4)
	input := grid(t, [][]int{{1, 2}, {3, 4}})
	cf := g.shift(input)
	if cf.Modified.Height != input.Height || cf.Modified.Width != input.Width {
		t.Errorf("shift changed grid dimensions: got %v want %v", cf.Modified.Shape(), input.Shape())
	}
}

func TestPerturbationGeneratorFlipPixelChangesExactlyOneCell(t *testing.T) {
	g := NewPerturbationGenerator(0.1, 5)
	input := grid(t, [][]int{{1, 1}, {1, 1}})
	cf := g.flipPixel(input)
	diffs := 0
	for r := 0; r < input.Height; r++ {
		for c := 0; c < input.Width; c++ {
			if cf.Modified.Cells[r][c] != input.Cells[r][c] {
				diffs++
			}
		}
	}
	if diffs != 1 {
		t.Errorf("flipPixel changed %d cells, want 1", diffs)
	}
}

func TestStructuralGeneratorResizeRespectsCap(t *testing.T) {
	g := NewStructuralGenerator(1)
	big := make([][]int, 20)
	for i := range big {
		big[i] = make([]int, 20)
	}
	input := grid(t, big)
	cf := g.resize(input, 2.0)
	if cf != nil {
		t.Errorf("expected resize to 40x40 to be rejected by the 30-cell cap, got %+v", cf.Modified.Shape())
	}
}

func TestStructuralGeneratorPadIncreasesDimensionsBySymmetricAmount(t *testing.T) {
	g := NewStructuralGenerator(2)
	input := grid(t, [][]int{{5}})
	cf := g.pad(input, 2)
	if cf.Modified.Height != 5 || cf.Modified.Width != 5 {
		t.Errorf("pad(2) on a 1x1 grid = %v, want 5x5", cf.Modified.Shape())
	}
	if cf.Modified.Cells[2][2] != 5 {
		t.Errorf("expected original cell preserved at the padded center")
	}
}

func TestStructuralGeneratorRemapColorsPreservesShape(t *testing.T) {
	g := NewStructuralGenerator(3)
	input := grid(t, [][]int{{1, 2}, {2, 1}})
	cf := g.remapColors(input)
	if cf == nil {
		t.Fatal("expected a remap for a grid with non-background colors")
	}
	if cf.Modified.Shape() != input.Shape() {
		t.Errorf("color remap should not change shape")
	}
}

func TestCheckRobustnessOnIdentityIsFullyConsistent(t *testing.T) {
	checker := NewChecker(42)
	program := &dsl.PrimitiveNode{Name: "identity"}
	task := types.ARCTask{
		Train: []types.ARCPair{
			{Input: grid(t, [][]int{{1, 2, 3}, {4, 5, 6}}), Output: grid(t, [][]int{{1, 2, 3}, {4, 5, 6}}), HasOutput: true},
		},
	}
	result := checker.CheckRobustness(program, task)
	if result.OverallScore < 0.8 {
		t.Errorf("OverallScore = %v, want >= 0.8 for an identity program under perturbation", result.OverallScore)
	}
	if result.NumErrors > 0 {
		t.Errorf("NumErrors = %d, want 0", result.NumErrors)
	}
}

func TestCheckRobustnessRecordsOutcomesForCounterfactuals(t *testing.T) {
	checker := NewChecker(7)
	// rotate90 runs on every counterfactual input, rectangular ones
	// included, so this only checks that outcomes are recorded.
	program := &dsl.PrimitiveNode{Name: "rotate90", Args: []dsl.Node{&dsl.LiteralNode{Value: 1, Type: dsl.Int}}}
	task := types.ARCTask{
		Train: []types.ARCPair{
			{Input: grid(t, [][]int{{1, 2}, {3, 4}}), Output: grid(t, [][]int{{3, 1}, {4, 2}}), HasOutput: true},
		},
	}
	result := checker.CheckRobustness(program, task)
	if len(result.Outcomes) == 0 {
		t.Fatal("expected at least one counterfactual outcome")
	}
}

func TestComputeRobustnessScoreReturnsOneForEmptyTask(t *testing.T) {
	program := &dsl.PrimitiveNode{Name: "identity"}
	task := types.ARCTask{}
	score := ComputeRobustnessScore(program, task)
	if score != 1.0 {
		t.Errorf("score = %v, want 1.0 when there are no train pairs to check", score)
	}
}

func TestRankByRobustnessNeverDropsAProgram(t *testing.T) {
	task := types.ARCTask{
		Train: []types.ARCPair{
			{Input: grid(t, [][]int{{1, 2}, {3, 4}}), Output: grid(t, [][]int{{1, 2}, {3, 4}}), HasOutput: true},
		},
	}
	programs := []dsl.Node{
		&dsl.PrimitiveNode{Name: "identity"},
		&dsl.PrimitiveNode{Name: "rotate90", Args: []dsl.Node{&dsl.LiteralNode{Value: 1, Type: dsl.Int}}},
	}
	ranked := RankByRobustness(programs, task)
	if len(ranked) != len(programs) {
		t.Fatalf("RankByRobustness dropped programs: got %d, want %d", len(ranked), len(programs))
	}
}
