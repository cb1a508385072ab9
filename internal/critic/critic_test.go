package critic

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

func identityProgram() dsl.Node {
	return &dsl.PrimitiveNode{Name: "identity"}
}

func transposeProgram() dsl.Node {
	return &dsl.PrimitiveNode{Name: "transpose"}
}

func TestEvaluateApprovesExactMatch(t *testing.T) {
	task := types.ARCTask{
		TaskID: "t1",
		Train: []types.ARCPair{
			{Input: grid(t, [][]int{{1, 2}}), Output: grid(t, [][]int{{1, 2}}), HasOutput: true},
		},
	}
	c := New(true)
	res := c.Evaluate(identityProgram(), task)
	if !res.Approved || !res.IsCertified() {
		t.Fatalf("expected approved+certified identity program, got %+v", res)
	}
	if res.VetoReason != "" {
		t.Errorf("unexpected veto reason: %q", res.VetoReason)
	}
}

func TestEvaluateVetoesMismatch(t *testing.T) {
	task := types.ARCTask{
		TaskID: "t1",
		Train: []types.ARCPair{
			{Input: grid(t, [][]int{{1, 2}}), Output: grid(t, [][]int{{2, 1}}), HasOutput: true},
		},
	}
	c := New(true)
	res := c.Evaluate(identityProgram(), task)
	if res.Approved {
		t.Fatal("expected identity to be vetoed on a reversed-row task")
	}
	if res.VetoReason == "" {
		t.Error("expected a veto reason")
	}
}

func TestEvaluateTransposeMatchesSquareSwap(t *testing.T) {
	task := types.ARCTask{
		TaskID: "t1",
		Train: []types.ARCPair{
			{Input: grid(t, [][]int{{1, 2}, {3, 4}}), Output: grid(t, [][]int{{1, 3}, {2, 4}}), HasOutput: true},
		},
	}
	c := New(true)
	res := c.Evaluate(transposeProgram(), task)
	if !res.Approved {
		t.Fatalf("expected transpose to be approved, got %+v", res)
	}
}

func TestEvaluateUncompilableProgramVetoes(t *testing.T) {
	task := types.ARCTask{
		TaskID: "t1",
		Train: []types.ARCPair{
			{Input: grid(t, [][]int{{1}}), Output: grid(t, [][]int{{1}}), HasOutput: true},
		},
	}
	c := New(true)
	bad := &dsl.PrimitiveNode{Name: "not_a_real_primitive"}
	res := c.Evaluate(bad, task)
	if res.Approved {
		t.Fatal("expected unregistered primitive to fail")
	}
}

func TestComputeSymbolicDiffExactMatch(t *testing.T) {
	g := grid(t, [][]int{{1, 2}, {3, 4}})
	diff := ComputeSymbolicDiff(g, g, g)
	if !diff.ExactMatch || diff.Severity() != 0.0 {
		t.Errorf("expected exact match with severity 0, got %+v", diff)
	}
}

func TestComputeSymbolicDiffDimensionMismatch(t *testing.T) {
	pred := grid(t, [][]int{{1, 2, 3}})
	exp := grid(t, [][]int{{1}, {2}})
	diff := ComputeSymbolicDiff(pred, exp, pred)
	if diff.DimensionMatch {
		t.Fatal("expected dimension mismatch")
	}
	if diff.Severity() != 1.0 {
		t.Errorf("Severity() = %v, want 1.0 on dimension mismatch", diff.Severity())
	}
}

func TestComputeSymbolicDiffPixelErrors(t *testing.T) {
	pred := grid(t, [][]int{{1, 0}})
	exp := grid(t, [][]int{{2, 3}})
	diff := ComputeSymbolicDiff(pred, exp, pred)
	if diff.ExactMatch {
		t.Fatal("expected non-exact match")
	}
	if len(diff.Entries) != 2 {
		t.Fatalf("expected 2 diff entries, got %d", len(diff.Entries))
	}
	kinds := map[string]bool{}
	for _, e := range diff.Entries {
		kinds[e.Kind] = true
	}
	if !kinds["wrong_color"] || !kinds["missing_pixel"] {
		t.Errorf("unexpected diff kinds: %+v", diff.Entries)
	}
}

func TestExtractInvariantsFixedDimsAndPalette(t *testing.T) {
	task := types.ARCTask{
		Train: []types.ARCPair{
			{Input: grid(t, [][]int{{1, 0}}), Output: grid(t, [][]int{{0, 1}}), HasOutput: true},
			{Input: grid(t, [][]int{{2, 0}}), Output: grid(t, [][]int{{0, 2}}), HasOutput: true},
		},
	}
	inv := ExtractInvariants(task)
	if inv["fixed_output_dims"] != [2]int{1, 2} {
		t.Errorf("fixed_output_dims = %v, want {1,2}", inv["fixed_output_dims"])
	}
	if inv["palette_preserved"] != true {
		t.Errorf("palette_preserved = %v, want true", inv["palette_preserved"])
	}
}

func TestComputeRefinementHintsSkipsExactMatches(t *testing.T) {
	diffs := []SymbolicDiff{
		{ExactMatch: true},
		{
			ExactMatch:     false,
			DimensionMatch: true,
			Entries: []DiffEntry{
				{Row: 0, Col: 0, Predicted: 1, Expected: 2, Kind: "wrong_color"},
			},
		},
	}
	hints := ComputeRefinementHints(diffs)
	if len(hints) != 1 {
		t.Fatalf("expected 1 hint (exact match skipped), got %d", len(hints))
	}
	if hints[0].PairIndex != 1 {
		t.Errorf("PairIndex = %d, want 1", hints[0].PairIndex)
	}
	if hints[0].ErrorPattern == "" {
		t.Error("expected an error pattern for a single wrong_color entry")
	}
}

func TestComputeRefinementHintsDimensionSuggestion(t *testing.T) {
	diffs := []SymbolicDiff{
		{
			ExactMatch:     false,
			DimensionMatch: false,
			PredictedShape: [2]int{2, 2},
			ExpectedShape:  [2]int{4, 4},
		},
	}
	hints := ComputeRefinementHints(diffs)
	if len(hints) != 1 || hints[0].DimensionHint == nil {
		t.Fatalf("expected a dimension hint, got %+v", hints)
	}
	if hints[0].DimensionHint.Suggestion != "try scaling by 2" {
		t.Errorf("suggestion = %q, want %q", hints[0].DimensionHint.Suggestion, "try scaling by 2")
	}
}
