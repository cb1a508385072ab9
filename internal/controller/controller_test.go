package controller

import (
	"testing"

	"github.com/jurisagi/core/internal/dsl"
	"github.com/jurisagi/core/internal/errs"
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

func TestRefusalCheckerRejectsMissingTrain(t *testing.T) {
	c := NewRefusalChecker()
	task := types.ARCTask{Test: []types.ARCPair{{Input: grid(t, [][]int{{1}})}}}
	refusal := c.Check(task)
	if refusal == nil || refusal.Reason != errs.ReasonMissingData {
		t.Fatalf("expected ReasonMissingData, got %+v", refusal)
	}
}

func TestRefusalCheckerRejectsOversizedGrid(t *testing.T) {
	c := NewRefusalChecker()
	big := make([][]int, 31)
	for i := range big {
		big[i] = make([]int, 31)
	}
	task := types.ARCTask{
		Train: []types.ARCPair{{Input: grid(t, big), Output: grid(t, big), HasOutput: true}},
		Test:  []types.ARCPair{{Input: grid(t, [][]int{{1}})}},
	}
	refusal := c.Check(task)
	if refusal == nil || refusal.Reason != errs.ReasonExcessiveSize {
		t.Fatalf("expected ReasonExcessiveSize, got %+v", refusal)
	}
}

func TestRefusalCheckerAcceptsValidTask(t *testing.T) {
	c := NewRefusalChecker()
	task := types.ARCTask{
		Train: []types.ARCPair{{Input: grid(t, [][]int{{1, 2}}), Output: grid(t, [][]int{{1, 2}}), HasOutput: true}},
		Test:  []types.ARCPair{{Input: grid(t, [][]int{{1, 2}})}},
	}
	if refusal := c.Check(task); refusal != nil {
		t.Errorf("expected no refusal, got %+v", refusal)
	}
}

func TestEstimateDifficultyEasyTask(t *testing.T) {
	task := types.ARCTask{
		Train: []types.ARCPair{
			{Input: grid(t, [][]int{{1, 2}}), Output: grid(t, [][]int{{1, 2}}), HasOutput: true},
			{Input: grid(t, [][]int{{3, 4}}), Output: grid(t, [][]int{{3, 4}}), HasOutput: true},
			{Input: grid(t, [][]int{{5, 6}}), Output: grid(t, [][]int{{5, 6}}), HasOutput: true},
		},
	}
	d := EstimateDifficulty(task)
	if d.Difficulty != "easy" {
		t.Errorf("Difficulty = %q, want easy", d.Difficulty)
	}
}

func TestComputeUncertaintyHighWithFewCandidates(t *testing.T) {
	u := ComputeUncertainty(0, 0.0, 0.0)
	if u.Epistemic <= 0.5 {
		t.Errorf("Epistemic = %v, want > 0.5 with zero candidates and zero score", u.Epistemic)
	}
	if u.Total != u.Epistemic {
		t.Errorf("Total = %v, want equal to Epistemic when Aleatoric is 0", u.Total)
	}
}

func TestComputeUncertaintyLowWithManyCandidatesAndHighScore(t *testing.T) {
	u := ComputeUncertainty(100, 1.0, 0.0)
	if u.Epistemic != 0 {
		t.Errorf("Epistemic = %v, want 0 with 100 candidates and a perfect score", u.Epistemic)
	}
}

func TestSchedulerGetNextExpertPrefersSynthesisUnderHighEpistemicUncertainty(t *testing.T) {
	s := NewScheduler(60.0, 10000)
	decision := s.GetNextExpert(SolveState{NumCandidates: 0, BestScore: 0.0, Variance: 0.0})
	if decision.Expert != ExpertSynthesizer {
		t.Errorf("Expert = %v, want ExpertSynthesizer under high epistemic uncertainty", decision.Expert)
	}
}

func TestSchedulerRecordUsageChargesBudget(t *testing.T) {
	s := NewScheduler(60.0, 10000)
	s.RecordUsage(ExpertSynthesizer, 10.0, 500, 10.0)
	if s.Budgets[ExpertSynthesizer].TimeUsed != 10.0 {
		t.Errorf("TimeUsed = %v, want 10.0", s.Budgets[ExpertSynthesizer].TimeUsed)
	}
	if len(s.History) != 1 {
		t.Errorf("History length = %d, want 1", len(s.History))
	}
}

func TestDefaultPriorsRanksIdentityHighestForUnchangedNonSquareGrid(t *testing.T) {
	// Non-square so rotate90's is_square feature doesn't outweigh identity's
	// same_dims/same_palette match.
	priors := DefaultPriors()
	features := ComputeTaskFeatures(grid(t, [][]int{{1, 2}}), grid(t, [][]int{{1, 2}}))
	rankings := priors.Rank(features)
	if rankings[0].Name != "identity" {
		t.Errorf("top ranking = %q, want identity for an unchanged grid", rankings[0].Name)
	}
}

type fixedClock struct{ tick int }

func (c *fixedClock) Now() string {
	c.tick++
	return "t" + itoa(c.tick)
}
func (c *fixedClock) ElapsedSeconds() float64 { return float64(c.tick) }

func itoa(n int) string {
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if len(digits) == 0 {
		return "0"
	}
	return string(digits)
}

func TestControllerSolveRefusesInvalidTask(t *testing.T) {
	c := New()
	task := types.ARCTask{}
	result, audit, trace := c.Solve(task, &fixedClock{})
	if result.Success {
		t.Error("expected failure for a task with no train/test pairs")
	}
	if trace.Success {
		t.Error("expected trace.Success false on refusal")
	}
	if audit.Success {
		t.Error("expected audit.Success false on refusal")
	}
}

func TestControllerSolveFindsRotation(t *testing.T) {
	c := New()
	task := types.ARCTask{
		TaskID: "rot",
		Train: []types.ARCPair{
			{Input: grid(t, [][]int{{1, 2}, {3, 4}}), Output: grid(t, [][]int{{3, 1}, {4, 2}}), HasOutput: true},
		},
		Test: []types.ARCPair{{Input: grid(t, [][]int{{5, 6}, {7, 8}})}},
	}
	result, audit, trace := c.Solve(task, &fixedClock{})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if trace.Regime == "" {
		t.Error("expected a regime to be set on the trace")
	}
	if len(result.Predictions) != len(task.Test) {
		t.Fatalf("len(Predictions) = %d, want %d", len(result.Predictions), len(task.Test))
	}
	wantPrediction := grid(t, [][]int{{7, 5}, {8, 6}})
	if !result.Predictions[0].Equal(wantPrediction) {
		t.Errorf("Predictions[0] = %+v, want the rotated test input %+v", result.Predictions[0], wantPrediction)
	}
	if !audit.Certified {
		t.Error("expected audit.Certified true for an exact-match solve")
	}
	if len(audit.ConstraintsSatisfied) == 0 {
		t.Error("expected at least one satisfied constraint in the audit trace")
	}
	if len(audit.PairDiffs) != len(task.Train) {
		t.Errorf("len(PairDiffs) = %d, want %d", len(audit.PairDiffs), len(task.Train))
	}
}

func TestPredictAppliesProgramToTestInputs(t *testing.T) {
	program := &dsl.PrimitiveNode{Name: "identity"}
	task := types.ARCTask{
		Test: []types.ARCPair{{Input: grid(t, [][]int{{1, 2}})}},
	}
	preds, err := Predict(program, task)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(preds) != 1 || !preds[0].Equal(task.Test[0].Input) {
		t.Errorf("expected identity prediction to match input, got %+v", preds)
	}
}
