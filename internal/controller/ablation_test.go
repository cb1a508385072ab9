package controller

import (
	"testing"

	"github.com/jurisagi/core/internal/dsl"
	"github.com/jurisagi/core/pkg/types"
)

func TestControllerConfigDisabledReportsListedPhases(t *testing.T) {
	cfg := ControllerConfig{DisablePhases: []SolvePhase{PhaseRobustness}}
	if !cfg.Disabled(PhaseRobustness) {
		t.Error("expected PhaseRobustness to be disabled")
	}
	if cfg.Disabled(PhasePriors) {
		t.Error("did not expect PhasePriors to be disabled")
	}
}

func TestControllerConfigDefaultDisablesNothing(t *testing.T) {
	var cfg ControllerConfig
	for _, p := range []SolvePhase{PhasePriors, PhaseSynthesis, PhaseRefinement, PhaseRobustness} {
		if cfg.Disabled(p) {
			t.Errorf("expected phase %v enabled by default", p)
		}
	}
}

func rotationTask() types.ARCTask {
	makeGrid := func(cells [][]int) types.Grid {
		g, _ := types.NewGrid(cells)
		return g
	}
	return types.ARCTask{
		TaskID: "rot",
		Train: []types.ARCPair{
			{Input: makeGrid([][]int{{1, 2}, {3, 4}}), Output: makeGrid([][]int{{3, 1}, {4, 2}}), HasOutput: true},
		},
		Test: []types.ARCPair{{Input: makeGrid([][]int{{5, 6}, {7, 8}})}},
	}
}

func TestControllerSolveSkipsRobustnessTraceEntryWhenDisabled(t *testing.T) {
	c := New()
	c.Config.DisablePhases = []SolvePhase{PhaseRobustness}
	task := rotationTask()

	_, _, trace := c.Solve(task, &fixedClock{})
	for _, entry := range trace.Entries {
		if entry.EventType == "robustness_checked" {
			t.Errorf("expected no robustness_checked entry when PhaseRobustness is disabled, got %+v", entry)
		}
	}
}

func TestControllerSolveLogsRobustnessByDefault(t *testing.T) {
	c := New()
	task := rotationTask()

	_, _, trace := c.Solve(task, &fixedClock{})
	found := false
	for _, entry := range trace.Entries {
		if entry.EventType == "robustness_checked" {
			found = true
		}
	}
	if !found {
		t.Error("expected a robustness_checked trace entry after a successful solve")
	}
}

func TestControllerSolveSkipsPriorsRankedEntryWhenDisabled(t *testing.T) {
	c := New()
	c.Config.DisablePhases = []SolvePhase{PhasePriors}
	task := rotationTask()

	_, _, trace := c.Solve(task, &fixedClock{})
	for _, entry := range trace.Entries {
		if entry.EventType == "priors_ranked" {
			t.Error("expected no priors_ranked entry when PhasePriors is disabled")
		}
	}
}

func TestControllerSolveHonorsRefinementDisable(t *testing.T) {
	c := New()
	c.Config.DisablePhases = []SolvePhase{PhaseRefinement}
	task := rotationTask()

	result, _, _ := c.Solve(task, &fixedClock{})
	if !result.Success {
		t.Fatalf("expected the beam search alone (without refinement) to still find this rotation, got %+v", result)
	}
	if c.Synth == nil {
		t.Fatal("expected a synthesizer")
	}
}

func TestPriorityBonusFavorsHigherLikelihoodPrimitive(t *testing.T) {
	bonus := priorityBonus([]Ranking{{Name: "rotate90", Likelihood: 1.0}, {Name: "reflect_h", Likelihood: 0.1}})
	rot := &dsl.PrimitiveNode{Name: "rotate90"}
	ref := &dsl.PrimitiveNode{Name: "reflect_h"}
	if bonus(rot) <= bonus(ref) {
		t.Errorf("expected rotate90's bonus (%v) to exceed reflect_h's (%v) given its higher likelihood", bonus(rot), bonus(ref))
	}
}

func TestPriorityBonusZeroForUnrankedPrimitive(t *testing.T) {
	bonus := priorityBonus([]Ranking{{Name: "rotate90", Likelihood: 1.0}})
	scale := &dsl.PrimitiveNode{Name: "scale", Args: []dsl.Node{&dsl.LiteralNode{Value: 2, Type: dsl.Int}}}
	if got := bonus(scale); got != 0 {
		t.Errorf("bonus for an unranked primitive = %v, want 0", got)
	}
}
