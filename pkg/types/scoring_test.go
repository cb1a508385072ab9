package types

import "testing"

func TestNewSolveTraceStartsEmpty(t *testing.T) {
	tr := NewSolveTrace("task-1", "2026-01-01T00:00:00Z")
	if tr.TaskID != "task-1" || tr.StartTime != "2026-01-01T00:00:00Z" {
		t.Fatalf("unexpected trace header: %+v", tr)
	}
	if len(tr.Entries) != 0 {
		t.Fatal("expected no entries on a fresh trace")
	}
}

func TestSolveTraceLogBudgetRecordsSnapshotAndEntry(t *testing.T) {
	tr := NewSolveTrace("task-1", "t0")
	tr.LogBudget("t1", map[string]PhaseBudgetSnapshot{
		"priors": {Phase: "priors", TimeLimit: 1.0, IterationLimit: 5},
	})
	if _, ok := tr.BudgetPerPhase["priors"]; !ok {
		t.Fatal("expected priors phase recorded in BudgetPerPhase")
	}
	if len(tr.Entries) != 1 || tr.Entries[0].EventType != "budget_update" {
		t.Fatalf("expected one budget_update entry, got %+v", tr.Entries)
	}
}

func TestSolveTraceLogUncertaintyAppendsSnapshot(t *testing.T) {
	tr := NewSolveTrace("task-1", "t0")
	tr.LogUncertainty("t1", "synthesis", 0.4, 0.3, 0.7, 12, 0.05)
	if len(tr.UncertaintyTrail) != 1 {
		t.Fatalf("expected one uncertainty snapshot, got %d", len(tr.UncertaintyTrail))
	}
	snap := tr.UncertaintyTrail[0]
	if snap.Total != 0.7 || snap.NumCandidates != 12 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	last := tr.Entries[len(tr.Entries)-1]
	if last.EventType != "uncertainty_update" || last.Component != "controller" {
		t.Errorf("unexpected entry: %+v", last)
	}
}

func TestSolveTraceSetRegimeRecordsRegimeAndEntry(t *testing.T) {
	tr := NewSolveTrace("task-1", "t0")
	tr.SetRegime("t1", "symbolic_confident", 0.9, "exact match on all train pairs")
	if tr.Regime != "symbolic_confident" {
		t.Errorf("Regime = %q, want symbolic_confident", tr.Regime)
	}
	last := tr.Entries[len(tr.Entries)-1]
	if last.EventType != "regime_determined" {
		t.Errorf("expected regime_determined entry, got %q", last.EventType)
	}
}

func TestSolveTraceFinalize(t *testing.T) {
	tr := NewSolveTrace("task-1", "t0")
	tr.Finalize("t9", true, "identity")
	if !tr.Success || tr.EndTime != "t9" || tr.FinalProgram != "identity" {
		t.Errorf("unexpected finalized trace: %+v", tr)
	}
}

func TestAuditTraceString(t *testing.T) {
	a := AuditTrace{TaskID: "task-1", Regime: "symbolic_confident", Success: true, DurationSec: 1.5}
	got := a.String()
	if got == "" {
		t.Fatal("String() returned empty")
	}
}
