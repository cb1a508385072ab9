package types

import "github.com/dustin/go-humanize"

// TraceEntry is a single timestamped event in a SolveTrace.
type TraceEntry struct {
	Timestamp string
	EventType string // "synthesis", "evaluation", "refinement", "critic", ...
	Component string // "critic", "synth", "refine", "memory", "controller"
	Details   map[string]interface{}
}

// SolveTrace is the complete audit trail of one solve attempt, mirroring
// the phase/uncertainty/regime bookkeeping the meta-controller maintains.
type SolveTrace struct {
	TaskID           string
	StartTime        string
	EndTime          string
	Success          bool
	Entries          []TraceEntry
	FinalProgram     string
	FinalMetrics     map[string]interface{}
	BudgetPerPhase   map[string]PhaseBudgetSnapshot
	UncertaintyTrail []UncertaintySnapshot
	Regime           string
}

// PhaseBudgetSnapshot records allocated vs. used budget for one phase.
type PhaseBudgetSnapshot struct {
	Phase           string
	TimeLimit       float64
	TimeUsed        float64
	IterationLimit  int
	IterationsUsed  int
}

// UncertaintySnapshot captures epistemic/aleatoric uncertainty at a phase
// boundary, plus the score-variance figure the caller supplied for it.
type UncertaintySnapshot struct {
	Phase         string
	Epistemic     float64
	Aleatoric     float64
	Total         float64
	NumCandidates int
	ScoreVariance float64
}

// NewSolveTrace starts a trace for taskID at startTime (caller-supplied, so
// callers stay in control of the clock for deterministic tests).
func NewSolveTrace(taskID, startTime string) *SolveTrace {
	return &SolveTrace{
		TaskID:         taskID,
		StartTime:      startTime,
		BudgetPerPhase: make(map[string]PhaseBudgetSnapshot),
	}
}

// Log appends an entry to the trace. Timestamps are supplied by the caller
// (via a clock the controller owns) rather than taken here, since workflow
// scripts and tests must stay deterministic.
func (t *SolveTrace) Log(timestamp, eventType, component string, details map[string]interface{}) {
	t.Entries = append(t.Entries, TraceEntry{
		Timestamp: timestamp,
		EventType: eventType,
		Component: component,
		Details:   details,
	})
}

// Finalize marks the trace complete.
func (t *SolveTrace) Finalize(endTime string, success bool, program string) {
	t.EndTime = endTime
	t.Success = success
	t.FinalProgram = program
}

// LogBudget records the per-phase budget allocation and appends a
// "budget_update" entry under the "controller" component.
func (t *SolveTrace) LogBudget(timestamp string, budgets map[string]PhaseBudgetSnapshot) {
	if t.BudgetPerPhase == nil {
		t.BudgetPerPhase = make(map[string]PhaseBudgetSnapshot)
	}
	for phase, b := range budgets {
		t.BudgetPerPhase[phase] = b
	}
	t.Log(timestamp, "budget_update", "controller", map[string]interface{}{"phases": budgets})
}

// LogUncertainty appends an uncertainty snapshot for the given phase and
// logs an "uncertainty_update" entry. total is the caller's already-computed
// combined figure — SolveTrace does not re-derive it, so there is exactly
// one uncertainty formula in the codebase (internal/controller), not two.
func (t *SolveTrace) LogUncertainty(timestamp, phase string, epistemic, aleatoric, total float64, numCandidates int, scoreVariance float64) {
	snap := UncertaintySnapshot{
		Phase:         phase,
		Epistemic:     epistemic,
		Aleatoric:     aleatoric,
		Total:         total,
		NumCandidates: numCandidates,
		ScoreVariance: scoreVariance,
	}
	t.UncertaintyTrail = append(t.UncertaintyTrail, snap)
	t.Log(timestamp, "uncertainty_update", "controller", map[string]interface{}{
		"phase":          phase,
		"epistemic":      epistemic,
		"aleatoric":      aleatoric,
		"total":          total,
		"num_candidates": numCandidates,
		"score_variance": scoreVariance,
	})
}

// SetRegime records the detected regime and logs a "regime_determined" entry.
func (t *SolveTrace) SetRegime(timestamp, regime string, confidence float64, rationale string) {
	t.Regime = regime
	t.Log(timestamp, "regime_determined", "controller", map[string]interface{}{
		"regime":     regime,
		"confidence": confidence,
		"rationale":  rationale,
	})
}

// PairDiff is a compact, dependency-free summary of one training pair's
// symbolic comparison, copied out of the critic's richer SymbolicDiff so
// pkg/types does not need to import internal/critic.
type PairDiff struct {
	PairIndex      int
	DimensionMatch bool
	ExactMatch     bool
	PixelAccuracy  float64
	NumDiffPixels  int
}

// AuditTrace is a compact, human-facing summary derived from a SolveTrace,
// rendered to a terminal by internal/tracewriter's RenderAudit.
type AuditTrace struct {
	TaskID               string
	Regime               string
	Success              bool
	Certified            bool
	Iterations           int
	DurationSec          float64
	Program              string
	NodesExplored        int
	RefinementEdits      int
	RobustnessScore      float64
	ConstraintsSatisfied []string
	ConstraintsViolated  []string
	PairDiffs            []PairDiff
}

// String renders a one-line human summary using humanized durations, the
// same ambient convenience the teacher's output package reaches for.
func (a AuditTrace) String() string {
	dur := humanize.FormatFloat("#,###.##", a.DurationSec) + "s"
	status := "failed"
	if a.Success {
		status = "solved"
	}
	return a.TaskID + ": " + status + " in " + dur + " (" + a.Regime + ")"
}
