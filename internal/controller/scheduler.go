package controller

import (
	"fmt"
	"sort"
)

// ExpertType names one of the pluggable reasoning components the
// scheduler allocates budget to.
type ExpertType int

const (
	ExpertCRE ExpertType = iota
	ExpertWME
	ExpertMAL
	ExpertSynthesizer
	ExpertCritic
	ExpertRefinement
)

func (e ExpertType) String() string {
	switch e {
	case ExpertCRE:
		return "CRE"
	case ExpertWME:
		return "WME"
	case ExpertMAL:
		return "MAL"
	case ExpertSynthesizer:
		return "SYNTHESIZER"
	case ExpertCritic:
		return "CRITIC"
	case ExpertRefinement:
		return "REFINEMENT"
	default:
		return "UNKNOWN"
	}
}

// SolvePhase names one stage of the solve pipeline, in the order the
// scheduler walks them: priors first, then synthesis, then refinement
// of near-misses, then robustness checking of whatever program survived.
type SolvePhase int

const (
	PhasePriors SolvePhase = iota
	PhaseSynthesis
	PhaseRefinement
	PhaseRobustness
)

func (p SolvePhase) String() string {
	switch p {
	case PhasePriors:
		return "PRIORS"
	case PhaseSynthesis:
		return "SYNTHESIS"
	case PhaseRefinement:
		return "REFINEMENT"
	case PhaseRobustness:
		return "ROBUSTNESS"
	default:
		return "UNKNOWN"
	}
}

// Budget is a time/iteration allocation for one expert.
type Budget struct {
	Expert          ExpertType
	TimeLimit       float64
	IterationLimit  int
	Priority        float64
	TimeUsed        float64
	IterationsUsed  int
}

// TimeRemaining is the unspent portion of TimeLimit, floored at zero.
func (b Budget) TimeRemaining() float64 {
	if r := b.TimeLimit - b.TimeUsed; r > 0 {
		return r
	}
	return 0
}

// IterationsRemaining is the unspent portion of IterationLimit, floored
// at zero.
func (b Budget) IterationsRemaining() int {
	if r := b.IterationLimit - b.IterationsUsed; r > 0 {
		return r
	}
	return 0
}

// Exhausted reports whether either dimension of the budget has run out.
func (b Budget) Exhausted() bool {
	return b.TimeRemaining() <= 0 || b.IterationsRemaining() <= 0
}

// ScheduleDecision is the scheduler's recommendation for which expert to
// run next.
type ScheduleDecision struct {
	Expert               ExpertType
	Budget               Budget
	Rationale            string
	UncertaintyEstimate  float64
}

// UncertaintyEstimate splits a solve's uncertainty into a reducible
// (epistemic) component that more search can improve, and an
// irreducible (aleatoric) component reflecting noise in the candidate
// scores themselves.
type UncertaintyEstimate struct {
	Epistemic float64
	Aleatoric float64
	Total     float64
}

// ComputeUncertainty is the sole formula for combining epistemic and
// aleatoric uncertainty into a total in this codebase. A parallel
// formula existed in the trace-logging code this was ported from,
// averaging instead of summing; that duplication is resolved here by
// having every caller (including SolveTrace logging) go through this one
// function rather than re-deriving the combined figure.
func ComputeUncertainty(numCandidates int, bestScore, variance float64) UncertaintyEstimate {
	epistemic := (1 - bestScore) * maxF(0, 1-float64(numCandidates)/100)
	aleatoric := minF(1.0, variance)
	total := minF(1.0, epistemic+aleatoric)
	return UncertaintyEstimate{Epistemic: epistemic, Aleatoric: aleatoric, Total: total}
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// SolveState is the scheduler's view of progress so far, used to decide
// which expert runs next.
type SolveState struct {
	NumCandidates int
	BestScore     float64
	Variance      float64
	ExpertsTried  map[ExpertType]bool
}

// Scheduler allocates and tracks per-expert time/iteration budgets and
// decides which expert to run next based on uncertainty.
type Scheduler struct {
	TotalTimeBudget      float64
	TotalIterationBudget int
	Budgets              map[ExpertType]*Budget
	History              []UsageRecord
}

// UsageRecord is one entry in the scheduler's usage history.
type UsageRecord struct {
	Expert          ExpertType
	TimeUsed        float64
	IterationsUsed  int
	ElapsedSeconds  float64
}

// NewScheduler allocates the default per-expert budget split against
// the given totals: CRE gets 60% of time / 70% of iterations, WME and
// MAL each get 10%/5%, the synthesizer 40%/50%, refinement 20%/20% —
// these overlap by design, since CRE (certified reasoning: synthesis +
// critic + refinement end to end) is the umbrella budget the others
// draw against.
func NewScheduler(totalTimeBudget float64, totalIterationBudget int) *Scheduler {
	s := &Scheduler{
		TotalTimeBudget:      totalTimeBudget,
		TotalIterationBudget: totalIterationBudget,
		Budgets:              make(map[ExpertType]*Budget),
	}
	s.Budgets[ExpertCRE] = &Budget{Expert: ExpertCRE, TimeLimit: totalTimeBudget * 0.6, IterationLimit: int(float64(totalIterationBudget) * 0.7), Priority: 1.0}
	s.Budgets[ExpertWME] = &Budget{Expert: ExpertWME, TimeLimit: totalTimeBudget * 0.1, IterationLimit: int(float64(totalIterationBudget) * 0.05), Priority: 0.8}
	s.Budgets[ExpertMAL] = &Budget{Expert: ExpertMAL, TimeLimit: totalTimeBudget * 0.1, IterationLimit: int(float64(totalIterationBudget) * 0.05), Priority: 0.7}
	s.Budgets[ExpertSynthesizer] = &Budget{Expert: ExpertSynthesizer, TimeLimit: totalTimeBudget * 0.4, IterationLimit: int(float64(totalIterationBudget) * 0.5), Priority: 1.0}
	s.Budgets[ExpertRefinement] = &Budget{Expert: ExpertRefinement, TimeLimit: totalTimeBudget * 0.2, IterationLimit: int(float64(totalIterationBudget) * 0.2), Priority: 0.9}
	return s
}

// GetNextExpert recommends which expert to run next given the current
// solve state.
func (s *Scheduler) GetNextExpert(state SolveState) ScheduleDecision {
	uncertainty := ComputeUncertainty(state.NumCandidates, state.BestScore, state.Variance)

	if uncertainty.Epistemic > 0.5 {
		if b := s.Budgets[ExpertSynthesizer]; !b.Exhausted() {
			return ScheduleDecision{
				Expert:              ExpertSynthesizer,
				Budget:              *b,
				Rationale:           "high epistemic uncertainty - continue synthesis",
				UncertaintyEstimate: uncertainty.Epistemic,
			}
		}
	}

	if uncertainty.Aleatoric > 0.5 {
		if !state.ExpertsTried[ExpertWME] {
			if b := s.Budgets[ExpertWME]; !b.Exhausted() {
				return ScheduleDecision{
					Expert:              ExpertWME,
					Budget:              *b,
					Rationale:           "high aleatoric uncertainty - consult world model",
					UncertaintyEstimate: uncertainty.Aleatoric,
				}
			}
		}
		if !state.ExpertsTried[ExpertMAL] {
			if b := s.Budgets[ExpertMAL]; !b.Exhausted() {
				return ScheduleDecision{
					Expert:              ExpertMAL,
					Budget:              *b,
					Rationale:           "high aleatoric uncertainty - check memory",
					UncertaintyEstimate: uncertainty.Aleatoric,
				}
			}
		}
	}

	type entry struct {
		expert ExpertType
		budget *Budget
	}
	var available []entry
	for expert, b := range s.Budgets {
		if !b.Exhausted() {
			available = append(available, entry{expert, b})
		}
	}

	if len(available) == 0 {
		return ScheduleDecision{
			Expert:              ExpertCRE,
			Budget:              *s.Budgets[ExpertCRE],
			Rationale:           "all budgets exhausted",
			UncertaintyEstimate: uncertainty.Total,
		}
	}

	sort.Slice(available, func(i, j int) bool {
		return available[i].budget.Priority*available[i].budget.TimeRemaining() >
			available[j].budget.Priority*available[j].budget.TimeRemaining()
	})

	best := available[0]
	return ScheduleDecision{
		Expert:              best.expert,
		Budget:              *best.budget,
		Rationale:           fmt.Sprintf("best available expert: %s", best.expert),
		UncertaintyEstimate: uncertainty.Total,
	}
}

// RecordUsage charges timeUsed/iterationsUsed against expert's budget
// and appends a usage record, tagged with elapsedSeconds (the caller's
// clock, since this package never reads the wall clock directly).
func (s *Scheduler) RecordUsage(expert ExpertType, timeUsed float64, iterationsUsed int, elapsedSeconds float64) {
	if b, ok := s.Budgets[expert]; ok {
		b.TimeUsed += timeUsed
		b.IterationsUsed += iterationsUsed
	}
	s.History = append(s.History, UsageRecord{
		Expert:         expert,
		TimeUsed:       timeUsed,
		IterationsUsed: iterationsUsed,
		ElapsedSeconds: elapsedSeconds,
	})
}

// RemainingTime is the total time budget minus elapsedSeconds (the
// caller's clock), floored at zero.
func (s *Scheduler) RemainingTime(elapsedSeconds float64) float64 {
	return maxF(0, s.TotalTimeBudget-elapsedSeconds)
}
