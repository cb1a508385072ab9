package robustness

import (
	"sort"

	"github.com/jurisagi/core/internal/dsl"
	"github.com/jurisagi/core/internal/interpreter"
	"github.com/jurisagi/core/pkg/types"
)

// CheckOutcome is the per-counterfactual verdict: whether the program's
// behavior on a modified input was consistent with its expected behavior.
type CheckOutcome struct {
	Counterfactual Counterfactual
	Passed         bool
	Errored        bool
	Score          float64
	Detail         string
}

// Result aggregates every counterfactual check run against one program
// over one task's train pairs. This is advisory output: a low score
// flags a brittle program for re-ranking, it never blocks certification
// the way a critic veto does.
type Result struct {
	OverallScore float64
	NumPassed    int
	NumFailed    int
	NumErrors    int
	Outcomes     []CheckOutcome
	WorstType    string
}

// Checker runs a program against counterfactual variants of a task's
// training inputs and scores how consistent its behavior stays.
type Checker struct {
	Perturbation *PerturbationGenerator
	Structural   *StructuralGenerator
	NumPerType   int
}

// NewChecker wires the default perturbation/structural generator pair.
// The seed only controls reproducibility of the generated counterfactuals,
// not the program's own behavior.
func NewChecker(seed int64) *Checker {
	return &Checker{
		Perturbation: NewPerturbationGenerator(0.1, seed),
		Structural:   NewStructuralGenerator(seed + 1),
		NumPerType:   3,
	}
}

// CheckRobustness compiles program and evaluates it against counterfactual
// variants of every train-pair input, scoring consistency per the
// counterfactual's ExpectedBehavior.
func (c *Checker) CheckRobustness(program dsl.Node, task types.ARCTask) Result {
	programFn, err := interpreter.MakeProgram(program)
	if err != nil {
		return Result{OverallScore: 0.0, NumErrors: 1}
	}

	var outcomes []CheckOutcome
	typeFailures := make(map[string]int)

	for _, pair := range task.Train {
		if !pair.HasOutput {
			continue
		}
		expectedOut, err := programFn(pair.Input)
		if err != nil {
			continue
		}

		var cfs []Counterfactual
		cfs = append(cfs, c.Perturbation.Generate(pair.Input, c.NumPerType)...)
		cfs = append(cfs, c.Structural.Generate(pair.Input, c.NumPerType)...)

		for _, cf := range cfs {
			outcome := c.evaluate(programFn, cf, expectedOut)
			outcomes = append(outcomes, outcome)
			if !outcome.Passed && !outcome.Errored {
				typeFailures[cf.ModificationType]++
			}
			if outcome.Errored {
				typeFailures[cf.ModificationType]++
			}
		}
	}

	result := Result{Outcomes: outcomes}
	var total float64
	for _, o := range outcomes {
		total += o.Score
		switch {
		case o.Errored:
			result.NumErrors++
		case o.Passed:
			result.NumPassed++
		default:
			result.NumFailed++
		}
	}
	if len(outcomes) > 0 {
		result.OverallScore = total / float64(len(outcomes))
	} else {
		result.OverallScore = 1.0
	}
	result.WorstType = worstModificationType(typeFailures)
	return result
}

func (c *Checker) evaluate(programFn func(types.Grid) (types.Grid, error), cf Counterfactual, expectedOut types.Grid) CheckOutcome {
	modifiedOut, err := programFn(cf.Modified)
	if err != nil {
		return CheckOutcome{Counterfactual: cf, Errored: true, Score: 0.0, Detail: err.Error()}
	}

	switch cf.ExpectedBehavior {
	case SameTransformation:
		score := structuralSimilarity(modifiedOut, expectedOut)
		return CheckOutcome{Counterfactual: cf, Passed: score > 0.8, Score: score}
	case SameStructure:
		score := shapeSimilarity(modifiedOut, expectedOut)
		return CheckOutcome{Counterfactual: cf, Passed: score > 0.9, Score: score}
	default: // MayDiffer: only requires a valid, non-degenerate output.
		valid := modifiedOut.Height > 0 && modifiedOut.Width > 0
		score := 0.0
		if valid {
			score = 1.0
		}
		return CheckOutcome{Counterfactual: cf, Passed: valid, Score: score}
	}
}

// structuralSimilarity returns the fraction of matching cells when the two
// grids have the same shape, and half their shapeSimilarity otherwise.
func structuralSimilarity(a, b types.Grid) float64 {
	if a.Height == 0 || a.Width == 0 || b.Height == 0 || b.Width == 0 {
		return 0.0
	}
	if a.Shape() != b.Shape() {
		return shapeSimilarity(a, b) * 0.5
	}
	matches := 0
	total := a.Height * a.Width
	for r := 0; r < a.Height; r++ {
		for c := 0; c < a.Width; c++ {
			if a.Cells[r][c] == b.Cells[r][c] {
				matches++
			}
		}
	}
	return float64(matches) / float64(total)
}

// shapeSimilarity scores how close two grids' dimensions are, 1.0 for an
// exact match, otherwise the mean of the height ratio and the width ratio
// (each smaller over larger).
func shapeSimilarity(a, b types.Grid) float64 {
	if a.Shape() == b.Shape() {
		return 1.0
	}
	hRatio := ratio(a.Height, b.Height)
	wRatio := ratio(a.Width, b.Width)
	return (hRatio + wRatio) / 2.0
}

func ratio(a, b int) float64 {
	if a == 0 || b == 0 {
		return 0.0
	}
	if a > b {
		return float64(b) / float64(a)
	}
	return float64(a) / float64(b)
}

func worstModificationType(failures map[string]int) string {
	worst, worstCount := "", 0
	for k, v := range failures {
		if v > worstCount {
			worst, worstCount = k, v
		}
	}
	return worst
}

// ComputeRobustnessScore is a convenience wrapper returning only the
// overall score, for callers (such as RankByRobustness) that don't need
// the full breakdown.
func ComputeRobustnessScore(program dsl.Node, task types.ARCTask) float64 {
	checker := NewChecker(1)
	return checker.CheckRobustness(program, task).OverallScore
}

// RankByRobustness sorts a set of already-certified programs by descending
// robustness score. It never removes a program: a critic veto is the only
// thing with authority to disqualify a candidate outright.
func RankByRobustness(programs []dsl.Node, task types.ARCTask) []dsl.Node {
	type scored struct {
		program dsl.Node
		score   float64
	}
	ranked := make([]scored, len(programs))
	for i, p := range programs {
		ranked[i] = scored{program: p, score: ComputeRobustnessScore(p, task)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	out := make([]dsl.Node, len(ranked))
	for i, r := range ranked {
		out[i] = r.program
	}
	return out
}
