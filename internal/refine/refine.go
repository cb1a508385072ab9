package refine

import (
	"github.com/jurisagi/core/internal/critic"
	"github.com/jurisagi/core/internal/dsl"
	"github.com/jurisagi/core/pkg/types"
)

// Result is the outcome of one refinement attempt.
type Result struct {
	Success         bool
	Improved        bool
	OriginalScore   float64
	NewScore        float64
	OriginalProgram string
	RefinedProgram  string
	RefinedAST      dsl.Node
	EditsApplied    []EditOperation
	Iterations      int
}

// Engine improves a near-miss program by applying bounded local edits,
// guided by the symbolic critic's diffs, stopping at the first exact
// solution or when no edit in a round improves on the current best.
type Engine struct {
	MaxIterations      int
	MaxEditsPerIter    int
	critic             *critic.Critic
	editGenerators     []func(dsl.Node, []critic.RefinementHint) []candidate
}

// New creates a refinement Engine.
func New(maxIterations int) *Engine {
	e := &Engine{
		MaxIterations:   maxIterations,
		MaxEditsPerIter: 10,
		critic:          critic.New(true),
	}
	e.editGenerators = []func(dsl.Node, []critic.RefinementHint) []candidate{
		generateSwapEdits,
		generateArgTweaks,
		generateInsertEdits,
		generateRemovalEdits,
		generateOrderSwapEdits,
		generateTranslateTweaks,
		generateRecolorTweaks,
	}
	return e
}

// Refine attempts to refine program against task. initialCritique may be
// nil, in which case the engine evaluates the program itself.
func (e *Engine) Refine(program dsl.Node, task types.ARCTask, initialCritique *critic.Result) Result {
	var critique critic.Result
	if initialCritique != nil {
		critique = *initialCritique
	} else {
		critique = e.critic.Evaluate(program, task)
	}

	if critique.IsCertified() {
		return Result{
			Success:         true,
			Improved:        false,
			OriginalScore:   100.0,
			NewScore:        100.0,
			OriginalProgram: dsl.ToSource(program),
			RefinedAST:      program,
			RefinedProgram:  dsl.ToSource(program),
		}
	}

	originalScore := computeScore(critique)
	bestScore := originalScore
	bestAST := program
	var bestEdits []EditOperation

	currentAST := program
	iterations := 0

	for iterations < e.MaxIterations {
		iterations++

		hints := critic.ComputeRefinementHints(critique.Diffs)
		candidates := e.generateEditCandidates(currentAST, hints)
		if len(candidates) == 0 {
			break
		}

		limit := len(candidates)
		if limit > e.MaxEditsPerIter {
			limit = e.MaxEditsPerIter
		}

		improved := false
		for _, c := range candidates[:limit] {
			editCritique := e.critic.Evaluate(c.result, task)
			score := computeScore(editCritique)

			if editCritique.IsCertified() {
				return Result{
					Success:         true,
					Improved:        true,
					OriginalScore:   originalScore,
					NewScore:        100.0,
					OriginalProgram: dsl.ToSource(program),
					RefinedProgram:  dsl.ToSource(c.result),
					RefinedAST:      c.result,
					EditsApplied:    append(append([]EditOperation{}, bestEdits...), c.edit),
					Iterations:      iterations,
				}
			}

			if score > bestScore {
				bestScore = score
				bestAST = c.result
				bestEdits = append(bestEdits, c.edit)
				currentAST = c.result
				critique = editCritique
				improved = true
				break
			}
		}

		if !improved {
			break
		}
	}

	return Result{
		Success:         bestScore >= 100.0,
		Improved:        bestScore > originalScore,
		OriginalScore:   originalScore,
		NewScore:        bestScore,
		OriginalProgram: dsl.ToSource(program),
		RefinedProgram:  dsl.ToSource(bestAST),
		RefinedAST:      bestAST,
		EditsApplied:    bestEdits,
		Iterations:      iterations,
	}
}

func (e *Engine) generateEditCandidates(ast dsl.Node, hints []critic.RefinementHint) []candidate {
	var out []candidate
	for _, gen := range e.editGenerators {
		out = append(out, gen(ast, hints)...)
	}
	return out
}

func computeScore(c critic.Result) float64 {
	if c.ExactMatchAll {
		return 100.0
	}
	if len(c.PairResults) == 0 {
		return 0.0
	}
	total := 0.0
	for _, r := range c.PairResults {
		total += r.PixelAccuracy
	}
	return (total / float64(len(c.PairResults))) * 50.0
}
