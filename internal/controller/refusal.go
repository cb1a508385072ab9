// Package controller is the meta-controller: it validates a task before
// any synthesis budget is spent, schedules phase budgets across the
// solve pipeline, ranks transformation priors, tracks epistemic versus
// aleatoric uncertainty, and assembles the audit trace.
package controller

import (
	"fmt"

	"github.com/jurisagi/core/internal/errs"
	"github.com/jurisagi/core/pkg/types"
)

// RefusalChecker validates a task's shape and contents before a solver
// commits any budget to it.
type RefusalChecker struct {
	MaxGridSize   int
	MaxTrainPairs int
	MaxTestPairs  int
}

// NewRefusalChecker creates a checker with the reference defaults (grids
// up to 30x30, up to 10 train pairs, up to 5 test pairs).
func NewRefusalChecker() *RefusalChecker {
	return &RefusalChecker{MaxGridSize: 30, MaxTrainPairs: 10, MaxTestPairs: 5}
}

// Check validates task, returning a non-nil *errs.RefusalError the
// first time a check fails, or nil if task clears every check.
func (c *RefusalChecker) Check(task types.ARCTask) *errs.RefusalError {
	if len(task.Train) == 0 {
		return &errs.RefusalError{Reason: errs.ReasonMissingData, Explanation: "task has no training examples"}
	}
	if len(task.Test) == 0 {
		return &errs.RefusalError{Reason: errs.ReasonMissingData, Explanation: "task has no test examples"}
	}

	if len(task.Train) > c.MaxTrainPairs {
		return &errs.RefusalError{
			Reason:      errs.ReasonExcessiveSize,
			Explanation: fmt.Sprintf("too many training pairs (%d > %d)", len(task.Train), c.MaxTrainPairs),
		}
	}
	if len(task.Test) > c.MaxTestPairs {
		return &errs.RefusalError{
			Reason:      errs.ReasonExcessiveSize,
			Explanation: fmt.Sprintf("too many test pairs (%d > %d)", len(task.Test), c.MaxTestPairs),
		}
	}

	for i, pair := range task.Train {
		if err := c.checkGridSize(pair.Input, fmt.Sprintf("train[%d].input", i)); err != nil {
			return err
		}
		if err := c.checkGridSize(pair.Output, fmt.Sprintf("train[%d].output", i)); err != nil {
			return err
		}
	}
	for i, pair := range task.Test {
		if err := c.checkGridSize(pair.Input, fmt.Sprintf("test[%d].input", i)); err != nil {
			return err
		}
	}

	for i, pair := range task.Train {
		if err := c.checkColors(pair.Input, fmt.Sprintf("train[%d].input", i)); err != nil {
			return err
		}
		if err := c.checkColors(pair.Output, fmt.Sprintf("train[%d].output", i)); err != nil {
			return err
		}
	}

	return nil
}

func (c *RefusalChecker) checkGridSize(g types.Grid, name string) *errs.RefusalError {
	if g.Height > c.MaxGridSize || g.Width > c.MaxGridSize {
		return &errs.RefusalError{
			Reason:      errs.ReasonExcessiveSize,
			Explanation: fmt.Sprintf("%s is too large (%dx%d > %dx%d)", name, g.Height, g.Width, c.MaxGridSize, c.MaxGridSize),
		}
	}
	if g.Height == 0 || g.Width == 0 {
		return &errs.RefusalError{
			Reason:      errs.ReasonInvalidFormat,
			Explanation: fmt.Sprintf("%s has zero dimension (%dx%d)", name, g.Height, g.Width),
		}
	}
	return nil
}

func (c *RefusalChecker) checkColors(g types.Grid, name string) *errs.RefusalError {
	for color := range g.Palette() {
		if color < 0 || color > 9 {
			return &errs.RefusalError{
				Reason:      errs.ReasonInvalidFormat,
				Explanation: fmt.Sprintf("%s contains invalid color %d (must be 0-9)", name, color),
			}
		}
	}
	return nil
}

// DifficultyEstimate summarizes how hard a task looks before solving it.
type DifficultyEstimate struct {
	Difficulty        string
	AvgInputSize      float64
	AvgOutputSize     float64
	NumColors         int
	SameDimensions    bool
	SolvableEstimate  float64
}

// EstimateDifficulty computes a rough difficulty score from grid size,
// palette size, dimension consistency, and how few examples are given.
func EstimateDifficulty(task types.ARCTask) DifficultyEstimate {
	if len(task.Train) == 0 {
		return DifficultyEstimate{Difficulty: "unknown"}
	}

	var totalInput, totalOutput float64
	allColors := make(map[int]struct{})
	sameDims := true
	first := task.Train[0]

	for _, p := range task.Train {
		totalInput += float64(p.Input.Height * p.Input.Width)
		totalOutput += float64(p.Output.Height * p.Output.Width)
		for c := range p.Input.Palette() {
			allColors[c] = struct{}{}
		}
		for c := range p.Output.Palette() {
			allColors[c] = struct{}{}
		}
		if p.Input.Shape() != first.Input.Shape() || p.Output.Shape() != first.Output.Shape() {
			sameDims = false
		}
	}

	n := float64(len(task.Train))
	avgInput := totalInput / n
	avgOutput := totalOutput / n

	score := 0.0
	if !sameDims {
		score += 0.3
	}
	if len(allColors) > 5 {
		score += 0.2
	}
	if avgInput > 100 {
		score += 0.2
	}
	if len(task.Train) < 3 {
		score += 0.2
	}

	difficulty := "easy"
	switch {
	case score >= 0.6:
		difficulty = "hard"
	case score >= 0.3:
		difficulty = "medium"
	}

	solvable := 1.0 - score
	if solvable < 0 {
		solvable = 0
	}

	return DifficultyEstimate{
		Difficulty:       difficulty,
		AvgInputSize:     avgInput,
		AvgOutputSize:    avgOutput,
		NumColors:        len(allColors),
		SameDimensions:   sameDims,
		SolvableEstimate: solvable,
	}
}
