// Package critic implements the symbolic critic: the sole component with
// jurisdiction to veto a candidate program. It verifies exact match on
// every training pair, checks a handful of structural invariants, and
// computes the symbolic diffs the refinement engine reads to target its
// edits.
package critic

import (
	"fmt"

	"github.com/jurisagi/core/internal/dsl"
	igrid "github.com/jurisagi/core/internal/grid"
	"github.com/jurisagi/core/internal/interpreter"
	"github.com/jurisagi/core/pkg/types"
)

// DiffEntry is a single pixel-level disagreement between a prediction and
// its expected output.
type DiffEntry struct {
	Row, Col  int
	Predicted int
	Expected  int
	Kind      string // "wrong_color", "extra_pixel", "missing_pixel"
}

// SymbolicDiff is the detailed comparison of one prediction against its
// expected output.
type SymbolicDiff struct {
	DimensionMatch     bool
	PredictedShape     [2]int
	ExpectedShape      [2]int
	ExactMatch         bool
	PixelAccuracy      float64
	Entries            []DiffEntry
	ExtraColors        map[int]struct{}
	MissingColors      map[int]struct{}
	OutputObjectCount  int
	InputObjectCount   int
	hasObjectCounts    bool
}

// Severity is 0 for a perfect match, 1 for a dimension mismatch, and
// otherwise the fraction of mismatched pixels.
func (d SymbolicDiff) Severity() float64 {
	if d.ExactMatch {
		return 0.0
	}
	if !d.DimensionMatch {
		return 1.0
	}
	return 1.0 - d.PixelAccuracy
}

// PairResult summarizes evaluation of one training pair.
type PairResult struct {
	PairIndex      int
	ExactMatch     bool
	PixelAccuracy  float64
	DimensionMatch bool
	Err            error
}

// Result is the critic's verdict for one candidate program against one task.
type Result struct {
	Approved            bool
	ExactMatchAll       bool
	PairResults         []PairResult
	Diffs               []SymbolicDiff
	InvariantsSatisfied []string
	InvariantsViolated  []string
	VetoReason          string
}

// IsCertified reports whether the program is both approved and exact on
// every training pair — the condition required before a robustness pass
// can ever raise certification, per §4.4/§4.9.
func (r Result) IsCertified() bool {
	return r.Approved && r.ExactMatchAll
}

// Critic evaluates candidate programs. StrictMode is accepted for parity
// with the reference constructor but evaluation always requires exact
// match on every training pair to approve — there is no partial-credit
// approval path in this domain.
type Critic struct {
	StrictMode bool
}

// New creates a Critic.
func New(strictMode bool) *Critic {
	return &Critic{StrictMode: strictMode}
}

// Evaluate runs program against every training pair in task, checks
// invariants, and returns a full Result.
func (c *Critic) Evaluate(program dsl.Node, task types.ARCTask) Result {
	programFn, err := interpreter.MakeProgram(program)
	if err != nil {
		return Result{
			InvariantsViolated: []string{"program_execution"},
			VetoReason:         fmt.Sprintf("program failed to compile: %v", err),
		}
	}

	var pairResults []PairResult
	var diffs []SymbolicDiff
	allExact := true

	for i, pair := range task.Train {
		predicted, err := programFn(pair.Input)
		if err != nil {
			allExact = false
			pairResults = append(pairResults, PairResult{PairIndex: i, Err: err})
			diffs = append(diffs, SymbolicDiff{
				DimensionMatch: false,
				ExpectedShape:  pair.Output.Shape(),
			})
			continue
		}

		diff := ComputeSymbolicDiff(predicted, pair.Output, pair.Input)
		diffs = append(diffs, diff)
		if !diff.ExactMatch {
			allExact = false
		}
		pairResults = append(pairResults, PairResult{
			PairIndex:      i,
			ExactMatch:     diff.ExactMatch,
			PixelAccuracy:  diff.PixelAccuracy,
			DimensionMatch: diff.DimensionMatch,
		})
	}

	satisfied, violated := c.checkInvariants(programFn, task)

	approved := allExact
	veto := ""
	if !approved {
		veto = "not all training pairs matched exactly"
	} else if len(violated) > 0 {
		approved = false
		veto = fmt.Sprintf("invariants violated: %v", violated)
	}

	return Result{
		Approved:            approved,
		ExactMatchAll:       allExact,
		PairResults:         pairResults,
		Diffs:               diffs,
		InvariantsSatisfied: satisfied,
		InvariantsViolated:  violated,
		VetoReason:          veto,
	}
}

func (c *Critic) checkInvariants(programFn func(types.Grid) (types.Grid, error), task types.ARCTask) (satisfied, violated []string) {
	if checkDimensionConsistency(task, programFn) {
		satisfied = append(satisfied, "dimension_consistency")
	} else {
		violated = append(violated, "dimension_consistency")
	}

	if checkPaletteConsistency(task, programFn) {
		satisfied = append(satisfied, "palette_consistency")
	} else {
		violated = append(violated, "palette_consistency")
	}

	if checkDeterminism(task, programFn) {
		satisfied = append(satisfied, "determinism")
	} else {
		violated = append(violated, "determinism")
	}

	// Object-count consistency is soft: a mismatch never lands in
	// `violated`, mirroring the reference critic's comment that object
	// count may legitimately change between input and output.
	if checkObjectCountConsistency(task, programFn) {
		satisfied = append(satisfied, "object_count_consistency")
	}

	// Object-relations consistency is soft for the same reason: a program
	// that legitimately changes how many objects relate to each other
	// (merging, splitting) shouldn't be vetoed over it.
	if checkObjectRelationsConsistency(task, programFn) {
		satisfied = append(satisfied, "object_relations_consistency")
	}

	return satisfied, violated
}

func checkDimensionConsistency(task types.ARCTask, programFn func(types.Grid) (types.Grid, error)) bool {
	type ratio struct{ h, w float64 }
	var ratios []ratio
	for _, pair := range task.Train {
		out, err := programFn(pair.Input)
		if err != nil {
			return false
		}
		var hr, wr float64
		if pair.Input.Height > 0 {
			hr = float64(out.Height) / float64(pair.Input.Height)
		}
		if pair.Input.Width > 0 {
			wr = float64(out.Width) / float64(pair.Input.Width)
		}
		ratios = append(ratios, ratio{hr, wr})
	}
	if len(ratios) <= 1 {
		return true
	}
	first := ratios[0]
	for _, r := range ratios {
		if absF(r.h-first.h) >= 0.01 || absF(r.w-first.w) >= 0.01 {
			return false
		}
	}
	return true
}

func checkPaletteConsistency(task types.ARCTask, programFn func(types.Grid) (types.Grid, error)) bool {
	for _, pair := range task.Train {
		out, err := programFn(pair.Input)
		if err != nil {
			return false
		}
		allowed := unionPalette(pair.Input.Palette(), pair.Output.Palette())
		allowed[0] = struct{}{}
		for color := range out.Palette() {
			if _, ok := allowed[color]; !ok {
				return false
			}
		}
	}
	return true
}

func checkDeterminism(task types.ARCTask, programFn func(types.Grid) (types.Grid, error)) bool {
	for _, pair := range task.Train {
		out1, err := programFn(pair.Input)
		if err != nil {
			return false
		}
		out2, err := programFn(pair.Input)
		if err != nil {
			return false
		}
		if !out1.Equal(out2) {
			return false
		}
	}
	return true
}

func checkObjectCountConsistency(task types.ARCTask, programFn func(types.Grid) (types.Grid, error)) bool {
	var countDiffs []int
	for _, pair := range task.Train {
		out, err := programFn(pair.Input)
		if err != nil {
			return true // unable to check, don't penalize
		}
		inputObjs := len(igrid.ExtractObjects(pair.Input))
		outputObjs := len(igrid.ExtractObjects(out))
		expectedObjs := len(igrid.ExtractObjects(pair.Output))
		if outputObjs != expectedObjs {
			return false
		}
		countDiffs = append(countDiffs, outputObjs-inputObjs)
	}
	if len(countDiffs) > 1 {
		first := countDiffs[0]
		for _, d := range countDiffs {
			if d != first {
				return false
			}
		}
	}
	return true
}

// checkObjectRelationsConsistency compares the number of pairwise object
// relations (igrid.ComputeObjectRelations) the program's output produces
// against the number present in the expected output, on every train pair.
func checkObjectRelationsConsistency(task types.ARCTask, programFn func(types.Grid) (types.Grid, error)) bool {
	for _, pair := range task.Train {
		out, err := programFn(pair.Input)
		if err != nil {
			return true // unable to check, don't penalize
		}
		outRelations := igrid.ComputeObjectRelations(igrid.ExtractObjects(out))
		expectedRelations := igrid.ComputeObjectRelations(igrid.ExtractObjects(pair.Output))
		if len(outRelations) != len(expectedRelations) {
			return false
		}
	}
	return true
}

// ComputeSymbolicDiff compares predicted against expected, optionally using
// input to report input-side object counts.
func ComputeSymbolicDiff(predicted, expected types.Grid, input types.Grid) SymbolicDiff {
	dimMatch := predicted.Shape() == expected.Shape()

	diff := SymbolicDiff{
		DimensionMatch: dimMatch,
		PredictedShape: predicted.Shape(),
		ExpectedShape:  expected.Shape(),
		ExactMatch:     predicted.Equal(expected),
		PixelAccuracy:  pixelAccuracy(predicted, expected),
	}

	diff.OutputObjectCount = len(igrid.ExtractObjects(predicted))
	diff.InputObjectCount = len(igrid.ExtractObjects(input))
	diff.hasObjectCounts = true

	if !dimMatch {
		return diff
	}

	for r := 0; r < expected.Height; r++ {
		for c := 0; c < expected.Width; c++ {
			pred := predicted.At(r, c)
			exp := expected.At(r, c)
			if pred == exp {
				continue
			}
			var kind string
			switch {
			case exp == igrid.BackgroundColor:
				kind = "extra_pixel"
			case pred == igrid.BackgroundColor:
				kind = "missing_pixel"
			default:
				kind = "wrong_color"
			}
			diff.Entries = append(diff.Entries, DiffEntry{Row: r, Col: c, Predicted: pred, Expected: exp, Kind: kind})
		}
	}

	diff.ExtraColors = setDifference(predicted.Palette(), expected.Palette())
	diff.MissingColors = setDifference(expected.Palette(), predicted.Palette())

	return diff
}

func pixelAccuracy(a, b types.Grid) float64 {
	if a.Shape() != b.Shape() {
		return 0.0
	}
	total := a.Height * a.Width
	if total == 0 {
		return 1.0
	}
	correct := 0
	for r := 0; r < a.Height; r++ {
		for c := 0; c < a.Width; c++ {
			if a.Cells[r][c] == b.Cells[r][c] {
				correct++
			}
		}
	}
	return float64(correct) / float64(total)
}

func unionPalette(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func setDifference(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{})
	for k := range a {
		if _, ok := b[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ExtractInvariants summarizes the training examples' structural
// invariants: fixed output dimensions, a constant dimension ratio, and
// palette containment. It is a standalone summary: the synthesizer's
// pruning does not consult it.
func ExtractInvariants(task types.ARCTask) map[string]interface{} {
	invariants := make(map[string]interface{})
	if len(task.Train) == 0 {
		return invariants
	}

	firstShape := task.Train[0].Output.Shape()
	fixedDims := true
	for _, pair := range task.Train {
		if pair.Output.Shape() != firstShape {
			fixedDims = false
			break
		}
	}
	if fixedDims {
		invariants["fixed_output_dims"] = firstShape
	}

	type ratio struct{ h, w float64 }
	var ratios []ratio
	for _, pair := range task.Train {
		if pair.Input.Height > 0 && pair.Input.Width > 0 {
			ratios = append(ratios, ratio{
				h: float64(pair.Output.Height) / float64(pair.Input.Height),
				w: float64(pair.Output.Width) / float64(pair.Input.Width),
			})
		}
	}
	if len(ratios) > 0 {
		first := ratios[0]
		consistent := true
		for _, r := range ratios {
			if r != first {
				consistent = false
				break
			}
		}
		if consistent {
			invariants["dimension_ratio"] = [2]float64{first.h, first.w}
		}
	}

	allInput := map[int]struct{}{}
	allOutput := map[int]struct{}{}
	for _, pair := range task.Train {
		for k := range pair.Input.Palette() {
			allInput[k] = struct{}{}
		}
		for k := range pair.Output.Palette() {
			allOutput[k] = struct{}{}
		}
	}
	invariants["input_palette"] = allInput
	invariants["output_palette"] = allOutput
	allowedOutput := unionPalette(allInput, map[int]struct{}{0: {}})
	paletteOK := true
	for c := range allOutput {
		if _, ok := allowedOutput[c]; !ok {
			paletteOK = false
			break
		}
	}
	invariants["palette_preserved"] = paletteOK

	var objDiffs []int
	for _, pair := range task.Train {
		inCount := len(igrid.ExtractObjects(pair.Input))
		outCount := len(igrid.ExtractObjects(pair.Output))
		objDiffs = append(objDiffs, outCount-inCount)
	}
	if len(objDiffs) > 0 {
		first := objDiffs[0]
		consistent := true
		for _, d := range objDiffs {
			if d != first {
				consistent = false
				break
			}
		}
		if consistent {
			invariants["object_count_delta"] = first
		}
	}

	return invariants
}
