package critic

import "fmt"

// RefinementHint is a structured suggestion the refinement engine uses to
// target its edits at the part of the program that is actually wrong,
// rather than searching blind.
type RefinementHint struct {
	PairIndex      int
	DimensionHint  *DimensionHint
	ExtraColors    []int
	MissingColors  []int
	ErrorLocations []ErrorLocation
	ErrorPattern   string
}

// DimensionHint suggests how a shape mismatch might be fixed.
type DimensionHint struct {
	Predicted  [2]int
	Expected   [2]int
	Suggestion string
}

// ErrorLocation is a compact (position, kind) pair surfaced to the
// refinement engine; only the first ten per diff are kept, mirroring the
// reference critic's cap on how much detail a hint carries.
type ErrorLocation struct {
	Row, Col int
	Kind     string
}

// ComputeRefinementHints analyzes diffs and returns one hint per
// non-matching pair.
func ComputeRefinementHints(diffs []SymbolicDiff) []RefinementHint {
	var hints []RefinementHint

	for i, diff := range diffs {
		if diff.ExactMatch {
			continue
		}

		hint := RefinementHint{PairIndex: i}

		if !diff.DimensionMatch {
			hint.DimensionHint = &DimensionHint{
				Predicted:  diff.PredictedShape,
				Expected:   diff.ExpectedShape,
				Suggestion: suggestDimensionFix(diff.PredictedShape, diff.ExpectedShape),
			}
		}

		for c := range diff.ExtraColors {
			hint.ExtraColors = append(hint.ExtraColors, c)
		}
		for c := range diff.MissingColors {
			hint.MissingColors = append(hint.MissingColors, c)
		}

		if len(diff.Entries) > 0 {
			n := len(diff.Entries)
			if n > 10 {
				n = 10
			}
			for _, e := range diff.Entries[:n] {
				hint.ErrorLocations = append(hint.ErrorLocations, ErrorLocation{Row: e.Row, Col: e.Col, Kind: e.Kind})
			}
			hint.ErrorPattern = detectErrorPattern(diff.Entries)
		}

		hints = append(hints, hint)
	}

	return hints
}

func suggestDimensionFix(predicted, expected [2]int) string {
	ph, pw := predicted[0], predicted[1]
	eh, ew := expected[0], expected[1]

	switch {
	case ph > eh && pw > ew:
		return "try cropping output"
	case ph < eh && pw < ew:
		factorH, factorW := 0.0, 0.0
		if ph > 0 {
			factorH = float64(eh) / float64(ph)
		}
		if pw > 0 {
			factorW = float64(ew) / float64(pw)
		}
		if absF(factorH-factorW) < 0.1 && factorH == float64(int(factorH)) {
			return fmt.Sprintf("try scaling by %d", int(factorH))
		}
		return "try padding or tiling"
	case ph == ew && pw == eh:
		return "try transposing"
	default:
		return "dimension relationship unclear"
	}
}

func detectErrorPattern(entries []DiffEntry) string {
	if len(entries) == 0 {
		return ""
	}

	rows := map[int]struct{}{}
	cols := map[int]struct{}{}
	kinds := map[string]struct{}{}
	for _, e := range entries {
		rows[e.Row] = struct{}{}
		cols[e.Col] = struct{}{}
		kinds[e.Kind] = struct{}{}
	}

	if len(rows) == 1 {
		for r := range rows {
			return fmt.Sprintf("errors concentrated in row %d", r)
		}
	}
	if len(cols) == 1 {
		for c := range cols {
			return fmt.Sprintf("errors concentrated in col %d", c)
		}
	}
	if len(kinds) == 1 {
		for k := range kinds {
			return fmt.Sprintf("all errors are %s", k)
		}
	}
	return ""
}
