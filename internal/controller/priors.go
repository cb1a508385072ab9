package controller

import (
	"sort"

	igrid "github.com/jurisagi/core/internal/grid"
	"github.com/jurisagi/core/pkg/types"
)

// TransformationCategory buckets a transformation prior by the kind of
// change it makes.
type TransformationCategory int

const (
	CategoryGeometric TransformationCategory = iota
	CategoryColor
	CategoryStructural
	CategoryPattern
	CategoryCounting
	CategoryConditional
)

func (c TransformationCategory) String() string {
	switch c {
	case CategoryGeometric:
		return "GEOMETRIC"
	case CategoryColor:
		return "COLOR"
	case CategoryStructural:
		return "STRUCTURAL"
	case CategoryPattern:
		return "PATTERN"
	case CategoryCounting:
		return "COUNTING"
	case CategoryConditional:
		return "CONDITIONAL"
	default:
		return "UNKNOWN"
	}
}

// TransformationPrior is a learning-free Bayesian-flavored prior over
// one named transformation, weighted by a handful of binary/continuous
// features observed on a task's train pairs.
type TransformationPrior struct {
	Name            string
	Category        TransformationCategory
	BaseProbability float64
	Features        map[string]float64
}

// ComputeLikelihood scales BaseProbability by how well observed
// features match this prior's expected feature weights: a boolean
// feature multiplies by its weight when true, (1-weight) when false; a
// numeric feature multiplies by a closeness factor that never drops
// below 0.01.
func (p TransformationPrior) ComputeLikelihood(features map[string]interface{}) float64 {
	likelihood := p.BaseProbability
	for name, weight := range p.Features {
		val, ok := features[name]
		if !ok {
			continue
		}
		switch v := val.(type) {
		case bool:
			if v {
				likelihood *= weight
			} else {
				likelihood *= (1 - weight)
			}
		case float64:
			likelihood *= maxF(0.01, 1-absF(v-weight)*0.1)
		case int:
			likelihood *= maxF(0.01, 1-absF(float64(v)-weight)*0.1)
		}
	}
	return likelihood
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Ranking is one (name, likelihood) entry from PriorKnowledge.Rank.
type Ranking struct {
	Name       string
	Likelihood float64
}

// PriorKnowledge is a set of transformation priors ranked against
// observed task features.
type PriorKnowledge struct {
	Priors []TransformationPrior
}

// Rank scores every prior against features and returns them sorted by
// descending likelihood.
func (k PriorKnowledge) Rank(features map[string]interface{}) []Ranking {
	rankings := make([]Ranking, len(k.Priors))
	for i, p := range k.Priors {
		rankings[i] = Ranking{Name: p.Name, Likelihood: p.ComputeLikelihood(features)}
	}
	sort.Slice(rankings, func(i, j int) bool { return rankings[i].Likelihood > rankings[j].Likelihood })
	return rankings
}

// DefaultPriors returns the eleven-entry prior table over the
// transformations the synthesizer's primitive set covers, grouped by
// category (geometric, structural, pattern, color).
func DefaultPriors() PriorKnowledge {
	return PriorKnowledge{Priors: []TransformationPrior{
		{Name: "identity", Category: CategoryGeometric, BaseProbability: 0.1,
			Features: map[string]float64{"same_dims": 1.0, "same_palette": 1.0}},
		{Name: "rotate90", Category: CategoryGeometric, BaseProbability: 0.15,
			Features: map[string]float64{"is_square": 0.8, "same_palette": 0.9}},
		{Name: "reflect_h", Category: CategoryGeometric, BaseProbability: 0.12,
			Features: map[string]float64{"same_dims": 0.9, "same_palette": 0.9}},
		{Name: "reflect_v", Category: CategoryGeometric, BaseProbability: 0.12,
			Features: map[string]float64{"same_dims": 0.9, "same_palette": 0.9}},
		{Name: "transpose", Category: CategoryGeometric, BaseProbability: 0.08,
			Features: map[string]float64{"dims_swapped": 1.0, "same_palette": 0.9}},
		{Name: "crop_to_content", Category: CategoryStructural, BaseProbability: 0.15,
			Features: map[string]float64{"smaller_output": 0.9, "same_palette": 0.9}},
		{Name: "extract_object", Category: CategoryStructural, BaseProbability: 0.10,
			Features: map[string]float64{"smaller_output": 0.8, "has_objects": 0.9}},
		{Name: "tile", Category: CategoryPattern, BaseProbability: 0.08,
			Features: map[string]float64{"larger_output": 0.9, "dim_multiple": 0.9}},
		{Name: "scale", Category: CategoryPattern, BaseProbability: 0.10,
			Features: map[string]float64{"larger_output": 0.8, "dim_multiple": 0.9}},
		{Name: "recolor", Category: CategoryColor, BaseProbability: 0.12,
			Features: map[string]float64{"same_dims": 0.9, "palette_changed": 0.9}},
		{Name: "fill", Category: CategoryColor, BaseProbability: 0.05,
			Features: map[string]float64{"same_dims": 0.8}},
	}}
}

// ComputeTaskFeatures derives the boolean/ratio feature set DefaultPriors'
// weights are calibrated against, from one input/output pair.
func ComputeTaskFeatures(input, output types.Grid) map[string]interface{} {
	features := make(map[string]interface{})

	sameDims := input.Shape() == output.Shape()
	features["same_dims"] = sameDims
	features["is_square"] = input.Height == input.Width
	dimsSwapped := input.Height == output.Width && input.Width == output.Height
	features["dims_swapped"] = dimsSwapped
	features["smaller_output"] = output.Height <= input.Height && output.Width <= input.Width && !sameDims
	features["larger_output"] = output.Height >= input.Height && output.Width >= input.Width && !sameDims

	if input.Height > 0 && input.Width > 0 {
		hRatio := float64(output.Height) / float64(input.Height)
		wRatio := float64(output.Width) / float64(input.Width)
		features["dim_multiple"] = hRatio == float64(int(hRatio)) && wRatio == float64(int(wRatio))
	} else {
		features["dim_multiple"] = false
	}

	samePalette := palettesEqual(input.Palette(), output.Palette())
	features["same_palette"] = samePalette
	features["palette_changed"] = !samePalette

	inputObjects := igrid.ExtractObjects(input)
	features["has_objects"] = len(inputObjects) > 0
	features["single_object"] = len(inputObjects) == 1

	allRectangular := true
	allMonochrome := true
	for _, o := range inputObjects {
		if !o.IsRectangular {
			allRectangular = false
		}
		if !o.IsMonochrome {
			allMonochrome = false
		}
	}
	features["objects_rectangular"] = allRectangular
	features["objects_monochrome"] = allMonochrome

	return features
}

func palettesEqual(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
