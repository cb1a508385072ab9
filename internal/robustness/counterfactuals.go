// Package robustness generates counterfactual variations of a task's
// training inputs and checks how consistently a candidate program
// behaves on them. Findings here are advisory only: they re-rank or
// flag candidates but never veto one, since sole veto authority belongs
// to internal/critic.
package robustness

import (
	"math/rand"

	"github.com/jurisagi/core/pkg/types"
)

// ExpectedBehavior tells a consistency scorer what kind of output a
// counterfactual's modified input should produce.
type ExpectedBehavior string

const (
	SameTransformation ExpectedBehavior = "same_transformation"
	SameStructure      ExpectedBehavior = "same_structure"
	MayDiffer          ExpectedBehavior = "may_differ"
)

// Counterfactual is one modified-input test case derived from an
// original training input.
type Counterfactual struct {
	Original           types.Grid
	Modified           types.Grid
	ModificationType   string
	ModificationParams map[string]interface{}
	ExpectedBehavior   ExpectedBehavior
}

// Generator produces counterfactual inputs from a grid.
type Generator interface {
	Generate(grid types.Grid, numCounterfactuals int) []Counterfactual
}

// PerturbationGenerator produces small, local perturbations: pixel
// noise, a two-color swap, a one-pixel shift, or a single flipped pixel.
type PerturbationGenerator struct {
	PerturbationRate float64
	rng              *rand.Rand
}

// NewPerturbationGenerator creates a generator seeded for reproducible
// test runs; callers that want real variation should seed from a clock.
func NewPerturbationGenerator(perturbationRate float64, seed int64) *PerturbationGenerator {
	return &PerturbationGenerator{PerturbationRate: perturbationRate, rng: rand.New(rand.NewSource(seed))}
}

var perturbationKinds = []string{"pixel_noise", "color_swap", "shift", "flip_pixel"}

// Generate produces up to numCounterfactuals perturbed variants of grid.
func (g *PerturbationGenerator) Generate(grid types.Grid, numCounterfactuals int) []Counterfactual {
	var out []Counterfactual
	for i := 0; i < numCounterfactuals; i++ {
		kind := perturbationKinds[g.rng.Intn(len(perturbationKinds))]
		var cf *Counterfactual
		switch kind {
		case "pixel_noise":
			cf = g.pixelNoise(grid)
		case "color_swap":
			cf = g.colorSwap(grid)
		case "shift":
			cf = g.shift(grid)
		default:
			cf = g.flipPixel(grid)
		}
		if cf != nil {
			out = append(out, *cf)
		}
	}
	return out
}

func (g *PerturbationGenerator) pixelNoise(grid types.Grid) *Counterfactual {
	modified := grid.Clone()
	numPixels := int(float64(grid.Height*grid.Width) * g.PerturbationRate)
	if numPixels < 1 {
		numPixels = 1
	}
	for i := 0; i < numPixels; i++ {
		r := g.rng.Intn(grid.Height)
		c := g.rng.Intn(grid.Width)
		modified.Cells[r][c] = g.rng.Intn(10)
	}
	return &Counterfactual{
		Original:           grid,
		Modified:           modified,
		ModificationType:   "pixel_noise",
		ModificationParams: map[string]interface{}{"num_pixels": numPixels},
		ExpectedBehavior:   SameTransformation,
	}
}

func (g *PerturbationGenerator) colorSwap(grid types.Grid) *Counterfactual {
	palette := paletteSlice(grid.Palette())
	if len(palette) < 2 {
		return nil
	}
	i := g.rng.Intn(len(palette))
	j := g.rng.Intn(len(palette) - 1)
	if j >= i {
		j++
	}
	c1, c2 := palette[i], palette[j]

	modified := grid.Clone()
	for r := 0; r < modified.Height; r++ {
		for c := 0; c < modified.Width; c++ {
			switch modified.Cells[r][c] {
			case c1:
				modified.Cells[r][c] = c2
			case c2:
				modified.Cells[r][c] = c1
			}
		}
	}
	return &Counterfactual{
		Original:           grid,
		Modified:           modified,
		ModificationType:   "color_swap",
		ModificationParams: map[string]interface{}{"color1": c1, "color2": c2},
		ExpectedBehavior:   SameTransformation,
	}
}

func (g *PerturbationGenerator) shift(grid types.Grid) *Counterfactual {
	dr := g.rng.Intn(3) - 1
	dc := g.rng.Intn(3) - 1

	cells := make([][]int, grid.Height)
	for r := range cells {
		cells[r] = make([]int, grid.Width)
	}
	for r := 0; r < grid.Height; r++ {
		for c := 0; c < grid.Width; c++ {
			nr, nc := r+dr, c+dc
			if nr >= 0 && nr < grid.Height && nc >= 0 && nc < grid.Width {
				cells[nr][nc] = grid.Cells[r][c]
			}
		}
	}
	modified, _ := types.NewGrid(cells)
	return &Counterfactual{
		Original:           grid,
		Modified:           modified,
		ModificationType:   "shift",
		ModificationParams: map[string]interface{}{"dr": dr, "dc": dc},
		ExpectedBehavior:   SameTransformation,
	}
}

func (g *PerturbationGenerator) flipPixel(grid types.Grid) *Counterfactual {
	r := g.rng.Intn(grid.Height)
	c := g.rng.Intn(grid.Width)
	modified := grid.Clone()
	oldVal := modified.Cells[r][c]
	newVal := (oldVal + 1) % 10
	modified.Cells[r][c] = newVal
	return &Counterfactual{
		Original:           grid,
		Modified:           modified,
		ModificationType:   "flip_pixel",
		ModificationParams: map[string]interface{}{"row": r, "col": c, "old": oldVal, "new": newVal},
		ExpectedBehavior:   SameTransformation,
	}
}

// StructuralGenerator produces resize/pad/recolor variants that probe
// whether a program's behavior is tied to incidental grid dimensions or
// to a fixed palette rather than the transformation itself.
type StructuralGenerator struct {
	rng *rand.Rand
}

// NewStructuralGenerator creates a generator seeded for reproducible runs.
func NewStructuralGenerator(seed int64) *StructuralGenerator {
	return &StructuralGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *StructuralGenerator) Generate(grid types.Grid, numCounterfactuals int) []Counterfactual {
	var out []Counterfactual

	for _, scale := range []float64{0.5, 2.0} {
		if cf := g.resize(grid, scale); cf != nil {
			out = append(out, *cf)
			if len(out) >= numCounterfactuals {
				return out
			}
		}
	}

	for _, pad := range []int{1, 2} {
		out = append(out, g.pad(grid, pad))
		if len(out) >= numCounterfactuals {
			return out
		}
	}

	if cf := g.remapColors(grid); cf != nil {
		out = append(out, *cf)
	}

	if len(out) > numCounterfactuals {
		out = out[:numCounterfactuals]
	}
	return out
}

func (g *StructuralGenerator) resize(grid types.Grid, scale float64) *Counterfactual {
	newH := maxInt(1, int(float64(grid.Height)*scale))
	newW := maxInt(1, int(float64(grid.Width)*scale))
	if newH > 30 || newW > 30 {
		return nil
	}

	cells := make([][]int, newH)
	for r := 0; r < newH; r++ {
		cells[r] = make([]int, newW)
		for c := 0; c < newW; c++ {
			srcR := minInt(int(float64(r)/scale), grid.Height-1)
			srcC := minInt(int(float64(c)/scale), grid.Width-1)
			cells[r][c] = grid.Cells[srcR][srcC]
		}
	}
	modified, _ := types.NewGrid(cells)
	return &Counterfactual{
		Original:           grid,
		Modified:           modified,
		ModificationType:   "resize",
		ModificationParams: map[string]interface{}{"scale": scale},
		ExpectedBehavior:   MayDiffer,
	}
}

func (g *StructuralGenerator) pad(grid types.Grid, padding int) Counterfactual {
	newH := grid.Height + 2*padding
	newW := grid.Width + 2*padding

	cells := make([][]int, newH)
	for r := range cells {
		cells[r] = make([]int, newW)
	}
	for r := 0; r < grid.Height; r++ {
		for c := 0; c < grid.Width; c++ {
			cells[r+padding][c+padding] = grid.Cells[r][c]
		}
	}
	modified, _ := types.NewGrid(cells)
	return Counterfactual{
		Original:           grid,
		Modified:           modified,
		ModificationType:   "pad",
		ModificationParams: map[string]interface{}{"padding": padding},
		ExpectedBehavior:   MayDiffer,
	}
}

func (g *StructuralGenerator) remapColors(grid types.Grid) *Counterfactual {
	palette := paletteSlice(grid.Palette())
	var nonBackground []int
	for _, c := range palette {
		if c != 0 {
			nonBackground = append(nonBackground, c)
		}
	}
	if len(nonBackground) == 0 {
		return nil
	}

	shuffled := append([]int(nil), nonBackground...)
	g.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	colorMap := make(map[int]int, len(nonBackground))
	for i, c := range nonBackground {
		colorMap[c] = shuffled[i]
	}

	modified := grid.Clone()
	for r := 0; r < modified.Height; r++ {
		for c := 0; c < modified.Width; c++ {
			if mapped, ok := colorMap[grid.Cells[r][c]]; ok {
				modified.Cells[r][c] = mapped
			}
		}
	}

	return &Counterfactual{
		Original:           grid,
		Modified:           modified,
		ModificationType:   "color_remap",
		ModificationParams: map[string]interface{}{"color_map": colorMap},
		ExpectedBehavior:   SameStructure,
	}
}

func paletteSlice(p map[int]struct{}) []int {
	out := make([]int, 0, len(p))
	for c := range p {
		out = append(out, c)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
