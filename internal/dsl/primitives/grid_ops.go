package primitives

import (
	"fmt"

	"github.com/jurisagi/core/internal/dsl"
	igrid "github.com/jurisagi/core/internal/grid"
	"github.com/jurisagi/core/pkg/types"
)

func asGrid(v interface{}) (types.Grid, error) {
	g, ok := v.(types.Grid)
	if !ok {
		return types.Grid{}, fmt.Errorf("expected Grid argument, got %T", v)
	}
	return g, nil
}

func asInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("expected Int argument, got %T", v)
	}
}

func newGridFrom(cells [][]int) (types.Grid, error) {
	return types.NewGrid(cells)
}

func init() {
	register("identity", []dsl.Type{dsl.Grid}, dsl.Grid, "returns the input grid unchanged", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			return g.Clone(), nil
		})

	register("crop_to_content", []dsl.Type{dsl.Grid}, dsl.Grid, "crops to the bounding box of non-background cells", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			b, ok := igrid.ContentBBox(g)
			if !ok {
				return g.Clone(), nil
			}
			return igrid.CropToBBox(g, b), nil
		})

	register("rotate90", []dsl.Type{dsl.Grid, dsl.Int}, dsl.Grid, "rotates the grid 90 degrees clockwise, n times", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			n := 1
			if len(args) > 1 {
				n, err = asInt(args[1])
				if err != nil {
					return nil, err
				}
			}
			n = ((n % 4) + 4) % 4
			for i := 0; i < n; i++ {
				g = rotate90Once(g)
			}
			return g, nil
		})

	register("reflect_h", []dsl.Type{dsl.Grid}, dsl.Grid, "mirrors the grid left-right", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			cells := make([][]int, g.Height)
			for r := 0; r < g.Height; r++ {
				row := make([]int, g.Width)
				for c := 0; c < g.Width; c++ {
					row[c] = g.Cells[r][g.Width-1-c]
				}
				cells[r] = row
			}
			return newGridFrom(cells)
		})

	register("reflect_v", []dsl.Type{dsl.Grid}, dsl.Grid, "mirrors the grid top-bottom", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			cells := make([][]int, g.Height)
			for r := 0; r < g.Height; r++ {
				cells[r] = append([]int(nil), g.Cells[g.Height-1-r]...)
			}
			return newGridFrom(cells)
		})

	register("transpose", []dsl.Type{dsl.Grid}, dsl.Grid, "swaps rows and columns", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			cells := make([][]int, g.Width)
			for c := 0; c < g.Width; c++ {
				row := make([]int, g.Height)
				for r := 0; r < g.Height; r++ {
					row[r] = g.Cells[r][c]
				}
				cells[c] = row
			}
			return newGridFrom(cells)
		})

	register("scale", []dsl.Type{dsl.Grid, dsl.Int}, dsl.Grid, "uniform 2D scale by an integer factor", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			factor := 2
			if len(args) > 1 {
				factor, err = asInt(args[1])
				if err != nil {
					return nil, err
				}
			}
			if factor < 1 {
				return nil, fmt.Errorf("scale: factor must be >= 1, got %d", factor)
			}
			cells := make([][]int, g.Height*factor)
			for r := range cells {
				cells[r] = make([]int, g.Width*factor)
			}
			for r := 0; r < g.Height; r++ {
				for c := 0; c < g.Width; c++ {
					v := g.Cells[r][c]
					for dr := 0; dr < factor; dr++ {
						for dc := 0; dc < factor; dc++ {
							cells[r*factor+dr][c*factor+dc] = v
						}
					}
				}
			}
			return newGridFrom(cells)
		})

	register("tile_h", []dsl.Type{dsl.Grid, dsl.Int}, dsl.Grid, "repeats the grid n times horizontally", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			n := 2
			if len(args) > 1 {
				n, err = asInt(args[1])
				if err != nil {
					return nil, err
				}
			}
			return tileRepeat(g, 1, n)
		})

	register("tile_v", []dsl.Type{dsl.Grid, dsl.Int}, dsl.Grid, "repeats the grid n times vertically", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			n := 2
			if len(args) > 1 {
				n, err = asInt(args[1])
				if err != nil {
					return nil, err
				}
			}
			return tileRepeat(g, n, 1)
		})

	register("tile_repeat", []dsl.Type{dsl.Grid, dsl.Int, dsl.Int}, dsl.Grid, "repeats the grid rows x cols times", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			rows, cols := 2, 2
			if len(args) > 1 {
				rows, err = asInt(args[1])
				if err != nil {
					return nil, err
				}
			}
			if len(args) > 2 {
				cols, err = asInt(args[2])
				if err != nil {
					return nil, err
				}
			}
			return tileRepeat(g, rows, cols)
		})

	register("fill_background", []dsl.Type{dsl.Grid, dsl.Color}, dsl.Grid, "replaces background (0) cells with a color", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			color := 1
			if len(args) > 1 {
				color, err = asInt(args[1])
				if err != nil {
					return nil, err
				}
			}
			out := g.Clone()
			for r := 0; r < out.Height; r++ {
				for c := 0; c < out.Width; c++ {
					if out.Cells[r][c] == igrid.BackgroundColor {
						out.Cells[r][c] = color
					}
				}
			}
			return out, nil
		})

	register("invert_mask", []dsl.Type{dsl.Grid}, dsl.Grid, "swaps background and foreground for a single-color grid", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			fg := 0
			for r := 0; r < g.Height && fg == 0; r++ {
				for c := 0; c < g.Width; c++ {
					if g.Cells[r][c] != igrid.BackgroundColor {
						fg = g.Cells[r][c]
						break
					}
				}
			}
			out := g.Clone()
			for r := 0; r < out.Height; r++ {
				for c := 0; c < out.Width; c++ {
					if out.Cells[r][c] == igrid.BackgroundColor {
						out.Cells[r][c] = fg
					} else {
						out.Cells[r][c] = igrid.BackgroundColor
					}
				}
			}
			return out, nil
		})

	register("recolor_map", []dsl.Type{dsl.Grid, dsl.ColorMap}, dsl.Grid, "remaps colors according to a color->color map", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			mapping, _ := args[1].(map[int]int)
			out := g.Clone()
			for r := 0; r < out.Height; r++ {
				for c := 0; c < out.Width; c++ {
					if to, ok := mapping[out.Cells[r][c]]; ok {
						out.Cells[r][c] = to
					}
				}
			}
			return out, nil
		})

	register("translate", []dsl.Type{dsl.Grid, dsl.Int, dsl.Int}, dsl.Grid, "shifts content by (dx, dy), out-of-bounds becomes background", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			dx, dy := 0, 0
			if len(args) > 1 {
				dx, err = asInt(args[1])
				if err != nil {
					return nil, err
				}
			}
			if len(args) > 2 {
				dy, err = asInt(args[2])
				if err != nil {
					return nil, err
				}
			}
			cells := make([][]int, g.Height)
			for r := range cells {
				cells[r] = make([]int, g.Width)
			}
			for r := 0; r < g.Height; r++ {
				for c := 0; c < g.Width; c++ {
					nr, nc := r+dy, c+dx
					if nr < 0 || nr >= g.Height || nc < 0 || nc >= g.Width {
						continue
					}
					cells[nr][nc] = g.Cells[r][c]
				}
			}
			return newGridFrom(cells)
		})
}

func rotate90Once(g types.Grid) types.Grid {
	cells := make([][]int, g.Width)
	for c := 0; c < g.Width; c++ {
		row := make([]int, g.Height)
		for r := 0; r < g.Height; r++ {
			row[r] = g.Cells[g.Height-1-r][c]
		}
		cells[c] = row
	}
	out, _ := types.NewGrid(cells)
	return out
}

func tileRepeat(g types.Grid, rows, cols int) (types.Grid, error) {
	if rows < 1 || cols < 1 {
		return types.Grid{}, fmt.Errorf("tile_repeat: rows and cols must be >= 1, got %d, %d", rows, cols)
	}
	cells := make([][]int, g.Height*rows)
	for r := range cells {
		cells[r] = make([]int, g.Width*cols)
	}
	for tr := 0; tr < rows; tr++ {
		for tc := 0; tc < cols; tc++ {
			for r := 0; r < g.Height; r++ {
				for c := 0; c < g.Width; c++ {
					cells[tr*g.Height+r][tc*g.Width+c] = g.Cells[r][c]
				}
			}
		}
	}
	return types.NewGrid(cells)
}
