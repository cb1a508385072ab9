// Package grid implements the Grid & Object Model: connected-component
// extraction and the small set of shape/palette helpers the rest of the
// reasoning core builds on.
package grid

import (
	"math"

	"github.com/jurisagi/core/pkg/types"
)

// BackgroundColor is the convention used throughout ARC tasks: 0 is empty
// space, never itself a foreground object.
const BackgroundColor = 0

// neighbors4 are the four orthogonal offsets used for connectivity.
var neighbors4 = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// neighbors8 additionally include diagonals.
var neighbors8 = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// ExtractObjects finds connected components of non-background cells using
// 4-connectivity, requiring every cell in a component to share the same
// color (the "strict" single-color object model).
func ExtractObjects(g types.Grid) []types.GridObject {
	return extract(g, neighbors4[:], false)
}

// ExtractObjectsDiag is ExtractObjects but using 8-connectivity (diagonals
// count as adjacent), still single-color per component.
func ExtractObjectsDiag(g types.Grid) []types.GridObject {
	return extract(g, neighbors8[:], false)
}

// ExtractObjectsMultiColor finds connected components of non-background
// cells using 4-connectivity where adjacency alone (not shared color)
// defines the component — the "enriched" object model used when a task's
// transformations operate on multi-color shapes.
func ExtractObjectsMultiColor(g types.Grid) []types.GridObject {
	return extract(g, neighbors4[:], true)
}

func extract(g types.Grid, offsets [][2]int, multiColor bool) []types.GridObject {
	visited := make([][]bool, g.Height)
	for i := range visited {
		visited[i] = make([]bool, g.Width)
	}

	var objects []types.GridObject
	nextID := 0

	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			if visited[r][c] || g.Cells[r][c] == BackgroundColor {
				continue
			}
			color := g.Cells[r][c]
			obj := floodFill(g, visited, r, c, color, offsets, multiColor)
			obj.ObjectID = nextID
			nextID++
			objects = append(objects, obj)
		}
	}

	return objects
}

func floodFill(g types.Grid, visited [][]bool, startR, startC, color int, offsets [][2]int, multiColor bool) types.GridObject {
	queue := []types.Point{{Row: startR, Col: startC}}
	visited[startR][startC] = true

	obj := types.GridObject{
		Color:       color,
		Colors:      map[int]struct{}{color: {}},
		ColorCounts: map[int]int{},
		BBox:        types.BBox{MinRow: startR, MinCol: startC, MaxRow: startR, MaxCol: startC},
	}

	var sumR, sumC float64

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		obj.Cells = append(obj.Cells, p)
		obj.ColorCounts[g.Cells[p.Row][p.Col]]++
		sumR += float64(p.Row)
		sumC += float64(p.Col)

		if p.Row < obj.BBox.MinRow {
			obj.BBox.MinRow = p.Row
		}
		if p.Row > obj.BBox.MaxRow {
			obj.BBox.MaxRow = p.Row
		}
		if p.Col < obj.BBox.MinCol {
			obj.BBox.MinCol = p.Col
		}
		if p.Col > obj.BBox.MaxCol {
			obj.BBox.MaxCol = p.Col
		}

		if hasBackgroundNeighbor(g, p.Row, p.Col) {
			obj.Perimeter++
		}

		for _, off := range offsets {
			nr, nc := p.Row+off[0], p.Col+off[1]
			if nr < 0 || nr >= g.Height || nc < 0 || nc >= g.Width {
				continue
			}
			if visited[nr][nc] {
				continue
			}
			cell := g.Cells[nr][nc]
			if cell == BackgroundColor {
				continue
			}
			if !multiColor && cell != color {
				continue
			}
			visited[nr][nc] = true
			obj.Colors[cell] = struct{}{}
			queue = append(queue, types.Point{Row: nr, Col: nc})
		}
	}

	obj.Size = len(obj.Cells)
	obj.MultiColor = len(obj.Colors) > 1
	obj.IsMonochrome = len(obj.Colors) == 1
	if obj.Size > 0 {
		obj.Centroid = types.Point2D{Row: sumR / float64(obj.Size), Col: sumC / float64(obj.Size)}
	}

	primary, bestCount := color, -1
	for c, count := range obj.ColorCounts {
		if count > bestCount {
			primary, bestCount = c, count
		}
	}
	obj.PrimaryColor = primary

	bboxArea := obj.BBox.Height() * obj.BBox.Width()
	if bboxArea > 0 {
		obj.FillRatio = float64(obj.Size) / float64(bboxArea)
	}
	obj.IsRectangular = absF(obj.FillRatio-1.0) < 1e-9

	if obj.Perimeter > 0 {
		obj.Compactness = (4 * math.Pi * float64(obj.Size)) / float64(obj.Perimeter*obj.Perimeter)
	}

	return obj
}

// hasBackgroundNeighbor reports whether (r, c) borders the background color
// or the grid edge on any of its four orthogonal sides, used for perimeter —
// a cell interior to a solid block has no such neighbor.
func hasBackgroundNeighbor(g types.Grid, r, c int) bool {
	for _, off := range neighbors4 {
		nr, nc := r+off[0], c+off[1]
		if nr < 0 || nr >= g.Height || nc < 0 || nc >= g.Width {
			return true
		}
		if g.Cells[nr][nc] == BackgroundColor {
			return true
		}
	}
	return false
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// CropToBBox extracts the sub-grid covered by a bounding box.
func CropToBBox(g types.Grid, b types.BBox) types.Grid {
	h, w := b.Height(), b.Width()
	cells := make([][]int, h)
	for r := 0; r < h; r++ {
		cells[r] = make([]int, w)
		for c := 0; c < w; c++ {
			cells[r][c] = g.Cells[b.MinRow+r][b.MinCol+c]
		}
	}
	out, _ := types.NewGrid(cells)
	return out
}

// ContentBBox returns the bounding box of all non-background cells in g.
// ok is false if the grid is entirely background.
func ContentBBox(g types.Grid) (types.BBox, bool) {
	b := types.BBox{MinRow: -1}
	found := false
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			if g.Cells[r][c] == BackgroundColor {
				continue
			}
			if !found {
				b = types.BBox{MinRow: r, MinCol: c, MaxRow: r, MaxCol: c}
				found = true
				continue
			}
			if r < b.MinRow {
				b.MinRow = r
			}
			if r > b.MaxRow {
				b.MaxRow = r
			}
			if c < b.MinCol {
				b.MinCol = c
			}
			if c > b.MaxCol {
				b.MaxCol = c
			}
		}
	}
	return b, found
}
