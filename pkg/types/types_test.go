package types

import "testing"

func TestNewGridRejectsRaggedRows(t *testing.T) {
	_, err := NewGrid([][]int{{1, 2}, {1}})
	if err == nil {
		t.Fatal("expected error for ragged rows, got nil")
	}
}

func TestNewGridShapeAndAt(t *testing.T) {
	g, err := NewGrid([][]int{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	if g.Shape() != [2]int{2, 3} {
		t.Errorf("Shape() = %v, want {2,3}", g.Shape())
	}
	if g.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %d, want 6", g.At(1, 2))
	}
	if g.At(5, 5) != -1 {
		t.Errorf("At out of bounds = %d, want -1", g.At(5, 5))
	}
}

func TestGridCloneIndependence(t *testing.T) {
	g, _ := NewGrid([][]int{{1, 2}, {3, 4}})
	clone := g.Clone()
	clone.Cells[0][0] = 9
	if g.Cells[0][0] == 9 {
		t.Fatal("Clone() shares backing storage with original")
	}
}

func TestGridEqual(t *testing.T) {
	a, _ := NewGrid([][]int{{1, 2}, {3, 4}})
	b, _ := NewGrid([][]int{{1, 2}, {3, 4}})
	c, _ := NewGrid([][]int{{1, 2}, {3, 5}})
	if !a.Equal(b) {
		t.Error("expected equal grids to compare equal")
	}
	if a.Equal(c) {
		t.Error("expected differing grids to compare unequal")
	}
}

func TestGridPalette(t *testing.T) {
	g, _ := NewGrid([][]int{{0, 1}, {1, 2}})
	p := g.Palette()
	for _, want := range []int{0, 1, 2} {
		if _, ok := p[want]; !ok {
			t.Errorf("palette missing color %d", want)
		}
	}
	if len(p) != 3 {
		t.Errorf("palette size = %d, want 3", len(p))
	}
}

func TestBBoxDimensions(t *testing.T) {
	b := BBox{MinRow: 1, MinCol: 2, MaxRow: 3, MaxCol: 5}
	if b.Height() != 3 {
		t.Errorf("Height() = %d, want 3", b.Height())
	}
	if b.Width() != 4 {
		t.Errorf("Width() = %d, want 4", b.Width())
	}
}

func TestSolverResultString(t *testing.T) {
	r := SolverResult{TaskID: "abc123", Success: true, Score: 100, Certified: true, Iterations: 4}
	got := r.String()
	if got == "" {
		t.Fatal("String() returned empty")
	}
}
