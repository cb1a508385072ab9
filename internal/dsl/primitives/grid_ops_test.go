package primitives

import (
	"testing"

	"github.com/jurisagi/core/pkg/types"
)

func grid(t *testing.T, cells [][]int) types.Grid {
	t.Helper()
	g, err := types.NewGrid(cells)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func call(t *testing.T, name string, args ...interface{}) interface{} {
	t.Helper()
	spec, ok := Get(name)
	if !ok {
		t.Fatalf("primitive %q not registered", name)
	}
	out, err := spec.Impl(args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return out
}

func TestIdentity(t *testing.T) {
	g := grid(t, [][]int{{1, 2}, {3, 4}})
	got := call(t, "identity", g).(types.Grid)
	if !got.Equal(g) {
		t.Error("identity changed the grid")
	}
}

func TestRotate90(t *testing.T) {
	g := grid(t, [][]int{{1, 2}, {3, 4}})
	got := call(t, "rotate90", g, 1).(types.Grid)
	want := grid(t, [][]int{{3, 1}, {4, 2}})
	if !got.Equal(want) {
		t.Errorf("rotate90(1) = %v, want %v", got, want)
	}
	four := call(t, "rotate90", g, 4).(types.Grid)
	if !four.Equal(g) {
		t.Error("rotate90(4) should be identity")
	}
}

func TestReflectH(t *testing.T) {
	g := grid(t, [][]int{{1, 2, 3}})
	got := call(t, "reflect_h", g).(types.Grid)
	want := grid(t, [][]int{{3, 2, 1}})
	if !got.Equal(want) {
		t.Errorf("reflect_h = %v, want %v", got, want)
	}
}

func TestTranspose(t *testing.T) {
	g := grid(t, [][]int{{1, 2}, {3, 4}})
	got := call(t, "transpose", g).(types.Grid)
	want := grid(t, [][]int{{1, 3}, {2, 4}})
	if !got.Equal(want) {
		t.Errorf("transpose = %v, want %v", got, want)
	}
}

func TestScale(t *testing.T) {
	g := grid(t, [][]int{{1, 2}})
	got := call(t, "scale", g, 2).(types.Grid)
	if got.Height != 2 || got.Width != 4 {
		t.Fatalf("scale shape = %v, want 2x4", got.Shape())
	}
}

func TestTileRepeat(t *testing.T) {
	g := grid(t, [][]int{{1}})
	got := call(t, "tile_repeat", g, 2, 3).(types.Grid)
	if got.Height != 2 || got.Width != 3 {
		t.Fatalf("tile_repeat shape = %v, want 2x3", got.Shape())
	}
}

func TestFillBackground(t *testing.T) {
	g := grid(t, [][]int{{0, 1}, {0, 0}})
	got := call(t, "fill_background", g, 5).(types.Grid)
	want := grid(t, [][]int{{5, 1}, {5, 5}})
	if !got.Equal(want) {
		t.Errorf("fill_background = %v, want %v", got, want)
	}
}

func TestInvertMask(t *testing.T) {
	g := grid(t, [][]int{{0, 3}, {3, 0}})
	got := call(t, "invert_mask", g).(types.Grid)
	want := grid(t, [][]int{{3, 0}, {0, 3}})
	if !got.Equal(want) {
		t.Errorf("invert_mask = %v, want %v", got, want)
	}
}

func TestRecolorMap(t *testing.T) {
	g := grid(t, [][]int{{1, 2}})
	got := call(t, "recolor_map", g, map[int]int{1: 9}).(types.Grid)
	want := grid(t, [][]int{{9, 2}})
	if !got.Equal(want) {
		t.Errorf("recolor_map = %v, want %v", got, want)
	}
}

func TestTranslate(t *testing.T) {
	g := grid(t, [][]int{{1, 0}, {0, 0}})
	got := call(t, "translate", g, 1, 1).(types.Grid)
	want := grid(t, [][]int{{0, 0}, {0, 1}})
	if !got.Equal(want) {
		t.Errorf("translate = %v, want %v", got, want)
	}
}

func TestCropToContent(t *testing.T) {
	g := grid(t, [][]int{{0, 0, 0}, {0, 7, 0}})
	got := call(t, "crop_to_content", g).(types.Grid)
	if got.Height != 1 || got.Width != 1 || got.Cells[0][0] != 7 {
		t.Errorf("crop_to_content = %v, want single-cell 7", got)
	}
}
