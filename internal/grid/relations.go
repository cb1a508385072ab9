package grid

import (
	"math"

	"github.com/jurisagi/core/pkg/types"
)

// Direction is the coarse compass relation between two objects' centroids.
type Direction string

const (
	DirAbove Direction = "above"
	DirBelow Direction = "below"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// ObjectRelation is the pairwise spatial/appearance relationship between
// two objects from the same grid, keyed by their ObjectID.
type ObjectRelation struct {
	Obj1ID      int
	Obj2ID      int
	Direction   Direction
	Distance    float64
	Overlapping bool
	SameColor   bool
	SameSize    bool
	SameShape   bool
}

// BoundingBoxOf returns the bounding box enclosing every point in pts. ok is
// false for an empty set.
func BoundingBoxOf(pts []types.Point) (types.BBox, bool) {
	if len(pts) == 0 {
		return types.BBox{}, false
	}
	b := types.BBox{MinRow: pts[0].Row, MinCol: pts[0].Col, MaxRow: pts[0].Row, MaxCol: pts[0].Col}
	for _, p := range pts[1:] {
		if p.Row < b.MinRow {
			b.MinRow = p.Row
		}
		if p.Row > b.MaxRow {
			b.MaxRow = p.Row
		}
		if p.Col < b.MinCol {
			b.MinCol = p.Col
		}
		if p.Col > b.MaxCol {
			b.MaxCol = p.Col
		}
	}
	return b, true
}

// Overlaps reports whether two objects' bounding boxes intersect.
func Overlaps(a, b types.GridObject) bool {
	if a.BBox.MaxRow < b.BBox.MinRow || b.BBox.MaxRow < a.BBox.MinRow {
		return false
	}
	if a.BBox.MaxCol < b.BBox.MinCol || b.BBox.MaxCol < a.BBox.MinCol {
		return false
	}
	return true
}

// sameShape reports whether a and b occupy congruent cell patterns relative
// to their own bounding boxes (same silhouette, ignoring absolute position
// and color).
func sameShape(a, b types.GridObject) bool {
	if a.BBox.Height() != b.BBox.Height() || a.BBox.Width() != b.BBox.Width() {
		return false
	}
	normalize := func(o types.GridObject) map[types.Point]struct{} {
		set := make(map[types.Point]struct{}, len(o.Cells))
		for _, p := range o.Cells {
			set[types.Point{Row: p.Row - o.BBox.MinRow, Col: p.Col - o.BBox.MinCol}] = struct{}{}
		}
		return set
	}
	sa, sb := normalize(a), normalize(b)
	if len(sa) != len(sb) {
		return false
	}
	for p := range sa {
		if _, ok := sb[p]; !ok {
			return false
		}
	}
	return true
}

// directionBetween classifies obj2 relative to obj1 by whichever axis has
// the larger centroid displacement, matching the original representation's
// compute_object_relations: a purely vertical/horizontal tie-break, not a
// full 8-way compass.
func directionBetween(obj1, obj2 types.GridObject) (Direction, float64) {
	dr := obj2.Centroid.Row - obj1.Centroid.Row
	dc := obj2.Centroid.Col - obj1.Centroid.Col
	distance := math.Sqrt(dr*dr + dc*dc)

	if math.Abs(dr) > math.Abs(dc) {
		if dr > 0 {
			return DirBelow, distance
		}
		return DirAbove, distance
	}
	if dc > 0 {
		return DirRight, distance
	}
	return DirLeft, distance
}

// ComputeObjectRelations returns the pairwise relation for every distinct
// pair of objects in objects (order-independent, one entry per unordered
// pair), the Go counterpart of the original representation layer's
// compute_object_relations used for relational feature extraction.
func ComputeObjectRelations(objects []types.GridObject) []ObjectRelation {
	var relations []ObjectRelation
	for i := 0; i < len(objects); i++ {
		for j := i + 1; j < len(objects); j++ {
			obj1, obj2 := objects[i], objects[j]
			direction, distance := directionBetween(obj1, obj2)
			relations = append(relations, ObjectRelation{
				Obj1ID:      obj1.ObjectID,
				Obj2ID:      obj2.ObjectID,
				Direction:   direction,
				Distance:    distance,
				Overlapping: Overlaps(obj1, obj2),
				SameColor:   obj1.PrimaryColor == obj2.PrimaryColor,
				SameSize:    absInt(obj1.Size-obj2.Size) <= 1,
				SameShape:   sameShape(obj1, obj2),
			})
		}
	}
	return relations
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
