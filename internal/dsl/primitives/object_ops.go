package primitives

import (
	"github.com/jurisagi/core/internal/dsl"
	igrid "github.com/jurisagi/core/internal/grid"
)

func init() {
	// extract_object crops to the largest connected foreground component,
	// supplementing the spec's minimum registry with the structural
	// transform class the world-model priors reason about (see
	// internal/controller/priors.go).
	register("extract_object", []dsl.Type{dsl.Grid}, dsl.Grid, "crops to the largest connected foreground object", 1,
		func(args []interface{}) (interface{}, error) {
			g, err := asGrid(args[0])
			if err != nil {
				return nil, err
			}
			objs := igrid.ExtractObjects(g)
			if len(objs) == 0 {
				return g.Clone(), nil
			}
			largest := objs[0]
			for _, o := range objs[1:] {
				if o.Size > largest.Size {
					largest = o
				}
			}
			return igrid.CropToBBox(g, largest.BBox), nil
		})
}
