package engine

import (
	"github.com/piwi3910/softpdn/internal/geometry"
	"github.com/piwi3910/softpdn/internal/model"
	"github.com/piwi3910/softpdn/internal/spatial"
)

// CheckClearance reports pairs of different-net bodies on the same layer
// whose shapes are closer than clearance. Candidate pairs come from the
// overlap of bounding boxes padded by half the clearance, so bodies farther
// apart than that are never compared.
func CheckClearance(layers []model.MetalLayer, canvas geometry.Box, clearance, binSize float64) []model.ClearanceViolation {
	if clearance <= 0 {
		return nil
	}
	var violations []model.ClearanceViolation
	for li := range layers {
		layer := &layers[li]
		if len(layer.Bodies) < 2 {
			continue
		}
		idx := spatial.NewRectIndex[float64, int](binSize, canvas.Min.X, canvas.Min.Y, canvas.Max.X, canvas.Max.Y)
		for i := range layer.Bodies {
			b := layer.Bodies[i].BBox().Inflate(clearance / 2)
			idx.Insert(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y, i)
		}
		for _, pair := range idx.ReportOverlap() {
			a, b := &layer.Bodies[pair[0]], &layer.Bodies[pair[1]]
			if a.Signal == b.Signal {
				continue
			}
			d := a.Shape().Distance(b.Shape())
			if d >= clearance {
				continue
			}
			violations = append(violations, model.ClearanceViolation{
				Layer:    layer.Index,
				A:        a.Ref(),
				B:        b.Ref(),
				SignalA:  a.Signal,
				SignalB:  b.Signal,
				Distance: d,
			})
		}
	}
	return violations
}
