package model

import (
	"github.com/piwi3910/softpdn/internal/geometry"
)

// BodyRef addresses a soft body inside its layer arena.
type BodyRef struct {
	Layer int `json:"layer"`
	Index int `json:"index"`
}

// NoBody is the zero handle for an unset body reference.
var NoBody = BodyRef{Layer: -1, Index: -1}

// Valid reports whether r points at a body.
func (r BodyRef) Valid() bool {
	return r.Layer >= 0 && r.Index >= 0
}

// SoftBody is one connected region of a power net on a metal layer. Its
// contour is an open clockwise sequence of points; the closing edge from the
// last point back to the first is implicit.
type SoftBody struct {
	ID              int              `json:"id"`
	Layer           int              `json:"layer"`
	Index           int              `json:"index"`
	Signal          Signal           `json:"signal"`
	ExpectedCurrent float64          `json:"expected_current"`
	InitialArea     float64          `json:"initial_area"`
	Pressure        float64          `json:"pressure"`
	Contour         []geometry.Point `json:"contour"`
	Holes           []geometry.Ring  `json:"holes,omitempty"`
	HardVias        []ViaRef         `json:"hard_vias,omitempty"`

	shape geometry.Polygon
}

// NewSoftBody creates a body whose pressure baseline is initialArea.
// Holes stay fixed while the contour evolves.
func NewSoftBody(layer, index int, sig Signal, current, initialArea float64, contour []geometry.Point, holes []geometry.Ring) SoftBody {
	b := SoftBody{
		ID:              -1,
		Layer:           layer,
		Index:           index,
		Signal:          sig,
		ExpectedCurrent: current,
		InitialArea:     initialArea,
		Holes:           holes,
	}
	b.SetContour(contour)
	return b
}

// Ref returns the arena handle of the body.
func (b *SoftBody) Ref() BodyRef {
	return BodyRef{Layer: b.Layer, Index: b.Index}
}

// SetContour replaces the contour and refreshes the shape and pressure.
func (b *SoftBody) SetContour(pts []geometry.Point) {
	b.Contour = pts
	b.Refresh()
}

// Refresh rebuilds the derived shape from the contour and holes, then
// updates the pressure. Call it after decoding a body.
func (b *SoftBody) Refresh() {
	holes := make([][]geometry.Point, len(b.Holes))
	for i, h := range b.Holes {
		holes[i] = h
	}
	if len(b.Contour) < 3 {
		b.shape = geometry.Polygon{}
	} else {
		b.shape = geometry.NewPolygon(b.Contour, holes...)
	}
	b.UpdatePressure()
}

// Shape returns the polygon described by the contour and holes.
func (b *SoftBody) Shape() geometry.Polygon {
	return b.shape
}

// Area returns the current area of the body.
func (b *SoftBody) Area() float64 {
	return b.shape.Area()
}

// BBox returns the bounding box of the contour.
func (b *SoftBody) BBox() geometry.Box {
	return geometry.BoundOf(b.Contour)
}

// UpdatePressure sets pressure = expected current × area / initial area.
func (b *SoftBody) UpdatePressure() {
	if b.InitialArea <= 0 {
		b.Pressure = 0
		return
	}
	b.Pressure = b.ExpectedCurrent * b.Area() / b.InitialArea
}

// AddHardVia links a via that is fixed to this body.
func (b *SoftBody) AddHardVia(v ViaRef) {
	b.HardVias = append(b.HardVias, v)
}
