package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// Box is an axis-aligned rectangle. Min is never greater than Max on either
// axis when built through NewBox.
type Box struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// NewBox builds a normalised box from any two opposite corners.
func NewBox(a, b Point) Box {
	return Box{
		Min: Point{math.Min(a.X, b.X), math.Min(a.Y, b.Y)},
		Max: Point{math.Max(a.X, b.X), math.Max(a.Y, b.Y)},
	}
}

// BoxAt returns the box at (x, y) with the given size.
func BoxAt(x, y, w, h float64) Box {
	return NewBox(Point{x, y}, Point{x + w, y + h})
}

// PointBox returns a zero-size box at p.
func PointBox(p Point) Box {
	return Box{Min: p, Max: p}
}

func (b Box) Width() float64  { return b.Max.X - b.Min.X }
func (b Box) Height() float64 { return b.Max.Y - b.Min.Y }

// Area returns the box area; never negative.
func (b Box) Area() float64 {
	return math.Max(0, b.Width()) * math.Max(0, b.Height())
}

// Center returns the box centre point.
func (b Box) Center() Point {
	return Point{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2}
}

// Inflate grows the box by margin on every side.
func (b Box) Inflate(margin float64) Box {
	return NewBox(
		Point{b.Min.X - margin, b.Min.Y - margin},
		Point{b.Max.X + margin, b.Max.Y + margin},
	)
}

// Extend returns the smallest box covering both b and p.
func (b Box) Extend(p Point) Box {
	ob := orb.Bound{Min: b.Min.orb(), Max: b.Max.orb()}.Extend(p.orb())
	return Box{Min: fromOrb(ob.Min), Max: fromOrb(ob.Max)}
}

// Intersects reports whether the boxes share at least one point.
func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y
}

// Overlaps reports whether the boxes share interior area.
func (b Box) Overlaps(o Box) bool {
	return b.Min.X < o.Max.X && o.Min.X < b.Max.X &&
		b.Min.Y < o.Max.Y && o.Min.Y < b.Max.Y
}

// ContainsPoint reports whether p lies in the box. Points on the boundary
// count only when touch is true.
func (b Box) ContainsPoint(p Point, touch bool) bool {
	if touch {
		return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
	}
	return p.X > b.Min.X && p.X < b.Max.X && p.Y > b.Min.Y && p.Y < b.Max.Y
}

// Polygon returns the box as a clockwise polygon.
func (b Box) Polygon() Polygon {
	return NewPolygon([]Point{
		b.Min,
		{b.Min.X, b.Max.Y},
		b.Max,
		{b.Max.X, b.Min.Y},
	})
}

// BoundOf returns the bounding box of pts.
func BoundOf(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	b := PointBox(pts[0])
	for _, p := range pts[1:] {
		b = b.Extend(p)
	}
	return b
}
