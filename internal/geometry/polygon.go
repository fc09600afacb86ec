package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// Ring is a closed sequence of points; the first point is repeated last.
type Ring []Point

// Polygon is an outer ring with zero or more holes. Outer rings are kept
// clockwise and holes counter-clockwise.
type Polygon struct {
	Outer Ring   `json:"outer"`
	Holes []Ring `json:"holes,omitempty"`
}

// NewPolygon closes and orients the given rings. Points may be given open or
// closed, in either winding.
func NewPolygon(outer []Point, holes ...[]Point) Polygon {
	p := Polygon{Outer: orientRing(closeRing(outer), true)}
	for _, h := range holes {
		if len(h) < 3 {
			continue
		}
		p.Holes = append(p.Holes, orientRing(closeRing(h), false))
	}
	return p
}

func closeRing(pts []Point) Ring {
	if len(pts) == 0 {
		return nil
	}
	r := make(Ring, len(pts), len(pts)+1)
	copy(r, pts)
	if r[0] != r[len(r)-1] {
		r = append(r, r[0])
	}
	return r
}

func orientRing(r Ring, clockwise bool) Ring {
	a := SignedArea(r)
	if (clockwise && a > 0) || (!clockwise && a < 0) {
		rev := make(Ring, len(r))
		for i := range r {
			rev[i] = r[len(r)-1-i]
		}
		return rev
	}
	return r
}

// SignedArea returns the shoelace area of pts; positive for
// counter-clockwise order. The ring may be open or closed.
func SignedArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return area / 2
}

// Open returns the ring without its closing point.
func (r Ring) Open() []Point {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}

// Edges returns the number of edges of the closed ring.
func (r Ring) Edges() int {
	if len(r) < 2 {
		return 0
	}
	return len(r) - 1
}

// SelfIntersects reports whether any two non-adjacent edges of the ring
// share a point, or adjacent edges fold back over each other.
func (r Ring) SelfIntersects() bool {
	pts := r.Open()
	n := len(pts)
	if n < 3 {
		return false
	}
	boxes := make([]Box, n)
	for i := 0; i < n; i++ {
		boxes[i] = NewBox(pts[i], pts[(i+1)%n])
	}
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if !boxes[i].Intersects(boxes[j]) {
				continue
			}
			c, d := pts[j], pts[(j+1)%n]
			adjacent := j == i+1 || (i == 0 && j == n-1)
			if adjacent {
				// shared vertex is fine; a collinear fold-back is not
				if orient(a, b, c) == 0 && orient(a, b, d) == 0 && foldsBack(a, b, c, d) {
					return true
				}
				continue
			}
			if SegmentsIntersect(a, b, c, d) {
				return true
			}
		}
	}
	return false
}

func foldsBack(a, b, c, d Point) bool {
	u := b.Sub(a)
	v := d.Sub(c)
	if b == c || a == d {
		return u.Dot(v) < 0
	}
	return false
}

func (r Ring) orb() orb.Ring {
	or := make(orb.Ring, len(r))
	for i, p := range r {
		or[i] = p.orb()
	}
	return or
}

func ringFromOrb(or orb.Ring) Ring {
	r := make(Ring, len(or))
	for i, p := range or {
		r[i] = fromOrb(p)
	}
	return r
}

func (p Polygon) orb() orb.Polygon {
	op := make(orb.Polygon, 0, 1+len(p.Holes))
	op = append(op, p.Outer.orb())
	for _, h := range p.Holes {
		op = append(op, h.orb())
	}
	return op
}

// Edges returns the number of outer edges.
func (p Polygon) Edges() int {
	return p.Outer.Edges()
}

// Area returns the outer area minus hole areas.
func (p Polygon) Area() float64 {
	if len(p.Outer) < 4 {
		return 0
	}
	return planar.Area(p.orb())
}

// Perimeter returns the total length of all rings.
func (p Polygon) Perimeter() float64 {
	if len(p.Outer) < 2 {
		return 0
	}
	return planar.Length(p.orb())
}

// Centroid returns the area centroid of the outer ring, ignoring holes.
func (p Polygon) Centroid() Point {
	if len(p.Outer) == 0 {
		return Point{}
	}
	c, _ := planar.CentroidArea(p.Outer.orb())
	return fromOrb(c)
}

// BBox returns the bounding box of the outer ring.
func (p Polygon) BBox() Box {
	return BoundOf(p.Outer)
}

func (p Polygon) rings() []Ring {
	rs := make([]Ring, 0, 1+len(p.Holes))
	rs = append(rs, p.Outer)
	return append(rs, p.Holes...)
}

func onRing(r Ring, pt Point) bool {
	for i := 0; i+1 < len(r); i++ {
		if SegmentDistance(pt, r[i], r[i+1]) <= 1e-9 {
			return true
		}
	}
	return false
}

// Contains reports whether pt lies inside the polygon. Points on any ring
// count only when touch is true.
func (p Polygon) Contains(pt Point, touch bool) bool {
	if len(p.Outer) < 4 || !p.BBox().ContainsPoint(pt, true) {
		return false
	}
	for _, r := range p.rings() {
		if onRing(r, pt) {
			return touch
		}
	}
	return planar.PolygonContains(p.orb(), pt.orb())
}

// Intersects reports whether the polygons share at least one point.
func (p Polygon) Intersects(o Polygon) bool {
	if len(p.Outer) < 4 || len(o.Outer) < 4 || !p.BBox().Intersects(o.BBox()) {
		return false
	}
	for _, r := range p.rings() {
		for _, s := range o.rings() {
			if ringsIntersect(r, s) {
				return true
			}
		}
	}
	return p.Contains(o.Outer[0], true) || o.Contains(p.Outer[0], true)
}

func ringsIntersect(r, s Ring) bool {
	if !BoundOf(r).Intersects(BoundOf(s)) {
		return false
	}
	for i := 0; i+1 < len(r); i++ {
		eb := NewBox(r[i], r[i+1])
		for j := 0; j+1 < len(s); j++ {
			if !eb.Intersects(NewBox(s[j], s[j+1])) {
				continue
			}
			if SegmentsIntersect(r[i], r[i+1], s[j], s[j+1]) {
				return true
			}
		}
	}
	return false
}

// Distance returns the shortest distance between the polygons; zero when
// they intersect.
func (p Polygon) Distance(o Polygon) float64 {
	if len(p.Outer) == 0 || len(o.Outer) == 0 {
		return math.Inf(1)
	}
	if p.Intersects(o) {
		return 0
	}
	best := math.Inf(1)
	for _, r := range p.rings() {
		for _, s := range o.rings() {
			best = math.Min(best, ringDistance(r, s))
			best = math.Min(best, ringDistance(s, r))
		}
	}
	return best
}

func ringDistance(r, s Ring) float64 {
	best := math.Inf(1)
	for _, pt := range r {
		for j := 0; j+1 < len(s); j++ {
			if d := SegmentDistance(pt, s[j], s[j+1]); d < best {
				best = d
			}
		}
	}
	return best
}

// IsValid reports whether the polygon has closed, non-degenerate,
// non-self-intersecting rings with every hole inside the outer ring.
func (p Polygon) IsValid() bool {
	for _, r := range p.rings() {
		if len(r) < 4 || r[0] != r[len(r)-1] {
			return false
		}
		if math.Abs(SignedArea(r.Open())) < 1e-12 || r.SelfIntersects() {
			return false
		}
	}
	outer := Polygon{Outer: p.Outer}
	for i, h := range p.Holes {
		if ringsIntersect(p.Outer, h) {
			return false
		}
		for _, pt := range h {
			if !outer.Contains(pt, false) {
				return false
			}
		}
		for _, other := range p.Holes[i+1:] {
			if ringsIntersect(h, other) {
				return false
			}
		}
	}
	return true
}

// Simplify reduces the number of points with Douglas-Peucker. Any ring
// whose simplified form would break topology is kept unchanged; if the
// result is still invalid the original polygon is returned.
func (p Polygon) Simplify(tolerance float64) Polygon {
	s := simplify.DouglasPeucker(tolerance)
	out := Polygon{Outer: simplifyRing(s, p.Outer)}
	for _, h := range p.Holes {
		out.Holes = append(out.Holes, simplifyRing(s, h))
	}
	if !out.IsValid() {
		return p
	}
	return out
}

func simplifyRing(s *simplify.DouglasPeuckerSimplifier, r Ring) Ring {
	g, ok := s.Simplify(r.orb()).(orb.Ring)
	if !ok || len(g) < 4 {
		return r
	}
	sr := ringFromOrb(g)
	if sr.SelfIntersects() {
		return r
	}
	return sr
}
