package geometry

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
)

// MultiPolygon is a set of disjoint polygons, typically the result of a
// boolean union.
type MultiPolygon []Polygon

// Area returns the summed member area.
func (mp MultiPolygon) Area() float64 {
	total := 0.0
	for _, p := range mp {
		total += p.Area()
	}
	return total
}

// Perimeter returns the summed member perimeter.
func (mp MultiPolygon) Perimeter() float64 {
	total := 0.0
	for _, p := range mp {
		total += p.Perimeter()
	}
	return total
}

// BBox returns the box covering every member.
func (mp MultiPolygon) BBox() Box {
	if len(mp) == 0 {
		return Box{}
	}
	b := mp[0].BBox()
	for _, p := range mp[1:] {
		pb := p.BBox()
		b = b.Extend(pb.Min).Extend(pb.Max)
	}
	return b
}

// Contains reports whether any member contains pt.
func (mp MultiPolygon) Contains(pt Point, touch bool) bool {
	for _, p := range mp {
		if p.Contains(pt, touch) {
			return true
		}
	}
	return false
}

// Intersects reports whether any member intersects o.
func (mp MultiPolygon) Intersects(o Polygon) bool {
	for _, p := range mp {
		if p.Intersects(o) {
			return true
		}
	}
	return false
}

// Union merges the polygons into disjoint members. The resulting area and
// perimeter do not depend on input order.
func Union(polys ...Polygon) MultiPolygon {
	var acc geom.Polygon
	for _, p := range polys {
		if len(p.Outer) < 4 {
			continue
		}
		g := toGeom(p)
		if acc == nil {
			acc = g
			continue
		}
		acc = acc.Union(g).(geom.Polygon)
	}
	if acc == nil {
		return nil
	}
	return assemble(acc)
}

// UnionBoxes merges axis-aligned boxes. Zero-area boxes are skipped.
func UnionBoxes(boxes []Box) MultiPolygon {
	polys := make([]Polygon, 0, len(boxes))
	for _, b := range boxes {
		if b.Area() <= 0 {
			continue
		}
		polys = append(polys, b.Polygon())
	}
	return Union(polys...)
}

// Intersection returns the region shared by a and b.
func Intersection(a, b Polygon) MultiPolygon {
	if !a.BBox().Intersects(b.BBox()) {
		return nil
	}
	return assemble(toGeom(a).Intersection(toGeom(b)).(geom.Polygon))
}

func toGeom(p Polygon) geom.Polygon {
	g := make(geom.Polygon, 0, 1+len(p.Holes))
	for _, r := range p.rings() {
		open := r.Open()
		path := make(geom.Path, len(open))
		for i, pt := range open {
			path[i] = geom.Point{X: pt.X, Y: pt.Y}
		}
		g = append(g, path)
	}
	return g
}

// assemble groups clipper output paths into polygons. A ring nested inside
// an even number of other rings is an outer ring; odd depth makes it a hole
// of its tightest enclosing outer ring.
func assemble(g geom.Polygon) MultiPolygon {
	rings := make([]Ring, 0, len(g))
	areas := make([]float64, 0, len(g))
	for _, path := range g {
		if len(path) < 3 {
			continue
		}
		pts := make([]Point, len(path))
		for i, gp := range path {
			pts[i] = Point{X: gp.X, Y: gp.Y}
		}
		a := math.Abs(SignedArea(pts))
		if a < 1e-12 {
			continue
		}
		rings = append(rings, closeRing(pts))
		areas = append(areas, a)
	}

	depth := make([]int, len(rings))
	parent := make([]int, len(rings))
	for i := range rings {
		parent[i] = -1
		for j := range rings {
			if i == j || areas[i] >= areas[j] || !ringInside(rings[i], rings[j]) {
				continue
			}
			depth[i]++
			if parent[i] < 0 || areas[j] < areas[parent[i]] {
				parent[i] = j
			}
		}
	}

	index := make(map[int]int)
	var out MultiPolygon
	for i, r := range rings {
		if depth[i]%2 == 0 {
			index[i] = len(out)
			out = append(out, Polygon{Outer: orientRing(r, true)})
		}
	}
	for i, r := range rings {
		if depth[i]%2 == 1 && parent[i] >= 0 {
			if k, ok := index[parent[i]]; ok {
				out[k].Holes = append(out[k].Holes, orientRing(r, false))
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		bi, bj := out[i].BBox(), out[j].BBox()
		if bi.Min.X != bj.Min.X {
			return bi.Min.X < bj.Min.X
		}
		return bi.Min.Y < bj.Min.Y
	})
	return out
}

func ringInside(inner, outer Ring) bool {
	op := Polygon{Outer: outer}
	if !BoundOf(outer).ContainsPoint(BoundOf(inner).Min, true) ||
		!BoundOf(outer).ContainsPoint(BoundOf(inner).Max, true) {
		return false
	}
	strict := false
	for _, pt := range inner.Open() {
		if !op.Contains(pt, true) {
			return false
		}
		if op.Contains(pt, false) {
			strict = true
		}
	}
	if strict {
		return true
	}
	// every vertex on the boundary; fall back to an edge midpoint
	for i := 0; i+1 < len(inner); i++ {
		if op.Contains(inner[i].Lerp(inner[i+1], 0.5), false) {
			return true
		}
	}
	return false
}
