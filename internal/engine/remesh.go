package engine

import (
	"math"

	"github.com/piwi3910/softpdn/internal/geometry"
)

// RemeshOptions bounds the spacing of a remeshed contour.
type RemeshOptions struct {
	MinDelta           float64 // shortest allowed segment
	MaxDelta           float64 // longest allowed segment
	CurvatureThreshold float64 // tangent turn (radians) at or below which a segment is lerped
	AreaTolerance      float64 // relative area error accepted after restoring
}

const maxAreaIterations = 50

// Remesh re-spaces a closed contour so every segment lies within
// [MinDelta, MaxDelta] and then restores the original enclosed area by a
// uniform offset along the vertex normals. Curved stretches are subdivided
// along a cubic Bezier through the centred-difference tangents. Contours
// with fewer than four points are returned unchanged.
func Remesh(contour []geometry.Point, opt RemeshOptions) []geometry.Point {
	if len(contour) < 4 {
		return contour
	}
	target := geometry.SignedArea(contour)

	merged := mergeShort(contour, opt.MinDelta)
	if len(merged) < 4 {
		return contour
	}
	out := subdivide(merged, opt)
	restoreArea(out, target, opt.AreaTolerance)
	return out
}

// mergeShort drops points closer than minDelta to the last kept point.
func mergeShort(pts []geometry.Point, minDelta float64) []geometry.Point {
	out := make([]geometry.Point, 0, len(pts))
	out = append(out, pts[0])
	for _, p := range pts[1:] {
		if p.Distance(out[len(out)-1]) >= minDelta {
			out = append(out, p)
		}
	}
	// closing edge
	for len(out) > 4 && out[len(out)-1].Distance(out[0]) < minDelta {
		out = out[:len(out)-1]
	}
	return out
}

func tangents(pts []geometry.Point) []geometry.Point {
	n := len(pts)
	t := make([]geometry.Point, n)
	for i := range pts {
		t[i] = pts[(i+1)%n].Sub(pts[(i-1+n)%n]).Scale(0.5)
	}
	return t
}

func turn(a, b geometry.Point) float64 {
	return math.Abs(math.Atan2(a.Cross(b), a.Dot(b)))
}

func subdivide(pts []geometry.Point, opt RemeshOptions) []geometry.Point {
	n := len(pts)
	tan := tangents(pts)
	out := make([]geometry.Point, 0, n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a, b := pts[i], pts[j]
		out = append(out, a)
		chord := a.Distance(b)
		if chord <= opt.MaxDelta {
			continue
		}
		if turn(tan[i], tan[j]) <= opt.CurvatureThreshold {
			k := int(math.Ceil(chord / opt.MaxDelta))
			for s := 1; s < k; s++ {
				out = append(out, a.Lerp(b, float64(s)/float64(k)))
			}
			continue
		}
		bz := bezier{a, a.Add(tan[i].Scale(1.0 / 3)), b.Sub(tan[j].Scale(1.0 / 3)), b}
		k := int(math.Ceil(bz.arcLength() / opt.MaxDelta))
		out = append(out, bz.equalArc(k)...)
	}
	return out
}

type bezier [4]geometry.Point

func (c bezier) at(t float64) geometry.Point {
	u := 1 - t
	p := c[0].Scale(u * u * u)
	p = p.Add(c[1].Scale(3 * u * u * t))
	p = p.Add(c[2].Scale(3 * u * t * t))
	return p.Add(c[3].Scale(t * t * t))
}

// arcLength estimates the curve length as chord + (control polygon −
// chord)/3.
func (c bezier) arcLength() float64 {
	chord := c[0].Distance(c[3])
	poly := c[0].Distance(c[1]) + c[1].Distance(c[2]) + c[2].Distance(c[3])
	return chord + (poly-chord)/3
}

// equalArc returns k-1 interior points splitting the curve into k pieces
// of roughly equal arc length.
func (c bezier) equalArc(k int) []geometry.Point {
	if k < 2 {
		return nil
	}
	const samplesPerPiece = 16
	m := k * samplesPerPiece
	cum := make([]float64, m+1)
	prev := c[0]
	for s := 1; s <= m; s++ {
		p := c.at(float64(s) / float64(m))
		cum[s] = cum[s-1] + p.Distance(prev)
		prev = p
	}
	total := cum[m]
	out := make([]geometry.Point, 0, k-1)
	s := 1
	for piece := 1; piece < k; piece++ {
		want := total * float64(piece) / float64(k)
		for s < m && cum[s] < want {
			s++
		}
		seg := cum[s] - cum[s-1]
		frac := 0.0
		if seg > 0 {
			frac = (want - cum[s-1]) / seg
		}
		t := (float64(s-1) + frac) / float64(m)
		out = append(out, c.at(t))
	}
	return out
}

// restoreArea offsets every point along its outward normal until the signed
// area matches target within tolerance. The normal formula assumes the
// clockwise orientation of the target; the sign of target picks it.
func restoreArea(pts []geometry.Point, target, tolerance float64) {
	goal := math.Abs(target)
	if goal == 0 {
		return
	}
	sign := 1.0
	if target > 0 {
		// counter-clockwise contour: the left-hand normal points inward
		sign = -1
	}
	n := len(pts)
	normals := make([]geometry.Point, n)
	for iter := 0; iter < maxAreaIterations; iter++ {
		area := math.Abs(geometry.SignedArea(pts))
		if math.Abs(goal-area)/goal <= tolerance {
			return
		}
		perimeter := 0.0
		for i := range pts {
			perimeter += pts[i].Distance(pts[(i+1)%n])
		}
		if perimeter == 0 {
			return
		}
		delta := (goal - area) / perimeter
		for i := range pts {
			prev, next := pts[(i-1+n)%n], pts[(i+1)%n]
			normals[i] = geometry.Pt(prev.Y-next.Y, next.X-prev.X).Normalize().Scale(sign)
		}
		for i := range pts {
			pts[i] = pts[i].Add(normals[i].Scale(delta))
		}
	}
}
