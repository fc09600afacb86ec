package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/softpdn/internal/geometry"
	"github.com/piwi3910/softpdn/internal/model"
)

// segment is a line piece used for chaining loose LINE and ARC entities
// into closed outlines.
type segment struct {
	start geometry.Point
	end   geometry.Point
}

// outline is a closed shape together with the DXF layer it was drawn on.
type outline struct {
	layer string
	pts   []geometry.Point
}

// chainTolerance is the largest endpoint gap bridged when chaining segments.
const chainTolerance = 0.01

// ImportPadsDXF reads connector pad footprints from a DXF file. Every closed
// shape (LWPOLYLINE, CIRCLE, or chain of connected LINEs/ARCs) becomes one
// pad covering the shape's bounding box. The DXF layer name selects the
// pad's signal, so a drawing with layers P1 and GND yields pads of both
// nets.
func ImportPadsDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines []outline
	segments := make(map[string][]segment)

	for _, ent := range entities {
		layer := layerName(ent)
		switch e := ent.(type) {
		case *entity.LwPolyline:
			pts := lwPolylinePoints(e)
			if len(pts) >= 3 {
				outlines = append(outlines, outline{layer: layer, pts: pts})
			} else {
				result.Warnings = append(result.Warnings,
					"Skipped LWPOLYLINE with fewer than 3 vertices")
			}

		case *entity.Circle:
			outlines = append(outlines, outline{layer: layer, pts: circlePoints(e, 32)})

		case *entity.Arc:
			pts := arcPoints(e, 16)
			if len(pts) >= 2 {
				segments[layer] = append(segments[layer], pointsToSegments(pts)...)
			}

		case *entity.Line:
			segments[layer] = append(segments[layer], segment{
				start: geometry.Pt(e.Start[0], e.Start[1]),
				end:   geometry.Pt(e.End[0], e.End[1]),
			})
		}
	}

	layers := make([]string, 0, len(segments))
	for layer := range segments {
		layers = append(layers, layer)
	}
	sort.Strings(layers)
	for _, layer := range layers {
		for _, pts := range chainSegments(segments[layer], chainTolerance) {
			outlines = append(outlines, outline{layer: layer, pts: pts})
		}
	}

	if len(outlines) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	counts := make(map[model.Signal]int)
	for _, o := range outlines {
		sig, err := model.ParseSignal(o.layer)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped shape on layer %q: not a signal name", o.layer))
			continue
		}
		box := geometry.BoundOf(o.pts)
		if box.Width() < 0.01 || box.Height() < 0.01 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f) on layer %s", box.Width(), box.Height(), o.layer))
			continue
		}
		counts[sig]++
		result.Pads = append(result.Pads, model.Pad{
			Name:   fmt.Sprintf("%s-%d", sig, counts[sig]),
			Signal: sig,
			X:      box.Min.X,
			Y:      box.Min.Y,
			Width:  box.Width(),
			Height: box.Height(),
		})
	}

	if len(result.Pads) == 0 {
		result.Errors = append(result.Errors, "No shape sits on a signal layer")
	}
	return result
}

func layerName(e entity.Entity) string {
	if l := e.Layer(); l != nil {
		return l.Name()
	}
	return ""
}

// lwPolylinePoints converts a DXF LWPOLYLINE to points. Bulge values on
// vertices produce interpolated arc segments.
func lwPolylinePoints(lw *entity.LwPolyline) []geometry.Point {
	var pts []geometry.Point

	for i := 0; i < len(lw.Vertices); i++ {
		v := lw.Vertices[i]
		current := geometry.Pt(v[0], v[1])

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}

		if math.Abs(bulge) > 1e-9 {
			nextIdx := (i + 1) % len(lw.Vertices)
			next := geometry.Pt(lw.Vertices[nextIdx][0], lw.Vertices[nextIdx][1])
			arc := bulgeArcPoints(current, next, bulge, 16)
			// next vertex is added by the following iteration
			pts = append(pts, arc[:len(arc)-1]...)
		} else {
			pts = append(pts, current)
		}
	}

	return pts
}

// bulgeArcPoints generates points along an arc defined by two endpoints and a
// DXF bulge factor. The bulge is the tangent of 1/4 the included angle.
func bulgeArcPoints(p1, p2 geometry.Point, bulge float64, numSegments int) []geometry.Point {
	chord := p1.Distance(p2)
	if chord < 1e-9 {
		return []geometry.Point{p1, p2}
	}
	mid := p1.Lerp(p2, 0.5)
	d := p2.Sub(p1)

	sagitta := math.Abs(bulge) * chord / 2
	radius := (chord*chord/(4*sagitta) + sagitta) / 2

	perp := geometry.Pt(-d.Y/chord, d.X/chord)
	if bulge > 0 {
		perp = perp.Scale(-1)
	}
	c := mid.Add(perp.Scale(radius - sagitta))

	startAngle := math.Atan2(p1.Y-c.Y, p1.X-c.X)
	endAngle := math.Atan2(p2.Y-c.Y, p2.X-c.X)
	if bulge < 0 {
		if endAngle > startAngle {
			endAngle -= 2 * math.Pi
		}
	} else if endAngle < startAngle {
		endAngle += 2 * math.Pi
	}

	pts := make([]geometry.Point, 0, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startAngle + t*(endAngle-startAngle)
		pts = append(pts, geometry.Pt(c.X+radius*math.Cos(angle), c.Y+radius*math.Sin(angle)))
	}
	return pts
}

// circlePoints approximates a circle as a regular polygon.
func circlePoints(c *entity.Circle, numSegments int) []geometry.Point {
	pts := make([]geometry.Point, numSegments)
	cx, cy, r := c.Center[0], c.Center[1], c.Radius
	for i := 0; i < numSegments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numSegments)
		pts[i] = geometry.Pt(cx+r*math.Cos(angle), cy+r*math.Sin(angle))
	}
	return pts
}

// arcPoints converts a DXF ARC entity to a series of points.
func arcPoints(a *entity.Arc, numSegments int) []geometry.Point {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius
	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}

	pts := make([]geometry.Point, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startRad + t*(endRad-startRad)
		pts[i] = geometry.Pt(cx+r*math.Cos(angle), cy+r*math.Sin(angle))
	}
	return pts
}

func pointsToSegments(pts []geometry.Point) []segment {
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

// chainSegments connects individual segments into closed outlines.
// tolerance is the maximum distance between endpoints to consider them
// connected. Open chains are dropped.
func chainSegments(segs []segment, tolerance float64) [][]geometry.Point {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var outlines [][]geometry.Point

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := []geometry.Point{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]

			for i, seg := range segs {
				if used[i] {
					continue
				}
				if tail.Distance(seg.start) <= tolerance {
					chain = append(chain, seg.end)
					used[i] = true
					changed = true
					break
				}
				if tail.Distance(seg.end) <= tolerance {
					chain = append(chain, seg.start)
					used[i] = true
					changed = true
					break
				}
			}
		}

		if len(chain) < 4 || chain[0].Distance(chain[len(chain)-1]) > tolerance {
			continue
		}
		outlines = append(outlines, chain[:len(chain)-1])
	}

	// largest first for a stable pad order
	sort.SliceStable(outlines, func(i, j int) bool {
		return math.Abs(geometry.SignedArea(outlines[i])) > math.Abs(geometry.SignedArea(outlines[j]))
	})

	return outlines
}
