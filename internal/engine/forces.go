package engine

import (
	"github.com/piwi3910/softpdn/internal/geometry"
	"github.com/piwi3910/softpdn/internal/model"
)

// ForceContext is the read-only view a ForcePolicy gets of one contour
// point. All positions are from before the current iteration.
type ForceContext struct {
	Body     *model.SoftBody
	Prev     geometry.Point
	Point    geometry.Point
	Next     geometry.Point
	Normal   geometry.Point // unit outward normal; zero when degenerate
	Pressure float64

	Neighbors *Neighborhood
}

// Neighborhood exposes the spatial indexes around a metal layer.
type Neighborhood struct {
	Layer     int
	Points    *bodyPoints  // contour points of every body on the layer
	EmptyVias []*viaPoints // EMPTY vias of the adjacent via layers
	FixedVias []*viaPoints // anchored vias of the adjacent via layers

	sim *Simulator
}

// Body resolves a body handle.
func (n *Neighborhood) Body(ref model.BodyRef) *model.SoftBody {
	return n.sim.Body(ref)
}

// Via resolves a via handle.
func (n *Neighborhood) Via(ref model.ViaRef) *model.ViaBody {
	return n.sim.Via(ref)
}

// ForcePolicy supplies every force on a contour point other than pressure:
// curvature restoration, neighbour interaction and via attraction. Force
// must be safe for concurrent use.
type ForcePolicy interface {
	Force(ctx *ForceContext) geometry.Point
}

// PolicyFor returns the policy named by the settings.
func PolicyFor(settings model.SimSettings) ForcePolicy {
	if settings.Policy == model.PolicyPressureOnly {
		return PressureOnly{}
	}
	return DefaultPolicy{Forces: settings.Forces}
}

// PressureOnly adds nothing to the pressure term.
type PressureOnly struct{}

func (PressureOnly) Force(*ForceContext) geometry.Point {
	return geometry.Point{}
}

// DefaultPolicy combines a curvature pull toward the neighbour chord
// midpoint, same-net attraction and different-net repulsion from nearby
// contour points, and attraction toward usable vias outside the body.
// Every term falls off linearly to zero at its radius.
type DefaultPolicy struct {
	model.Forces
}

func (p DefaultPolicy) Force(ctx *ForceContext) geometry.Point {
	f := p.curvature(ctx)
	f = f.Add(p.neighbours(ctx))
	f = f.Add(p.vias(ctx))
	return f
}

func (p DefaultPolicy) curvature(ctx *ForceContext) geometry.Point {
	if p.Curvature == 0 {
		return geometry.Point{}
	}
	mid := ctx.Prev.Lerp(ctx.Next, 0.5)
	return mid.Sub(ctx.Point).Scale(p.Curvature)
}

func (p DefaultPolicy) neighbours(ctx *ForceContext) geometry.Point {
	nb := ctx.Neighbors
	if nb == nil || nb.Points == nil {
		return geometry.Point{}
	}
	radius := max(p.AttractRadius, p.RepelRadius)
	if radius <= 0 {
		return geometry.Point{}
	}
	self := ctx.Body.Ref()
	var f geometry.Point
	for _, n := range nb.Points.Radius(ctx.Point.X, ctx.Point.Y, radius) {
		if n.Object == self || n.Distance == 0 {
			continue
		}
		other := nb.Body(n.Object)
		if other == nil {
			continue
		}
		dir := geometry.Pt(n.X, n.Y).Sub(ctx.Point).Scale(1 / n.Distance)
		if other.Signal == ctx.Body.Signal {
			f = f.Add(dir.Scale(falloff(p.AttractStrength, n.Distance, p.AttractRadius)))
		} else {
			f = f.Sub(dir.Scale(falloff(p.RepelStrength, n.Distance, p.RepelRadius)))
		}
	}
	return f
}

func (p DefaultPolicy) vias(ctx *ForceContext) geometry.Point {
	nb := ctx.Neighbors
	if nb == nil {
		return geometry.Point{}
	}
	var f geometry.Point
	pull := func(q geometry.Point, d, strength, radius float64) {
		dir := q.Sub(ctx.Point)
		// only vias on the outward side draw the contour toward them
		if dir.Dot(ctx.Normal) <= 0 {
			return
		}
		f = f.Add(dir.Scale(falloff(strength, d, radius) / d))
	}
	if p.EmptyViaRadius > 0 && p.EmptyViaStrength != 0 {
		for _, idx := range nb.EmptyVias {
			for _, n := range idx.Radius(ctx.Point.X, ctx.Point.Y, p.EmptyViaRadius) {
				if n.Distance > 0 {
					pull(geometry.Pt(n.X, n.Y), n.Distance, p.EmptyViaStrength, p.EmptyViaRadius)
				}
			}
		}
	}
	if p.SameViaRadius > 0 && p.SameViaStrength != 0 {
		for _, idx := range nb.FixedVias {
			for _, n := range idx.Radius(ctx.Point.X, ctx.Point.Y, p.SameViaRadius) {
				via := nb.Via(n.Object)
				if n.Distance > 0 && via != nil && via.ActiveSignal == ctx.Body.Signal {
					pull(geometry.Pt(n.X, n.Y), n.Distance, p.SameViaStrength, p.SameViaRadius)
				}
			}
		}
	}
	return f
}

// falloff scales strength linearly from full at d = 0 to zero at radius.
func falloff(strength, d, radius float64) float64 {
	if radius <= 0 || d >= radius {
		return 0
	}
	return strength * (1 - d/radius)
}
