package engine

import (
	"math"

	"github.com/piwi3910/softpdn/internal/geometry"
	"github.com/piwi3910/softpdn/internal/model"
	"github.com/piwi3910/softpdn/internal/parallel"
)

// pointGrain is the minimum number of contour points handed to one worker.
const pointGrain = 64

// Inflate runs Settings.IterationMax relaxation steps.
func (s *Simulator) Inflate() {
	for i := 0; i < s.Settings.IterationMax; i++ {
		s.Step()
	}
}

// Step performs one synchronous relaxation iteration. Every point moves
// based on positions from before the step. Bodies whose new contour would
// self-intersect or overlap a body of another net keep the old one. Indexes are rebuilt at the start of the
// step and only read while forces are computed.
func (s *Simulator) Step() {
	if !s.built {
		return
	}
	s.rebuildIndexes()
	active := s.activeLayers()
	next := make([][][]geometry.Point, len(s.Layers))

	parallel.For(len(active), s.Settings.Workers, func(k int) {
		l := active[k]
		layer := &s.Layers[l]
		nb := s.neighborhood(l)
		out := make([][]geometry.Point, len(layer.Bodies))
		parallel.For(len(layer.Bodies), s.Settings.Workers, func(i int) {
			out[i] = s.advance(&layer.Bodies[i], nb)
		})
		next[l] = out
	})

	remesh := s.Settings.RemeshInterval > 0 && (s.iteration+1)%s.Settings.RemeshInterval == 0
	rejected := 0
	for _, l := range active {
		rejected += s.commit(l, next[l])
	}
	if remesh {
		s.remeshAll(active)
	}
	s.iteration++
	s.logger.Debug("relaxation step", "iteration", s.iteration, "rejected", rejected)
}

// neighborhood collects the indexes the force policy may consult for
// metal layer l: the layer's point index and the via layers above and below.
func (s *Simulator) neighborhood(l int) *Neighborhood {
	nb := &Neighborhood{Layer: l, Points: s.points[l], sim: s}
	for _, v := range []int{l - 1, l} {
		if v < 0 || v >= len(s.ViaLayers) {
			continue
		}
		nb.EmptyVias = append(nb.EmptyVias, s.emptyVias[v])
		nb.FixedVias = append(nb.FixedVias, s.fixedVias[v])
	}
	return nb
}

// advance computes the next contour of b, or nil if the move would make
// the contour self-intersect.
func (s *Simulator) advance(b *model.SoftBody, nb *Neighborhood) []geometry.Point {
	n := len(b.Contour)
	if n < 3 {
		return nil
	}
	cur := b.Contour
	out := make([]geometry.Point, n)
	canvas := s.canvas()
	step := s.Settings.StepSize
	maxStep := s.Settings.MaxStep
	push := s.Settings.PressureGain * b.Pressure

	parallel.ForChunks(n, pointGrain, s.Settings.Workers, func(lo, hi int) {
		ctx := ForceContext{Body: b, Pressure: b.Pressure, Neighbors: nb}
		for j := lo; j < hi; j++ {
			ctx.Prev, ctx.Point, ctx.Next = cur[(j-1+n)%n], cur[j], cur[(j+1)%n]
			ctx.Normal = geometry.Pt(ctx.Prev.Y-ctx.Next.Y, ctx.Next.X-ctx.Prev.X).Normalize()

			f := ctx.Normal.Scale(push).Add(s.policy.Force(&ctx))
			d := f.Scale(step)
			if l := d.Length(); maxStep > 0 && l > maxStep {
				d = d.Scale(maxStep / l)
			}
			out[j] = clampTo(ctx.Point.Add(d), canvas)
		}
	})

	if geometry.Ring(out).SelfIntersects() {
		return nil
	}
	return out
}

func clampTo(p geometry.Point, b geometry.Box) geometry.Point {
	return geometry.Pt(
		math.Min(math.Max(p.X, b.Min.X), b.Max.X),
		math.Min(math.Max(p.Y, b.Min.Y), b.Max.Y),
	)
}

// remeshAll re-spaces every body contour. A remeshed contour that leaves
// the canvas is clamped; one that self-intersects or overlaps another net
// is discarded.
func (s *Simulator) remeshAll(active []int) {
	opt := RemeshOptions{
		MinDelta:           s.Settings.PointSpacing,
		MaxDelta:           s.Settings.MaxSpacing(),
		CurvatureThreshold: s.Settings.CurvatureThreshold,
		AreaTolerance:      s.Settings.AreaTolerance,
	}
	canvas := s.canvas()
	next := make([][][]geometry.Point, len(s.Layers))
	parallel.For(len(active), s.Settings.Workers, func(k int) {
		layer := &s.Layers[active[k]]
		out := make([][]geometry.Point, len(layer.Bodies))
		parallel.For(len(layer.Bodies), s.Settings.Workers, func(i int) {
			b := &layer.Bodies[i]
			pts := Remesh(append([]geometry.Point(nil), b.Contour...), opt)
			for j := range pts {
				pts[j] = clampTo(pts[j], canvas)
			}
			if len(pts) < 3 || geometry.Ring(pts).SelfIntersects() {
				return
			}
			out[i] = pts
		})
		next[active[k]] = out
	})
	for _, l := range active {
		s.commit(l, next[l])
	}
}

// commit installs the candidate contours of layer l and returns how many
// bodies kept their old contour. A nil candidate is kept as is. A candidate
// that would touch a body of another net, in its old or its new shape, is
// dropped unless the two bodies already touched before the move. Each
// decision depends only on the old and candidate shapes, never on the order
// in which bodies are visited.
func (s *Simulator) commit(l int, next [][]geometry.Point) int {
	layer := &s.Layers[l]
	n := len(layer.Bodies)
	shapes := make([]geometry.Polygon, n)
	parallel.For(n, s.Settings.Workers, func(i int) {
		if next[i] != nil {
			shapes[i] = candidateShape(&layer.Bodies[i], next[i])
		}
	})

	keep := make([]bool, n)
	parallel.For(n, s.Settings.Workers, func(i int) {
		if next[i] == nil {
			return
		}
		a := &layer.Bodies[i]
		for j := range layer.Bodies {
			o := &layer.Bodies[j]
			if j == i || o.Signal == a.Signal || a.Shape().Intersects(o.Shape()) {
				continue
			}
			if shapes[i].Intersects(o.Shape()) {
				return
			}
			if next[j] != nil && shapes[i].Intersects(shapes[j]) {
				return
			}
		}
		keep[i] = true
	})

	rejected := 0
	for i := range layer.Bodies {
		if !keep[i] {
			rejected++
			continue
		}
		layer.Bodies[i].SetContour(next[i])
	}
	return rejected
}

func candidateShape(b *model.SoftBody, contour []geometry.Point) geometry.Polygon {
	holes := make([][]geometry.Point, len(b.Holes))
	for i, h := range b.Holes {
		holes[i] = h
	}
	return geometry.NewPolygon(contour, holes...)
}

// rebuildIndexes refreshes every layer's rectangle and point index from the
// current contours.
func (s *Simulator) rebuildIndexes() {
	active := s.activeLayers()
	parallel.For(len(active), s.Settings.Workers, func(k int) {
		l := active[k]
		s.rects[l].Clear()
		s.points[l].Clear()
		for i := range s.Layers[l].Bodies {
			s.register(&s.Layers[l].Bodies[i])
		}
	})
}
