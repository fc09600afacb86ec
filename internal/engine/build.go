package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/geometry"
	"github.com/piwi3910/softpdn/internal/model"
	"github.com/piwi3910/softpdn/internal/parallel"
	"github.com/piwi3910/softpdn/internal/spatial"
)

// netBox is a seed rectangle of one net on one layer.
type netBox struct {
	signal model.Signal
	box    geometry.Box
}

// Build seeds soft bodies on every metal layer between the connectors,
// assigns body IDs and classifies every via candidate. Metal layers are
// built in parallel, then via layers in parallel.
func (s *Simulator) Build() error {
	d := s.design
	s.Layers = make([]model.MetalLayer, d.MetalLayers)
	s.rects = make([]*bodyRects, d.MetalLayers)
	s.points = make([]*bodyPoints, d.MetalLayers)
	for l := range s.Layers {
		s.Layers[l].Index = l
		s.rects[l], s.points[l] = s.newBodyIndexes()
	}

	active := s.activeLayers()
	err := parallel.ForErr(len(active), s.Settings.Workers, func(k int) error {
		return s.buildMetalLayer(active[k])
	})
	if err != nil {
		return err
	}

	id := 0
	for _, l := range active {
		for i := range s.Layers[l].Bodies {
			s.Layers[l].Bodies[i].ID = id
			id++
		}
		s.logger.Debug("built metal layer", "layer", l, "bodies", len(s.Layers[l].Bodies))
	}

	nv := d.ViaLayers()
	s.ViaLayers = make([]model.ViaLayer, nv)
	s.emptyVias = make([]*viaPoints, nv)
	s.fixedVias = make([]*viaPoints, nv)
	links := make([][]hardLink, nv)
	for v := range s.ViaLayers {
		s.ViaLayers[v].Index = v
		s.emptyVias[v] = s.newViaIndex()
		s.fixedVias[v] = s.newViaIndex()
	}
	parallel.For(nv, s.Settings.Workers, func(v int) {
		links[v] = s.buildViaLayer(v)
	})
	// hard-via lists are shared by adjacent via layers, so link sequentially
	for _, ls := range links {
		for _, hl := range ls {
			if b := s.Body(hl.body); b != nil {
				b.AddHardVia(hl.via)
			}
		}
	}
	for v := range s.ViaLayers {
		counts := s.ViaLayers[v].CountStatus()
		s.logger.Debug("classified via layer", "layer", v,
			"empty", counts[model.ViaEmpty],
			"top", counts[model.ViaTopOccupied],
			"down", counts[model.ViaDownOccupied],
			"broken", counts[model.ViaBroken])
	}

	s.built = true
	s.logger.Info("construction finished", "bodies", id, "via_layers", nv)
	return nil
}

// collectBoxes gathers the seed rectangles of layer l: inflated connector
// pads, preplaced unit cells and inflated preplaced power vias of the
// adjacent via layers not already covered by another rectangle.
func (s *Simulator) collectBoxes(l int) []netBox {
	d := s.design
	canvas := s.canvas()
	margin := s.Settings.InitialMargin

	var boxes []netBox
	covered := spatial.NewRectIndex[float64, int](s.Settings.RectangleBinSize, canvas.Min.X, canvas.Min.Y, canvas.Max.X, canvas.Max.Y)
	add := func(sig model.Signal, b geometry.Box) {
		b, ok := clip(b, canvas)
		if !ok {
			return
		}
		covered.Insert(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y, len(boxes))
		boxes = append(boxes, netBox{signal: sig, box: b})
	}

	for _, pad := range d.PadsOn(l) {
		if pad.Signal.IsPower() {
			add(pad.Signal, pad.Box().Inflate(margin))
		}
	}
	if pp := d.Metal[l]; pp != nil {
		for _, c := range pp.Cells() {
			if sig := pp[c]; sig.IsPower() {
				add(sig, geometry.BoxAt(float64(c.X), float64(c.Y), 1, 1))
			}
		}
	}
	// via layer l-1 lands on l from above, via layer l leaves l downward
	for _, v := range []int{l - 1, l} {
		pp := d.Vias[v]
		if v < 0 || v >= d.ViaLayers() || pp == nil {
			continue
		}
		for _, c := range pp.Cells() {
			sig := pp[c]
			if !sig.IsPower() {
				continue
			}
			p := c.Point()
			if len(covered.QueryPoint(p.X, p.Y)) > 0 {
				continue
			}
			add(sig, geometry.PointBox(p).Inflate(margin))
		}
	}
	return boxes
}

func clip(b, canvas geometry.Box) (geometry.Box, bool) {
	out := geometry.NewBox(
		geometry.Pt(math.Max(b.Min.X, canvas.Min.X), math.Max(b.Min.Y, canvas.Min.Y)),
		geometry.Pt(math.Min(b.Max.X, canvas.Max.X), math.Min(b.Max.Y, canvas.Max.Y)),
	)
	if b.Max.X < canvas.Min.X || b.Min.X > canvas.Max.X || b.Max.Y < canvas.Min.Y || b.Min.Y > canvas.Max.Y {
		return geometry.Box{}, false
	}
	return out, true
}

// buildMetalLayer unions the seed rectangles per net and creates one soft
// body per connected component, apportioning the net current by area.
func (s *Simulator) buildMetalLayer(l int) error {
	byNet := make(map[model.Signal][]geometry.Box)
	for _, nb := range s.collectBoxes(l) {
		byNet[nb.signal] = append(byNet[nb.signal], nb.box)
	}
	nets := make([]model.Signal, 0, len(byNet))
	for sig := range byNet {
		nets = append(nets, sig)
	}
	sort.Slice(nets, func(i, j int) bool { return nets[i] < nets[j] })

	layer := &s.Layers[l]
	for _, sig := range nets {
		components := geometry.UnionBoxes(byNet[sig])
		areas := make([]float64, len(components))
		for i, c := range components {
			areas[i] = c.Area()
		}
		total := floats.Sum(areas)
		if total <= 0 {
			return errors.New(errors.CodeFailedConstruction,
				"net %s on layer %d has zero area; cannot apportion current", sig, l)
		}
		current := s.design.Currents[sig]
		for i, c := range components {
			idx := len(layer.Bodies)
			contour := Densify(c.Outer.Open(), s.Settings.PointSpacing)
			body := model.NewSoftBody(l, idx, sig, current*areas[i]/total, areas[i], contour, c.Holes)
			layer.Bodies = append(layer.Bodies, body)
			s.register(&layer.Bodies[idx])
		}
	}
	return nil
}

// register adds a body to its layer's rectangle and point indexes.
func (s *Simulator) register(b *model.SoftBody) {
	box := b.BBox()
	s.rects[b.Layer].Insert(box.Min.X, box.Min.Y, box.Max.X, box.Max.Y, b.Ref())
	pts := s.points[b.Layer]
	for _, p := range b.Contour {
		pts.Insert(p.X, p.Y, b.Ref())
	}
}

// Densify walks an open ring and inserts evenly spaced points on every edge
// longer than spacing, so no edge of the result exceeds it.
func Densify(ring []geometry.Point, spacing float64) []geometry.Point {
	n := len(ring)
	if n < 2 || spacing <= 0 {
		return append([]geometry.Point(nil), ring...)
	}
	out := make([]geometry.Point, 0, n)
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		out = append(out, a)
		length := a.Distance(b)
		if length <= spacing {
			continue
		}
		k := int(math.Ceil(length / spacing))
		for j := 1; j < k; j++ {
			out = append(out, a.Lerp(b, float64(j)/float64(k)))
		}
	}
	return out
}
