package engine

import (
	"github.com/piwi3910/softpdn/internal/geometry"
	"github.com/piwi3910/softpdn/internal/model"
)

// hardLink records a via that must be appended to a body's hard-via list
// once every via layer has been classified.
type hardLink struct {
	body model.BodyRef
	via  model.ViaRef
}

// buildViaLayer creates the vias of via layer v: preplaced vias first,
// then every remaining pin of the (W+1) × (H+1) lattice.
func (s *Simulator) buildViaLayer(v int) []hardLink {
	d := s.design
	vl := &s.ViaLayers[v]
	pre := d.Vias[v]

	var links []hardLink
	if pre != nil {
		for _, c := range pre.Cells() {
			via := model.NewViaBody(v, len(vl.Vias), c.Point())
			via.IsPreplaced = true
			via.Preplaced = pre[c]
			if via.Preplaced.IsPower() {
				links = append(links, s.classify(&via)...)
			}
			vl.Vias = append(vl.Vias, via)
		}
	}
	for y := 0; y <= d.Height; y++ {
		for x := 0; x <= d.Width; x++ {
			if _, ok := pre[model.Cell{X: x, Y: y}]; ok {
				continue
			}
			via := model.NewViaBody(v, len(vl.Vias), geometry.Pt(float64(x), float64(y)))
			links = append(links, s.classify(&via)...)
			vl.Vias = append(vl.Vias, via)
		}
	}
	return links
}

// touching returns the lowest-ID body on layer l whose shape contains p,
// boundary inclusive.
func (s *Simulator) touching(l int, p geometry.Point) (model.BodyRef, bool) {
	if l < 0 || l >= len(s.rects) {
		return model.NoBody, false
	}
	best := model.NoBody
	bestID := -1
	for _, ref := range s.rects[l].QueryPoint(p.X, p.Y) {
		b := s.Body(ref)
		if b == nil || !b.Shape().Contains(p, true) {
			continue
		}
		if bestID < 0 || b.ID < bestID {
			best, bestID = ref, b.ID
		}
	}
	return best, bestID >= 0
}

// classify decides the construction-time status of via. EMPTY vias become
// attraction targets; vias touched on one side are anchored to that body.
// A via touched on both sides is BROKEN unless it is a preplaced via whose
// net is confirmed on both sides. Such a via is anchored to both bodies and
// reported as TOP_OCCUPIED until Finalize promotes it.
func (s *Simulator) classify(via *model.ViaBody) []hardLink {
	p := via.Location()
	up, hasUp := s.touching(via.UpLayer(), p)
	down, hasDown := s.touching(via.DownLayer(), p)
	ref := via.Ref()

	switch {
	case hasUp && hasDown:
		upSig, downSig := s.Body(up).Signal, s.Body(down).Signal
		if via.IsPreplaced && upSig == via.Preplaced && downSig == via.Preplaced {
			via.Status = model.ViaTopOccupied
			via.Up, via.Down = up, down
			via.UpFixed, via.DownFixed = true, true
			via.ActiveSignal = via.Preplaced
			s.fixedVias[via.ViaLayer()].Insert(p.X, p.Y, ref)
			return []hardLink{{body: up, via: ref}, {body: down, via: ref}}
		}
		via.Status = model.ViaBroken
		via.Up, via.Down = up, down
		via.ActiveSignal = model.SignalUnknown
		return nil
	case hasUp:
		via.Status = model.ViaTopOccupied
		via.Up = up
		via.UpFixed = true
		via.ActiveSignal = s.Body(up).Signal
		s.fixedVias[via.ViaLayer()].Insert(p.X, p.Y, ref)
		return []hardLink{{body: up, via: ref}}
	case hasDown:
		via.Status = model.ViaDownOccupied
		via.Down = down
		via.DownFixed = true
		via.ActiveSignal = s.Body(down).Signal
		s.fixedVias[via.ViaLayer()].Insert(p.X, p.Y, ref)
		return []hardLink{{body: down, via: ref}}
	default:
		via.Status = model.ViaEmpty
		via.ActiveSignal = model.SignalEmpty
		s.emptyVias[via.ViaLayer()].Insert(p.X, p.Y, ref)
		return nil
	}
}

// Finalize classifies the vias against the relaxed bodies. Vias anchored on
// both sides become STABLE. Remaining EMPTY vias covered on both sides by one
// net are STABLE, by two nets UNSTABLE.
func (s *Simulator) Finalize() {
	if !s.built {
		return
	}
	s.rebuildIndexes()
	for v := range s.ViaLayers {
		vl := &s.ViaLayers[v]
		for i := range vl.Vias {
			via := &vl.Vias[i]
			if via.UpFixed && via.DownFixed {
				via.Status = model.ViaStable
				continue
			}
			if via.Status != model.ViaEmpty {
				continue
			}
			up, hasUp := s.touching(via.UpLayer(), via.Location())
			down, hasDown := s.touching(via.DownLayer(), via.Location())
			if !hasUp || !hasDown {
				continue
			}
			via.Up, via.Down = up, down
			upSig, downSig := s.Body(up).Signal, s.Body(down).Signal
			if upSig == downSig {
				via.Status = model.ViaStable
				via.ActiveSignal = upSig
			} else {
				via.Status = model.ViaUnstable
				via.ActiveSignal = model.SignalUnknown
			}
		}
	}
}
