package engine

import (
	"math"

	"github.com/piwi3910/softpdn/internal/dsu"
	"github.com/piwi3910/softpdn/internal/model"
	"github.com/piwi3910/softpdn/internal/spatial"
)

// CollectStatistics summarises every metal and via layer.
func (s *Simulator) CollectStatistics() model.Statistics {
	var st model.Statistics
	for l := range s.Layers {
		st.Layers = append(st.Layers, LayerStatistics(&s.Layers[l]))
	}
	c := s.canvas()
	for v := range s.ViaLayers {
		vl := &s.ViaLayers[v]
		st.ViaLayers = append(st.ViaLayers, model.ViaLayerStats{
			Layer:          v,
			Vias:           len(vl.Vias),
			Status:         vl.CountStatus(),
			AvgViaDistance: avgEmptyViaDistance(vl, s.Settings.PointBinSize, c.Max.X, c.Max.Y),
		})
	}
	return st
}

// LayerStatistics computes body count, area, pressure range and the number
// of connected fragments per net. Bodies of one net that touch count as a
// single fragment.
func LayerStatistics(layer *model.MetalLayer) model.LayerStats {
	ls := model.LayerStats{
		Layer:     layer.Index,
		Bodies:    len(layer.Bodies),
		Fragments: make(map[model.Signal]int),
	}
	if len(layer.Bodies) == 0 {
		return ls
	}
	ls.MinPressure = math.Inf(1)
	ls.MaxPressure = math.Inf(-1)
	sum := 0.0
	for i := range layer.Bodies {
		b := &layer.Bodies[i]
		ls.TotalArea += b.Area()
		ls.MinPressure = math.Min(ls.MinPressure, b.Pressure)
		ls.MaxPressure = math.Max(ls.MaxPressure, b.Pressure)
		sum += b.Pressure
	}
	ls.MeanPressure = sum / float64(len(layer.Bodies))

	sets := dsu.New(len(layer.Bodies))
	for i := range layer.Bodies {
		a := &layer.Bodies[i]
		for j := i + 1; j < len(layer.Bodies); j++ {
			b := &layer.Bodies[j]
			if a.Signal != b.Signal || !a.BBox().Intersects(b.BBox()) {
				continue
			}
			if a.Shape().Intersects(b.Shape()) {
				sets.Union(i, j)
			}
		}
	}
	roots := make(map[int]struct{})
	for i := range layer.Bodies {
		r := sets.Find(i)
		if _, seen := roots[r]; seen {
			continue
		}
		roots[r] = struct{}{}
		ls.Fragments[layer.Bodies[i].Signal]++
	}
	return ls
}

// avgEmptyViaDistance returns the mean distance from each EMPTY via to its
// nearest EMPTY neighbour, or 0 with fewer than two EMPTY vias.
func avgEmptyViaDistance(vl *model.ViaLayer, binSize, width, height float64) float64 {
	idx := spatial.NewPointIndex[float64, int](binSize, 0, 0, width, height)
	for i := range vl.Vias {
		if vl.Vias[i].Status == model.ViaEmpty {
			p := vl.Vias[i].Location()
			idx.Insert(p.X, p.Y, i)
		}
	}
	if idx.Len() < 2 {
		return 0
	}
	total, n := 0.0, 0
	for i := range vl.Vias {
		if vl.Vias[i].Status != model.ViaEmpty {
			continue
		}
		p := vl.Vias[i].Location()
		if nn, ok := idx.Nearest(p.X, p.Y); ok {
			total += nn.Distance
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
