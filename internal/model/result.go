package model

import "github.com/piwi3910/softpdn/internal/geometry"

// LayerStats summarises one metal layer after relaxation.
type LayerStats struct {
	Layer        int            `json:"layer"`
	Bodies       int            `json:"bodies"`
	TotalArea    float64        `json:"total_area"`
	MinPressure  float64        `json:"min_pressure"`
	MaxPressure  float64        `json:"max_pressure"`
	MeanPressure float64        `json:"mean_pressure"`
	Fragments    map[Signal]int `json:"fragments"` // connected pieces per net
}

// ViaLayerStats summarises one via layer.
type ViaLayerStats struct {
	Layer          int               `json:"layer"`
	Vias           int               `json:"vias"`
	Status         map[ViaStatus]int `json:"status"`
	AvgViaDistance float64           `json:"avg_via_distance"` // mean nearest-neighbour distance between empty vias
}

// Statistics collects the per-layer summaries.
type Statistics struct {
	Layers    []LayerStats    `json:"layers"`
	ViaLayers []ViaLayerStats `json:"via_layers"`
}

// TotalArea sums the body area of every layer.
func (s Statistics) TotalArea() float64 {
	total := 0.0
	for _, l := range s.Layers {
		total += l.TotalArea
	}
	return total
}

// ViaCount sums the vias with the given status across layers.
func (s Statistics) ViaCount(status ViaStatus) int {
	n := 0
	for _, l := range s.ViaLayers {
		n += l.Status[status]
	}
	return n
}

// ClearanceViolation reports two different-net bodies on one layer that
// are closer than the configured clearance.
type ClearanceViolation struct {
	Layer    int     `json:"layer"`
	A        BodyRef `json:"a"`
	B        BodyRef `json:"b"`
	SignalA  Signal  `json:"signal_a"`
	SignalB  Signal  `json:"signal_b"`
	Distance float64 `json:"distance"`
}

// Result is the outcome of a simulation run.
type Result struct {
	RunID      string               `json:"run_id"`
	Design     string               `json:"design"`
	Width      int                  `json:"width"`
	Height     int                  `json:"height"`
	Settings   SimSettings          `json:"settings"`
	Layers     []MetalLayer         `json:"layers"`
	ViaLayers  []ViaLayer           `json:"via_layers"`
	Stats      Statistics           `json:"stats"`
	Violations []ClearanceViolation `json:"violations,omitempty"`
}

// Canvas returns the metal canvas box.
func (r *Result) Canvas() geometry.Box {
	return geometry.BoxAt(0, 0, float64(r.Width), float64(r.Height))
}

// Body resolves a body handle.
func (r *Result) Body(ref BodyRef) *SoftBody {
	if ref.Layer < 0 || ref.Layer >= len(r.Layers) {
		return nil
	}
	return r.Layers[ref.Layer].Body(ref)
}

// Refresh rebuilds the derived body shapes after decoding.
func (r *Result) Refresh() {
	for li := range r.Layers {
		for bi := range r.Layers[li].Bodies {
			r.Layers[li].Bodies[bi].Refresh()
		}
	}
}
