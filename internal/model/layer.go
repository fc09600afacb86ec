package model

// MetalLayer owns the soft bodies of one metal layer. Bodies are addressed
// by their slice index.
type MetalLayer struct {
	Index  int        `json:"index"`
	Bodies []SoftBody `json:"bodies"`
}

// Body returns the body at ref, or nil if ref does not belong to this
// layer.
func (l *MetalLayer) Body(ref BodyRef) *SoftBody {
	if ref.Layer != l.Index || ref.Index < 0 || ref.Index >= len(l.Bodies) {
		return nil
	}
	return &l.Bodies[ref.Index]
}

// TotalArea sums the body areas.
func (l *MetalLayer) TotalArea() float64 {
	total := 0.0
	for i := range l.Bodies {
		total += l.Bodies[i].Area()
	}
	return total
}

// ViaLayer owns the vias between metal layers Index and Index+1.
type ViaLayer struct {
	Index int       `json:"index"`
	Vias  []ViaBody `json:"vias"`
}

// Via returns the via at ref, or nil if ref does not belong to this layer.
func (l *ViaLayer) Via(ref ViaRef) *ViaBody {
	if ref.Layer != l.Index || ref.Index < 0 || ref.Index >= len(l.Vias) {
		return nil
	}
	return &l.Vias[ref.Index]
}

// CountStatus returns the number of vias per status.
func (l *ViaLayer) CountStatus() map[ViaStatus]int {
	counts := make(map[ViaStatus]int)
	for i := range l.Vias {
		counts[l.Vias[i].Status]++
	}
	return counts
}
