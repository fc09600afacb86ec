package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/piwi3910/softpdn/internal/geometry"
)

// ViaRef addresses a via inside its via-layer arena.
type ViaRef struct {
	Layer int `json:"layer"`
	Index int `json:"index"`
}

// ViaStatus is the classification of a via candidate against the metal
// layers above and below it.
type ViaStatus int

const (
	ViaUnknown      ViaStatus = iota // not classified (non-power preplaced vias stay here)
	ViaEmpty                         // free; attracts every power net
	ViaTopOccupied                   // fixed to a body on the upper layer
	ViaDownOccupied                  // fixed to a body on the lower layer
	ViaBroken                        // both sides already claimed
	ViaUnstable                      // both sides covered by different nets
	ViaStable                        // both sides covered by the same net
)

var viaStatusNames = [...]string{
	"UNKNOWN", "EMPTY", "TOP_OCCUPIED", "DOWN_OCCUPIED", "BROKEN", "UNSTABLE", "STABLE",
}

// ViaStatuses lists every status in declaration order.
func ViaStatuses() []ViaStatus {
	out := make([]ViaStatus, len(viaStatusNames))
	for i := range out {
		out[i] = ViaStatus(i)
	}
	return out
}

func (s ViaStatus) String() string {
	if s >= 0 && int(s) < len(viaStatusNames) {
		return viaStatusNames[s]
	}
	return fmt.Sprintf("ViaStatus(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s ViaStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ViaStatus) UnmarshalText(b []byte) error {
	n := strings.ToUpper(strings.TrimSpace(string(b)))
	for i, name := range viaStatusNames {
		if name == n {
			*s = ViaStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown via status %q", string(b))
}

// ViaBody is a candidate via location between metal layer ViaLayer() and
// ViaLayer()+1. The location never changes after creation.
type ViaBody struct {
	viaLayer int
	index    int
	location geometry.Point

	Preplaced    Signal
	IsPreplaced  bool
	UpFixed      bool
	DownFixed    bool
	Up           BodyRef
	Down         BodyRef
	Status       ViaStatus
	ActiveSignal Signal
}

// NewViaBody creates an unclassified via.
func NewViaBody(viaLayer, index int, loc geometry.Point) ViaBody {
	return ViaBody{
		viaLayer: viaLayer,
		index:    index,
		location: loc,
		Up:       NoBody,
		Down:     NoBody,
		Status:   ViaUnknown,
	}
}

func (v *ViaBody) ViaLayer() int            { return v.viaLayer }
func (v *ViaBody) UpLayer() int             { return v.viaLayer }
func (v *ViaBody) DownLayer() int           { return v.viaLayer + 1 }
func (v *ViaBody) Index() int               { return v.index }
func (v *ViaBody) Location() geometry.Point { return v.location }

// Ref returns the arena handle of the via.
func (v *ViaBody) Ref() ViaRef {
	return ViaRef{Layer: v.viaLayer, Index: v.index}
}

type viaJSON struct {
	ViaLayer     int            `json:"via_layer"`
	Index        int            `json:"index"`
	Location     geometry.Point `json:"location"`
	Preplaced    Signal         `json:"preplaced"`
	IsPreplaced  bool           `json:"is_preplaced"`
	UpFixed      bool           `json:"up_fixed"`
	DownFixed    bool           `json:"down_fixed"`
	Up           BodyRef        `json:"up"`
	Down         BodyRef        `json:"down"`
	Status       ViaStatus      `json:"status"`
	ActiveSignal Signal         `json:"active_signal"`
}

// MarshalJSON implements json.Marshaler.
func (v ViaBody) MarshalJSON() ([]byte, error) {
	return json.Marshal(viaJSON{
		ViaLayer:     v.viaLayer,
		Index:        v.index,
		Location:     v.location,
		Preplaced:    v.Preplaced,
		IsPreplaced:  v.IsPreplaced,
		UpFixed:      v.UpFixed,
		DownFixed:    v.DownFixed,
		Up:           v.Up,
		Down:         v.Down,
		Status:       v.Status,
		ActiveSignal: v.ActiveSignal,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *ViaBody) UnmarshalJSON(data []byte) error {
	var j viaJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*v = ViaBody{
		viaLayer:     j.ViaLayer,
		index:        j.Index,
		location:     j.Location,
		Preplaced:    j.Preplaced,
		IsPreplaced:  j.IsPreplaced,
		UpFixed:      j.UpFixed,
		DownFixed:    j.DownFixed,
		Up:           j.Up,
		Down:         j.Down,
		Status:       j.Status,
		ActiveSignal: j.ActiveSignal,
	}
	return nil
}
