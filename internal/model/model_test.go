package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/geometry"
)

func TestParseSignal(t *testing.T) {
	cases := map[string]Signal{
		"POWER_3":  SignalPower3,
		"p1":       SignalPower1,
		"pwr_10":   SignalPower10,
		" gnd ":    SignalGround,
		"SIG":      SignalData,
		"obstacle": SignalObstacle,
		"EMPTY":    SignalEmpty,
	}
	for in, want := range cases {
		got, err := ParseSignal(in)
		if err != nil {
			t.Errorf("ParseSignal(%q) returned error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseSignal(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseSignal("VDD"); err == nil {
		t.Error("expected an error for VDD")
	}
}

func TestSignal_IsPower(t *testing.T) {
	for _, s := range PowerSignals() {
		if !s.IsPower() {
			t.Errorf("%s should be a power net", s)
		}
	}
	for _, s := range []Signal{SignalEmpty, SignalGround, SignalData, SignalObstacle, SignalUnknown} {
		if s.IsPower() {
			t.Errorf("%s should not be a power net", s)
		}
	}
	if Power(0) != SignalUnknown || Power(11) != SignalUnknown {
		t.Error("Power outside 1..10 should be UNKNOWN")
	}
}

func TestSignal_JSONMapKeys(t *testing.T) {
	in := map[Signal]float64{SignalPower1: 1.5, SignalPower2: 2}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"POWER_1":1.5,"POWER_2":2}` {
		t.Errorf("unexpected encoding %s", data)
	}

	var out map[Signal]float64
	if err := json.Unmarshal([]byte(`{"P1": 3}`), &out); err != nil {
		t.Fatal(err)
	}
	if out[SignalPower1] != 3 {
		t.Errorf("expected alias key to decode, got %v", out)
	}
}

func TestViaStatus_Text(t *testing.T) {
	for _, st := range ViaStatuses() {
		text, _ := st.MarshalText()
		var back ViaStatus
		if err := back.UnmarshalText(text); err != nil {
			t.Errorf("UnmarshalText(%s): %v", text, err)
		}
		if back != st {
			t.Errorf("status %s decoded as %s", st, back)
		}
	}
	var st ViaStatus
	if err := st.UnmarshalText([]byte("HALF_OPEN")); err == nil {
		t.Error("expected an error for an unknown status")
	}
}

func TestViaBody_JSONKeepsLocation(t *testing.T) {
	v := NewViaBody(1, 7, geometry.Pt(3, 4))
	v.Status = ViaTopOccupied
	v.Up = BodyRef{Layer: 1, Index: 2}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var back ViaBody
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.ViaLayer() != 1 || back.Index() != 7 || back.Location() != geometry.Pt(3, 4) {
		t.Errorf("identity lost: %+v", back)
	}
	if back.UpLayer() != 1 || back.DownLayer() != 2 {
		t.Errorf("unexpected adjacent layers %d/%d", back.UpLayer(), back.DownLayer())
	}
	if back.Status != ViaTopOccupied || back.Up != v.Up || back.Down != NoBody {
		t.Errorf("state lost: %+v", back)
	}
}

func TestSoftBody_Pressure(t *testing.T) {
	sq := []geometry.Point{{X: 0, Y: 0}, {X: 0, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 0}}
	b := NewSoftBody(0, 0, SignalPower1, 3, 4, sq, nil)
	if math.Abs(b.Pressure-3) > 1e-9 {
		t.Errorf("expected pressure 3 at the initial area, got %f", b.Pressure)
	}

	b.SetContour([]geometry.Point{{X: 0, Y: 0}, {X: 0, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 0}})
	if math.Abs(b.Pressure-6) > 1e-9 {
		t.Errorf("expected pressure 6 at twice the area, got %f", b.Pressure)
	}

	zero := NewSoftBody(0, 1, SignalPower1, 3, 0, sq, nil)
	if zero.Pressure != 0 {
		t.Errorf("expected zero pressure without an initial area, got %f", zero.Pressure)
	}
	if !b.Ref().Valid() || NoBody.Valid() {
		t.Error("unexpected handle validity")
	}
}

func TestPreplace_CellsRowMajor(t *testing.T) {
	p := Preplace{{X: 2, Y: 1}: SignalPower1, {X: 0, Y: 1}: SignalPower1, {X: 5, Y: 0}: SignalObstacle}
	cells := p.Cells()
	want := []Cell{{X: 5, Y: 0}, {X: 0, Y: 1}, {X: 2, Y: 1}}
	for i := range want {
		if cells[i] != want[i] {
			t.Fatalf("cells = %v, want %v", cells, want)
		}
	}
}

func TestDesign_Layers(t *testing.T) {
	d := NewDesign("d", 10, 10, 4)
	if d.ViaLayers() != 3 {
		t.Errorf("expected 3 via layers, got %d", d.ViaLayers())
	}
	if d.TopLayer() != 0 || d.BottomLayer() != 3 {
		t.Errorf("without connectors the stack spans all layers, got %d..%d", d.TopLayer(), d.BottomLayer())
	}

	d.Connectors = []Connector{
		{Name: "c4", Layer: 2, Pads: []Pad{{Signal: SignalPower1, Width: 1, Height: 1}}},
		{Name: "ubump", Layer: 1, Pads: []Pad{{Signal: SignalPower2, Width: 1, Height: 1}}},
	}
	if d.TopLayer() != 1 || d.BottomLayer() != 2 {
		t.Errorf("expected active layers 1..2, got %d..%d", d.TopLayer(), d.BottomLayer())
	}
	if len(d.PadsOn(2)) != 1 || len(d.PadsOn(0)) != 0 {
		t.Error("PadsOn returned the wrong pads")
	}
}

func TestDesign_Validate(t *testing.T) {
	valid := func() *Design {
		d := NewDesign("d", 4, 4, 2)
		d.Connectors = []Connector{{Name: "top", Layer: 0}}
		d.Currents[SignalPower1] = 1
		d.SetMetal(1, Cell{X: 3, Y: 3}, SignalObstacle)
		d.SetVia(0, Cell{X: 4, Y: 4}, SignalPower1)
		return d
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("expected a valid design, got %v", err)
	}

	breakers := map[string]func(d *Design){
		"empty canvas":      func(d *Design) { d.Width = 0 },
		"no layers":         func(d *Design) { d.MetalLayers = 0 },
		"connector layer":   func(d *Design) { d.Connectors[0].Layer = 2 },
		"negative pad":      func(d *Design) { d.Connectors[0].Pads = []Pad{{Width: -1}} },
		"non-power current": func(d *Design) { d.Currents[SignalGround] = 1 },
		"negative current":  func(d *Design) { d.Currents[SignalPower1] = -1 },
		"metal outside":     func(d *Design) { d.SetMetal(0, Cell{X: 4, Y: 0}, SignalObstacle) },
		"via outside":       func(d *Design) { d.SetVia(0, Cell{X: 5, Y: 0}, SignalPower1) },
		"via layer":         func(d *Design) { d.SetVia(1, Cell{X: 0, Y: 0}, SignalPower1) },
	}
	for name, breakIt := range breakers {
		d := valid()
		breakIt(d)
		err := d.Validate()
		if !errors.Is(err, errors.CodeInvalidDesign) {
			t.Errorf("%s: expected INVALID_DESIGN, got %v", name, err)
		}
	}
}

func TestSimSettings_Validate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if got := DefaultSettings().MaxSpacing(); math.Abs(got-2*math.Sqrt2) > 1e-12 {
		t.Errorf("MaxSpacing = %f", got)
	}

	breakers := map[string]func(s *SimSettings){
		"spacing":    func(s *SimSettings) { s.PointSpacing = 0 },
		"margin":     func(s *SimSettings) { s.InitialMargin = -1 },
		"bins":       func(s *SimSettings) { s.RectangleBinSize = 0 },
		"iterations": func(s *SimSettings) { s.IterationMax = -1 },
		"remesh":     func(s *SimSettings) { s.RemeshInterval = -2 },
		"step":       func(s *SimSettings) { s.MaxStep = -0.1 },
		"tolerance":  func(s *SimSettings) { s.AreaTolerance = 0 },
		"workers":    func(s *SimSettings) { s.Workers = -1 },
		"policy":     func(s *SimSettings) { s.Policy = "spring" },
	}
	for name, breakIt := range breakers {
		s := DefaultSettings()
		breakIt(&s)
		if err := s.Validate(); !errors.Is(err, errors.CodeInvalidConfig) {
			t.Errorf("%s: expected INVALID_CONFIG, got %v", name, err)
		}
	}
}

func TestStatistics_Totals(t *testing.T) {
	s := Statistics{
		Layers: []LayerStats{{TotalArea: 2}, {TotalArea: 3.5}},
		ViaLayers: []ViaLayerStats{
			{Status: map[ViaStatus]int{ViaEmpty: 3, ViaStable: 1}},
			{Status: map[ViaStatus]int{ViaEmpty: 2}},
		},
	}
	if s.TotalArea() != 5.5 {
		t.Errorf("TotalArea = %f", s.TotalArea())
	}
	if s.ViaCount(ViaEmpty) != 5 || s.ViaCount(ViaBroken) != 0 {
		t.Error("ViaCount mismatch")
	}
}
