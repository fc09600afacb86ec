package model

import (
	"sort"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/geometry"
)

// Cell is an integer grid coordinate. On metal layers it names the unit
// square [X, X+1] × [Y, Y+1]; on via layers it names a pin location.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Point returns the cell's lower-left corner.
func (c Cell) Point() geometry.Point {
	return geometry.Pt(float64(c.X), float64(c.Y))
}

// Preplace maps cells to the signal preplaced on them.
type Preplace map[Cell]Signal

// Cells returns the preplaced cells in row-major order.
func (p Preplace) Cells() []Cell {
	out := make([]Cell, 0, len(p))
	for c := range p {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// Pad is a connector landing footprint of a single net.
type Pad struct {
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Signal Signal  `json:"signal" yaml:"signal"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Box returns the pad footprint.
func (p Pad) Box() geometry.Box {
	return geometry.BoxAt(p.X, p.Y, p.Width, p.Height)
}

// Connector is a set of pads landing on one metal layer, such as the
// micro-bump array on top or the C4 array at the bottom.
type Connector struct {
	Name  string `json:"name" yaml:"name"`
	Layer int    `json:"layer" yaml:"layer"`
	Pads  []Pad  `json:"pads" yaml:"pads"`
}

// Design is the read-only snapshot a simulation is built from. The metal
// canvas is Width × Height unit cells; via pins sit on the (Width+1) ×
// (Height+1) integer lattice.
type Design struct {
	Name        string             `json:"name"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	MetalLayers int                `json:"metal_layers"`
	Connectors  []Connector        `json:"connectors"`
	Currents    map[Signal]float64 `json:"currents"`
	Metal       map[int]Preplace   `json:"-"`
	Vias        map[int]Preplace   `json:"-"`
}

// NewDesign creates an empty design with the given canvas.
func NewDesign(name string, width, height, layers int) *Design {
	return &Design{
		Name:        name,
		Width:       width,
		Height:      height,
		MetalLayers: layers,
		Currents:    make(map[Signal]float64),
		Metal:       make(map[int]Preplace),
		Vias:        make(map[int]Preplace),
	}
}

// ViaLayers returns the number of via layers between the metal layers.
func (d *Design) ViaLayers() int {
	return max(d.MetalLayers-1, 0)
}

// TopLayer is the shallowest metal layer carrying a connector.
func (d *Design) TopLayer() int {
	if len(d.Connectors) == 0 {
		return 0
	}
	top := d.Connectors[0].Layer
	for _, c := range d.Connectors[1:] {
		top = min(top, c.Layer)
	}
	return top
}

// BottomLayer is the deepest metal layer carrying a connector.
func (d *Design) BottomLayer() int {
	if len(d.Connectors) == 0 {
		return d.MetalLayers - 1
	}
	bottom := d.Connectors[0].Layer
	for _, c := range d.Connectors[1:] {
		bottom = max(bottom, c.Layer)
	}
	return bottom
}

// PadsOn returns every connector pad landing on layer.
func (d *Design) PadsOn(layer int) []Pad {
	var out []Pad
	for _, c := range d.Connectors {
		if c.Layer == layer {
			out = append(out, c.Pads...)
		}
	}
	return out
}

// Canvas returns the metal canvas box.
func (d *Design) Canvas() geometry.Box {
	return geometry.BoxAt(0, 0, float64(d.Width), float64(d.Height))
}

// SetMetal records a preplaced metal cell.
func (d *Design) SetMetal(layer int, c Cell, sig Signal) {
	if d.Metal == nil {
		d.Metal = make(map[int]Preplace)
	}
	if d.Metal[layer] == nil {
		d.Metal[layer] = make(Preplace)
	}
	d.Metal[layer][c] = sig
}

// SetVia records a preplaced via pin.
func (d *Design) SetVia(layer int, c Cell, sig Signal) {
	if d.Vias == nil {
		d.Vias = make(map[int]Preplace)
	}
	if d.Vias[layer] == nil {
		d.Vias[layer] = make(Preplace)
	}
	d.Vias[layer][c] = sig
}

// Validate checks the structural consistency of the design.
func (d *Design) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return errors.New(errors.CodeInvalidDesign, "canvas must be positive, got %dx%d", d.Width, d.Height)
	}
	if d.MetalLayers < 1 {
		return errors.New(errors.CodeInvalidDesign, "at least one metal layer is required, got %d", d.MetalLayers)
	}
	for _, c := range d.Connectors {
		if c.Layer < 0 || c.Layer >= d.MetalLayers {
			return errors.New(errors.CodeInvalidDesign, "connector %q on layer %d outside 0..%d", c.Name, c.Layer, d.MetalLayers-1)
		}
		for _, p := range c.Pads {
			if p.Width < 0 || p.Height < 0 {
				return errors.New(errors.CodeInvalidDesign, "connector %q has a pad with negative size", c.Name)
			}
		}
	}
	for sig, cur := range d.Currents {
		if !sig.IsPower() {
			return errors.New(errors.CodeInvalidDesign, "current requirement given for non-power signal %s", sig)
		}
		if cur < 0 {
			return errors.New(errors.CodeInvalidDesign, "negative current requirement %g for %s", cur, sig)
		}
	}
	for layer, pp := range d.Metal {
		if layer < 0 || layer >= d.MetalLayers {
			return errors.New(errors.CodeInvalidDesign, "preplaced metal layer %d outside 0..%d", layer, d.MetalLayers-1)
		}
		for c := range pp {
			if c.X < 0 || c.Y < 0 || c.X >= d.Width || c.Y >= d.Height {
				return errors.New(errors.CodeInvalidDesign, "preplaced metal cell (%d, %d) on layer %d outside canvas", c.X, c.Y, layer)
			}
		}
	}
	for layer, pp := range d.Vias {
		if layer < 0 || layer >= d.ViaLayers() {
			return errors.New(errors.CodeInvalidDesign, "preplaced via layer %d outside 0..%d", layer, d.ViaLayers()-1)
		}
		for c := range pp {
			if c.X < 0 || c.Y < 0 || c.X > d.Width || c.Y > d.Height {
				return errors.New(errors.CodeInvalidDesign, "preplaced via (%d, %d) on layer %d outside pin grid", c.X, c.Y, layer)
			}
		}
	}
	return nil
}
