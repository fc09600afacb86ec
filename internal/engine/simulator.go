package engine

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/geometry"
	"github.com/piwi3910/softpdn/internal/model"
	"github.com/piwi3910/softpdn/internal/spatial"
)

type (
	bodyPoints = spatial.PointIndex[float64, model.BodyRef]
	bodyRects  = spatial.RectIndex[float64, model.BodyRef]
	viaPoints  = spatial.PointIndex[float64, model.ViaRef]
)

// Simulator owns the soft bodies and vias of one design and evolves them.
// Layers and ViaLayers are arenas indexed by layer number; every
// cross-reference between bodies and vias is a handle into them.
type Simulator struct {
	Settings model.SimSettings

	Layers    []model.MetalLayer
	ViaLayers []model.ViaLayer

	design *model.Design
	policy ForcePolicy
	logger *log.Logger

	rects     []*bodyRects  // per metal layer, body bounding boxes
	points    []*bodyPoints // per metal layer, contour points
	emptyVias []*viaPoints  // per via layer, EMPTY vias
	fixedVias []*viaPoints  // per via layer, vias anchored to a body

	iteration int
	built     bool
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger routes progress messages to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// WithPolicy overrides the force policy chosen by the settings.
func WithPolicy(p ForcePolicy) Option {
	return func(s *Simulator) { s.policy = p }
}

// New validates the inputs and prepares an empty simulator. Call Build
// before relaxing.
func New(design *model.Design, settings model.SimSettings, opts ...Option) (*Simulator, error) {
	if design == nil {
		return nil, errors.New(errors.CodeInvalidDesign, "no design given")
	}
	if err := design.Validate(); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		Settings: settings,
		design:   design,
		policy:   PolicyFor(settings),
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Design returns the design the simulator was created from.
func (s *Simulator) Design() *model.Design {
	return s.design
}

// Iteration returns the number of completed relaxation steps.
func (s *Simulator) Iteration() int {
	return s.iteration
}

// Body resolves a body handle.
func (s *Simulator) Body(ref model.BodyRef) *model.SoftBody {
	if ref.Layer < 0 || ref.Layer >= len(s.Layers) {
		return nil
	}
	return s.Layers[ref.Layer].Body(ref)
}

// Via resolves a via handle.
func (s *Simulator) Via(ref model.ViaRef) *model.ViaBody {
	if ref.Layer < 0 || ref.Layer >= len(s.ViaLayers) {
		return nil
	}
	return s.ViaLayers[ref.Layer].Via(ref)
}

// activeLayers returns the metal layers between the connectors, top first.
func (s *Simulator) activeLayers() []int {
	top, bottom := s.design.TopLayer(), s.design.BottomLayer()
	out := make([]int, 0, bottom-top+1)
	for l := top; l <= bottom; l++ {
		out = append(out, l)
	}
	return out
}

func (s *Simulator) canvas() geometry.Box {
	return s.design.Canvas()
}

func (s *Simulator) newBodyIndexes() (*bodyRects, *bodyPoints) {
	c := s.canvas()
	return spatial.NewRectIndex[float64, model.BodyRef](s.Settings.RectangleBinSize, c.Min.X, c.Min.Y, c.Max.X, c.Max.Y),
		spatial.NewPointIndex[float64, model.BodyRef](s.Settings.PointBinSize, c.Min.X, c.Min.Y, c.Max.X, c.Max.Y)
}

func (s *Simulator) newViaIndex() *viaPoints {
	c := s.canvas()
	return spatial.NewPointIndex[float64, model.ViaRef](s.Settings.PointBinSize, c.Min.X, c.Min.Y, c.Max.X, c.Max.Y)
}

// Run builds the design, relaxes it for the configured number of
// iterations and returns the analysed result.
func Run(design *model.Design, settings model.SimSettings, opts ...Option) (model.Result, error) {
	s, err := New(design, settings, opts...)
	if err != nil {
		return model.Result{}, err
	}
	defer s.Close()
	if err := s.Build(); err != nil {
		return model.Result{}, err
	}
	s.Inflate()
	s.Finalize()
	return s.Result(), nil
}

// Result snapshots the current state with statistics and clearance
// violations. The returned layers are deep copies.
func (s *Simulator) Result() model.Result {
	res := model.Result{
		RunID:     uuid.New().String(),
		Design:    s.design.Name,
		Width:     s.design.Width,
		Height:    s.design.Height,
		Settings:  s.Settings,
		Layers:    copyLayers(s.Layers),
		ViaLayers: copyViaLayers(s.ViaLayers),
		Stats:     s.CollectStatistics(),
	}
	if s.Settings.Clearance > 0 {
		res.Violations = CheckClearance(res.Layers, s.canvas(), s.Settings.Clearance, s.Settings.RectangleBinSize)
	}
	return res
}

func copyLayers(in []model.MetalLayer) []model.MetalLayer {
	out := make([]model.MetalLayer, len(in))
	for i, l := range in {
		out[i] = model.MetalLayer{Index: l.Index, Bodies: make([]model.SoftBody, len(l.Bodies))}
		for j, b := range l.Bodies {
			b.Contour = append([]geometry.Point(nil), b.Contour...)
			b.HardVias = append([]model.ViaRef(nil), b.HardVias...)
			out[i].Bodies[j] = b
		}
	}
	return out
}

func copyViaLayers(in []model.ViaLayer) []model.ViaLayer {
	out := make([]model.ViaLayer, len(in))
	for i, l := range in {
		out[i] = model.ViaLayer{Index: l.Index, Vias: append([]model.ViaBody(nil), l.Vias...)}
	}
	return out
}

// Close releases the arenas and indexes.
func (s *Simulator) Close() {
	s.Layers = nil
	s.ViaLayers = nil
	s.rects = nil
	s.points = nil
	s.emptyVias = nil
	s.fixedVias = nil
	s.built = false
}
