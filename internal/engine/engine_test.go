package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/geometry"
	"github.com/piwi3910/softpdn/internal/model"
)

func testSettings() model.SimSettings {
	s := model.DefaultSettings()
	s.Workers = 2
	return s
}

// twoLayerDesign has a top connector on layer 0 and a bottom connector on
// layer 1 with no pads.
func twoLayerDesign(pads ...model.Pad) *model.Design {
	d := model.NewDesign("test", 20, 20, 2)
	d.Connectors = []model.Connector{
		{Name: "ubump", Layer: 0, Pads: pads},
		{Name: "c4", Layer: 1},
	}
	d.Currents[model.SignalPower1] = 3.0
	d.Currents[model.SignalPower2] = 1.0
	return d
}

func built(t *testing.T, d *model.Design, settings model.SimSettings) *Simulator {
	t.Helper()
	s, err := New(d, settings)
	require.NoError(t, err)
	require.NoError(t, s.Build())
	return s
}

func viaAt(s *Simulator, layer int, x, y float64) *model.ViaBody {
	for i := range s.ViaLayers[layer].Vias {
		v := &s.ViaLayers[layer].Vias[i]
		if v.Location() == geometry.Pt(x, y) {
			return v
		}
	}
	return nil
}

func TestBuild_DisjointPadsApportionCurrent(t *testing.T) {
	d := twoLayerDesign(
		model.Pad{Signal: model.SignalPower1, X: 2, Y: 2, Width: 2, Height: 2},
		model.Pad{Signal: model.SignalPower1, X: 10, Y: 10, Width: 4, Height: 2},
	)
	s := built(t, d, testSettings())

	bodies := s.Layers[0].Bodies
	require.Len(t, bodies, 2)
	assert.Empty(t, s.Layers[1].Bodies)

	union := geometry.UnionBoxes([]geometry.Box{
		geometry.BoxAt(2, 2, 2, 2).Inflate(0.5),
		geometry.BoxAt(10, 10, 4, 2).Inflate(0.5),
	})
	total := bodies[0].Area() + bodies[1].Area()
	assert.InDelta(t, union.Area(), total, 1e-9)
	assert.InDelta(t, 24.0, total, 1e-9)

	assert.InDelta(t, 3.0*9/24, bodies[0].ExpectedCurrent, 1e-9)
	assert.InDelta(t, 3.0*15/24, bodies[1].ExpectedCurrent, 1e-9)
	assert.InDelta(t, 3.0, bodies[0].ExpectedCurrent+bodies[1].ExpectedCurrent, 1e-9)

	assert.Equal(t, 0, bodies[0].ID)
	assert.Equal(t, 1, bodies[1].ID)
	for _, b := range bodies {
		assert.Equal(t, model.SignalPower1, b.Signal)
		assert.InDelta(t, b.ExpectedCurrent, b.Pressure, 1e-9, "pressure equals current at the initial area")
		for i := range b.Contour {
			next := b.Contour[(i+1)%len(b.Contour)]
			assert.LessOrEqual(t, b.Contour[i].Distance(next), 0.5+1e-9)
		}
		assert.Less(t, geometry.SignedArea(b.Contour), 0.0, "contour is clockwise")
	}
}

func TestBuild_OverlappingPadsMerge(t *testing.T) {
	d := twoLayerDesign(
		model.Pad{Signal: model.SignalPower1, X: 2, Y: 2, Width: 3, Height: 3},
		model.Pad{Signal: model.SignalPower1, X: 4, Y: 4, Width: 3, Height: 3},
		model.Pad{Signal: model.SignalGround, X: 12, Y: 12, Width: 3, Height: 3},
	)
	s := built(t, d, testSettings())
	require.Len(t, s.Layers[0].Bodies, 1, "ground pads do not form bodies")
	assert.InDelta(t, 3.0, s.Layers[0].Bodies[0].ExpectedCurrent, 1e-9)
}

func TestClassify_TopOccupiedScenario(t *testing.T) {
	d := twoLayerDesign(model.Pad{Signal: model.SignalPower1, X: 2, Y: 2, Width: 2, Height: 2})
	s := built(t, d, testSettings())

	require.Len(t, s.ViaLayers, 1)
	assert.Len(t, s.ViaLayers[0].Vias, 21*21)

	via := viaAt(s, 0, 3, 3)
	require.NotNil(t, via)
	assert.Equal(t, model.ViaTopOccupied, via.Status)
	assert.True(t, via.UpFixed)
	assert.False(t, via.DownFixed)
	assert.Equal(t, model.SignalPower1, via.ActiveSignal)

	body := s.Body(via.Up)
	require.NotNil(t, body)
	assert.Contains(t, body.HardVias, via.Ref())

	far := viaAt(s, 0, 15, 15)
	require.NotNil(t, far)
	assert.Equal(t, model.ViaEmpty, far.Status)
	assert.Equal(t, 21*21-len(body.HardVias), s.emptyVias[0].Len())
	assert.Equal(t, len(body.HardVias), s.fixedVias[0].Len())
}

func TestClassify_BrokenNotIndexed(t *testing.T) {
	d := twoLayerDesign(model.Pad{Signal: model.SignalPower1, X: 2, Y: 2, Width: 2, Height: 2})
	d.Connectors[1].Pads = []model.Pad{{Signal: model.SignalPower2, X: 2, Y: 2, Width: 2, Height: 2}}
	s := built(t, d, testSettings())

	via := viaAt(s, 0, 3, 3)
	require.NotNil(t, via)
	assert.Equal(t, model.ViaBroken, via.Status)
	assert.False(t, via.UpFixed)
	for _, l := range s.Layers {
		for _, b := range l.Bodies {
			assert.NotContains(t, b.HardVias, via.Ref())
		}
	}
	for _, e := range s.emptyVias[0].Query(3, 3, 3, 3) {
		assert.NotEqual(t, via.Ref(), e.Object)
	}
	assert.Empty(t, s.fixedVias[0].Query(3, 3, 3, 3))
}

func TestClassify_PreplacedVias(t *testing.T) {
	d := twoLayerDesign(model.Pad{Signal: model.SignalPower1, X: 2, Y: 2, Width: 2, Height: 2})
	d.SetVia(0, model.Cell{X: 8, Y: 8}, model.SignalObstacle)
	d.SetVia(0, model.Cell{X: 15, Y: 15}, model.SignalPower1)
	s := built(t, d, testSettings())

	assert.Len(t, s.ViaLayers[0].Vias, 21*21, "preplaced locations are not scanned twice")

	obst := viaAt(s, 0, 8, 8)
	require.NotNil(t, obst)
	assert.True(t, obst.IsPreplaced)
	assert.Equal(t, model.ViaUnknown, obst.Status)

	anchor := viaAt(s, 0, 15, 15)
	require.NotNil(t, anchor)
	assert.Equal(t, model.ViaTopOccupied, anchor.Status, "construction never reports STABLE")
	assert.True(t, anchor.UpFixed && anchor.DownFixed)
	assert.Contains(t, s.Body(anchor.Up).HardVias, anchor.Ref())
	assert.Contains(t, s.Body(anchor.Down).HardVias, anchor.Ref())
	assert.Len(t, s.Layers[1].Bodies, 1, "preplaced power via seeds the lower layer")
	assert.InDelta(t, 1.0, s.Layers[1].Bodies[0].Area(), 1e-9)

	for _, vl := range s.ViaLayers {
		for _, v := range vl.Vias {
			assert.NotEqual(t, model.ViaStable, v.Status)
			assert.NotEqual(t, model.ViaUnstable, v.Status)
		}
	}

	s.Finalize()
	assert.Equal(t, model.ViaStable, anchor.Status)
	assert.Equal(t, model.SignalPower1, anchor.ActiveSignal)
}

func TestBuild_ZeroAreaNetFails(t *testing.T) {
	d := twoLayerDesign()
	d.SetVia(0, model.Cell{X: 5, Y: 5}, model.SignalPower2)
	settings := testSettings()
	settings.InitialMargin = 0

	s, err := New(d, settings)
	require.NoError(t, err)
	err = s.Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeFailedConstruction))
}

func TestNew_RejectsInvalidInput(t *testing.T) {
	_, err := New(nil, testSettings())
	assert.Error(t, err)

	bad := testSettings()
	bad.PointSpacing = -1
	_, err = New(twoLayerDesign(), bad)
	assert.True(t, errors.Is(err, errors.CodeInvalidConfig))
}

func TestInflate_PressureGrowsBody(t *testing.T) {
	d := twoLayerDesign(model.Pad{Signal: model.SignalPower1, X: 8, Y: 8, Width: 4, Height: 4})
	d.Currents[model.SignalPower1] = 1.0
	settings := testSettings()
	settings.Policy = model.PolicyPressureOnly
	settings.IterationMax = 5
	s := built(t, d, settings)

	before := s.Layers[0].Bodies[0].Area()
	s.Inflate()
	assert.Equal(t, 5, s.Iteration())

	b := s.Layers[0].Bodies[0]
	assert.Greater(t, b.Area(), before)
	assert.Greater(t, b.Pressure, 1.0)
	assert.False(t, geometry.Ring(b.Contour).SelfIntersects())
	canvas := d.Canvas()
	for _, p := range b.Contour {
		assert.True(t, canvas.ContainsPoint(p, true))
	}
}

func TestInflate_StaysInsideCanvas(t *testing.T) {
	d := twoLayerDesign(model.Pad{Signal: model.SignalPower1, X: 0, Y: 0, Width: 19, Height: 19})
	settings := testSettings()
	settings.StepSize = 1
	settings.MaxStep = 1
	settings.IterationMax = 3
	s := built(t, d, settings)
	s.Inflate()
	for _, p := range s.Layers[0].Bodies[0].Contour {
		assert.True(t, d.Canvas().ContainsPoint(p, true), "point %v outside canvas", p)
	}
}

func interleavedDesign() *model.Design {
	return twoLayerDesign(
		model.Pad{Signal: model.SignalPower1, X: 2, Y: 8, Width: 3, Height: 3},
		model.Pad{Signal: model.SignalPower2, X: 8, Y: 8, Width: 3, Height: 3},
		model.Pad{Signal: model.SignalPower1, X: 14, Y: 8, Width: 3, Height: 3},
	)
}

func TestInflate_IndependentOfWorkerCount(t *testing.T) {
	contours := func(workers int) [][]geometry.Point {
		settings := model.DefaultSettings()
		settings.Workers = workers
		settings.IterationMax = 10
		s := built(t, interleavedDesign(), settings)
		s.Inflate()
		var out [][]geometry.Point
		for _, b := range s.Layers[0].Bodies {
			out = append(out, b.Contour)
		}
		return out
	}

	serial := contours(1)
	wide := contours(8)
	require.Len(t, serial, 3)
	require.Equal(t, len(serial), len(wide))
	for i := range serial {
		assert.Equal(t, serial[i], wide[i], "body %d", i)
	}
}

func TestInflate_DifferentNetsNeverOverlap(t *testing.T) {
	d := twoLayerDesign(
		model.Pad{Signal: model.SignalPower1, X: 4, Y: 8, Width: 3, Height: 3},
		model.Pad{Signal: model.SignalPower2, X: 10, Y: 8, Width: 3, Height: 3},
	)
	settings := testSettings()
	s := built(t, d, settings)
	bodies := s.Layers[0].Bodies
	require.Len(t, bodies, 2)
	require.False(t, bodies[0].Shape().Intersects(bodies[1].Shape()))

	for i := 0; i < 40; i++ {
		s.Step()
		a, b := &s.Layers[0].Bodies[0], &s.Layers[0].Bodies[1]
		require.False(t, a.Shape().Intersects(b.Shape()), "bodies overlap after step %d", i+1)
	}
	assert.Greater(t, s.Layers[0].Bodies[0].Area(), 16.0, "bodies still grow")
}

func TestFinalize_StableAndUnstable(t *testing.T) {
	d := twoLayerDesign(model.Pad{Signal: model.SignalPower1, X: 2, Y: 2, Width: 2, Height: 2})
	d.Connectors[1].Pads = []model.Pad{
		{Signal: model.SignalPower1, X: 14, Y: 2, Width: 2, Height: 2},
		{Signal: model.SignalPower2, X: 14, Y: 14, Width: 2, Height: 2},
	}
	s := built(t, d, testSettings())
	require.Equal(t, model.ViaEmpty, viaAt(s, 0, 8, 3).Status)
	require.Equal(t, model.ViaEmpty, viaAt(s, 0, 8, 12).Status)

	s.Layers[0].Bodies[0].SetContour(geometry.BoxAt(1, 1, 18, 18).Polygon().Outer.Open())
	s.Layers[1].Bodies[0].SetContour(geometry.BoxAt(6, 1, 10, 4).Polygon().Outer.Open())
	s.Layers[1].Bodies[1].SetContour(geometry.BoxAt(6, 10, 10, 4).Polygon().Outer.Open())
	s.Finalize()

	stable := viaAt(s, 0, 8, 3)
	assert.Equal(t, model.ViaStable, stable.Status)
	assert.Equal(t, model.SignalPower1, stable.ActiveSignal)
	assert.Equal(t, model.ViaUnstable, viaAt(s, 0, 8, 12).Status)
	assert.Equal(t, model.ViaEmpty, viaAt(s, 0, 18, 8).Status, "one-sided coverage stays empty")
}

func TestRun_ProducesResult(t *testing.T) {
	d := twoLayerDesign(
		model.Pad{Signal: model.SignalPower1, X: 2, Y: 2, Width: 3, Height: 3},
		model.Pad{Signal: model.SignalPower2, X: 12, Y: 12, Width: 3, Height: 3},
	)
	settings := testSettings()
	settings.IterationMax = 3
	res, err := Run(d, settings)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "test", res.Design)
	require.Len(t, res.Layers, 2)
	require.Len(t, res.Stats.Layers, 2)
	assert.Equal(t, 2, res.Stats.Layers[0].Bodies)
	assert.Equal(t, 1, res.Stats.Layers[0].Fragments[model.SignalPower1])
	assert.Greater(t, res.Stats.TotalArea(), 18.0)
	require.Len(t, res.Stats.ViaLayers, 1)
	assert.Equal(t, 21*21, res.Stats.ViaLayers[0].Vias)
	assert.InDelta(t, 1.0, res.Stats.ViaLayers[0].AvgViaDistance, 1e-9, "empty vias sit on a unit lattice")
}

func TestCompareScenarios(t *testing.T) {
	d := twoLayerDesign(model.Pad{Signal: model.SignalPower1, X: 5, Y: 5, Width: 3, Height: 3})
	base := testSettings()
	base.IterationMax = 2
	scenarios := BuildDefaultScenarios(base)
	require.Len(t, scenarios, 5)
	assert.Equal(t, 4, scenarios[1].Settings.IterationMax)
	assert.Equal(t, model.PolicyPressureOnly, scenarios[4].Settings.Policy)

	results := CompareScenarios(d, scenarios)
	require.Len(t, results, 5)
	for _, r := range results {
		require.NoError(t, r.Err, r.Scenario.Name)
		assert.Greater(t, r.TotalArea, 0.0)
	}
	assert.Greater(t, results[1].TotalArea, results[0].TotalArea, "more iterations grow further")
}

func TestDensify(t *testing.T) {
	ring := geometry.BoxAt(0, 0, 2, 1).Polygon().Outer.Open()
	out := Densify(ring, 0.5)
	assert.Len(t, out, 12)
	for i := range out {
		assert.LessOrEqual(t, out[i].Distance(out[(i+1)%len(out)]), 0.5+1e-12)
	}
}

func TestRemesh_PreservesAreaAndSpacing(t *testing.T) {
	square := geometry.BoxAt(0, 0, 10, 10).Polygon().Outer.Open()
	opt := RemeshOptions{MinDelta: 0.5, MaxDelta: 4 * math.Sqrt2 * 0.5, CurvatureThreshold: 0.2, AreaTolerance: 1e-9}

	out := Remesh(square, opt)
	require.Greater(t, len(out), 4)
	assert.InDelta(t, 100.0, math.Abs(geometry.SignedArea(out)), 1e-6)
	assert.Less(t, geometry.SignedArea(out), 0.0, "orientation is kept")
	for i := range out {
		d := out[i].Distance(out[(i+1)%len(out)])
		assert.GreaterOrEqual(t, d, opt.MinDelta)
		assert.LessOrEqual(t, d, opt.MaxDelta)
	}
}

func TestRemesh_MergesShortSegments(t *testing.T) {
	var ring []geometry.Point
	for i := 0; i < 40; i++ {
		a := 2 * math.Pi * float64(i) / 40
		ring = append(ring, geometry.Pt(5+3*math.Cos(a), 5-3*math.Sin(a)))
	}
	opt := RemeshOptions{MinDelta: 1.0, MaxDelta: 4 * math.Sqrt2, CurvatureThreshold: 0.2, AreaTolerance: 1e-9}
	out := Remesh(ring, opt)

	assert.Less(t, len(out), len(ring))
	assert.InDelta(t, math.Abs(geometry.SignedArea(ring)), math.Abs(geometry.SignedArea(out)), 1e-6)
}

func TestRemesh_CurvedRingUsesBezier(t *testing.T) {
	settings := model.DefaultSettings()
	opt := RemeshOptions{
		MinDelta:           settings.PointSpacing,
		MaxDelta:           settings.MaxSpacing(),
		CurvatureThreshold: settings.CurvatureThreshold,
		AreaTolerance:      settings.AreaTolerance,
	}
	for _, sides := range []int{6, 8, 12} {
		var ring []geometry.Point
		for i := 0; i < sides; i++ {
			a := 2 * math.Pi * float64(i) / float64(sides)
			ring = append(ring, geometry.Pt(10+10*math.Cos(a), 10-10*math.Sin(a)))
		}
		want := math.Abs(geometry.SignedArea(ring))

		out := Remesh(ring, opt)
		require.Greater(t, len(out), sides, "%d-gon is subdivided", sides)
		assert.InDelta(t, 0, math.Abs(math.Abs(geometry.SignedArea(out))-want)/want, 1e-6, "%d-gon area", sides)
		assert.False(t, geometry.Ring(out).SelfIntersects(), "%d-gon self-intersects", sides)
		for i := range out {
			d := out[i].Distance(out[(i+1)%len(out)])
			assert.GreaterOrEqual(t, d, opt.MinDelta, "%d-gon segment %d", sides, i)
			assert.LessOrEqual(t, d, opt.MaxDelta, "%d-gon segment %d", sides, i)
		}

		// the split points leave the straight chord
		off := 0
		for _, p := range out {
			onChord := false
			for i := range ring {
				if geometry.SegmentDistance(p, ring[i], ring[(i+1)%sides]) < 1e-9 {
					onChord = true
					break
				}
			}
			if !onChord {
				off++
			}
		}
		assert.Greater(t, off, 0, "%d-gon follows a curve", sides)
	}
}

func TestRemesh_TooFewPointsIsNoop(t *testing.T) {
	tri := []geometry.Point{{X: 0, Y: 0}, {X: 0, Y: 5}, {X: 5, Y: 0}}
	assert.Equal(t, tri, Remesh(tri, RemeshOptions{MinDelta: 0.5, MaxDelta: 1, AreaTolerance: 1e-9}))
}

func TestDefaultPolicy_Terms(t *testing.T) {
	p := DefaultPolicy{Forces: model.Forces{Curvature: 1}}
	ctx := &ForceContext{
		Body:  &model.SoftBody{Signal: model.SignalPower1},
		Prev:  geometry.Pt(0, 0),
		Point: geometry.Pt(1, 1),
		Next:  geometry.Pt(2, 0),
	}
	f := p.Force(ctx)
	assert.InDelta(t, 0.0, f.X, 1e-12)
	assert.InDelta(t, -1.0, f.Y, 1e-12, "curvature pulls toward the chord midpoint")

	assert.Equal(t, geometry.Point{}, PressureOnly{}.Force(ctx))
	assert.InDelta(t, 0.5, falloff(1, 1, 2), 1e-12)
	assert.Equal(t, 0.0, falloff(1, 2, 2))
}

func TestDefaultPolicy_RepelsOtherNets(t *testing.T) {
	d := twoLayerDesign(
		model.Pad{Signal: model.SignalPower1, X: 2, Y: 2, Width: 3, Height: 3},
		model.Pad{Signal: model.SignalPower2, X: 6.5, Y: 2, Width: 3, Height: 3},
	)
	settings := testSettings()
	s := built(t, d, settings)
	s.rebuildIndexes()

	left := &s.Layers[0].Bodies[0]
	require.Equal(t, model.SignalPower1, left.Signal)
	nb := s.neighborhood(0)
	p := DefaultPolicy{Forces: model.Forces{RepelRadius: 2, RepelStrength: 1}}

	// a point on the right edge of the left body faces the other net
	ctx := &ForceContext{
		Body:      left,
		Prev:      geometry.Pt(5.5, 3),
		Point:     geometry.Pt(5.5, 3.5),
		Next:      geometry.Pt(5.5, 4),
		Normal:    geometry.Pt(1, 0),
		Neighbors: nb,
	}
	f := p.Force(ctx)
	assert.Less(t, f.X, 0.0)
}

func TestCheckClearance(t *testing.T) {
	a := model.NewSoftBody(0, 0, model.SignalPower1, 1, 4, geometry.BoxAt(0, 0, 2, 2).Polygon().Outer.Open(), nil)
	b := model.NewSoftBody(0, 1, model.SignalPower2, 1, 4, geometry.BoxAt(2.3, 0, 2, 2).Polygon().Outer.Open(), nil)
	c := model.NewSoftBody(0, 2, model.SignalPower1, 1, 4, geometry.BoxAt(4.6, 0, 2, 2).Polygon().Outer.Open(), nil)
	layers := []model.MetalLayer{{Index: 0, Bodies: []model.SoftBody{a, b, c}}}

	v := CheckClearance(layers, geometry.BoxAt(0, 0, 10, 10), 0.5, 5)
	require.Len(t, v, 2)
	for _, violation := range v {
		assert.InDelta(t, 0.3, violation.Distance, 1e-9)
		assert.NotEqual(t, violation.SignalA, violation.SignalB)
	}
	assert.Empty(t, CheckClearance(layers, geometry.BoxAt(0, 0, 10, 10), 0.2, 5))
}

func TestLayerStatistics_Fragments(t *testing.T) {
	a := model.NewSoftBody(0, 0, model.SignalPower1, 1, 4, geometry.BoxAt(0, 0, 2, 2).Polygon().Outer.Open(), nil)
	b := model.NewSoftBody(0, 1, model.SignalPower1, 1, 4, geometry.BoxAt(1, 1, 2, 2).Polygon().Outer.Open(), nil)
	c := model.NewSoftBody(0, 2, model.SignalPower1, 2, 4, geometry.BoxAt(6, 6, 2, 2).Polygon().Outer.Open(), nil)
	d := model.NewSoftBody(0, 3, model.SignalPower2, 1, 4, geometry.BoxAt(1.5, 1.5, 1, 1).Polygon().Outer.Open(), nil)
	layer := model.MetalLayer{Index: 0, Bodies: []model.SoftBody{a, b, c, d}}

	ls := LayerStatistics(&layer)
	assert.Equal(t, 4, ls.Bodies)
	assert.Equal(t, 2, ls.Fragments[model.SignalPower1])
	assert.Equal(t, 1, ls.Fragments[model.SignalPower2])
	assert.InDelta(t, 13.0, ls.TotalArea, 1e-9)
	assert.InDelta(t, 0.25, ls.MinPressure, 1e-9)
	assert.InDelta(t, 2.0, ls.MaxPressure, 1e-9)
}
