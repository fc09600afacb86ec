package model

import (
	"math"

	"github.com/piwi3910/softpdn/internal/errors"
)

// PolicyName selects the force policy used during relaxation.
type PolicyName string

const (
	PolicyDefault      PolicyName = "default"       // pressure plus curvature, neighbour and via forces
	PolicyPressureOnly PolicyName = "pressure-only" // pressure along the normal only
)

// SimSettings holds the construction and relaxation parameters.
type SimSettings struct {
	// Construction
	PointSpacing     float64 `json:"point_spacing" toml:"point_spacing"`           // Minimum contour point spacing (minDelta)
	InitialMargin    float64 `json:"initial_margin" toml:"initial_margin"`         // Inflation applied to pads and preplaced vias
	PointBinSize     float64 `json:"point_bin_size" toml:"point_bin_size"`         // Cell size of point indexes
	RectangleBinSize float64 `json:"rectangle_bin_size" toml:"rectangle_bin_size"` // Cell size of rectangle indexes

	// Relaxation
	IterationMax       int        `json:"iteration_max" toml:"iteration_max"`             // Number of relaxation iterations
	RemeshInterval     int        `json:"remesh_interval" toml:"remesh_interval"`         // Remesh every N iterations; 0 disables
	CurvatureThreshold float64    `json:"curvature_threshold" toml:"curvature_threshold"` // Tangent turn (radians) below which segments are lerped
	StepSize           float64    `json:"step_size" toml:"step_size"`                     // Displacement per unit force
	MaxStep            float64    `json:"max_step" toml:"max_step"`                       // Cap on a single point's displacement
	PressureGain       float64    `json:"pressure_gain" toml:"pressure_gain"`             // Scale of the pressure term
	AreaTolerance      float64    `json:"area_tolerance" toml:"area_tolerance"`           // Relative area error accepted after remeshing
	Policy             PolicyName `json:"policy" toml:"policy"`                           // Force policy
	Forces             Forces     `json:"forces" toml:"forces"`                           // Default policy parameters

	// Analysis
	Clearance float64 `json:"clearance" toml:"clearance"` // Minimum spacing between different nets

	Workers int `json:"workers" toml:"workers"` // Parallel workers; 0 uses GOMAXPROCS
}

// Forces parameterises the default force policy. A zero strength or
// radius disables that term.
type Forces struct {
	Curvature        float64 `json:"curvature" toml:"curvature"`                   // Pull toward the neighbour chord midpoint
	AttractRadius    float64 `json:"attract_radius" toml:"attract_radius"`         // Same-net attraction range
	AttractStrength  float64 `json:"attract_strength" toml:"attract_strength"`     // Same-net attraction at zero distance
	RepelRadius      float64 `json:"repel_radius" toml:"repel_radius"`             // Different-net repulsion range
	RepelStrength    float64 `json:"repel_strength" toml:"repel_strength"`         // Different-net repulsion at zero distance
	EmptyViaRadius   float64 `json:"empty_via_radius" toml:"empty_via_radius"`     // Range of empty-via attraction
	EmptyViaStrength float64 `json:"empty_via_strength" toml:"empty_via_strength"` // Empty-via attraction at zero distance
	SameViaRadius    float64 `json:"same_via_radius" toml:"same_via_radius"`       // Range of same-net occupied-via attraction
	SameViaStrength  float64 `json:"same_via_strength" toml:"same_via_strength"`   // Same-net occupied-via attraction at zero distance
}

// DefaultSettings returns the parameters used when no configuration is
// supplied.
func DefaultSettings() SimSettings {
	return SimSettings{
		PointSpacing:       0.5,
		InitialMargin:      0.5,
		PointBinSize:       2.0,
		RectangleBinSize:   5.0,
		IterationMax:       10,
		RemeshInterval:     1,
		CurvatureThreshold: 0.2,
		StepSize:           0.05,
		MaxStep:            0.25,
		PressureGain:       1.0,
		AreaTolerance:      1e-9,
		Policy:             PolicyDefault,
		Forces: Forces{
			Curvature:        0.5,
			AttractRadius:    1.5,
			AttractStrength:  0.5,
			RepelRadius:      1.5,
			RepelStrength:    2.0,
			EmptyViaRadius:   1.5,
			EmptyViaStrength: 0.5,
			SameViaRadius:    2.0,
			SameViaStrength:  1.0,
		},
		Clearance: 0.5,
	}
}

// MaxSpacing is the upper bound on contour point spacing, 4√2 × minDelta.
func (s SimSettings) MaxSpacing() float64 {
	return 4 * math.Sqrt2 * s.PointSpacing
}

// Validate rejects settings the engine cannot run with.
func (s SimSettings) Validate() error {
	switch {
	case s.PointSpacing <= 0:
		return errors.New(errors.CodeInvalidConfig, "point_spacing must be positive, got %g", s.PointSpacing)
	case s.InitialMargin < 0:
		return errors.New(errors.CodeInvalidConfig, "initial_margin must not be negative, got %g", s.InitialMargin)
	case s.PointBinSize <= 0 || s.RectangleBinSize <= 0:
		return errors.New(errors.CodeInvalidConfig, "bin sizes must be positive, got %g and %g", s.PointBinSize, s.RectangleBinSize)
	case s.IterationMax < 0:
		return errors.New(errors.CodeInvalidConfig, "iteration_max must not be negative, got %d", s.IterationMax)
	case s.RemeshInterval < 0:
		return errors.New(errors.CodeInvalidConfig, "remesh_interval must not be negative, got %d", s.RemeshInterval)
	case s.StepSize < 0 || s.MaxStep < 0:
		return errors.New(errors.CodeInvalidConfig, "step sizes must not be negative")
	case s.AreaTolerance <= 0:
		return errors.New(errors.CodeInvalidConfig, "area_tolerance must be positive, got %g", s.AreaTolerance)
	case s.Workers < 0:
		return errors.New(errors.CodeInvalidConfig, "workers must not be negative, got %d", s.Workers)
	}
	switch s.Policy {
	case PolicyDefault, PolicyPressureOnly, "":
	default:
		return errors.New(errors.CodeInvalidConfig, "unknown force policy %q", s.Policy)
	}
	return nil
}
