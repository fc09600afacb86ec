package engine

import (
	"fmt"

	"github.com/piwi3910/softpdn/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.SimSettings
}

// ComparisonResult holds the simulation result and summary figures for a
// single scenario.
type ComparisonResult struct {
	Scenario    ComparisonScenario
	Result      model.Result
	Err         error
	TotalArea   float64
	EmptyVias   int
	BrokenVias  int
	StableVias  int
	Violations  int
	MaxPressure float64
}

// CompareScenarios runs the full pipeline for each scenario on the same
// design. A failing scenario is reported through Err and does not stop the
// others.
func CompareScenarios(design *model.Design, scenarios []ComparisonScenario, opts ...Option) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		res, err := Run(design, scenario.Settings, opts...)
		cr := ComparisonResult{Scenario: scenario, Result: res, Err: err}
		if err == nil {
			cr.TotalArea = res.Stats.TotalArea()
			cr.EmptyVias = res.Stats.ViaCount(model.ViaEmpty)
			cr.BrokenVias = res.Stats.ViaCount(model.ViaBroken)
			cr.StableVias = res.Stats.ViaCount(model.ViaStable)
			cr.Violations = len(res.Violations)
			for _, l := range res.Stats.Layers {
				if l.Bodies > 0 && l.MaxPressure > cr.MaxPressure {
					cr.MaxPressure = l.MaxPressure
				}
			}
		}
		results = append(results, cr)
	}

	return results
}

// BuildDefaultScenarios derives what-if variants from the base settings:
// twice the iterations, a softer and a stronger pressure gain, and the
// pressure-only policy.
func BuildDefaultScenarios(base model.SimSettings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{Name: "Current Settings", Settings: base},
	}

	longer := base
	longer.IterationMax = base.IterationMax * 2
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("%d Iterations", longer.IterationMax),
		Settings: longer,
	})

	for _, gain := range []float64{base.PressureGain / 2, base.PressureGain * 2} {
		alt := base
		alt.PressureGain = gain
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Pressure Gain %.2f", gain),
			Settings: alt,
		})
	}

	alt := base
	if base.Policy == model.PolicyPressureOnly {
		alt.Policy = model.PolicyDefault
		scenarios = append(scenarios, ComparisonScenario{Name: "Default Forces", Settings: alt})
	} else {
		alt.Policy = model.PolicyPressureOnly
		scenarios = append(scenarios, ComparisonScenario{Name: "Pressure Only", Settings: alt})
	}

	return scenarios
}
