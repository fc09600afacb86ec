package cli

import (
	"github.com/spf13/cobra"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/model"
	"github.com/piwi3910/softpdn/internal/project"
)

// simFlags are the simulation overrides accepted by run and compare.
type simFlags struct {
	iterations   int
	workers      int
	policy       string
	clearance    float64
	profile      string
	profilesPath string
}

func (f *simFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.iterations, "iterations", "n", 0, "relaxation iterations (overrides config)")
	cmd.Flags().IntVarP(&f.workers, "workers", "j", 0, "parallel workers, 0 uses all CPUs (overrides config)")
	cmd.Flags().StringVar(&f.policy, "policy", "", "force policy: default or pressure-only (overrides config)")
	cmd.Flags().Float64Var(&f.clearance, "clearance", 0, "minimum spacing between nets (overrides config)")
	cmd.Flags().StringVar(&f.profile, "profile", "", "start from a saved settings profile")
	cmd.Flags().StringVar(&f.profilesPath, "profiles", project.DefaultProfilesPath(), "profiles file")
}

// resolve layers the settings: config file, then the selected profile,
// then explicitly set flags.
func (f *simFlags) resolve(cmd *cobra.Command, cfg model.AppConfig) (model.SimSettings, error) {
	settings := cfg.Simulation

	if f.profile != "" {
		profiles, err := project.LoadProfiles(f.profilesPath)
		if err != nil {
			return settings, err
		}
		p, ok := project.FindProfile(profiles, f.profile)
		if !ok {
			return settings, errors.New(errors.CodeNotFound, "profile %q not found in %s", f.profile, f.profilesPath)
		}
		settings = p.Settings
	}

	flags := cmd.Flags()
	if flags.Changed("iterations") {
		settings.IterationMax = f.iterations
	}
	if flags.Changed("workers") {
		settings.Workers = f.workers
	}
	if flags.Changed("policy") {
		settings.Policy = model.PolicyName(f.policy)
	}
	if flags.Changed("clearance") {
		settings.Clearance = f.clearance
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}
