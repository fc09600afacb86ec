package cli

import (
	"github.com/spf13/cobra"

	"github.com/piwi3910/softpdn/internal/engine"
	"github.com/piwi3910/softpdn/internal/importer"
	"github.com/piwi3910/softpdn/internal/project"
)

func newCompareCmd(global *globalOptions) *cobra.Command {
	var (
		sim          simFlags
		withProfiles bool
	)

	cmd := &cobra.Command{
		Use:   "compare <design.yaml>",
		Short: "Run what-if scenarios on a design and compare them",
		Long:  `Runs the design with the resolved settings and with derived variants (more iterations, softer and stronger pressure gain, the other force policy). With --all-profiles every saved profile is added as a scenario.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			cfg, err := project.LoadAppConfig(global.configPath)
			if err != nil {
				return err
			}
			settings, err := sim.resolve(cmd, cfg)
			if err != nil {
				return err
			}
			load, err := importer.LoadDesign(args[0])
			if err != nil {
				return err
			}
			for _, w := range load.Warnings {
				logger.Warn(w)
			}

			scenarios := engine.BuildDefaultScenarios(settings)
			if withProfiles {
				profiles, err := project.LoadProfiles(sim.profilesPath)
				if err != nil {
					return err
				}
				for _, p := range profiles {
					scenarios = append(scenarios, engine.ComparisonScenario{Name: p.Name, Settings: p.Settings})
				}
			}

			prog := newProgress(logger)
			results := engine.CompareScenarios(load.Design, scenarios, engine.WithLogger(logger))
			prog.done("Compared " + load.Design.Name)

			printComparison(cmd.OutOrStdout(), results)
			return nil
		},
	}

	sim.register(cmd)
	cmd.Flags().BoolVar(&withProfiles, "all-profiles", false, "add every saved profile as a scenario")
	return cmd
}
