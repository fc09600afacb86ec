package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/piwi3910/softpdn/internal/engine"
	"github.com/piwi3910/softpdn/internal/importer"
	"github.com/piwi3910/softpdn/internal/project"
)

func newRunCmd(global *globalOptions) *cobra.Command {
	var (
		sim     simFlags
		outDir  string
		formats []string
	)

	cmd := &cobra.Command{
		Use:   "run <design.yaml>",
		Short: "Simulate a design and export the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			out := cmd.OutOrStdout()

			cfg, err := project.LoadAppConfig(global.configPath)
			if err != nil {
				return err
			}
			settings, err := sim.resolve(cmd, cfg)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				cfg.Output.Dir = outDir
			}
			if cmd.Flags().Changed("format") {
				cfg.Output.Formats = formats
			}

			load, err := importer.LoadDesign(args[0])
			if err != nil {
				return err
			}
			for _, w := range load.Warnings {
				logger.Warn(w)
			}

			prog := newProgress(logger)
			res, err := engine.Run(load.Design, settings, engine.WithLogger(logger))
			if err != nil {
				return err
			}
			prog.done("Simulated " + load.Design.Name)

			written, err := writeOutputs(res, cfg.Output.Dir, cfg.Output.Formats)
			if err != nil {
				return err
			}

			printResult(out, res)
			for _, path := range written {
				printFile(out, path)
			}

			if fileExists(global.configPath) {
				if abs, err := filepath.Abs(args[0]); err == nil {
					cfg.AddRecentDesign(abs)
					if err := project.SaveAppConfig(global.configPath, cfg); err != nil {
						logger.Warn("cannot update recent designs", "err", err)
					}
				}
			}
			return nil
		},
	}

	sim.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (overrides config)")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "output formats: json, pdf, labels, dxf, xlsx (overrides config)")
	return cmd
}
