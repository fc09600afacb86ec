package cli

import (
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/model"
	"github.com/piwi3910/softpdn/internal/project"
)

func newConfigCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fileExists(global.configPath) && !force {
				return errors.New(errors.CodeInvalidConfig, "%s already exists (use --force to overwrite)", global.configPath)
			}
			if err := project.SaveAppConfig(global.configPath, model.DefaultAppConfig()); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "wrote %s", global.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := project.LoadAppConfig(global.configPath)
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
