package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/project"
)

func newProfileCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage saved settings profiles",
	}
	cmd.PersistentFlags().StringVar(&path, "profiles", project.DefaultProfilesPath(), "profiles file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := project.LoadProfiles(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(profiles) == 0 {
				printWarning(out, "no profiles in %s", path)
				return nil
			}
			for _, p := range profiles {
				printKeyValue(out, p.Name, fmt.Sprintf("%d iterations, %s policy  %s",
					p.Settings.IterationMax, p.Settings.Policy, StyleDim.Render(p.Description)))
			}
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Add or replace a profile from a shared file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.ImportProfile(args[0])
			if err != nil {
				return err
			}
			profiles, err := project.LoadProfiles(path)
			if err != nil {
				return err
			}
			replaced := false
			for i := range profiles {
				if profiles[i].Name == p.Name {
					profiles[i] = p
					replaced = true
				}
			}
			if !replaced {
				profiles = append(profiles, p)
			}
			if err := project.SaveProfiles(path, profiles); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "imported profile %q", p.Name)
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <name> <file.json>",
		Short: "Write one profile to a file for sharing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := project.LoadProfiles(path)
			if err != nil {
				return err
			}
			p, ok := project.FindProfile(profiles, args[0])
			if !ok {
				return errors.New(errors.CodeNotFound, "profile %q not found in %s", args[0], path)
			}
			if err := project.ExportProfile(args[1], p); err != nil {
				return err
			}
			printFile(cmd.OutOrStdout(), args[1])
			return nil
		},
	}

	cmd.AddCommand(listCmd, importCmd, exportCmd)
	return cmd
}
