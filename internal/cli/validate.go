package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/softpdn/internal/importer"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <design.yaml>",
		Short: "Check a design document without simulating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			load, err := importer.LoadDesign(args[0])
			if err != nil {
				printError(out, "%s", err)
				return err
			}
			d := load.Design

			pads := 0
			for _, c := range d.Connectors {
				pads += len(c.Pads)
			}
			printSuccess(out, "%s is valid", args[0])
			printKeyValue(out, "canvas", fmt.Sprintf("%d x %d, %d metal layers", d.Width, d.Height, d.MetalLayers))
			printKeyValue(out, "connectors", fmt.Sprintf("%d with %d pads", len(d.Connectors), pads))
			printKeyValue(out, "nets", fmt.Sprintf("%d with currents", len(d.Currents)))
			for _, w := range load.Warnings {
				printWarning(out, "%s", w)
			}
			return nil
		},
	}
}
