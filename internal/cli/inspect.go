package cli

import (
	"github.com/spf13/cobra"

	"github.com/piwi3910/softpdn/internal/project"
)

func newInspectCmd() *cobra.Command {
	var (
		outDir  string
		formats []string
	)

	cmd := &cobra.Command{
		Use:   "inspect <snapshot.json>",
		Short: "Summarise a saved result and optionally export it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			snap, err := project.LoadSnapshot(args[0])
			if err != nil {
				return err
			}
			printResult(out, snap.Result)
			printKeyValue(out, "created", snap.CreatedAt)

			if len(formats) == 0 {
				return nil
			}
			written, err := writeOutputs(snap.Result, outDir, formats)
			if err != nil {
				return err
			}
			for _, path := range written {
				printFile(out, path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "re-export in these formats: pdf, labels, dxf, xlsx")
	return cmd
}
