package cli

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/perceptlab/facetrial/internal/summary"
)

func newSummaryCmd() *cobra.Command {
	cmd := silenceUsageAndErrors(&cobra.Command{
		Use:   "summary <results.csv>...",
		Short: "Aggregate exported sessions into accuracy and RT statistics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := summary.Run(args)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := rep.WriteCSV(&buf); err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	})
	return cmd
}
