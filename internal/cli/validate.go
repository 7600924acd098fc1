package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perceptlab/facetrial/internal/manifest"
)

func newValidateCmd() *cobra.Command {
	cmd := silenceUsageAndErrors(&cobra.Command{
		Use:   "validate-manifest <manifest>",
		Short: "Validate a stimulus manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stims, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			if err := manifest.Validate(stims); err != nil {
				return err
			}
			formatted, err := json.MarshalIndent(stims, "", "  ")
			if err != nil {
				return fmt.Errorf("format manifest: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, string(formatted))
			practice, main := manifest.Counts(stims)
			fmt.Fprintf(out, "valid: %d practice, %d main\n", practice, main)
			return nil
		},
	})
	return cmd
}
