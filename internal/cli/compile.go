package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/perceptlab/facetrial/internal/compile"
)

var statusStyle = lipgloss.NewStyle().Bold(true)

func newCompileCmd() *cobra.Command {
	opts := compile.Options{}

	cmd := silenceUsageAndErrors(&cobra.Command{
		Use:   "compile --western <csv> --chinese <csv>",
		Short: "Compile the source image lists into a stimulus manifest",
		Long: `Merges the western and chinese image CSVs into one ordered JSON manifest.
A seeded random sample of the pool is tagged as practice trials, split as
evenly as the two sources allow; all remaining rows become main trials.
The same inputs and seed always produce a byte-identical manifest.`,
		Example: `  # Full pool, six practice trials
  facetrial compile --western western.csv --chinese chinese.csv

  # Small deterministic test deployment
  facetrial compile --western western.csv --chinese chinese.csv --sample 10 --n_practice 2 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := compile.Run(opts)
			if err != nil {
				return err
			}
			report := fmt.Sprintf("Wrote %s: %d stimuli (%d practice, %d main; %d western, %d chinese)",
				res.Path, res.Total, res.Practice, res.Main, res.Western, res.Chinese)
			fmt.Fprintln(cmd.OutOrStdout(), statusStyle.Render(report))
			if res.Skipped > 0 {
				fmt.Fprintf(os.Stderr, "skipped %d rows without a usable image path\n", res.Skipped)
			}
			return nil
		},
	})

	cmd.Flags().StringVar(&opts.WesternCSV, "western", "", "CSV of western-source images (required)")
	cmd.Flags().StringVar(&opts.ChineseCSV, "chinese", "", "CSV of chinese-source images (required)")
	cmd.Flags().StringVar(&opts.OutputPath, "output", "stimuli.json", "manifest output path")
	cmd.Flags().IntVar(&opts.NPractice, "n_practice", 6, "total practice trials across both sources")
	cmd.Flags().IntVar(&opts.Sample, "sample", 0, "randomly keep N rows per source (0 = all)")
	cmd.Flags().StringVar(&opts.ImageBaseURL, "image_base_url", "images/", "base URL prepended to image paths")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 42, "random seed for sampling and practice selection")
	cmd.Flags().BoolVar(&opts.SkipInvalid, "skip-invalid", false, "skip rows without a usable image path instead of aborting")
	_ = cmd.MarkFlagRequired("western")
	_ = cmd.MarkFlagRequired("chinese")

	return cmd
}
