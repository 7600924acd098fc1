package cli

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/perceptlab/facetrial/internal/manifest"
	"github.com/perceptlab/facetrial/internal/results"
	"github.com/perceptlab/facetrial/internal/sequencer"
	"github.com/perceptlab/facetrial/internal/session"
	"github.com/perceptlab/facetrial/internal/trace"
	"github.com/perceptlab/facetrial/internal/tui"
	"github.com/perceptlab/facetrial/internal/viewer"
)

func newRunCmd() *cobra.Command {
	var (
		manifestPath string
		configPath   string
		version      int
		seed         int64
		participant  string
		outputDir    string
	)

	cmd := silenceUsageAndErrors(&cobra.Command{
		Use:   "run",
		Short: "Run one participant session",
		Long: `Runs the full trial sequence for one participant in the terminal:
fixation, stimulus, feedback on practice trials, and a break screen every
break_interval trials. The key-to-label mapping is counterbalanced by
--version; leaving it unset assigns version 1 or 2 at random. Results are
exported only when the final trial completes.`,
		Example: `  # Random version assignment
  facetrial run --participant p014

  # Fixed version 2, reproducible assignment
  facetrial run --version 2 --manifest stimuli.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := session.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			stims, err := manifest.Load(manifestPath)
			if err != nil {
				return err
			}
			if err := manifest.Validate(stims); err != nil {
				return fmt.Errorf("manifest %s: %w", manifestPath, err)
			}

			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))
			resolved, err := session.ResolveVersion(version, rng)
			if err != nil {
				return err
			}
			mapping, err := session.NewKeyMap(resolved, cfg.LeftKey, cfg.RightKey)
			if err != nil {
				return err
			}

			seq, err := sequencer.New(stims, mapping, cfg.BreakInterval)
			if err != nil {
				return err
			}
			view, err := viewer.New(cfg.ViewerCommand)
			if err != nil {
				return err
			}

			runID := fmt.Sprintf("%s_%s", participant, time.Now().Format("20060102_150405"))
			logPath := cfg.LogFile
			if logPath == "" {
				logPath = filepath.Join(cfg.OutputDir, runID+".log")
			}
			log, err := trace.New(logPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			log = log.With(
				zap.String("run_id", runID),
				zap.String("participant", participant),
			)

			startedAt := time.Now()
			export := func(trials []results.Trial) (string, error) {
				meta := results.SessionMeta{
					RunID:       runID,
					Participant: participant,
					Version:     resolved,
					Manifest:    manifestPath,
					StartedAt:   startedAt,
					EndedAt:     time.Now(),
				}
				return results.Export(cfg.OutputDir, meta, trials)
			}

			model := tui.New(seq, cfg, mapping, view, log, export)
			program := tea.NewProgram(model, tea.WithAltScreen())
			finalModel, err := program.Run()
			if err != nil {
				return err
			}

			final, ok := finalModel.(tui.Model)
			if !ok {
				return fmt.Errorf("unexpected final model %T", finalModel)
			}
			if final.Aborted() {
				return fmt.Errorf("session aborted; no results written")
			}
			path, exportErr := final.ExportedTo()
			if exportErr != nil {
				return fmt.Errorf("export results: %w", exportErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), statusStyle.Render("Results written to "+path))
			return nil
		},
	})

	cmd.Flags().StringVar(&manifestPath, "manifest", "stimuli.json", "stimulus manifest to run")
	cmd.Flags().StringVar(&configPath, "config", "", "session config file (default ./facetrial.yaml)")
	cmd.Flags().IntVar(&version, "version", 0, "counterbalancing version: 1, 2, or 0 for random")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for random version assignment (0 = time-based)")
	cmd.Flags().StringVar(&participant, "participant", "anon", "participant identifier for the export filename")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "override the configured results directory")

	return cmd
}
