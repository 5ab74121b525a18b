// ABOUTME: CLI command to replay the golden regression dataset
// ABOUTME: Writes the evaluation report and fails when cases regress
package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/carebridge/clinrag/internal/config"
	"github.com/carebridge/clinrag/internal/eval"
)

var (
	evalCorpusPath  string
	evalDatasetPath string
	evalOutputPath  string
	evalLive        bool
)

// NewEvalCmd creates the eval command
func NewEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Replay the golden dataset and write a regression report",
		Long: `Replay golden cases against the pipeline and score retrieval,
refusal, citation, and keyword-coverage behavior.

The default mode is retrieval-only, which needs no API key. Passing
--live generates answers and additionally scores keyword coverage.

Examples:
  clinrag eval --corpus corpus.json --dataset golden.json --output report.json
  clinrag eval --corpus corpus.json --dataset golden.json --live`,
		RunE: runEval,
	}

	cmd.Flags().StringVar(&evalCorpusPath, "corpus", "", "Path to the chunk corpus JSON file")
	cmd.Flags().StringVar(&evalDatasetPath, "dataset", "", "Path to the golden dataset JSON file")
	cmd.Flags().StringVar(&evalOutputPath, "output", "report.json", "Path for the report JSON")
	cmd.Flags().BoolVar(&evalLive, "live", false, "Generate answers instead of retrieval-only scoring")
	_ = cmd.MarkFlagRequired("corpus")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func runEval(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	cases, err := eval.LoadGoldenDataset(evalDatasetPath)
	if err != nil {
		return err
	}

	// Evaluation sessions are throwaway; nothing is persisted.
	pipeline, err := buildPipeline(cfg, evalCorpusPath, evalLive, nil)
	if err != nil {
		return err
	}

	mode := eval.ModeRetrievalOnly
	if evalLive {
		mode = eval.ModeLive
	}

	runner := eval.NewRunner(pipeline, mode, cfg.CoverageThreshold, verbose)
	report, err := runner.RunAll(context.Background(), cases, evalDatasetPath)
	if err != nil {
		return err
	}

	if err := eval.WriteReport(report, evalOutputPath); err != nil {
		return err
	}

	if !quiet {
		s := report.Summary
		fmt.Fprintf(cmd.OutOrStdout(), "Cases evaluated:    %d\n", report.Metadata.CasesEvaluated)
		fmt.Fprintf(cmd.OutOrStdout(), "Pass rate:          %.1f%%\n", s.PassRate*100)
		fmt.Fprintf(cmd.OutOrStdout(), "Refusal accuracy:   %.1f%%\n", s.RefusalAccuracy*100)
		fmt.Fprintf(cmd.OutOrStdout(), "Avg recall@k:       %.2f\n", s.AvgRetrievalRecallAtK)
		if len(s.RetrainingCandidates) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Retraining candidates: %d\n", len(s.RetrainingCandidates))
		}
		if len(s.PromptTuningCandidates) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Prompt tuning candidates: %d\n", len(s.PromptTuningCandidates))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Report written to %s\n", evalOutputPath)
	}

	if report.Summary.PassRate < 1.0 {
		failed := 0
		for _, r := range report.Results {
			if !r.Passed {
				failed++
			}
		}
		return fmt.Errorf("%d of %d cases failed", failed, len(report.Results))
	}
	return nil
}
