// ABOUTME: CLI command to validate and inspect a chunk corpus
// ABOUTME: Builds the lexical index and reports corpus statistics
package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/carebridge/clinrag/internal/config"
	"github.com/carebridge/clinrag/internal/index"
	"github.com/carebridge/clinrag/internal/models"
)

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <corpus.json>",
		Short: "Validate a corpus file and build its lexical index",
		Long: `Parse a chunk corpus file, reject malformed or duplicate chunks,
and build the BM25 index to report corpus statistics.

Examples:
  clinrag index corpus.json
  clinrag index --format json corpus.json`,
		Args: cobra.ExactArgs(1),
		RunE: runIndex,
	}

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	chunks, err := models.LoadCorpusFile(args[0])
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	idx := index.Build(chunks, cfg.BM25K1, cfg.BM25B)

	docs := make(map[string]bool)
	byType := make(map[models.DocType]int)
	for _, c := range chunks {
		docs[c.DocID] = true
		byType[c.DocType]++
	}

	if outputFormat == "json" {
		stats := map[string]interface{}{
			"corpus":    args[0],
			"documents": len(docs),
			"chunks":    idx.Size(),
			"by_type":   byType,
		}
		jsonData, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "DOCUMENTS\tCHUNKS\n")
	fmt.Fprintf(w, "%d\t%d\n", len(docs), idx.Size())
	w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nChunks by document type:\n")
		for docType, count := range byType {
			label := string(docType)
			if label == "" {
				label = "(unspecified)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d\n", label, count)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Corpus is valid and indexable\n")
	}

	return nil
}
