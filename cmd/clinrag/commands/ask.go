// ABOUTME: CLI command to ask a question against an indexed corpus
// ABOUTME: Runs the full retrieval, gating, and generation pipeline
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/carebridge/clinrag/internal/config"
	"github.com/carebridge/clinrag/internal/core"
	"github.com/carebridge/clinrag/internal/models"
	"github.com/carebridge/clinrag/internal/session"
	"github.com/carebridge/clinrag/internal/storage"
)

var (
	askCorpusPath    string
	askSessionID     string
	askAudience      string
	askIntent        string
	askDocType       string
	askTopK          int
	askRetrievalOnly bool
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question against the clinical corpus",
		Long: `Ask a question and receive a cited, evidence-gated answer.

Retrieval runs over the corpus file; generation requires OPENAI_API_KEY.
Sessions persist across invocations, so passing the same --session id
continues a conversation.

Examples:
  clinrag ask --corpus corpus.json "How is the product stored?"
  clinrag ask --corpus corpus.json --audience patient "What should I expect during treatment?"
  clinrag ask --corpus corpus.json --session sess_abc --format json "And after that?"`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVar(&askCorpusPath, "corpus", "", "Path to the chunk corpus JSON file")
	cmd.Flags().StringVar(&askSessionID, "session", "", "Session id to continue (new session when empty)")
	cmd.Flags().StringVar(&askAudience, "audience", "", "Requester audience (patient, hcp, unspecified)")
	cmd.Flags().StringVar(&askIntent, "intent", "", "Pre-classified question intent")
	cmd.Flags().StringVar(&askDocType, "doc-type", "", "Restrict retrieval to one document type")
	cmd.Flags().IntVar(&askTopK, "top-k", 10, "Candidates to retrieve per source")
	cmd.Flags().BoolVar(&askRetrievalOnly, "retrieval-only", false, "Skip generation, show ranked sources only")
	_ = cmd.MarkFlagRequired("corpus")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	if err := validatePositiveInt(askTopK, "top-k"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// Persist sessions so follow-up questions keep their history.
	// Storage failure degrades to a memory-only session.
	var store session.Store
	sqlStore, err := storage.Open(storage.DefaultDBPath())
	if err != nil {
		log.Printf("[CLI] session storage unavailable, using memory only: %v", err)
	} else {
		store = sqlStore
		defer sqlStore.Close()
	}

	pipeline, err := buildPipeline(cfg, askCorpusPath, !askRetrievalOnly, store)
	if err != nil {
		return err
	}

	resp, err := pipeline.Answer(context.Background(), core.Request{
		SessionID: askSessionID,
		Question:  args[0],
		Audience:  askAudience,
		Intent:    askIntent,
		DocType:   models.DocType(askDocType),
		TopK:      askTopK,
	})
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	if resp.Refused {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", resp.Answer)
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "\n(refused: %s, session: %s)\n", resp.RefusalReason, resp.SessionID)
		}
		return nil
	}

	if resp.Answer != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", resp.Answer)
	}

	if len(resp.Sources) > 0 {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "SCORE\tDOC\tSECTION\tPAGE\n")
		for i, src := range resp.Sources {
			section := src.Section
			if section == "" {
				section = "-"
			}
			fmt.Fprintf(w, "%.3f\t%s\t%s\t%d\n",
				resp.Retrieved[i].FusedScore,
				truncate(src.DocID, 30),
				truncate(section, 30),
				src.Page)
		}
		w.Flush()
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\n(session: %s", resp.SessionID)
		if resp.Degraded {
			fmt.Fprintf(cmd.OutOrStdout(), ", degraded scoring")
		}
		fmt.Fprintf(cmd.OutOrStdout(), ")\n")
	}

	return nil
}
