// ABOUTME: Shared helpers for CLI commands
// ABOUTME: Pipeline assembly and small formatting utilities
package commands

import (
	"fmt"
	"log"

	"github.com/carebridge/clinrag/internal/config"
	"github.com/carebridge/clinrag/internal/core"
	"github.com/carebridge/clinrag/internal/gate"
	"github.com/carebridge/clinrag/internal/index"
	"github.com/carebridge/clinrag/internal/llm"
	"github.com/carebridge/clinrag/internal/models"
	"github.com/carebridge/clinrag/internal/rank"
	"github.com/carebridge/clinrag/internal/rerank"
	"github.com/carebridge/clinrag/internal/retrieval"
	"github.com/carebridge/clinrag/internal/session"
)

// buildPipeline assembles the full answer pipeline from a corpus file.
// live enables answer generation; without an OpenAI key the pipeline
// runs lexical-only with the fallback reranker.
func buildPipeline(cfg *config.Config, corpusPath string, live bool, store session.Store) (*core.Pipeline, error) {
	chunks, err := models.LoadCorpusFile(corpusPath)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	holder := index.NewHolder(index.Build(chunks, cfg.BM25K1, cfg.BM25B))

	var embedder retrieval.Embedder
	var backend rerank.Backend
	var generator core.Generator
	if cfg.OpenAIKey != "" {
		client, err := llm.NewOpenAIClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("initializing OpenAI client: %w", err)
		}
		embedder = client
		if cfg.RerankerMode == config.RerankerModeModel {
			backend = client
		}
		if live {
			generator = client
		}
	} else if live {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for generated answers")
	}

	var retriever retrieval.VectorRetriever
	if embedder != nil {
		qdrant, err := retrieval.NewQdrantRetriever(cfg.QdrantAddr, cfg.QdrantCollection)
		if err != nil {
			log.Printf("[CLI] vector retriever unavailable, continuing lexical-only: %v", err)
		} else {
			retriever = qdrant
		}
	}

	ranker := rank.NewRanker(holder, retriever, embedder, rerank.NewService(backend), cfg.VectorNamespace, cfg.ExternalCallLimit)
	sessions := session.NewManager(store)

	return core.New(
		ranker,
		gate.NewEvidenceGate(cfg.StrongMatchScore, cfg.MinStrongMatches),
		gate.NewRoleSafetyGate(),
		sessions,
		generator,
		cfg,
	), nil
}

// truncate shortens a string to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
