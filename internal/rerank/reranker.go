// ABOUTME: Reranker service producing the calibrated [0,1] relevance scores
// ABOUTME: Cross-encoder backend with a deterministic token-overlap fallback
package rerank

import (
	"context"
	"fmt"
	"log"

	"github.com/carebridge/clinrag/internal/index"
)

// Backend scores (query, passage) pairs with a cross-encoder model and
// returns one unbounded logit per passage. Implementations wrap external
// model inference.
type Backend interface {
	ScorePairs(ctx context.Context, query string, passages []string) ([]float64, error)
}

// ScoreResult carries the per-passage scores. Degraded is set only when
// a configured model backend failed to compute and the overlap fallback
// filled in, so callers and logs can tell a failure from an explicitly
// chosen fallback configuration.
type ScoreResult struct {
	Scores   []float64
	Degraded bool
}

// Service scores passages against a query. A nil backend means the
// fallback scorer is configured explicitly; a failing backend degrades
// to the fallback rather than surfacing an error.
type Service struct {
	backend Backend
}

// NewService creates a reranker with the given model backend.
// Pass nil to run on the deterministic fallback scorer only.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// Score returns one relevance value in [0,1] per passage, in input order.
// An empty passage list yields an empty (non-nil) score slice.
func (s *Service) Score(ctx context.Context, query string, passages []string) ScoreResult {
	if len(passages) == 0 {
		return ScoreResult{Scores: []float64{}}
	}

	// No backend means the fallback scorer was configured explicitly;
	// its scores are normal computed output, not a degradation.
	if s.backend == nil {
		return ScoreResult{Scores: overlapScores(query, passages)}
	}

	logits, err := s.backend.ScorePairs(ctx, query, passages)
	if err == nil && len(logits) == len(passages) {
		scores := make([]float64, len(logits))
		for i, logit := range logits {
			scores[i] = Sigmoid(logit)
		}
		return ScoreResult{Scores: scores}
	}
	if err == nil {
		err = fmt.Errorf("backend returned %d scores for %d passages", len(logits), len(passages))
	}
	log.Printf("[Reranker] degraded mode: %v", err)

	return ScoreResult{Scores: overlapScores(query, passages), Degraded: true}
}

func overlapScores(query string, passages []string) []float64 {
	scores := make([]float64, len(passages))
	for i, passage := range passages {
		scores[i] = OverlapScore(query, passage)
	}
	return scores
}

// OverlapScore is the deterministic fallback: the fraction of distinct
// query tokens that also appear in the passage. Bounded to [0,1]; zero
// when either side has no tokens.
func OverlapScore(query, passage string) float64 {
	queryTokens := index.Tokenize(query)
	passageTokens := index.Tokenize(passage)
	if len(queryTokens) == 0 || len(passageTokens) == 0 {
		return 0.0
	}

	passageSet := make(map[string]bool, len(passageTokens))
	for _, tok := range passageTokens {
		passageSet[tok] = true
	}

	querySet := make(map[string]bool, len(queryTokens))
	matched := 0
	for _, tok := range queryTokens {
		if querySet[tok] {
			continue
		}
		querySet[tok] = true
		if passageSet[tok] {
			matched++
		}
	}

	score := float64(matched) / float64(len(querySet))
	if score > 1 {
		score = 1
	}
	return score
}
