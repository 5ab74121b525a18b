// ABOUTME: Tests for the reranker service and overlap fallback
// ABOUTME: Covers degraded-mode behavior, bounded output, and empty inputs
package rerank

import (
	"context"
	"errors"
	"testing"
)

type stubBackend struct {
	logits []float64
	err    error
}

func (s *stubBackend) ScorePairs(ctx context.Context, query string, passages []string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.logits, nil
}

func TestScore_ModelPathAppliesSigmoid(t *testing.T) {
	svc := NewService(&stubBackend{logits: []float64{0, 100, -100}})

	result := svc.Score(context.Background(), "question", []string{"a", "b", "c"})
	if result.Degraded {
		t.Fatal("model path should not report degraded")
	}
	if len(result.Scores) != 3 {
		t.Fatalf("len(Scores) = %d, want 3", len(result.Scores))
	}
	if result.Scores[0] != 0.5 {
		t.Errorf("Scores[0] = %v, want 0.5", result.Scores[0])
	}
	for i, score := range result.Scores {
		if score < 0 || score > 1 {
			t.Errorf("Scores[%d] = %v, outside [0,1]", i, score)
		}
	}
}

func TestScore_BackendFailureDegradesToFallback(t *testing.T) {
	svc := NewService(&stubBackend{err: errors.New("model unavailable")})

	result := svc.Score(context.Background(), "needle gauge", []string{"needle gauge", "unrelated text"})
	if !result.Degraded {
		t.Fatal("backend failure should report degraded")
	}
	if result.Scores[0] != 1.0 {
		t.Errorf("identical query/passage fallback score = %v, want 1.0", result.Scores[0])
	}
}

func TestScore_BackendLengthMismatchDegrades(t *testing.T) {
	svc := NewService(&stubBackend{logits: []float64{1.0}})

	result := svc.Score(context.Background(), "q", []string{"a", "b"})
	if !result.Degraded {
		t.Error("length mismatch should degrade to fallback")
	}
	if len(result.Scores) != 2 {
		t.Errorf("len(Scores) = %d, want 2", len(result.Scores))
	}
}

func TestScore_NilBackendIsExplicitFallback(t *testing.T) {
	svc := NewService(nil)

	result := svc.Score(context.Background(), "infusion rate", []string{"the infusion rate is fixed"})
	if result.Degraded {
		t.Error("explicitly configured fallback must not report degraded")
	}
	if result.Scores[0] != 1.0 {
		t.Errorf("full overlap score = %v, want 1.0", result.Scores[0])
	}
}

func TestScore_EmptyPassages(t *testing.T) {
	svc := NewService(&stubBackend{logits: []float64{1.0}})

	result := svc.Score(context.Background(), "question", nil)
	if result.Scores == nil {
		t.Fatal("empty passages must return empty scores, not nil")
	}
	if len(result.Scores) != 0 {
		t.Errorf("len(Scores) = %d, want 0", len(result.Scores))
	}
}

func TestOverlapScore(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		passage string
		want    float64
	}{
		{"identical", "dose of medication", "dose of medication", 1.0},
		{"no overlap", "alpha beta", "gamma delta", 0.0},
		{"half overlap", "alpha beta", "alpha gamma", 0.5},
		{"empty query", "", "some passage", 0.0},
		{"empty passage", "some query", "", 0.0},
		{"repeated query tokens counted once", "dose dose dose", "dose", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OverlapScore(tt.query, tt.passage)
			if got != tt.want {
				t.Errorf("OverlapScore(%q, %q) = %v, want %v", tt.query, tt.passage, got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("OverlapScore outside [0,1]: %v", got)
			}
		})
	}
}
