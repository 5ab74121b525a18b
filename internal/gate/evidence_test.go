// ABOUTME: Tests for the evidence sufficiency gate
// ABOUTME: Verifies threshold boundaries, reasons, and determinism
package gate

import (
	"testing"

	"github.com/carebridge/clinrag/internal/models"
)

func candidatesWithScores(scores ...float64) []models.Candidate {
	var out []models.Candidate
	for i, s := range scores {
		out = append(out, models.Candidate{
			Chunk:       models.Chunk{ID: string(rune('a' + i))},
			RerankScore: s,
			FusedScore:  s,
		})
	}
	return out
}

func TestEvaluate_EmptyCandidates(t *testing.T) {
	g := NewEvidenceGate(0.50, 1)

	decision := g.Evaluate(nil)
	if decision.Sufficient {
		t.Error("empty candidates must be insufficient")
	}
	if decision.Reason != ReasonNoCandidates {
		t.Errorf("Reason = %q, want %q", decision.Reason, ReasonNoCandidates)
	}
	if decision.TopScore != 0 {
		t.Errorf("TopScore = %v, want 0", decision.TopScore)
	}
}

func TestEvaluate_AboveThreshold(t *testing.T) {
	g := NewEvidenceGate(0.50, 1)

	decision := g.Evaluate(candidatesWithScores(0.51, 0.2))
	if !decision.Sufficient {
		t.Error("max score 0.51 with threshold 0.50 must be sufficient")
	}
	if decision.Reason != ReasonStrongEvidence {
		t.Errorf("Reason = %q, want %q", decision.Reason, ReasonStrongEvidence)
	}
	if decision.TopScore != 0.51 {
		t.Errorf("TopScore = %v, want 0.51", decision.TopScore)
	}
	if decision.StrongMatches != 1 {
		t.Errorf("StrongMatches = %v, want 1", decision.StrongMatches)
	}
}

func TestEvaluate_BelowThreshold(t *testing.T) {
	g := NewEvidenceGate(0.50, 1)

	decision := g.Evaluate(candidatesWithScores(0.49, 0.3))
	if decision.Sufficient {
		t.Error("max score 0.49 with threshold 0.50 must be insufficient")
	}
	if decision.Reason != ReasonWeakEvidence {
		t.Errorf("Reason = %q, want %q", decision.Reason, ReasonWeakEvidence)
	}
}

func TestEvaluate_ExactThresholdCounts(t *testing.T) {
	g := NewEvidenceGate(0.50, 1)

	decision := g.Evaluate(candidatesWithScores(0.50))
	if !decision.Sufficient {
		t.Error("score equal to threshold counts as a strong match")
	}
}

func TestEvaluate_MinStrongMatches(t *testing.T) {
	g := NewEvidenceGate(0.50, 2)

	decision := g.Evaluate(candidatesWithScores(0.9, 0.4))
	if decision.Sufficient {
		t.Error("one strong match with MinStrongMatches=2 must be insufficient")
	}

	decision = g.Evaluate(candidatesWithScores(0.9, 0.6, 0.4))
	if !decision.Sufficient {
		t.Error("two strong matches with MinStrongMatches=2 must be sufficient")
	}
	if decision.StrongMatches != 2 {
		t.Errorf("StrongMatches = %v, want 2", decision.StrongMatches)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	g := NewEvidenceGate(0.50, 1)
	candidates := candidatesWithScores(0.7, 0.5, 0.2)

	first := g.Evaluate(candidates)
	second := g.Evaluate(candidates)
	if first != second {
		t.Errorf("Evaluate() not deterministic: %+v vs %+v", first, second)
	}
}
