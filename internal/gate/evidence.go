// ABOUTME: EvidenceGate decides whether ranked candidates justify answering
// ABOUTME: Pure function over fused scores and configured thresholds
package gate

import "github.com/carebridge/clinrag/internal/models"

// EvidenceReason is the machine-checkable explanation for a decision
type EvidenceReason string

const (
	ReasonNoCandidates   EvidenceReason = "no_candidates"
	ReasonWeakEvidence   EvidenceReason = "weak_evidence_below_threshold"
	ReasonStrongEvidence EvidenceReason = "strong_evidence"
)

// EvidenceDecision is reproducible from the candidate list and thresholds
// alone; it carries no hidden state.
type EvidenceDecision struct {
	Sufficient    bool           `json:"sufficient"`
	TopScore      float64        `json:"top_score"`
	StrongMatches int            `json:"strong_matches"`
	Reason        EvidenceReason `json:"reason"`
}

// EvidenceGate holds the two configured thresholds. This is the single
// hard safety boundary of the pipeline: a question is answered only when
// enough candidates clear the strong-match score.
type EvidenceGate struct {
	strongMatchScore float64
	minStrongMatches int
}

// NewEvidenceGate creates a gate with the configured thresholds
func NewEvidenceGate(strongMatchScore float64, minStrongMatches int) *EvidenceGate {
	return &EvidenceGate{
		strongMatchScore: strongMatchScore,
		minStrongMatches: minStrongMatches,
	}
}

// Evaluate converts a ranked candidate list into a sufficiency decision
func (g *EvidenceGate) Evaluate(candidates []models.Candidate) EvidenceDecision {
	if len(candidates) == 0 {
		return EvidenceDecision{Reason: ReasonNoCandidates}
	}

	decision := EvidenceDecision{}
	for _, c := range candidates {
		if c.FusedScore > decision.TopScore {
			decision.TopScore = c.FusedScore
		}
		if c.FusedScore >= g.strongMatchScore {
			decision.StrongMatches++
		}
	}

	decision.Sufficient = decision.StrongMatches >= g.minStrongMatches
	if decision.Sufficient {
		decision.Reason = ReasonStrongEvidence
	} else {
		decision.Reason = ReasonWeakEvidence
	}
	return decision
}
