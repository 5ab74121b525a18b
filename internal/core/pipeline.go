// ABOUTME: Pipeline wires retrieval, ranking, gates, session state, and generation
// ABOUTME: Fails closed - every ambiguity or external failure resolves to a refusal
package core

import (
	"context"
	"log"

	"github.com/carebridge/clinrag/internal/config"
	"github.com/carebridge/clinrag/internal/gate"
	"github.com/carebridge/clinrag/internal/models"
	"github.com/carebridge/clinrag/internal/rank"
	"github.com/carebridge/clinrag/internal/session"
)

// NoEvidenceRefusalText is the fixed answer when indexed source material
// does not support the question
const NoEvidenceRefusalText = "I don't have enough supported source material to answer that question. Please check with your care team."

// Generator is the external answer-generation collaborator
type Generator interface {
	GenerateAnswer(ctx context.Context, question string, passages []models.Candidate, history []models.Message, summary string) (string, error)
	Summarize(ctx context.Context, messages []models.Message) (string, error)
}

// Request is one incoming question with its caller-supplied context.
// Audience arrives free-form and is normalized at this boundary.
type Request struct {
	SessionID string
	Question  string
	Audience  string
	Intent    string
	DocType   models.DocType
	TopK      int
}

// Response is the pipeline outcome. Answered responses carry citations
// and the ranked candidates; refused responses carry only the fixed
// refusal text and the gate decisions that produced them.
type Response struct {
	SessionID     string                   `json:"session_id"`
	Answer        string                   `json:"answer"`
	Refused       bool                     `json:"refused"`
	RefusalReason string                   `json:"refusal_reason,omitempty"`
	Sources       []models.Source          `json:"sources,omitempty"`
	Retrieved     []models.Candidate       `json:"retrieved_chunks,omitempty"`
	Evidence      gate.EvidenceDecision    `json:"evidence"`
	Safety        *gate.RoleSafetyDecision `json:"safety,omitempty"`
	Degraded      bool                     `json:"degraded,omitempty"`
}

// Pipeline owns one explicitly constructed instance of every component.
// Nothing is reached through globals; lifetime and rebuild semantics are
// visible at the call sites that hold the pipeline.
type Pipeline struct {
	ranker    *rank.Ranker
	evidence  *gate.EvidenceGate
	safety    *gate.RoleSafetyGate
	sessions  *session.Manager
	generator Generator
	cfg       *config.Config
}

// New wires a pipeline. generator may be nil for retrieval-only
// operation (offline evaluation); allowed responses then carry ranked
// sources with an empty answer.
func New(ranker *rank.Ranker, evidence *gate.EvidenceGate, safety *gate.RoleSafetyGate, sessions *session.Manager, generator Generator, cfg *config.Config) *Pipeline {
	return &Pipeline{
		ranker:    ranker,
		evidence:  evidence,
		safety:    safety,
		sessions:  sessions,
		generator: generator,
		cfg:       cfg,
	}
}

// Answer runs the full per-query flow. External failures and timeouts
// resolve to refusals, never to partial or best-guess answers; the only
// returned errors are session-state failures.
func (p *Pipeline) Answer(ctx context.Context, req Request) (*Response, error) {
	if req.SessionID == "" {
		req.SessionID = session.NewSessionID()
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}

	// The context window is captured before this question is appended so
	// the question is not duplicated in the generation prompt.
	history, err := p.sessions.RecentMessages(req.SessionID, p.cfg.RecentPairCount)
	if err != nil {
		return nil, err
	}
	summary, err := p.sessions.Summary(req.SessionID)
	if err != nil {
		return nil, err
	}
	if _, err := p.sessions.AddMessage(req.SessionID, models.RoleUser, req.Question, nil); err != nil {
		return nil, err
	}

	ranked, err := p.ranker.Rank(ctx, req.Question, req.TopK, req.DocType)
	if err != nil {
		log.Printf("[Pipeline] retrieval failed, refusing: %v", err)
		return p.refuse(ctx, req.SessionID, "retrieval_failed", gate.EvidenceDecision{Reason: gate.ReasonNoCandidates}, nil)
	}

	evidence := p.evidence.Evaluate(ranked.Candidates)
	if !evidence.Sufficient {
		// Insufficient evidence ends the flow here; the role gate and
		// generation are never consulted.
		return p.refuse(ctx, req.SessionID, string(evidence.Reason), evidence, nil)
	}

	audience := gate.NormalizeAudience(req.Audience)
	safety := p.safety.Evaluate(audience, req.Intent, req.Question)
	if !safety.Allowed {
		return p.refuse(ctx, req.SessionID, safety.Reason, evidence, &safety)
	}

	resp := &Response{
		SessionID: req.SessionID,
		Retrieved: ranked.Candidates,
		Evidence:  evidence,
		Safety:    &safety,
		Degraded:  ranked.RerankDegraded || ranked.VectorFailed,
	}
	for _, c := range ranked.Candidates {
		resp.Sources = append(resp.Sources, models.SourceOf(c))
	}

	if p.generator != nil {
		answer, err := p.generator.GenerateAnswer(ctx, req.Question, ranked.Candidates, history, summary)
		if err != nil {
			log.Printf("[Pipeline] generation failed, refusing: %v", err)
			return p.refuse(ctx, req.SessionID, "generation_failed", evidence, &safety)
		}
		resp.Answer = answer
	}

	if resp.Answer != "" {
		if _, err := p.sessions.AddMessage(req.SessionID, models.RoleAssistant, resp.Answer, map[string]string{"evidence": string(evidence.Reason)}); err != nil {
			return nil, err
		}
		p.maybeSummarize(ctx, req.SessionID)
	}

	return resp, nil
}

// refuse records the refusal in the session and returns the terminal
// refusal response. Role-safety blocks reuse the fixed patient refusal
// string; every other refusal uses the no-evidence text. Refusals carry
// only the fixed text and gate decisions, never retrieved passage
// content: echoing candidates back would hand a blocked requester the
// very material the gates suppressed.
func (p *Pipeline) refuse(ctx context.Context, sessionID, reason string, evidence gate.EvidenceDecision, safety *gate.RoleSafetyDecision) (*Response, error) {
	text := NoEvidenceRefusalText
	if safety != nil && safety.RefusalText != "" {
		text = safety.RefusalText
	}

	if _, err := p.sessions.AddMessage(sessionID, models.RoleAssistant, text, map[string]string{"refusal_reason": reason}); err != nil {
		return nil, err
	}
	p.maybeSummarize(ctx, sessionID)

	return &Response{
		SessionID:     sessionID,
		Answer:        text,
		Refused:       true,
		RefusalReason: reason,
		Evidence:      evidence,
		Safety:        safety,
	}, nil
}

// maybeSummarize fires the one-shot automatic summarization trigger.
// Best-effort: a summarization failure is logged, never surfaced.
func (p *Pipeline) maybeSummarize(ctx context.Context, sessionID string) {
	if p.generator == nil {
		return
	}
	should, err := p.sessions.ShouldSummarize(sessionID, p.cfg.SummaryTurnThreshold)
	if err != nil || !should {
		return
	}

	messages, err := p.sessions.RecentMessages(sessionID, p.cfg.SummaryTurnThreshold)
	if err != nil {
		return
	}
	summary, err := p.generator.Summarize(ctx, messages)
	if err != nil {
		log.Printf("[Pipeline] summarization failed for %s: %v", sessionID, err)
		return
	}
	if err := p.sessions.SetSummary(sessionID, summary); err != nil {
		log.Printf("[Pipeline] storing summary for %s: %v", sessionID, err)
	}
}
