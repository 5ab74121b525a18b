// ABOUTME: Replays golden cases through the answer pipeline
// ABOUTME: Each case runs in a fresh session so cases never contaminate each other
package eval

import (
	"context"
	"fmt"
	"log"

	"github.com/carebridge/clinrag/internal/core"
	"github.com/carebridge/clinrag/internal/session"
)

// ModeRetrievalOnly and ModeLive name the two report modes. Retrieval-only
// skips generation and scores retrieval and refusal behavior alone.
const (
	ModeRetrievalOnly = "retrieval_only"
	ModeLive          = "live"
)

// Runner replays a golden dataset against one pipeline
type Runner struct {
	pipeline          *core.Pipeline
	mode              string
	coverageThreshold float64
	verbose           bool
}

// NewRunner creates a runner. In retrieval-only mode the coverage
// threshold is forced to 0 since there is no generated answer to check.
func NewRunner(pipeline *core.Pipeline, mode string, coverageThreshold float64, verbose bool) *Runner {
	if mode == ModeRetrievalOnly {
		coverageThreshold = 0
	}
	return &Runner{
		pipeline:          pipeline,
		mode:              mode,
		coverageThreshold: coverageThreshold,
		verbose:           verbose,
	}
}

// RunCase replays one golden case and scores its output
func (r *Runner) RunCase(ctx context.Context, c GoldenCase) (CaseResult, error) {
	resp, err := r.pipeline.Answer(ctx, core.Request{
		SessionID: session.NewSessionID(),
		Question:  c.Question,
		Audience:  c.Audience,
		Intent:    c.Intent,
		TopK:      c.MaxChunks,
	})
	if err != nil {
		return CaseResult{}, fmt.Errorf("case %s: %w", c.ID, err)
	}

	output := CaseOutput{
		Answer:    resp.Answer,
		Refused:   resp.Refused,
		Retrieved: resp.Retrieved,
		Evidence:  resp.Evidence,
	}
	if !resp.Refused {
		output.Sources = resp.Sources
	}

	result := EvaluateCase(c, output, r.coverageThreshold)
	if r.verbose {
		log.Printf("[Eval] %s passed=%v refusal_correct=%v recall=%.2f coverage=%.2f",
			c.ID, result.Passed, result.RefusalCorrect, result.RetrievalRecall, result.KeywordCoverage)
	}
	return result, nil
}

// RunAll replays every case and assembles the report
func (r *Runner) RunAll(ctx context.Context, cases []GoldenCase, datasetPath string) (Report, error) {
	results := make([]CaseResult, 0, len(cases))
	for _, c := range cases {
		result, err := r.RunCase(ctx, c)
		if err != nil {
			return Report{}, err
		}
		results = append(results, result)
	}
	return NewReport(results, datasetPath, r.mode), nil
}
