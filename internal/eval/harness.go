// ABOUTME: Deterministic per-case scoring and corpus-level aggregation
// ABOUTME: Buckets failures into retraining and prompt-tuning triage lists
package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/carebridge/clinrag/internal/gate"
	"github.com/carebridge/clinrag/internal/models"
)

// DefaultCoverageThreshold is the minimum fraction of expected keywords
// an answer must contain when generation is live. Retrieval-only runs
// use 0 because there is no answer text to inspect.
const DefaultCoverageThreshold = 0.3

// CaseOutput is what the pipeline produced for one golden question
type CaseOutput struct {
	Answer    string                `json:"answer"`
	Refused   bool                  `json:"refused"`
	Sources   []models.Source       `json:"sources"`
	Retrieved []models.Candidate    `json:"retrieved_chunks"`
	Evidence  gate.EvidenceDecision `json:"evidence"`
}

// CaseResult is the scored outcome for one golden case
type CaseResult struct {
	CaseID              string  `json:"case_id"`
	Question            string  `json:"question"`
	Passed              bool    `json:"passed"`
	RefusalCorrect      bool    `json:"refusal_correct"`
	RetrievalMiss       bool    `json:"retrieval_miss"`
	InvalidCitationPage bool    `json:"invalid_citation_page"`
	LowContentCoverage  bool    `json:"low_content_coverage"`
	KeywordCoverage     float64 `json:"keyword_coverage"`
	RetrievalRecall     float64 `json:"retrieval_recall"`
	CitationsPresent    bool    `json:"citations_present"`
}

// EvaluateCase scores one case output against its golden expectations.
// A correct refusal with no sources passes unconditionally; the other
// buckets only apply to cases expected to be answered.
func EvaluateCase(c GoldenCase, output CaseOutput, coverageThreshold float64) CaseResult {
	result := CaseResult{
		CaseID:           c.ID,
		Question:         c.Question,
		RefusalCorrect:   output.Refused == c.ShouldRefuse,
		CitationsPresent: len(output.Sources) > 0,
	}

	if c.ShouldRefuse {
		result.Passed = result.RefusalCorrect && len(output.Sources) == 0
		return result
	}

	result.RetrievalRecall = retrievalRecall(c.ExpectedDocIDs, output.Retrieved)
	if len(c.ExpectedDocIDs) > 0 && result.RetrievalRecall == 0 {
		result.RetrievalMiss = true
	}

	for _, src := range output.Sources {
		if src.Page <= 0 {
			result.InvalidCitationPage = true
			break
		}
	}

	result.KeywordCoverage = keywordCoverage(c.ExpectedKeywords, output.Answer)
	if len(c.ExpectedKeywords) > 0 && result.KeywordCoverage < coverageThreshold {
		result.LowContentCoverage = true
	}

	result.Passed = result.RefusalCorrect &&
		!result.RetrievalMiss &&
		!result.InvalidCitationPage &&
		!result.LowContentCoverage
	return result
}

// retrievalRecall is the fraction of expected doc ids present among the
// retrieved chunks' doc ids
func retrievalRecall(expectedDocIDs []string, retrieved []models.Candidate) float64 {
	if len(expectedDocIDs) == 0 {
		return 1.0
	}

	docIDs := make(map[string]bool, len(retrieved))
	for _, c := range retrieved {
		docIDs[c.Chunk.DocID] = true
	}

	found := 0
	for _, want := range expectedDocIDs {
		if docIDs[want] {
			found++
		}
	}
	return float64(found) / float64(len(expectedDocIDs))
}

// keywordCoverage is the fraction of expected keywords present in the
// answer, case-insensitive
func keywordCoverage(keywords []string, answer string) float64 {
	if len(keywords) == 0 {
		return 1.0
	}

	lowered := strings.ToLower(answer)
	found := 0
	for _, kw := range keywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}

// Summary is the corpus-level rollup across all scored cases
type Summary struct {
	PassRate               float64  `json:"pass_rate"`
	RefusalAccuracy        float64  `json:"refusal_accuracy"`
	CitationPresenceRate   float64  `json:"citation_presence_rate"`
	CitationPageValidRate  float64  `json:"citation_page_valid_rate"`
	AvgRetrievalRecallAtK  float64  `json:"avg_retrieval_recall_at_k"`
	RetrainingCandidates   []string `json:"retraining_candidates"`
	PromptTuningCandidates []string `json:"prompt_tuning_candidates"`
}

// AggregateResults rolls per-case results up into triage-ready metrics.
// Failing questions land in retraining_candidates when retrieval or
// coverage missed, and in prompt_tuning_candidates when refusal behavior
// or citations were wrong.
func AggregateResults(results []CaseResult) Summary {
	summary := Summary{
		RetrainingCandidates:   []string{},
		PromptTuningCandidates: []string{},
	}
	if len(results) == 0 {
		return summary
	}

	passed, refusalCorrect, withCitations, validPages := 0, 0, 0, 0
	recallSum, recallCases := 0.0, 0

	for _, r := range results {
		if r.Passed {
			passed++
		}
		if r.RefusalCorrect {
			refusalCorrect++
		}
		if r.CitationsPresent {
			withCitations++
			if !r.InvalidCitationPage {
				validPages++
			}
		}
		if r.RetrievalRecall > 0 || r.RetrievalMiss {
			recallSum += r.RetrievalRecall
			recallCases++
		}

		if r.Passed {
			continue
		}
		if r.RetrievalMiss || r.LowContentCoverage {
			summary.RetrainingCandidates = append(summary.RetrainingCandidates, r.Question)
		}
		if !r.RefusalCorrect || r.InvalidCitationPage {
			summary.PromptTuningCandidates = append(summary.PromptTuningCandidates, r.Question)
		}
	}

	total := float64(len(results))
	summary.PassRate = float64(passed) / total
	summary.RefusalAccuracy = float64(refusalCorrect) / total
	if withCitations > 0 {
		summary.CitationPresenceRate = float64(withCitations) / total
		summary.CitationPageValidRate = float64(validPages) / float64(withCitations)
	}
	if recallCases > 0 {
		summary.AvgRetrievalRecallAtK = recallSum / float64(recallCases)
	}
	return summary
}

// ReportMetadata records how and when a report was produced
type ReportMetadata struct {
	GeneratedAt    string `json:"generated_at"`
	DatasetPath    string `json:"dataset_path"`
	ReportMode     string `json:"report_mode"`
	CasesEvaluated int    `json:"cases_evaluated"`
}

// Report is the persisted evaluation artifact
type Report struct {
	Results  []CaseResult   `json:"results"`
	Summary  Summary        `json:"summary"`
	Metadata ReportMetadata `json:"metadata"`
}

// NewReport assembles a report from scored results
func NewReport(results []CaseResult, datasetPath, mode string) Report {
	return Report{
		Results: results,
		Summary: AggregateResults(results),
		Metadata: ReportMetadata{
			GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
			DatasetPath:    datasetPath,
			ReportMode:     mode,
			CasesEvaluated: len(results),
		},
	}
}

// WriteReport writes the report as indented JSON
func WriteReport(report Report, outputPath string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
