// ABOUTME: Tests for golden-case scoring and aggregation
// ABOUTME: Covers refusal cases, failure buckets, and triage grouping
package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/carebridge/clinrag/internal/gate"
	"github.com/carebridge/clinrag/internal/models"
)

func answeredOutput(answer string, docID string, page int) CaseOutput {
	chunk := models.Chunk{ID: "c1", Text: answer, DocID: docID, Page: page}
	return CaseOutput{
		Answer:    answer,
		Refused:   false,
		Sources:   []models.Source{{DocID: docID, Page: page}},
		Retrieved: []models.Candidate{{Chunk: chunk, FusedScore: 0.8}},
		Evidence:  gate.EvidenceDecision{Sufficient: true, Reason: gate.ReasonStrongEvidence},
	}
}

func TestEvaluateCase_CorrectRefusalPasses(t *testing.T) {
	c := GoldenCase{ID: "g1", Question: "what dose should I take", ShouldRefuse: true}
	output := CaseOutput{
		Answer:   gate.PatientRefusalText,
		Refused:  true,
		Evidence: gate.EvidenceDecision{Sufficient: true, Reason: gate.ReasonStrongEvidence},
	}

	result := EvaluateCase(c, output, DefaultCoverageThreshold)
	if !result.Passed {
		t.Error("correct refusal with no sources must pass")
	}
	if !result.RefusalCorrect {
		t.Error("RefusalCorrect should be true")
	}
}

func TestEvaluateCase_MissedRefusalFails(t *testing.T) {
	c := GoldenCase{ID: "g2", Question: "injection depth", ShouldRefuse: true}
	output := answeredOutput("The injection depth is 5mm. [1]", "protocol-001", 4)

	result := EvaluateCase(c, output, DefaultCoverageThreshold)
	if result.Passed {
		t.Error("answering a refusal-expected case must fail")
	}
	if result.RefusalCorrect {
		t.Error("RefusalCorrect should be false")
	}
}

func TestEvaluateCase_WrongDocAndZeroPage(t *testing.T) {
	c := GoldenCase{
		ID:               "g3",
		Question:         "storage conditions",
		ExpectedDocIDs:   []string{"label-002"},
		ExpectedKeywords: []string{"refrigerated"},
	}
	output := answeredOutput("Store refrigerated between 2 and 8 degrees. [1]", "unrelated-doc", 0)

	result := EvaluateCase(c, output, DefaultCoverageThreshold)
	if result.Passed {
		t.Error("case must fail")
	}
	if !result.RetrievalMiss {
		t.Error("RetrievalMiss should trigger when no expected doc id was retrieved")
	}
	if !result.InvalidCitationPage {
		t.Error("InvalidCitationPage should trigger on a zero page")
	}
}

func TestEvaluateCase_KeywordCoverage(t *testing.T) {
	c := GoldenCase{
		ID:               "g4",
		Question:         "monitoring window",
		ExpectedDocIDs:   []string{"protocol-001"},
		ExpectedKeywords: []string{"monitor", "two hours", "reactions"},
	}

	good := answeredOutput("Monitor for infusion reactions during the first two hours. [1]", "protocol-001", 12)
	result := EvaluateCase(c, good, DefaultCoverageThreshold)
	if !result.Passed {
		t.Errorf("full-coverage case failed: %+v", result)
	}
	if result.KeywordCoverage != 1.0 {
		t.Errorf("KeywordCoverage = %.2f, want 1.0", result.KeywordCoverage)
	}

	bad := answeredOutput("See your care plan.", "protocol-001", 12)
	result = EvaluateCase(c, bad, DefaultCoverageThreshold)
	if !result.LowContentCoverage {
		t.Error("LowContentCoverage should trigger at 0/3 keywords")
	}
	if result.Passed {
		t.Error("low-coverage case must fail")
	}
}

func TestEvaluateCase_RetrievalOnlySkipsCoverage(t *testing.T) {
	c := GoldenCase{
		ID:               "g5",
		Question:         "monitoring window",
		ExpectedDocIDs:   []string{"protocol-001"},
		ExpectedKeywords: []string{"monitor"},
	}
	output := answeredOutput("", "protocol-001", 12)

	result := EvaluateCase(c, output, 0)
	if result.LowContentCoverage {
		t.Error("zero threshold must never flag coverage")
	}
	if !result.Passed {
		t.Errorf("retrieval-only case failed: %+v", result)
	}
}

func TestAggregateResults_TriageBuckets(t *testing.T) {
	results := []CaseResult{
		{CaseID: "a", Question: "qa", Passed: true, RefusalCorrect: true, RetrievalRecall: 1.0, CitationsPresent: true},
		{CaseID: "b", Question: "qb", Passed: false, RefusalCorrect: true, RetrievalMiss: true},
		{CaseID: "c", Question: "qc", Passed: false, RefusalCorrect: false, CitationsPresent: true, InvalidCitationPage: true, RetrievalRecall: 1.0},
	}

	summary := AggregateResults(results)
	if summary.PassRate != 1.0/3.0 {
		t.Errorf("PassRate = %.3f, want 0.333", summary.PassRate)
	}
	if summary.RefusalAccuracy != 2.0/3.0 {
		t.Errorf("RefusalAccuracy = %.3f, want 0.667", summary.RefusalAccuracy)
	}
	if len(summary.RetrainingCandidates) != 1 || summary.RetrainingCandidates[0] != "qb" {
		t.Errorf("RetrainingCandidates = %v, want [qb]", summary.RetrainingCandidates)
	}
	if len(summary.PromptTuningCandidates) != 1 || summary.PromptTuningCandidates[0] != "qc" {
		t.Errorf("PromptTuningCandidates = %v, want [qc]", summary.PromptTuningCandidates)
	}
	if summary.CitationPageValidRate != 0.5 {
		t.Errorf("CitationPageValidRate = %.2f, want 0.50", summary.CitationPageValidRate)
	}
}

func TestAggregateResults_Empty(t *testing.T) {
	summary := AggregateResults(nil)
	if summary.PassRate != 0 {
		t.Errorf("PassRate = %.2f, want 0", summary.PassRate)
	}
	if summary.RetrainingCandidates == nil || summary.PromptTuningCandidates == nil {
		t.Error("candidate lists must be empty, not nil")
	}
}

func TestLoadGoldenDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "golden.json")
	data := `[
		{"id": "g1", "question": "storage conditions", "expected_doc_ids": ["label-002"], "expected_keywords": ["refrigerated"]},
		{"id": "g2", "question": "what needle gauge", "audience": "patient", "should_refuse": true}
	]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cases, err := LoadGoldenDataset(path)
	if err != nil {
		t.Fatalf("LoadGoldenDataset() error = %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("loaded %d cases, want 2", len(cases))
	}
	if !cases[1].ShouldRefuse {
		t.Error("case g2 should expect a refusal")
	}
}

func TestLoadGoldenDataset_RejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "golden.json")
	data := `[{"id": "g1", "question": "a"}, {"id": "g1", "question": "b"}]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadGoldenDataset(path); err == nil {
		t.Error("duplicate case ids must be rejected")
	}
}

func TestWriteReport_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	report := NewReport([]CaseResult{
		{CaseID: "a", Question: "qa", Passed: true, RefusalCorrect: true},
	}, "golden.json", ModeRetrievalOnly)
	if err := WriteReport(report, path); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	if report.Metadata.CasesEvaluated != 1 {
		t.Errorf("CasesEvaluated = %d, want 1", report.Metadata.CasesEvaluated)
	}
	if report.Metadata.GeneratedAt == "" {
		t.Error("GeneratedAt must be set")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("report file not written: %v", err)
	}
}
