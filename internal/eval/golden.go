// ABOUTME: Golden-case dataset definitions and JSON loading
// ABOUTME: Each case pins expected retrieval, refusal, and keyword outcomes
package eval

import (
	"encoding/json"
	"fmt"
	"os"
)

// GoldenCase is one hand-curated regression question
type GoldenCase struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	Audience         string   `json:"audience,omitempty"`
	Intent           string   `json:"intent,omitempty"`
	ExpectedDocIDs   []string `json:"expected_doc_ids,omitempty"`
	ExpectedKeywords []string `json:"expected_keywords,omitempty"`
	ShouldRefuse     bool     `json:"should_refuse"`
	MaxChunks        int      `json:"max_chunks,omitempty"`
}

// LoadGoldenDataset reads a JSON array of golden cases from disk
func LoadGoldenDataset(path string) ([]GoldenCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading golden dataset: %w", err)
	}

	var cases []GoldenCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parsing golden dataset %s: %w", path, err)
	}

	seen := make(map[string]bool, len(cases))
	for i, c := range cases {
		if c.ID == "" {
			return nil, fmt.Errorf("case %d: missing id", i)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("duplicate case id %q", c.ID)
		}
		seen[c.ID] = true
		if c.Question == "" {
			return nil, fmt.Errorf("case %s: missing question", c.ID)
		}
	}
	return cases, nil
}
