// ABOUTME: Candidate is a per-query retrieval result carrying raw and calibrated scores
// ABOUTME: Ephemeral - created during ranking and discarded with the request
package models

// Candidate holds one retrieved chunk and every score it accumulated.
// LexicalScore and VectorScore are raw signals on incomparable scales and
// are kept for observability only; FusedScore is the calibrated [0,1]
// value all thresholding uses.
type Candidate struct {
	Chunk        Chunk   `json:"chunk"`
	FromLexical  bool    `json:"from_lexical"`
	FromVector   bool    `json:"from_vector"`
	LexicalScore float64 `json:"lexical_score,omitempty"`
	VectorScore  float64 `json:"vector_score,omitempty"`
	RerankScore  float64 `json:"rerank_score"`
	FusedScore   float64 `json:"fused_score"`
}

// Source is a citation pointing back to the document a candidate came from
type Source struct {
	DocID   string `json:"doc_id"`
	Section string `json:"section,omitempty"`
	Page    int    `json:"page"`
}

// SourceOf builds the citation for a candidate's chunk
func SourceOf(c Candidate) Source {
	return Source{
		DocID:   c.Chunk.DocID,
		Section: c.Chunk.Section,
		Page:    c.Chunk.Page,
	}
}
