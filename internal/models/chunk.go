// ABOUTME: Chunk represents an indexed passage from a clinical source document
// ABOUTME: Immutable once indexed; identified uniquely within a corpus snapshot
package models

// DocType classifies the source document a chunk came from
type DocType string

const (
	DocTypeProtocol    DocType = "protocol"
	DocTypeLabel       DocType = "label"
	DocTypeGuideline   DocType = "guideline"
	DocTypeFAQ         DocType = "faq"
	DocTypeUnspecified DocType = ""
)

// Chunk is a single indexed passage with its source metadata
type Chunk struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	DocID     string  `json:"doc_id"`
	DocType   DocType `json:"doc_type"`
	Section   string  `json:"section,omitempty"`
	ChunkType string  `json:"chunk_type,omitempty"`
	Page      int     `json:"page,omitempty"`
}
