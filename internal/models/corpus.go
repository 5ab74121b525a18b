// ABOUTME: Corpus source format - one record per document with its extracted chunks
// ABOUTME: Parses the ingestion boundary JSON into flat Chunk slices for indexing
package models

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ChunkRecord is a single chunk as it appears in the corpus source file
type ChunkRecord struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	ChunkType string         `json:"chunk_type,omitempty"`
	Section   string         `json:"section,omitempty"`
}

// DocumentRecord is one document in the corpus source file
type DocumentRecord struct {
	DocID   string        `json:"doc_id"`
	DocType DocType       `json:"doc_type"`
	Chunks  []ChunkRecord `json:"chunks"`
}

// ParseCorpus reads document records and flattens them into chunks.
// Duplicate chunk ids across the corpus are rejected.
func ParseCorpus(r io.Reader) ([]Chunk, error) {
	var docs []DocumentRecord
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decoding corpus: %w", err)
	}

	seen := make(map[string]bool)
	var chunks []Chunk
	for _, doc := range docs {
		for _, rec := range doc.Chunks {
			if rec.ID == "" {
				return nil, fmt.Errorf("document %s has a chunk with no id", doc.DocID)
			}
			if seen[rec.ID] {
				return nil, fmt.Errorf("duplicate chunk id %q in corpus", rec.ID)
			}
			seen[rec.ID] = true

			chunks = append(chunks, Chunk{
				ID:        rec.ID,
				Text:      rec.Text,
				DocID:     doc.DocID,
				DocType:   doc.DocType,
				Section:   rec.Section,
				ChunkType: rec.ChunkType,
				Page:      pageFromMetadata(rec.Metadata),
			})
		}
	}
	return chunks, nil
}

// LoadCorpusFile parses a corpus source file from disk
func LoadCorpusFile(path string) ([]Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseCorpus(f)
}

// pageFromMetadata extracts a positive page number from chunk metadata.
// JSON numbers decode as float64; string pages are not recognized.
func pageFromMetadata(md map[string]any) int {
	if md == nil {
		return 0
	}
	switch v := md["page"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
