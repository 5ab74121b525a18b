// ABOUTME: In-memory BM25 lexical index over the clinical chunk corpus
// ABOUTME: Built once, immutable; rebuilds swap in atomically via Holder
package index

import (
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/carebridge/clinrag/internal/models"
)

// Result is a single lexical search hit
type Result struct {
	Chunk models.Chunk
	Score float64
}

// LexicalIndex is a BM25 index over a corpus snapshot. All fields are
// populated at build time and never mutated, so any number of readers
// may search concurrently.
type LexicalIndex struct {
	chunks    []models.Chunk
	byID      map[string]int
	termFreqs []map[string]int
	docFreq   map[string]int
	lengths   []int
	avgLen    float64
	k1        float64
	b         float64
}

// Build constructs a BM25 index from the full chunk corpus.
// k1 controls term-frequency saturation, b controls length normalization.
func Build(chunks []models.Chunk, k1, b float64) *LexicalIndex {
	idx := &LexicalIndex{
		chunks:    chunks,
		byID:      make(map[string]int, len(chunks)),
		termFreqs: make([]map[string]int, len(chunks)),
		docFreq:   make(map[string]int),
		lengths:   make([]int, len(chunks)),
		k1:        k1,
		b:         b,
	}

	totalLen := 0
	for i, chunk := range chunks {
		idx.byID[chunk.ID] = i
		tokens := Tokenize(chunk.Text)
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		idx.termFreqs[i] = freqs
		idx.lengths[i] = len(tokens)
		totalLen += len(tokens)

		for term := range freqs {
			idx.docFreq[term]++
		}
	}

	if len(chunks) > 0 {
		idx.avgLen = float64(totalLen) / float64(len(chunks))
	}
	return idx
}

// Search scores every chunk against the query and returns the topK hits
// sorted by score descending. Chunks scoring zero are excluded. An empty
// corpus or a query with no tokens yields an empty slice, never an error.
// A non-empty docType restricts results to chunks of that document type.
func (idx *LexicalIndex) Search(query string, topK int, docType models.DocType) []Result {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 || len(idx.chunks) == 0 {
		return nil
	}

	n := float64(len(idx.chunks))
	var results []Result
	for i, chunk := range idx.chunks {
		if docType != models.DocTypeUnspecified && chunk.DocType != docType {
			continue
		}

		score := 0.0
		for _, term := range queryTokens {
			tf := float64(idx.termFreqs[i][term])
			if tf == 0 {
				continue
			}
			df := float64(idx.docFreq[term])
			idf := math.Log((n-df+0.5)/(df+0.5) + 1)
			norm := 1 - idx.b + idx.b*float64(idx.lengths[i])/idx.avgLen
			score += idf * tf * (idx.k1 + 1) / (tf + idx.k1*norm)
		}
		if score > 0 {
			results = append(results, Result{Chunk: chunk, Score: score})
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Size returns the number of indexed chunks
func (idx *LexicalIndex) Size() int {
	return len(idx.chunks)
}

// ChunkByID looks up an indexed chunk by its corpus id
func (idx *LexicalIndex) ChunkByID(id string) (models.Chunk, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return models.Chunk{}, false
	}
	return idx.chunks[i], true
}

// Tokenize splits text into lower-cased alphanumeric runs.
// Punctuation and casing carry no signal for clinical retrieval.
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// Holder publishes the current index to readers. Rebuilds produce a new
// LexicalIndex and swap the pointer; no search ever observes a partially
// built index.
type Holder struct {
	current atomic.Pointer[LexicalIndex]
}

// NewHolder creates a holder publishing the given index
func NewHolder(idx *LexicalIndex) *Holder {
	h := &Holder{}
	h.current.Store(idx)
	return h
}

// Current returns the index readers should search
func (h *Holder) Current() *LexicalIndex {
	return h.current.Load()
}

// Swap atomically replaces the published index with a freshly built one
func (h *Holder) Swap(idx *LexicalIndex) {
	h.current.Store(idx)
}
