// ABOUTME: VectorRetriever contract for external nearest-neighbor search
// ABOUTME: Includes an in-memory cosine implementation for tests and offline mode
package retrieval

import (
	"context"
	"math"
	"sort"
	"sync"
)

// VectorHit is one nearest-neighbor result. The score is treated as an
// opaque recall signal; reranking produces the value used for thresholds.
type VectorHit struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// VectorRetriever is the contract the pipeline consumes for dense
// retrieval. Implementations wrap an external vector store.
type VectorRetriever interface {
	Search(ctx context.Context, vector []float32, topK int, namespace string, filter map[string]string) ([]VectorHit, error)
}

// Embedder turns query text into the vector the retriever searches with
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// MemoryRetriever is an in-memory cosine-similarity VectorRetriever.
// Used by tests and by offline evaluation runs with no Qdrant available.
type MemoryRetriever struct {
	mu      sync.RWMutex
	entries map[string][]memoryEntry // namespace -> entries
}

type memoryEntry struct {
	id       string
	vector   []float32
	metadata map[string]string
}

// NewMemoryRetriever creates an empty in-memory retriever
func NewMemoryRetriever() *MemoryRetriever {
	return &MemoryRetriever{entries: make(map[string][]memoryEntry)}
}

// Add stores a vector under the given namespace
func (m *MemoryRetriever) Add(namespace, id string, vector []float32, metadata map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[namespace] = append(m.entries[namespace], memoryEntry{id: id, vector: vector, metadata: metadata})
}

// Search returns the topK entries by cosine similarity, optionally
// restricted to entries whose metadata contains every filter pair.
func (m *MemoryRetriever) Search(ctx context.Context, vector []float32, topK int, namespace string, filter map[string]string) ([]VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []VectorHit
	for _, entry := range m.entries[namespace] {
		if !matchesFilter(entry.metadata, filter) {
			continue
		}
		hits = append(hits, VectorHit{
			ID:       entry.id,
			Score:    cosineSimilarity(vector, entry.vector),
			Metadata: entry.metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// cosineSimilarity calculates cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
