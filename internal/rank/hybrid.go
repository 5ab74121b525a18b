// ABOUTME: HybridRanker fuses lexical and vector candidates and reranks them
// ABOUTME: The rerank score is the authoritative ordering and threshold value
package rank

import (
	"context"
	"fmt"
	"log"
	"sort"

	"golang.org/x/sync/semaphore"

	"github.com/carebridge/clinrag/internal/index"
	"github.com/carebridge/clinrag/internal/models"
	"github.com/carebridge/clinrag/internal/rerank"
	"github.com/carebridge/clinrag/internal/retrieval"
)

// Ranker runs hybrid retrieval for one corpus. Lexical and vector search
// fan out concurrently; blocking external calls (embedding, vector search,
// reranking) pass through a shared bounded semaphore so slow collaborators
// do not serialize unrelated requests.
type Ranker struct {
	holder    *index.Holder
	retriever retrieval.VectorRetriever
	embedder  retrieval.Embedder
	reranker  *rerank.Service
	namespace string
	external  *semaphore.Weighted
}

// NewRanker wires the ranker's collaborators. retriever and embedder may
// be nil together, which degrades ranking to the lexical signal only.
func NewRanker(holder *index.Holder, retriever retrieval.VectorRetriever, embedder retrieval.Embedder, reranker *rerank.Service, namespace string, externalCallLimit int) *Ranker {
	if externalCallLimit < 1 {
		externalCallLimit = 1
	}
	return &Ranker{
		holder:    holder,
		retriever: retriever,
		embedder:  embedder,
		reranker:  reranker,
		namespace: namespace,
		external:  semaphore.NewWeighted(int64(externalCallLimit)),
	}
}

// Result is the ranked candidate list plus degradation observability
type Result struct {
	Candidates     []models.Candidate
	RerankDegraded bool
	VectorFailed   bool
}

type vectorResult struct {
	hits []retrieval.VectorHit
	err  error
}

// Rank retrieves, fuses, and reranks candidates for a query.
// The dense side may fail; lexical candidates still flow through
// reranking. Both sides coming back empty yields an empty candidate
// list, which the evidence gate reports as no_candidates.
func (r *Ranker) Rank(ctx context.Context, query string, topK int, docType models.DocType) (Result, error) {
	idx := r.holder.Current()

	vectorChan := make(chan vectorResult, 1)
	go func() {
		hits, err := r.vectorSearch(ctx, query, topK, docType)
		vectorChan <- vectorResult{hits: hits, err: err}
	}()

	lexical := idx.Search(query, topK, docType)

	result := Result{}
	var vector []retrieval.VectorHit
	select {
	case res := <-vectorChan:
		if res.err != nil {
			log.Printf("[Ranker] vector retrieval failed, continuing lexical-only: %v", res.err)
			result.VectorFailed = true
		}
		vector = res.hits
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	candidates := fuse(idx, lexical, vector)
	if len(candidates) == 0 {
		return result, nil
	}

	passages := make([]string, len(candidates))
	for i, c := range candidates {
		passages[i] = c.Chunk.Text
	}

	if err := r.external.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	scored := r.reranker.Score(ctx, query, passages)
	r.external.Release(1)

	result.RerankDegraded = scored.Degraded
	for i := range candidates {
		candidates[i].RerankScore = scored.Scores[i]
		candidates[i].FusedScore = scored.Scores[i]
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].FusedScore > candidates[b].FusedScore
	})
	result.Candidates = candidates
	return result, nil
}

// vectorSearch embeds the query and runs nearest-neighbor search.
// Returns nil hits when no dense retriever is wired.
func (r *Ranker) vectorSearch(ctx context.Context, query string, topK int, docType models.DocType) ([]retrieval.VectorHit, error) {
	if r.retriever == nil || r.embedder == nil {
		return nil, nil
	}

	if err := r.external.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.external.Release(1)

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var filter map[string]string
	if docType != models.DocTypeUnspecified {
		filter = map[string]string{"doc_type": string(docType)}
	}

	hits, err := r.retriever.Search(ctx, vector, topK, r.namespace, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}

// fuse unions the two candidate sets by chunk id. A chunk found by both
// sources keeps both raw scores. Vector hits whose ids are not in the
// current corpus snapshot are dropped.
func fuse(idx *index.LexicalIndex, lexical []index.Result, vector []retrieval.VectorHit) []models.Candidate {
	byID := make(map[string]int)
	var candidates []models.Candidate

	for _, hit := range lexical {
		byID[hit.Chunk.ID] = len(candidates)
		candidates = append(candidates, models.Candidate{
			Chunk:        hit.Chunk,
			FromLexical:  true,
			LexicalScore: hit.Score,
		})
	}

	for _, hit := range vector {
		if i, ok := byID[hit.ID]; ok {
			candidates[i].FromVector = true
			candidates[i].VectorScore = hit.Score
			continue
		}
		chunk, ok := idx.ChunkByID(hit.ID)
		if !ok {
			continue
		}
		byID[hit.ID] = len(candidates)
		candidates = append(candidates, models.Candidate{
			Chunk:       chunk,
			FromVector:  true,
			VectorScore: hit.Score,
		})
	}

	return candidates
}
