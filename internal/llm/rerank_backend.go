// ABOUTME: Embedding-similarity reranker backend on the OpenAI client
// ABOUTME: Scores query-passage pairs in one batched embedding request
package llm

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// Cosine similarity is converted to a logit by recentering around the
// midpoint of typical relevant/irrelevant similarities, so the sigmoid
// spreads scores across [0,1] instead of clustering near 0.5.
const (
	simMidpoint = 0.35
	simScale    = 8.0
)

// ScorePairs embeds the query and all passages in one batch and returns
// one similarity-derived logit per passage
func (c *OpenAIClient) ScorePairs(ctx context.Context, query string, passages []string) ([]float64, error) {
	input := make([]string, 0, len(passages)+1)
	input = append(input, query)
	input = append(input, passages...)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(reqCtx, openai.EmbeddingRequest{
		Model: c.embeddingModel,
		Input: input,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding rerank batch: %w", err)
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("embedding rerank batch: got %d vectors for %d inputs", len(resp.Data), len(input))
	}

	queryVec := resp.Data[0].Embedding
	logits := make([]float64, len(passages))
	for i := range passages {
		logits[i] = (cosine(queryVec, resp.Data[i+1].Embedding) - simMidpoint) * simScale
	}
	return logits, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
