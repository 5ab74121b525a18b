// ABOUTME: Sigmoid transform for cross-encoder logits
// ABOUTME: Guarantees bounded [0,1] output for any real-valued input
package rerank

import "math"

// Sigmoid maps a raw relevance logit into [0,1]. Every model backend's
// output passes through this before leaving the reranker; downstream
// threshold comparisons assume the bounded range.
func Sigmoid(logit float64) float64 {
	return 1.0 / (1.0 + math.Exp(-logit))
}
