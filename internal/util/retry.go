// ABOUTME: Backoff helper for retried external API calls
// ABOUTME: Exponential growth with jitter, shared by the LLM client
package util

import (
	"math/rand"
	"time"
)

// maxBackoff caps the delay between retry attempts
const maxBackoff = 20 * time.Second

// Backoff returns the delay before the given retry attempt: the base
// delay doubled per attempt, capped, with up to 20% random jitter so
// concurrent retries do not align.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	delay := base << uint(attempt-1)
	if delay <= 0 || delay > maxBackoff {
		delay = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 5))
	return delay + jitter
}
