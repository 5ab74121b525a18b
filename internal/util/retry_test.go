// ABOUTME: Tests for the retry backoff helper
// ABOUTME: Verifies growth, capping, and the zero-attempt case
package util

import (
	"testing"
	"time"
)

func TestBackoff_ZeroForFirstAttempt(t *testing.T) {
	if d := Backoff(time.Second, 0); d != 0 {
		t.Errorf("Backoff(_, 0) = %v, want 0", d)
	}
	if d := Backoff(time.Second, -1); d != 0 {
		t.Errorf("Backoff(_, -1) = %v, want 0", d)
	}
}

func TestBackoff_GrowsWithAttempts(t *testing.T) {
	base := 100 * time.Millisecond
	first := Backoff(base, 1)
	third := Backoff(base, 3)

	if first < base || first > base+base/5 {
		t.Errorf("Backoff(attempt 1) = %v, want ~%v", first, base)
	}
	if third < 4*base {
		t.Errorf("Backoff(attempt 3) = %v, want at least %v", third, 4*base)
	}
}

func TestBackoff_Capped(t *testing.T) {
	d := Backoff(time.Second, 30)
	if d > maxBackoff+maxBackoff/5 {
		t.Errorf("Backoff(attempt 30) = %v, exceeds cap with jitter", d)
	}

	// Huge attempt values must not overflow into negatives.
	if d := Backoff(time.Second, 1000); d <= 0 {
		t.Errorf("Backoff(attempt 1000) = %v, want positive", d)
	}
}
