// ABOUTME: Tests for shared CLI helpers
// ABOUTME: Covers string truncation and flag validation
package commands

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"this is a longer string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"日本語テスト", 2, "日本"},
		{"abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}

func TestValidatePositiveInt(t *testing.T) {
	if err := validatePositiveInt(5, "top-k"); err != nil {
		t.Errorf("validatePositiveInt(5) = %v, want nil", err)
	}
	if err := validatePositiveInt(0, "top-k"); err == nil {
		t.Error("validatePositiveInt(0) should error")
	}
	if err := validatePositiveInt(-1, "top-k"); err == nil {
		t.Error("validatePositiveInt(-1) should error")
	}
}
