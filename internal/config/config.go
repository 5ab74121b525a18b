// ABOUTME: Centralized configuration for the clinical evidence pipeline
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// RerankerMode selects the scoring backend for the reranker service
type RerankerMode string

const (
	RerankerModeModel    RerankerMode = "model"
	RerankerModeFallback RerankerMode = "fallback"
)

// Config holds all configuration for the evidence pipeline
type Config struct {
	// Evidence gate thresholds
	StrongMatchScore float64
	MinStrongMatches int

	// BM25 parameters
	BM25K1 float64
	BM25B  float64

	// Conversation settings
	SummaryTurnThreshold int
	RecentPairCount      int

	// Evaluation settings
	CoverageThreshold float64

	// OpenAI settings (generation, summaries, query embeddings)
	OpenAIKey      string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Vector search settings
	QdrantAddr       string
	QdrantCollection string
	VectorNamespace  string

	// Reranker settings
	RerankerMode RerankerMode

	// Concurrency bound for blocking external calls
	ExternalCallLimit int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		StrongMatchScore:     getEnvFloat("STRONG_MATCH_SCORE", 0.50),
		MinStrongMatches:     getEnvInt("MIN_STRONG_MATCHES", 1),
		BM25K1:               getEnvFloat("BM25_K1", 1.5),
		BM25B:                getEnvFloat("BM25_B", 0.75),
		SummaryTurnThreshold: getEnvInt("SUMMARY_TURN_THRESHOLD", 10),
		RecentPairCount:      getEnvInt("RECENT_PAIR_COUNT", 3),
		CoverageThreshold:    getEnvFloat("COVERAGE_THRESHOLD", 0.3),
		OpenAIKey:            os.Getenv("OPENAI_API_KEY"),
		ChatModel:            getEnv("CLINRAG_CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:       getEnv("CLINRAG_EMBEDDING_MODEL", "text-embedding-3-small"),
		Timeout:              getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:           getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:           getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		QdrantAddr:           getEnv("QDRANT_ADDR", "localhost:6334"),
		QdrantCollection:     getEnv("QDRANT_COLLECTION", "clinical_chunks"),
		VectorNamespace:      getEnv("VECTOR_NAMESPACE", "default"),
		RerankerMode:         RerankerMode(getEnv("RERANKER_MODE", string(RerankerModeModel))),
		ExternalCallLimit:    getEnvInt("EXTERNAL_CALL_LIMIT", 8),
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the pipeline cannot run safely with.
// A failure here is fatal at startup, never recovered per-request.
func (c *Config) Validate() error {
	if c.StrongMatchScore < 0 || c.StrongMatchScore > 1 {
		return fmt.Errorf("STRONG_MATCH_SCORE must be 0-1, got %f", c.StrongMatchScore)
	}
	if c.MinStrongMatches < 1 {
		return fmt.Errorf("MIN_STRONG_MATCHES must be at least 1, got %d", c.MinStrongMatches)
	}
	if c.BM25K1 <= 0 {
		return fmt.Errorf("BM25_K1 must be positive, got %f", c.BM25K1)
	}
	if c.BM25B < 0 || c.BM25B > 1 {
		return fmt.Errorf("BM25_B must be 0-1, got %f", c.BM25B)
	}
	if c.SummaryTurnThreshold < 1 {
		return fmt.Errorf("SUMMARY_TURN_THRESHOLD must be at least 1, got %d", c.SummaryTurnThreshold)
	}
	if c.RecentPairCount < 1 {
		return fmt.Errorf("RECENT_PAIR_COUNT must be at least 1, got %d", c.RecentPairCount)
	}
	if c.CoverageThreshold < 0 || c.CoverageThreshold > 1 {
		return fmt.Errorf("COVERAGE_THRESHOLD must be 0-1, got %f", c.CoverageThreshold)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.ExternalCallLimit < 1 {
		return fmt.Errorf("EXTERNAL_CALL_LIMIT must be at least 1, got %d", c.ExternalCallLimit)
	}
	switch c.RerankerMode {
	case RerankerModeModel, RerankerModeFallback:
	default:
		return fmt.Errorf("RERANKER_MODE must be %q or %q, got %q", RerankerModeModel, RerankerModeFallback, c.RerankerMode)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
