package config

import (
	"sync"
	"time"
)

// Provider names accepted by EMBEDDING_PROVIDER and REPORT_PROVIDER.
const (
	ProviderGemini  = "gemini"
	ProviderHashing = "hashing"
	ProviderGroq    = "groq"
)

type ScoringConfig struct {
	EmbeddingProvider string
	EmbeddingTimeout  time.Duration
	// HashingDimensions sizes the vectors of the offline hashing embedder.
	HashingDimensions int
	ReportProvider    string
	ReportTimeout     time.Duration
	MaxRetries        int
}

var (
	scoringConfig *ScoringConfig
	scoringOnce   sync.Once
)

func LoadScoringConfig() *ScoringConfig {
	scoringOnce.Do(func() {
		scoringConfig = readScoringConfig()
	})
	return scoringConfig
}

func readScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", ProviderGemini),
		EmbeddingTimeout:  durationEnv("EMBEDDING_TIMEOUT", 30*time.Second),
		HashingDimensions: intEnv("EMBEDDING_HASHING_DIMENSIONS", 1024),
		ReportProvider:    getEnv("REPORT_PROVIDER", ProviderGroq),
		ReportTimeout:     durationEnv("REPORT_TIMEOUT", 90*time.Second),
		MaxRetries:        intEnv("SCORING_MAX_RETRIES", 3),
	}
}
