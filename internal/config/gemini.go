package config

import (
	"sync"
)

type GeminiConfig struct {
	APIKey         string
	EmbeddingModel string
	ReportModel    string
	// BaseURL overrides the API endpoint, for proxies and local fakes.
	BaseURL string
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		geminiConfig = &GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			EmbeddingModel: getEnv("GEMINI_EMBEDDING_MODEL", "gemini-embedding-001"),
			ReportModel:    getEnv("GEMINI_REPORT_MODEL", "gemini-2.5-flash"),
			BaseURL:        getEnv("GEMINI_BASE_URL", ""),
		}
	})
	return geminiConfig
}
