package config

import (
	"sync"
)

type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

var (
	groqConfig *GroqConfig
	groqOnce   sync.Once
)

func LoadGroqConfig() *GroqConfig {
	groqOnce.Do(func() {
		groqConfig = readGroqConfig()
	})
	return groqConfig
}

func readGroqConfig() *GroqConfig {
	return &GroqConfig{
		APIKey:  getEnv("GROQ_API_KEY", ""),
		BaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		Model:   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
	}
}
