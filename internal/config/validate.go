package config

import (
	"fmt"
	"strings"

	"github.com/fadilmartias/scandid/internal/apperr"
)

// ValidateScoring checks that every credential the selected providers need is
// present, so a missing key fails at startup instead of in the middle of a
// screening request.
func ValidateScoring(sc *ScoringConfig, groq *GroqConfig, gemini *GeminiConfig) error {
	const op = "config.validate_scoring"

	switch sc.ReportProvider {
	case ProviderGroq:
		if strings.TrimSpace(groq.APIKey) == "" {
			return apperr.Errorf(op, apperr.ErrConfig, "GROQ_API_KEY not set")
		}
	case ProviderGemini:
		if strings.TrimSpace(gemini.APIKey) == "" {
			return apperr.Errorf(op, apperr.ErrConfig, "GEMINI_API_KEY not set (REPORT_PROVIDER=gemini)")
		}
	default:
		return apperr.Errorf(op, apperr.ErrConfig, "unknown REPORT_PROVIDER %q", sc.ReportProvider)
	}

	switch sc.EmbeddingProvider {
	case ProviderGemini:
		if strings.TrimSpace(gemini.APIKey) == "" {
			return apperr.Errorf(op, apperr.ErrConfig, "GEMINI_API_KEY not set (EMBEDDING_PROVIDER=gemini)")
		}
	case ProviderHashing:
		if sc.HashingDimensions <= 0 {
			return apperr.Errorf(op, apperr.ErrConfig, "EMBEDDING_HASHING_DIMENSIONS must be positive")
		}
	default:
		return apperr.Errorf(op, apperr.ErrConfig, "unknown EMBEDDING_PROVIDER %q", sc.EmbeddingProvider)
	}

	return nil
}

// ValidateStore checks the settings required by the selected store driver.
func ValidateStore(c *StoreConfig) error {
	const op = "config.validate_store"

	switch c.Driver {
	case StoreCSV:
		if strings.TrimSpace(c.Dir) == "" {
			return apperr.Errorf(op, apperr.ErrConfig, "STORE_DIR not set")
		}
	case StoreFirestore:
		if strings.TrimSpace(c.FirestoreProject) == "" {
			return apperr.Errorf(op, apperr.ErrConfig, "FIRESTORE_PROJECT not set")
		}
	case StorePostgres, StoreMemory:
	default:
		return apperr.Wrap(op, apperr.ErrConfig, fmt.Errorf("unknown STORE_DRIVER %q", c.Driver))
	}
	return nil
}
