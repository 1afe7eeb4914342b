package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/smartystreets/goconvey/convey"
)

func TestLoadJobCatalog_Default(t *testing.T) {
	convey.Convey("Given the built-in job catalogue", t, func() {
		catalog, err := LoadJobCatalog("")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then both roles of the original listing are present", func() {
			jobs := catalog.List()
			convey.So(len(jobs), convey.ShouldEqual, 2)
			convey.So(jobs[0].Role, convey.ShouldEqual, "data-engineer")
			convey.So(jobs[1].Role, convey.ShouldEqual, "data-scientist")
		})

		convey.Convey("Then lookups are case-insensitive", func() {
			job, err := catalog.Get("  Data-Engineer ")
			convey.So(err, convey.ShouldBeNil)
			convey.So(job.Description, convey.ShouldContainSubstring, "Power BI")
			convey.So(job.Description, convey.ShouldContainSubstring, "SQL")
		})

		convey.Convey("Then unknown roles are reported as not found", func() {
			_, err := catalog.Get("chef")
			convey.So(errors.Is(err, apperr.ErrNotFound), convey.ShouldBeTrue)
		})
	})
}

func TestLoadJobCatalog_File(t *testing.T) {
	convey.Convey("Given a catalogue file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "jobs.yaml")
		content := "jobs:\n  - role: Sous-Chef\n    title: Sous Chef\n    description: |\n      Prepare sauces and manage the line.\n"
		convey.So(os.WriteFile(path, []byte(content), 0o600), convey.ShouldBeNil)

		catalog, err := LoadJobCatalog(path)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the role is normalised", func() {
			job, err := catalog.Get("sous-chef")
			convey.So(err, convey.ShouldBeNil)
			convey.So(job.Title, convey.ShouldEqual, "Sous Chef")
			convey.So(job.Description, convey.ShouldEqual, "Prepare sauces and manage the line.")
		})
	})

	convey.Convey("Given a missing catalogue file", t, func() {
		_, err := LoadJobCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
		convey.So(errors.Is(err, apperr.ErrConfig), convey.ShouldBeTrue)
	})
}

func TestNewJobCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name string
		jobs []Job
	}{
		{name: "empty", jobs: nil},
		{name: "blank role", jobs: []Job{{Role: " ", Description: "x"}}},
		{name: "blank description", jobs: []Job{{Role: "a"}}},
		{name: "role with spaces", jobs: []Job{{Role: "data engineer", Description: "x"}}},
		{name: "duplicate", jobs: []Job{{Role: "a", Description: "x"}, {Role: "A", Description: "y"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewJobCatalog(tt.jobs...); !errors.Is(err, apperr.ErrConfig) {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}
}

func TestValidateScoring(t *testing.T) {
	tests := []struct {
		name    string
		scoring ScoringConfig
		groq    GroqConfig
		gemini  GeminiConfig
		wantErr bool
	}{
		{
			name:    "groq without key",
			scoring: ScoringConfig{ReportProvider: ProviderGroq, EmbeddingProvider: ProviderHashing, HashingDimensions: 64},
			wantErr: true,
		},
		{
			name:    "groq with hashing embedder",
			scoring: ScoringConfig{ReportProvider: ProviderGroq, EmbeddingProvider: ProviderHashing, HashingDimensions: 64},
			groq:    GroqConfig{APIKey: "gsk_test"},
		},
		{
			name:    "gemini embedder without key",
			scoring: ScoringConfig{ReportProvider: ProviderGroq, EmbeddingProvider: ProviderGemini},
			groq:    GroqConfig{APIKey: "gsk_test"},
			wantErr: true,
		},
		{
			name:    "gemini for both",
			scoring: ScoringConfig{ReportProvider: ProviderGemini, EmbeddingProvider: ProviderGemini},
			gemini:  GeminiConfig{APIKey: "key"},
		},
		{
			name:    "unknown report provider",
			scoring: ScoringConfig{ReportProvider: "openai", EmbeddingProvider: ProviderHashing, HashingDimensions: 8},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScoring(&tt.scoring, &tt.groq, &tt.gemini)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrConfig) {
					t.Fatalf("expected config error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStore(t *testing.T) {
	if err := ValidateStore(&StoreConfig{Driver: StoreFirestore}); !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("expected missing project to fail, got %v", err)
	}
	if err := ValidateStore(&StoreConfig{Driver: "sqlite"}); !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("expected unknown driver to fail, got %v", err)
	}
	if err := ValidateStore(&StoreConfig{Driver: StoreCSV, Dir: "./data"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReadScoringConfigFromEnv(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "hashing")
	t.Setenv("REPORT_TIMEOUT", "15s")
	t.Setenv("EMBEDDING_TIMEOUT", "not-a-duration")
	t.Setenv("SCORING_MAX_RETRIES", "5")

	EnvWarnings()
	cfg := readScoringConfig()

	if cfg.EmbeddingProvider != ProviderHashing {
		t.Errorf("EmbeddingProvider = %q", cfg.EmbeddingProvider)
	}
	if cfg.ReportTimeout != 15*time.Second {
		t.Errorf("ReportTimeout = %s", cfg.ReportTimeout)
	}
	if cfg.EmbeddingTimeout != 30*time.Second {
		t.Errorf("EmbeddingTimeout should fall back, got %s", cfg.EmbeddingTimeout)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}

	warned := EnvWarnings()
	if len(warned) != 1 {
		t.Fatalf("expected one warning, got %+v", warned)
	}
	w := warned[0]
	if w.Key != "EMBEDDING_TIMEOUT" || w.Value != "not-a-duration" || w.Fallback != "30s" {
		t.Errorf("unexpected warning %+v", w)
	}
	if again := EnvWarnings(); len(again) != 0 {
		t.Errorf("warnings should be cleared, got %+v", again)
	}
}

func TestReadGroqConfigDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	cfg := readGroqConfig()
	if cfg.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey should be empty, got %q", cfg.APIKey)
	}
}
