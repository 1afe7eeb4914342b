package app

import (
	"context"
	"errors"
	"testing"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/config"
	"github.com/fadilmartias/scandid/internal/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func offlineSettings(t *testing.T) Settings {
	t.Helper()
	return Settings{
		App:     &config.AppConfig{Env: "test"},
		DB:      &config.DBConfig{},
		Store:   &config.StoreConfig{Driver: config.StoreCSV, Dir: t.TempDir(), MaxRetries: 1},
		Scoring: &config.ScoringConfig{EmbeddingProvider: config.ProviderHashing, HashingDimensions: 128, ReportProvider: config.ProviderGroq},
		Groq:    &config.GroqConfig{APIKey: "gsk_test", BaseURL: "http://127.0.0.1:0", Model: "llama-3.3-70b-versatile"},
		Gemini:  &config.GeminiConfig{},
	}
}

func TestBuildOffline(t *testing.T) {
	c, err := Build(context.Background(), offlineSettings(t), nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer c.Close()

	if c.Screening == nil || c.Board == nil || c.Metrics == nil {
		t.Fatal("expected a fully wired container")
	}
	if !c.Ready() {
		t.Fatal("offline providers have no circuit breaker and should be ready")
	}
	if len(c.Screening.Jobs()) != 2 {
		t.Fatalf("expected the built-in catalogue, got %d jobs", len(c.Screening.Jobs()))
	}
}

func TestBuildLogsInvalidEnvironment(t *testing.T) {
	t.Setenv("STORE_MAX_RETRIES", "several")
	config.EnvWarnings()
	if got := config.LoadStoreConfig().MaxRetries; got != 3 {
		t.Fatalf("MaxRetries = %d, want the default", got)
	}

	core, logs := observer.New(zap.WarnLevel)
	c, err := Build(context.Background(), offlineSettings(t), zap.New(core))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer c.Close()

	entries := logs.FilterMessage("invalid environment value, using default").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if fields := entries[0].ContextMap(); fields["key"] != "STORE_MAX_RETRIES" || fields["value"] != "several" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestBuildRequiresReportKey(t *testing.T) {
	s := offlineSettings(t)
	s.Groq.APIKey = ""

	if _, err := Build(context.Background(), s, nil); !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestBuildLeaderboardNeedsNoCredentials(t *testing.T) {
	s := offlineSettings(t)
	s.Groq.APIKey = ""
	s.Scoring.ReportProvider = ""

	c, err := BuildLeaderboard(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("BuildLeaderboard() error = %v", err)
	}
	defer c.Close()

	if c.Screening != nil {
		t.Fatal("leaderboard container should not wire the pipeline")
	}

	_, _, err = c.Board.Append(context.Background(), model.SubmissionRecord{
		Role:            "data-engineer",
		CandidateID:     "alice",
		SimilarityScore: 0.4,
		NarrativeScore:  0.8,
	})
	if err != nil {
		t.Fatal(err)
	}
	standings, total, err := c.Board.TopN(context.Background(), "data-engineer", 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || standings[0].CandidateID != "alice" {
		t.Fatalf("unexpected standings %+v", standings)
	}
}

func TestBuildRejectsUnknownStore(t *testing.T) {
	s := offlineSettings(t)
	s.Store.Driver = "sqlite"

	if _, err := BuildLeaderboard(context.Background(), s, nil); !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}
