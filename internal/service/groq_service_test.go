package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/config"
	"go.uber.org/zap"
)

func newTestGroq(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *GroqService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewGroqService(
		&config.GroqConfig{APIKey: "gsk_test", BaseURL: srv.URL, Model: "llama-3.3-70b-versatile"},
		&config.ScoringConfig{ReportTimeout: timeout, MaxRetries: 2},
		zap.NewNop(),
	)
	if err != nil {
		t.Fatal(err)
	}
	s.client.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)
	return s
}

func TestGroqGenerateReport(t *testing.T) {
	var gotAuth, gotModel, gotPrompt string
	s := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		if len(body.Messages) == 2 {
			gotPrompt = body.Messages[1].Content
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"SQL: 8/10 ✅\nPower BI: 6/10 ⚠️"}}]}`))
	}, time.Second)

	report, err := s.GenerateReport(context.Background(), "Experienced in SQL", "Power BI and SQL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report != "SQL: 8/10 ✅\nPower BI: 6/10 ⚠️" {
		t.Fatalf("unexpected report %q", report)
	}
	if gotAuth != "Bearer gsk_test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotModel != "llama-3.3-70b-versatile" {
		t.Errorf("model = %q", gotModel)
	}
	if !strings.Contains(gotPrompt, "Experienced in SQL") || !strings.Contains(gotPrompt, "Power BI and SQL") {
		t.Errorf("prompt does not carry the submission and job: %q", gotPrompt)
	}
}

func TestGroqRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	s := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok 5/10"}}]}`))
	}, time.Second)

	report, err := s.GenerateReport(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report != "ok 5/10" {
		t.Fatalf("unexpected report %q", report)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestGroqFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"Invalid API Key"}}`, wantMsg: "Invalid API Key"},
		{name: "server error exhausted", status: http.StatusBadGateway, body: `oops`, wantMsg: "502"},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"  "}}]}`, wantMsg: "empty completion"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantMsg: "empty completion"},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantMsg: "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, time.Second)

			_, err := s.GenerateReport(context.Background(), "a", "b")
			if !errors.Is(err, apperr.ErrReportGeneration) {
				t.Fatalf("expected report generation error, got %v", err)
			}
			if errors.Is(err, apperr.ErrTimeout) {
				t.Fatalf("did not expect a timeout, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestGroqTimeout(t *testing.T) {
	s := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	_, err := s.GenerateReport(context.Background(), "a", "b")
	if !errors.Is(err, apperr.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if !errors.Is(err, apperr.ErrReportGeneration) {
		t.Fatalf("expected report generation kind, got %v", err)
	}
}

func TestNewGroqServiceRequiresKey(t *testing.T) {
	_, err := NewGroqService(&config.GroqConfig{}, &config.ScoringConfig{}, nil)
	if !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}
