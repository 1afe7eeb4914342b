package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/config"
	"github.com/fadilmartias/scandid/internal/logger"
	"github.com/fadilmartias/scandid/internal/scoring"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// maxEmbeddingBytes keeps embedding requests within the model input limit.
const maxEmbeddingBytes = 10000

// GeminiService embeds text and, optionally, writes evaluation reports
// through the Gemini API.
type GeminiService struct {
	Client         *genai.Client
	EmbeddingModel string
	ReportModel    string
	RequestTimeout time.Duration

	backoff backoff
	breaker *circuitBreaker
	logger  *zap.Logger
}

var (
	_ scoring.Embedder        = (*GeminiService)(nil)
	_ scoring.ReportGenerator = (*GeminiService)(nil)
)

func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, sc *config.ScoringConfig, log *zap.Logger) (*GeminiService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.Errorf("gemini.new", apperr.ErrConfig, "GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, apperr.Wrap("gemini.new", apperr.ErrConfig, err)
	}

	return &GeminiService{
		Client:         client,
		EmbeddingModel: cfg.EmbeddingModel,
		ReportModel:    cfg.ReportModel,
		RequestTimeout: sc.ReportTimeout,
		backoff: backoff{
			MaxRetries: sc.MaxRetries,
			BaseDelay:  time.Second,
			MaxDelay:   30 * time.Second,
		},
		breaker: &circuitBreaker{max: 5, cooldown: time.Minute},
		logger:  logger.WithProvider(log, config.ProviderGemini, ""),
	}, nil
}

func (s *GeminiService) Model() string {
	return s.EmbeddingModel
}

func (s *GeminiService) Name() string {
	return config.ProviderGemini + "/" + s.ReportModel
}

// Embed returns the embedding of text. Text past the input limit is cut on a
// rune boundary.
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("text for embedding cannot be empty")
	}

	if len(trimmed) > maxEmbeddingBytes {
		s.logger.Warn("embedding input truncated", zap.Int("bytes", len(trimmed)), zap.Int("limit", maxEmbeddingBytes))
		trimmed = truncateUTF8(trimmed, maxEmbeddingBytes)
	}

	if err := s.breaker.allow(); err != nil {
		return nil, err
	}

	content := []*genai.Content{genai.NewContentFromText(trimmed, genai.RoleUser)}

	var vec []float32
	err := s.backoff.retry(ctx, s.logger, "gemini.embed", isRetryableGeminiError, func(ctx context.Context) error {
		result, err := s.Client.Models.EmbedContent(ctx, s.EmbeddingModel, content, nil)
		if err != nil {
			return err
		}
		vec, err = validateEmbeddingResponse(result)
		if err != nil {
			return fmt.Errorf("invalid embedding response: %w", err)
		}
		return nil
	})
	s.breaker.record(err)
	if err != nil {
		return nil, fmt.Errorf("generate embedding failed: %w", err)
	}

	return vec, nil
}

// GenerateReport asks the report model for a narrative evaluation.
func (s *GeminiService) GenerateReport(ctx context.Context, submission, jobDescription string) (string, error) {
	const op = "gemini.generate_report"

	if err := s.breaker.allow(); err != nil {
		return "", apperr.Wrap(op, apperr.ErrReportGeneration, err)
	}

	prompt := scoring.BuildPrompt(submission, jobDescription)
	s.logger.Debug("report prompt", zap.String("prompt", logger.TruncateForLog(prompt, 300)))

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}

	var text string
	err := s.backoff.retry(timeoutCtx, s.logger, op, isRetryableGeminiError, func(ctx context.Context) error {
		result, err := s.Client.Models.GenerateContent(ctx, s.ReportModel, genai.Text(prompt), genConfig)
		if err != nil {
			return err
		}
		if err := validateGenerateResponse(result); err != nil {
			return fmt.Errorf("invalid response: %w", err)
		}
		text = strings.TrimSpace(result.Text())
		if text == "" {
			return fmt.Errorf("empty report text")
		}
		return nil
	})
	s.breaker.record(err)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = apperr.Wrap(op, apperr.ErrTimeout, err)
		}
		return "", apperr.Wrap(op, apperr.ErrReportGeneration, err)
	}

	s.logger.Debug("report received", zap.String("report", logger.TruncateForLog(text, 300)))
	return text, nil
}

// CircuitBreakerStatus reports the consecutive failures and whether calls
// are currently refused.
func (s *GeminiService) CircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	return s.breaker.status()
}

func isRetryableGeminiError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// The client returns APIError by value.
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		return retryableStatus(apiErr.Code)
	case errors.As(err, &apiErrPtr):
		return retryableStatus(apiErrPtr.Code)
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF")
}

func retryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}
	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}
	return nil
}

func validateEmbeddingResponse(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("response is nil")
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("no embeddings returned")
	}

	values := resp.Embeddings[0].Values
	if len(values) == 0 {
		return nil, fmt.Errorf("embedding vector is empty")
	}
	for i, val := range values {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("invalid embedding value at index %d: %v", i, val)
		}
	}

	return values, nil
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
