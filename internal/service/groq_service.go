package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/config"
	"github.com/fadilmartias/scandid/internal/logger"
	"github.com/fadilmartias/scandid/internal/scoring"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const groqSystemPrompt = "You are an AI recruiter evaluating job applications against a job description."

// GroqService writes evaluation reports through Groq's OpenAI-compatible
// chat completions endpoint.
type GroqService struct {
	client  *resty.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

var _ scoring.ReportGenerator = (*GroqService)(nil)

func NewGroqService(cfg *config.GroqConfig, sc *config.ScoringConfig, log *zap.Logger) (*GroqService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.Errorf("groq.new", apperr.ErrConfig, "GROQ_API_KEY not set")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(sc.MaxRetries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(shouldRetryGroq)

	return &GroqService{
		client:  client,
		model:   cfg.Model,
		timeout: sc.ReportTimeout,
		logger:  logger.WithProvider(log, config.ProviderGroq, cfg.Model),
	}, nil
}

func (s *GroqService) Name() string {
	return config.ProviderGroq + "/" + s.model
}

// GenerateReport sends the evaluation prompt and returns the model's answer.
func (s *GroqService) GenerateReport(ctx context.Context, submission, jobDescription string) (string, error) {
	const op = "groq.generate_report"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := scoring.BuildPrompt(submission, jobDescription)
	s.logger.Debug("report prompt", zap.String("prompt", logger.TruncateForLog(prompt, 300)))

	start := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"model": s.model,
			"messages": []map[string]string{
				{"role": "system", "content": groqSystemPrompt},
				{"role": "user", "content": prompt},
			},
			"temperature": 0.2,
		}).
		Post("/chat/completions")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apperr.Wrap(op, apperr.ErrReportGeneration, apperr.Wrap(op, apperr.ErrTimeout, err))
		}
		return "", apperr.Wrap(op, apperr.ErrReportGeneration, err)
	}

	body := resp.String()
	s.logger.Debug("report response",
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("body", logger.TruncateForLog(body, 300)),
	)

	if resp.IsError() {
		msg := gjson.Get(body, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return "", apperr.Errorf(op, apperr.ErrReportGeneration, "groq returned %d: %s", resp.StatusCode(), msg)
	}

	if !gjson.Valid(body) {
		return "", apperr.Errorf(op, apperr.ErrReportGeneration, "malformed response body")
	}

	text := strings.TrimSpace(gjson.Get(body, "choices.0.message.content").String())
	if text == "" {
		return "", apperr.Errorf(op, apperr.ErrReportGeneration, "empty completion content")
	}

	return text, nil
}

func shouldRetryGroq(r *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
