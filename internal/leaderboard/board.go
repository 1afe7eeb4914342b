// Package leaderboard validates scored submissions, appends them to a result
// store and ranks the table on every read.
package leaderboard

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/logger"
	"github.com/fadilmartias/scandid/internal/metrics"
	"github.com/fadilmartias/scandid/internal/model"
	"github.com/fadilmartias/scandid/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Board struct {
	store      repository.ResultStore
	metrics    *metrics.Manager
	logger     *zap.Logger
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
}

type Option func(*Board)

func WithMetrics(m *metrics.Manager) Option {
	return func(b *Board) { b.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Board) { b.logger = logger.OrNop(l) }
}

// WithRetry sets how often a failed store write is retried and the first
// delay, doubled on each attempt.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(b *Board) {
		if maxRetries >= 0 {
			b.maxRetries = maxRetries
		}
		if delay > 0 {
			b.retryDelay = delay
		}
	}
}

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

func NewBoard(store repository.ResultStore, opts ...Option) *Board {
	b := &Board{
		store:      store,
		logger:     zap.NewNop(),
		maxRetries: 3,
		retryDelay: 100 * time.Millisecond,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Validate checks that rec is fully scored. Scores outside [0,1] are
// rejected, never clamped.
func Validate(rec model.SubmissionRecord) error {
	const op = "leaderboard.validate"

	if strings.TrimSpace(rec.CandidateID) == "" {
		return apperr.Errorf(op, apperr.ErrInvalidInput, "candidate id is required")
	}
	if strings.TrimSpace(rec.Role) == "" {
		return apperr.Errorf(op, apperr.ErrInvalidInput, "role is required")
	}
	for _, s := range []struct {
		name  string
		value float64
	}{
		{"similarity_score", rec.SimilarityScore},
		{"narrative_score", rec.NarrativeScore},
	} {
		if math.IsNaN(s.value) || math.IsInf(s.value, 0) || s.value < 0 || s.value > 1 {
			return apperr.Errorf(op, apperr.ErrInvariantViolation, "%s %v outside [0,1]", s.name, s.value)
		}
	}
	return nil
}

// Append validates rec, stamps its id, timestamp and final score, and writes
// it. It returns the stamped record and the role's updated table.
func (b *Board) Append(ctx context.Context, rec model.SubmissionRecord) (model.SubmissionRecord, []model.SubmissionRecord, error) {
	const op = "leaderboard.append"

	if err := Validate(rec); err != nil {
		return model.SubmissionRecord{}, nil, err
	}

	rec.ID = uuid.New()
	rec.Timestamp = b.now().UTC()
	rec.FinalScore = rec.ComputeFinalScore()

	log := b.logger.With(logger.Submission(rec.CandidateID, rec.Role)...)

	var (
		table []model.SubmissionRecord
		err   error
		delay = b.retryDelay
	)
	for attempt := 0; ; attempt++ {
		table, err = b.store.Append(ctx, rec)
		if err == nil || !errors.Is(err, apperr.ErrStorageWrite) || attempt >= b.maxRetries {
			break
		}

		b.metrics.StoreRetry()
		log.Warn("store append failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return model.SubmissionRecord{}, nil, apperr.Wrap(op, apperr.ErrStorageWrite, ctx.Err())
		}
		delay *= 2
	}
	if err != nil {
		return model.SubmissionRecord{}, nil, err
	}

	b.metrics.SetLeaderboardRecords(rec.Role, len(table))
	log.Info("submission recorded",
		zap.String("record_id", rec.ID.String()),
		zap.Float64("final_score", rec.FinalScore),
		zap.Int("table_size", len(table)),
	)
	return rec, table, nil
}

// TopN ranks the whole table of role and returns its first n rows together
// with the table size.
func (b *Board) TopN(ctx context.Context, role string, n int) ([]Standing, int, error) {
	records, err := b.store.Snapshot(ctx, role)
	if err != nil {
		return nil, 0, err
	}
	b.metrics.SetLeaderboardRecords(role, len(records))
	return Top(Rank(records), n), len(records), nil
}
