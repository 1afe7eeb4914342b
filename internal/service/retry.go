package service

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

// backoff computes retry delays: BaseDelay doubled per attempt, capped at
// MaxDelay, with up to 25% jitter.
type backoff struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func (b backoff) delay(attempt int) time.Duration {
	delay := b.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))

	if delay > b.MaxDelay {
		delay = b.MaxDelay
	}

	jitter := time.Duration(float64(delay) * 0.25)
	if jitter > 0 {
		delay = delay - jitter/2 + time.Duration(rand.Int64N(int64(jitter)))
	}

	return delay
}

// retry runs fn until it succeeds, returns a non-retryable error, or the
// attempts run out. It waits between attempts and stops when ctx is done.
func (b backoff) retry(ctx context.Context, log *zap.Logger, op string, retryable func(error) bool, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= b.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := b.delay(attempt)
			log.Info("retrying",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", b.MaxRetries),
				zap.Duration("delay", delay),
			)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("context done during retry: %w", ctx.Err())
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			log.Warn("non-retryable error", zap.String("op", op), zap.Error(err))
			return err
		}

		log.Warn("retryable error", zap.String("op", op), zap.Int("attempt", attempt+1), zap.Error(err))
	}

	return fmt.Errorf("max retries (%d) exceeded for %s: %w", b.MaxRetries, op, lastErr)
}

// circuitBreaker opens after max consecutive failed calls. Once cooldown
// has passed since it opened, one trial call is let through; its outcome
// closes or reopens the breaker.
type circuitBreaker struct {
	mu          sync.Mutex
	consecutive int
	max         int
	cooldown    time.Duration
	openedAt    time.Time
	now         func() time.Time
}

func (c *circuitBreaker) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *circuitBreaker) allow() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.max <= 0 || c.consecutive < c.max {
		return nil
	}
	if c.cooldown > 0 && c.clock().Sub(c.openedAt) >= c.cooldown {
		c.consecutive = c.max - 1
		return nil
	}
	return fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", c.consecutive)
}

func (c *circuitBreaker) record(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		c.consecutive = 0
		return
	}
	c.consecutive++
	if c.max > 0 && c.consecutive >= c.max {
		c.openedAt = c.clock()
	}
}

func (c *circuitBreaker) status() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consecutive, c.max > 0 && c.consecutive >= c.max
}
