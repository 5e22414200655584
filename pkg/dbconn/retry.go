package dbconn

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrymomot/bizsuite/pkg/mongo"
	"github.com/dmitrymomot/bizsuite/pkg/pg"
)

// Opener opens a handle for a connection string.
type Opener[H any] func(ctx context.Context, conn string) (H, error)

// Classifier decides whether an open error is worth retrying.
type Classifier func(error) bool

// IsTransient accepts connection-level PostgreSQL and MongoDB failures.
func IsTransient(err error) bool {
	return pg.IsTransient(err) || mongo.IsTransient(err)
}

type retrySettings struct {
	classify    Classifier
	onTransient func(ctx context.Context, attempt int, err error)
}

// RetryOption configures Retrying.
type RetryOption func(*retrySettings)

// WithClassifier replaces IsTransient.
func WithClassifier(c Classifier) RetryOption {
	return func(s *retrySettings) {
		if c != nil {
			s.classify = c
		}
	}
}

// OnTransientError is called for every attempt that failed with a retryable error.
func OnTransientError(fn func(ctx context.Context, attempt int, err error)) RetryOption {
	return func(s *retrySettings) {
		s.onTransient = fn
	}
}

// Retrying wraps open with bounded exponential backoff. cfg.Attempts is the
// total number of attempts. Only errors accepted by the classifier are retried,
// plus attempts that ran into cfg.OpenTimeout; cancellation of ctx stops at once.
func Retrying[H any](open Opener[H], cfg Config, opts ...RetryOption) Opener[H] {
	s := &retrySettings{classify: IsTransient}
	for _, opt := range opts {
		opt(s)
	}

	return func(ctx context.Context, conn string) (H, error) {
		var (
			handle  H
			attempt int
		)

		err := retry.Do(ctx, backoff(cfg), func(ctx context.Context) error {
			attempt++

			attemptCtx, cancel := ctx, context.CancelFunc(func() {})
			if cfg.OpenTimeout > 0 {
				attemptCtx, cancel = context.WithTimeout(ctx, cfg.OpenTimeout)
			}
			defer cancel()

			h, err := open(attemptCtx, conn)
			if err == nil {
				handle = h
				return nil
			}
			if ctx.Err() != nil {
				return errors.Join(ctx.Err(), err)
			}

			timedOut := errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
			if !timedOut && !s.classify(err) {
				return err
			}
			if s.onTransient != nil {
				s.onTransient(ctx, attempt, err)
			}
			return retry.RetryableError(err)
		})

		return handle, err
	}
}

func backoff(cfg Config) retry.Backoff {
	base := cfg.BaseDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	b := retry.NewExponential(base)
	if cfg.Jitter > 0 {
		b = retry.WithJitterPercent(cfg.Jitter, b)
	}
	if cfg.MaxDelay > 0 {
		b = retry.WithCappedDuration(cfg.MaxDelay, b)
	}

	retries := uint64(0)
	if cfg.Attempts > 1 {
		retries = cfg.Attempts - 1
	}
	return retry.WithMaxRetries(retries, b)
}
