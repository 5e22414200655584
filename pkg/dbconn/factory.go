package dbconn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/bizsuite/pkg/logger"
	"github.com/dmitrymomot/bizsuite/pkg/metrics"
	"github.com/dmitrymomot/bizsuite/pkg/scope"
)

// Source is what business modules depend on: something that hands out a
// tenant-bound handle for the current unit of work.
type Source[H any] interface {
	Resolve(ctx context.Context) (H, error)
}

// Factory resolves tenant-bound handles for one business module.
//
// The connection string comes from the first scope in the provider chain that
// carries a tenant: a background job's tenant first, the request's second. If
// neither is set the call fails with ErrConnectionUnavailable; there is no
// default database. Handles are memoized in the owning scope and closed with it.
type Factory[H any] struct {
	module  string
	store   string
	open    Opener[H]
	close   func(H) error
	chain   scope.Chain
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type settings struct {
	store   string
	chain   scope.Chain
	cfg     Config
	noRetry bool
	retry   []RetryOption
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Factory.
type Option func(*settings)

// WithStore selects a named tenant store instead of the primary database.
func WithStore(name string) Option {
	return func(s *settings) {
		s.store = name
	}
}

// WithChain replaces scope.DefaultChain.
func WithChain(c scope.Chain) Option {
	return func(s *settings) {
		if len(c) > 0 {
			s.chain = c
		}
	}
}

// WithConfig sets retry and timeout parameters.
func WithConfig(cfg Config) Option {
	return func(s *settings) {
		s.cfg = cfg
	}
}

// WithRetryOptions passes options to the retry decorator.
func WithRetryOptions(opts ...RetryOption) Option {
	return func(s *settings) {
		s.retry = append(s.retry, opts...)
	}
}

// WithoutRetry uses the opener as is. Useful when the opener retries itself.
func WithoutRetry() Option {
	return func(s *settings) {
		s.noRetry = true
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// New creates a factory for module. closeFn may be nil for handles that need no release.
func New[H any](module string, open Opener[H], closeFn func(H) error, opts ...Option) (*Factory[H], error) {
	if open == nil {
		return nil, ErrNilOpener
	}

	s := &settings{
		chain:  scope.DefaultChain,
		cfg:    DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	f := &Factory[H]{
		module:  module,
		store:   s.store,
		close:   closeFn,
		chain:   s.chain,
		logger:  s.logger.With(logger.Module(module), logger.Store(s.store)),
		metrics: s.metrics,
	}

	if s.noRetry {
		f.open = open
	} else {
		retryOpts := append([]RetryOption{OnTransientError(f.logRetry)}, s.retry...)
		f.open = Retrying(open, s.cfg, retryOpts...)
	}

	return f, nil
}

// Module returns the business module name.
func (f *Factory[H]) Module() string {
	return f.module
}

func (f *Factory[H]) String() string {
	if f.store == "" {
		return f.module
	}
	return f.module + "/" + f.store
}

// Resolve returns the handle for the tenant of the current unit of work,
// opening it on first use within the scope.
func (f *Factory[H]) Resolve(ctx context.Context) (H, error) {
	var zero H

	s, info, err := f.chain.Active(ctx)
	if err != nil {
		// A route or job reached data access without tenant resolution.
		f.logger.ErrorContext(ctx, "data access without tenant context", logger.Error(err))
		return zero, errors.Join(ErrConnectionUnavailable, err)
	}

	conn, ok := info.Store(f.store)
	if !ok {
		err := fmt.Errorf("%w: tenant %s has no %q store", ErrConnectionUnavailable, info.ID, storeLabel(f.store))
		f.logger.ErrorContext(ctx, "tenant store not configured", logger.Error(err))
		return zero, err
	}

	v, err := s.Handle(f, conn, func() (any, func() error, error) {
		start := time.Now()
		h, err := f.open(ctx, conn)
		elapsed := time.Since(start)
		if err != nil {
			f.metrics.ConnOpened(f.module, "error", elapsed.Seconds())
			return nil, nil, errors.Join(ErrOpenFailed, err)
		}
		f.metrics.ConnOpened(f.module, "ok", elapsed.Seconds())

		var closeFn func() error
		if f.close != nil {
			closeFn = func() error { return f.close(h) }
		}
		return h, closeFn, nil
	})
	if err != nil {
		if errors.Is(err, scope.ErrScopeDisposed) {
			err = errors.Join(ErrConnectionUnavailable, err)
		}
		f.logger.ErrorContext(ctx, "failed to resolve tenant connection", logger.Error(err))
		return zero, err
	}

	return v.(H), nil
}

func (f *Factory[H]) logRetry(ctx context.Context, attempt int, err error) {
	f.metrics.ConnRetried(f.module)
	f.logger.WarnContext(ctx, "transient failure opening tenant connection",
		logger.Attempt(attempt),
		logger.Error(err))
}

func storeLabel(name string) string {
	if name == "" {
		return "primary"
	}
	return name
}
