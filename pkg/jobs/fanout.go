package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/bizsuite/pkg/logger"
	"github.com/dmitrymomot/bizsuite/pkg/metrics"
	"github.com/dmitrymomot/bizsuite/pkg/scope"
	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

// Func is the body of a job for one tenant. ctx carries a background scope
// already bound to that tenant.
type Func func(ctx context.Context) error

// TenantSource lists and resolves tenants. *tenant.Resolver satisfies it.
type TenantSource interface {
	AllActive(ctx context.Context) ([]tenant.Info, error)
	Resolve(ctx context.Context, sig tenant.Signal) (tenant.Info, error)
}

// Result is the outcome of one tenant's iteration.
type Result struct {
	TenantID uuid.UUID
	Err      error
	Duration time.Duration
}

// Report collects the outcome of a fan-out run.
type Report struct {
	Job     string
	Results []Result
}

// Failed returns the results that ended with an error.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Err joins every tenant failure, nil when all succeeded.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("tenant %s: %w", res.TenantID, res.Err))
	}
	return errors.Join(errs...)
}

// FanOut runs a job once per active tenant, each in its own background scope.
type FanOut struct {
	source  TenantSource
	limit   int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// FanOutOption configures a FanOut.
type FanOutOption func(*FanOut)

// WithConcurrency limits how many tenants are processed at once.
func WithConcurrency(n int) FanOutOption {
	return func(f *FanOut) {
		if n > 0 {
			f.limit = n
		}
	}
}

func WithLogger(l *slog.Logger) FanOutOption {
	return func(f *FanOut) {
		if l != nil {
			f.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) FanOutOption {
	return func(f *FanOut) {
		f.metrics = m
	}
}

// NewFanOut creates a fan-out runner over source.
func NewFanOut(source TenantSource, opts ...FanOutOption) (*FanOut, error) {
	if source == nil {
		return nil, ErrNilSource
	}

	f := &FanOut{
		source: source,
		limit:  1,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Run executes fn for every active tenant. A failing or panicking tenant is
// logged and recorded in the report; it never stops the others. The returned
// error is set only when the tenant list itself could not be loaded.
func (f *FanOut) Run(ctx context.Context, name string, fn Func) (Report, error) {
	report := Report{Job: name}
	if fn == nil {
		return report, ErrNilJob
	}

	tenants, err := f.source.AllActive(ctx)
	if err != nil {
		f.logger.ErrorContext(ctx, "failed to list active tenants", logger.Job(name), logger.Error(err))
		return report, err
	}

	report.Results = make([]Result, len(tenants))

	var g errgroup.Group
	g.SetLimit(f.limit)

	for i, info := range tenants {
		report.Results[i].TenantID = info.ID

		if ctx.Err() != nil {
			report.Results[i].Err = ctx.Err()
			continue
		}

		g.Go(func() error {
			start := time.Now()
			err := f.runTenant(ctx, name, info, fn)
			report.Results[i].Err = err
			report.Results[i].Duration = time.Since(start)
			return nil
		})
	}
	_ = g.Wait()

	failed := len(report.Failed())
	f.logger.InfoContext(ctx, "job fan-out finished",
		logger.Job(name),
		slog.Int("tenants", len(tenants)),
		slog.Int("failed", failed))

	return report, nil
}

// RunFor executes fn for a single tenant identified by id.
func (f *FanOut) RunFor(ctx context.Context, id uuid.UUID, name string, fn Func) error {
	if fn == nil {
		return ErrNilJob
	}

	info, err := f.source.Resolve(ctx, tenant.IDSignal(id))
	if err != nil {
		f.logger.ErrorContext(ctx, "failed to resolve job tenant",
			logger.Job(name),
			logger.TenantID(id),
			logger.Error(err))
		return err
	}

	return f.runTenant(ctx, name, info, fn)
}

func (f *FanOut) runTenant(ctx context.Context, name string, info tenant.Info, fn Func) (err error) {
	ctx, s := scope.NewJob(ctx, scope.WithLogger(f.logger))
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
		f.record(ctx, name, info, err)
	}()

	if err := s.Holder().Set(info); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
			f.logger.ErrorContext(ctx, "job panicked",
				logger.Job(name),
				logger.TenantID(info.ID),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	return fn(ctx)
}

func (f *FanOut) record(ctx context.Context, name string, info tenant.Info, err error) {
	switch {
	case err == nil:
		f.metrics.TenantRun(name, "ok")
	case errors.Is(err, ErrJobPanicked):
		f.metrics.TenantRun(name, "panic")
	default:
		f.metrics.TenantRun(name, "error")
		f.logger.ErrorContext(ctx, "job failed for tenant",
			logger.Job(name),
			logger.TenantID(info.ID),
			logger.Error(err))
	}
}
