package jobs

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dmitrymomot/bizsuite/pkg/logger"
)

// Runner executes a named job across tenants. *FanOut satisfies it.
type Runner interface {
	Run(ctx context.Context, name string, fn Func) (Report, error)
}

// Scheduler triggers registered jobs on their schedule. Every trigger fans out
// over the active tenants through the runner; a job still running from its
// previous trigger is skipped rather than stacked.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu   sync.Mutex
	jobs map[string]*scheduledJob
	wg   sync.WaitGroup
}

type scheduledJob struct {
	name     string
	schedule Schedule
	fn       Func
	nextRun  time.Time
	running  bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithCheckInterval sets how often the scheduler looks for due jobs.
func WithCheckInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSchedulerClock replaces time.Now, for tests.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler creates a scheduler that runs jobs through runner.
func NewScheduler(runner Runner, opts ...SchedulerOption) (*Scheduler, error) {
	if runner == nil {
		return nil, ErrNilRunner
	}

	s := &Scheduler{
		runner:   runner,
		interval: 30 * time.Second,
		now:      time.Now,
		logger:   slog.Default(),
		jobs:     make(map[string]*scheduledJob),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Register adds a periodic job. Its first run is the schedule's first slot after now.
func (s *Scheduler) Register(name string, schedule Schedule, fn Func) error {
	if fn == nil {
		return ErrNilJob
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return ErrJobAlreadyRegistered
	}

	s.jobs[name] = &scheduledJob{
		name:     name,
		schedule: schedule,
		fn:       fn,
		nextRun:  schedule.Next(s.now()),
	}

	s.logger.Info("registered periodic job",
		logger.Job(name),
		slog.String("schedule", schedule.String()))

	return nil
}

// Remove unregisters a job. A run already in flight finishes.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, name)
}

// Jobs returns the registered job names in order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start checks for due jobs until ctx is cancelled, then waits for running jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	count := len(s.jobs)
	s.mu.Unlock()

	if count == 0 {
		return ErrSchedulerNotConfigured
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler shutting down")
			s.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			s.RunDue(ctx)
		}
	}
}

// RunDue starts every job whose next slot has passed. Jobs run in the background.
func (s *Scheduler) RunDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*scheduledJob
	for _, job := range s.jobs {
		if job.nextRun.After(now) {
			continue
		}
		job.nextRun = job.schedule.Next(now)
		if job.running {
			s.logger.WarnContext(ctx, "periodic job still running, skipping slot", logger.Job(job.name))
			continue
		}
		job.running = true
		due = append(due, job)
	}
	s.mu.Unlock()

	for _, job := range due {
		s.wg.Add(1)
		go s.run(ctx, job)
	}
}

// Wait blocks until every started run has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, job *scheduledJob) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		job.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	report, err := s.runner.Run(ctx, job.name, job.fn)
	if err != nil {
		s.logger.ErrorContext(ctx, "periodic job did not run", logger.Job(job.name), logger.Error(err))
		return
	}

	s.logger.InfoContext(ctx, "periodic job completed",
		logger.Job(job.name),
		slog.Int("tenants", len(report.Results)),
		slog.Int("failed", len(report.Failed())),
		logger.Duration(time.Since(start)))
}
