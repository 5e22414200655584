package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bizsuite/pkg/jobs"
)

type recordingRunner struct {
	mu    sync.Mutex
	calls []string
	block chan struct{}
}

func (r *recordingRunner) Run(ctx context.Context, name string, fn jobs.Func) (jobs.Report, error) {
	r.mu.Lock()
	r.calls = append(r.calls, name)
	block := r.block
	r.mu.Unlock()

	if block != nil {
		<-block
	}
	return jobs.Report{Job: name}, fn(ctx)
}

func (r *recordingRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func noop(context.Context) error { return nil }

func TestNewScheduler(t *testing.T) {
	t.Parallel()

	_, err := jobs.NewScheduler(nil)
	assert.ErrorIs(t, err, jobs.ErrNilRunner)
}

func TestScheduler_Register(t *testing.T) {
	t.Parallel()

	s, err := jobs.NewScheduler(&recordingRunner{})
	require.NoError(t, err)

	require.NoError(t, s.Register("b", jobs.Hourly(), noop))
	require.NoError(t, s.Register("a", jobs.Daily(), noop))
	assert.ErrorIs(t, s.Register("a", jobs.Daily(), noop), jobs.ErrJobAlreadyRegistered)
	assert.ErrorIs(t, s.Register("c", jobs.Daily(), nil), jobs.ErrNilJob)

	assert.Equal(t, []string{"a", "b"}, s.Jobs())

	s.Remove("a")
	assert.Equal(t, []string{"b"}, s.Jobs())
}

func TestScheduler_RunDue(t *testing.T) {
	t.Parallel()

	c := &clock{now: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)}
	runner := &recordingRunner{}
	s, err := jobs.NewScheduler(runner, jobs.WithSchedulerClock(c.Now))
	require.NoError(t, err)

	require.NoError(t, s.Register("sync", jobs.Every(time.Minute), noop))
	require.NoError(t, s.Register("report", jobs.Hourly(), noop))

	s.RunDue(context.Background())
	s.Wait()
	assert.Empty(t, runner.Calls(), "nothing is due right after registration")

	c.Advance(time.Minute)
	s.RunDue(context.Background())
	s.Wait()
	assert.Equal(t, []string{"sync"}, runner.Calls())

	c.Advance(30 * time.Minute)
	s.RunDue(context.Background())
	s.Wait()
	assert.ElementsMatch(t, []string{"sync", "sync", "report"}, runner.Calls())
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	t.Parallel()

	c := &clock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	runner := &recordingRunner{block: make(chan struct{})}
	s, err := jobs.NewScheduler(runner, jobs.WithSchedulerClock(c.Now))
	require.NoError(t, err)
	require.NoError(t, s.Register("slow", jobs.Every(time.Minute), noop))

	c.Advance(time.Minute)
	s.RunDue(context.Background())

	require.Eventually(t, func() bool { return len(runner.Calls()) == 1 }, time.Second, time.Millisecond)

	c.Advance(time.Minute)
	s.RunDue(context.Background())

	close(runner.block)
	s.Wait()
	assert.Len(t, runner.Calls(), 1)
}

func TestScheduler_Start(t *testing.T) {
	t.Parallel()

	t.Run("requires jobs", func(t *testing.T) {
		t.Parallel()

		s, err := jobs.NewScheduler(&recordingRunner{})
		require.NoError(t, err)
		assert.ErrorIs(t, s.Start(context.Background()), jobs.ErrSchedulerNotConfigured)
	})

	t.Run("runs until cancelled", func(t *testing.T) {
		t.Parallel()

		runner := &recordingRunner{}
		s, err := jobs.NewScheduler(runner, jobs.WithCheckInterval(5*time.Millisecond))
		require.NoError(t, err)
		require.NoError(t, s.Register("tick", jobs.Every(time.Second), noop))

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- s.Start(ctx) }()

		require.Eventually(t, func() bool { return len(runner.Calls()) > 0 }, 3*time.Second, 10*time.Millisecond)

		cancel()
		select {
		case err := <-errCh:
			assert.True(t, errors.Is(err, context.Canceled))
		case <-time.After(time.Second):
			t.Fatal("scheduler did not stop")
		}
	})
}

func TestSchedules(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC) // Monday

	tests := []struct {
		name     string
		schedule jobs.Schedule
		want     time.Time
		str      string
	}{
		{"every", jobs.Every(15 * time.Minute), from.Add(15 * time.Minute), "every 15m0s"},
		{"every floor", jobs.Every(0), from.Add(time.Second), "every 1s"},
		{"hourly", jobs.Hourly(), time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), "hourly at :00"},
		{"hourly at later minute", jobs.HourlyAt(45), time.Date(2025, 3, 10, 9, 45, 0, 0, time.UTC), "hourly at :45"},
		{"daily", jobs.Daily(), time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), "daily at 00:00"},
		{"daily at later today", jobs.DailyAt(18, 0), time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC), "daily at 18:00"},
		{"weekly same day passed", jobs.WeeklyOn(time.Monday, 8, 0), time.Date(2025, 3, 17, 8, 0, 0, 0, time.UTC), "weekly on Monday at 08:00"},
		{"weekly later in week", jobs.WeeklyOn(time.Friday, 8, 0), time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC), "weekly on Friday at 08:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.schedule.Next(from))
			assert.Equal(t, tt.str, tt.schedule.String())
		})
	}
}
