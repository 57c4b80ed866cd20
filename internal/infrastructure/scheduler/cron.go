package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"WorumTop/internal/ports"
)

// CronScheduler runs one job on a standard five-field cron expression in a
// fixed timezone.
type CronScheduler struct {
	spec     string
	schedule cron.Schedule
	loc      *time.Location
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
	// done is closed by Stop and releases the context watcher of the run.
	done chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler validates the expression up front so a typo fails at
// startup rather than at the first tick.
func NewCronScheduler(spec string, loc *time.Location, logger *slog.Logger) (*CronScheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CronScheduler{
		spec:     spec,
		schedule: schedule,
		loc:      loc,
		logger:   logger.With("component", "cron"),
	}, nil
}

// Next reports the first activation strictly after t, in the scheduler's zone.
func (c *CronScheduler) Next(t time.Time) time.Time {
	return c.schedule.Next(t.In(c.loc))
}

// Start registers the job and begins ticking. Starting twice is a no-op. The
// scheduler stops on its own when ctx is cancelled.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	runner := cron.New(cron.WithLocation(c.loc))
	runner.Schedule(c.schedule, cron.FuncJob(func() {
		job(time.Now().In(c.loc))
	}))
	runner.Start()
	done := make(chan struct{})
	c.cron = runner
	c.done = done

	c.logger.Info("scheduler started", "cron", c.spec, "timezone", c.loc.String(), "next", c.Next(time.Now()))

	go func() {
		select {
		case <-ctx.Done():
			_ = c.stopRun(context.Background(), done)
		case <-done:
		}
	}()

	return nil
}

// Stop halts the scheduler and waits for a running job, bounded by ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	return c.stopRun(ctx, nil)
}

// stopRun stops the current run. A non-nil run only matches the run it was
// started with, so a stale watcher cannot stop a later Start.
func (c *CronScheduler) stopRun(ctx context.Context, run chan struct{}) error {
	c.mu.Lock()
	if c.cron == nil || (run != nil && run != c.done) {
		c.mu.Unlock()
		return nil
	}
	runner := c.cron
	close(c.done)
	c.cron, c.done = nil, nil
	c.mu.Unlock()

	select {
	case <-runner.Stop().Done():
		c.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
