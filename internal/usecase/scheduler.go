package usecase

import (
	"context"
	"log/slog"
	"time"

	"WorumTop/internal/ports"
)

// Scheduler wires the cron driver with the daily broadcast.
type Scheduler struct {
	driver      ports.Scheduler
	broadcaster *Broadcaster
	logger      *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring broadcast.
func NewScheduler(driver ports.Scheduler, broadcaster *Broadcaster, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, broadcaster: broadcaster, logger: logger.With("component", "scheduler")}
}

// Start registers the broadcast with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.broadcaster == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("daily broadcast triggered", "at", trigger)
		if _, err := s.broadcaster.Broadcast(ctx); err != nil {
			s.logger.Error("daily broadcast failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
