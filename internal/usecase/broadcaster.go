package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"WorumTop/internal/domain"
	"WorumTop/internal/ports"
)

// Report summarises one broadcast run.
type Report struct {
	RunID        string
	Destinations int
	Delivered    int
	Failed       int
}

// Broadcaster pushes the thread of the day to every subscriber.
type Broadcaster struct {
	responder Responder
	registry  ports.SubscriberRegistry
	sender    ports.Sender
	logger    *slog.Logger
}

// NewBroadcaster wires the broadcast collaborators.
func NewBroadcaster(responder Responder, registry ports.SubscriberRegistry, sender ports.Sender, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Broadcaster{
		responder: responder,
		registry:  registry,
		sender:    sender,
		logger:    logger.With("component", "broadcaster"),
	}
}

// Broadcast renders once and sends the same message to a snapshot of the
// registry in registration order. A failed destination is logged and counted;
// the remaining destinations are still attempted.
func (b *Broadcaster) Broadcast(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	logger := b.logger.With("run", report.RunID)

	dests := b.registry.Snapshot()
	report.Destinations = len(dests)
	if len(dests) == 0 {
		logger.Debug("no subscribers, skipping broadcast")
		return report, nil
	}

	msg, err := b.responder.Respond(ctx, domain.Ranked(domain.Day, 1))
	if err != nil {
		logger.Error("broadcast selection failed", "subscribers", len(dests), "error", err)
		return report, fmt.Errorf("broadcast %s: %w", report.RunID, err)
	}

	for _, dest := range dests {
		if err := b.sender.Send(ctx, dest, msg); err != nil {
			report.Failed++
			logger.Warn("delivery failed", "chat", dest, "error", err)
			continue
		}
		report.Delivered++
	}

	logger.Info("broadcast finished",
		"subscribers", report.Destinations,
		"delivered", report.Delivered,
		"failed", report.Failed,
	)
	return report, nil
}
