package usecase

import (
	"context"
	"log/slog"

	"WorumTop/internal/domain"
	"WorumTop/internal/ports"
)

const (
	subscribedText = "Subscribed. The thread of the day will arrive here every morning."
	helpText       = "Forum threads worth reading.\n\n" +
		"/top [n] - thread of the day\n" +
		"/week [n] - thread of the week\n" +
		"/month [n] - thread of the month\n" +
		"/ever [n] - top threads of all time\n" +
		"/random - a random thread from a random rubric\n" +
		"/subscribe - daily thread of the day\n\n" +
		"n is between 1 and 5."
)

// Commands answers chat commands.
type Commands struct {
	responder Responder
	presenter *Presenter
	registry  ports.SubscriberRegistry
	logger    *slog.Logger
}

// NewCommands wires command handling. The presenter renders notices and
// static replies in the same dialect as thread messages.
func NewCommands(responder Responder, presenter *Presenter, registry ports.SubscriberRegistry, logger *slog.Logger) *Commands {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Commands{
		responder: responder,
		presenter: presenter,
		registry:  registry,
		logger:    logger.With("component", "commands"),
	}
}

// Handle always produces a reply. Selection failures become neutral notices;
// the cause only reaches the log.
func (c *Commands) Handle(ctx context.Context, cmd domain.Command, args string, dest domain.Destination) domain.Message {
	if window, ok := cmd.Window(); ok {
		return c.respond(ctx, domain.Ranked(window, domain.ClampCount(args)), dest)
	}

	switch cmd {
	case domain.RandomRubric:
		return c.respond(ctx, domain.Random(), dest)
	case domain.Subscribe:
		c.registry.Add(dest)
		c.logger.Info("chat subscribed", "chat", dest)
		return c.presenter.Notice(subscribedText)
	default:
		return c.presenter.Notice(helpText)
	}
}

func (c *Commands) respond(ctx context.Context, req domain.SelectionRequest, dest domain.Destination) domain.Message {
	msg, err := c.responder.Respond(ctx, req)
	if err != nil {
		c.logger.Warn("selection failed", "chat", dest, "kind", req.Kind, "window", req.Window, "error", err)
		return c.presenter.Notice(NoticeFor(err))
	}
	if msg.Empty() {
		return c.presenter.Notice(NoticeNothingFound)
	}
	return msg
}
