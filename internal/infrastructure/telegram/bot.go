package telegram

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"WorumTop/internal/domain"
)

// Handler answers one parsed chat command.
type Handler interface {
	Handle(ctx context.Context, cmd domain.Command, args string, dest domain.Destination) domain.Message
}

// Bot long-polls Telegram and dispatches commands to the handler.
type Bot struct {
	api         API
	handler     Handler
	sender      *Sender
	pollTimeout int
	logger      *slog.Logger
}

// NewBot wires the update loop. Replies go through sender so they share its
// pacing and retry policy with the broadcast.
func NewBot(api API, handler Handler, sender *Sender, pollTimeout int, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bot{
		api:         api,
		handler:     handler,
		sender:      sender,
		pollTimeout: pollTimeout,
		logger:      logger.With("component", "telegram-bot"),
	}
}

// ParseCommand maps a command name, without the leading slash, to a Command.
func ParseCommand(name string) (domain.Command, bool) {
	switch strings.ToLower(name) {
	case "top", "today", "day":
		return domain.RankedToday, true
	case "week":
		return domain.RankedThisWeek, true
	case "month":
		return domain.RankedThisMonth, true
	case "ever", "all":
		return domain.RankedAllTime, true
	case "random", "rubric":
		return domain.RandomRubric, true
	case "subscribe":
		return domain.Subscribe, true
	case "start", "help":
		return domain.Help, true
	default:
		return 0, false
	}
}

// MenuCommands is the command list published to the Telegram client menu.
func MenuCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "top", Description: "Thread of the day, /top 3 for more"},
		{Command: "week", Description: "Thread of the week"},
		{Command: "month", Description: "Thread of the month"},
		{Command: "ever", Description: "Top threads of all time"},
		{Command: "random", Description: "Random thread from a random rubric"},
		{Command: "subscribe", Description: "Daily thread of the day"},
		{Command: "help", Description: "What this bot does"},
	}
}

// Run processes updates until ctx is cancelled, then waits for in-flight
// replies.
func (b *Bot) Run(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(MenuCommands()...)); err != nil {
		b.logger.Warn("set bot commands failed", "error", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	u.AllowedUpdates = []string{"message"}
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot polling started")

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg := update.Message
			if msg == nil || msg.Chat == nil || !msg.IsCommand() {
				continue
			}
			cmd, known := ParseCommand(msg.Command())
			if !known {
				b.logger.Debug("unknown command", "command", msg.Command(), "chat", msg.Chat.ID)
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				b.reply(ctx, cmd, msg.CommandArguments(), domain.Destination(msg.Chat.ID))
			}()
		}
	}
}

func (b *Bot) reply(ctx context.Context, cmd domain.Command, args string, dest domain.Destination) {
	out := b.handler.Handle(ctx, cmd, args, dest)
	if err := b.sender.Send(ctx, dest, out); err != nil {
		b.logger.Warn("reply failed", "chat", dest, "error", err)
	}
}
