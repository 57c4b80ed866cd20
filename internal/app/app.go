package app

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"WorumTop/internal/config"
	"WorumTop/internal/domain"
	"WorumTop/internal/infrastructure/fetcher"
	"WorumTop/internal/infrastructure/parser"
	"WorumTop/internal/infrastructure/scheduler"
	"WorumTop/internal/infrastructure/telegram"
	"WorumTop/internal/logging"
	"WorumTop/internal/markup"
	"WorumTop/internal/subscribers"
	"WorumTop/internal/usecase"
	"WorumTop/pkg/logger"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	presenter *usecase.Presenter
	digest    *usecase.Digest
}

// New builds the content pipeline. Nothing here talks to Telegram, so the
// result also serves one-off renders from the command line.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	dialects := markup.NewRegistry()
	dialect, err := dialects.Resolve(cfg.Telegram.Dialect)
	if err != nil {
		baseLogger.Warn("unknown dialect, using html", "dialect", cfg.Telegram.Dialect)
		dialect = dialects.ResolveOrDefault(cfg.Telegram.Dialect)
	}

	selector := usecase.NewSelector(usecase.SelectorDeps{
		Fetcher: fetcher.New(nil, cfg.Forum.UserAgent, baseLogger.With("component", "fetcher")),
		Parser:  parser.NewForum(cfg.Forum),
		Forum:   cfg.Forum,
		Logger:  baseLogger,
	})
	presenter := usecase.NewPresenter(dialect)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		presenter: presenter,
		digest:    usecase.NewDigest(selector, presenter),
	}
}

// Show renders one request without sending it anywhere.
func (a *Application) Show(ctx context.Context, req domain.SelectionRequest) (domain.Message, error) {
	return a.digest.Respond(ctx, req)
}

// Run connects to Telegram and serves until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := tgbotapi.SetLogger(logger.New("telegram-api", a.logger, slog.LevelDebug)); err != nil {
		return fmt.Errorf("set telegram logger: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(a.cfg.Telegram.BotToken)
	if err != nil {
		return fmt.Errorf("connect telegram: %w", err)
	}
	a.logger.Info("authorized on telegram", "bot", api.Self.UserName, "dialect", a.presenter.Dialect().Name())

	return a.Serve(ctx, api)
}

// Serve runs the bot loop and the daily broadcast on an already connected API.
func (a *Application) Serve(ctx context.Context, api telegram.API) error {
	registry := subscribers.NewRegistry()
	sender := telegram.NewSender(api, a.cfg.Telegram.SendAttempts, a.cfg.Telegram.MessagesPerSecond, a.logger)

	commands := usecase.NewCommands(a.digest, a.presenter, registry, a.logger)
	bot := telegram.NewBot(api, commands, sender, a.cfg.Telegram.PollTimeout, a.logger)

	driver, err := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location(), a.logger)
	if err != nil {
		return err
	}
	daily := usecase.NewScheduler(driver, usecase.NewBroadcaster(a.digest, registry, sender, a.logger), a.logger)

	if err := daily.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		if err := daily.Stop(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("scheduler stop failed", "error", err)
		}
		a.logger.Info("stopped", "subscribers", registry.Len())
	}()

	return bot.Run(ctx)
}
