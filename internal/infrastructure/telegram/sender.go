// Package telegram is the chat transport: outbound delivery with pacing and
// retry, and the long-polling command loop.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/codeGROOVE-dev/retry"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"WorumTop/internal/domain"
	"WorumTop/internal/ports"
)

// captionLimit is Telegram's maximum photo caption length.
const captionLimit = 1024

// API is the subset of *tgbotapi.BotAPI the transport uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Sender delivers rendered messages. Sends are paced by a shared limiter and
// retried only when Telegram answers 429 Too Many Requests.
type Sender struct {
	api      API
	attempts uint
	delay    time.Duration
	jitter   time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
}

var _ ports.Sender = (*Sender)(nil)

// SenderOption tweaks a Sender.
type SenderOption func(*Sender)

// WithRetryDelay overrides the base backoff between 429 retries.
func WithRetryDelay(delay, jitter time.Duration) SenderOption {
	return func(s *Sender) {
		if delay > 0 {
			s.delay = delay
		}
		if jitter > 0 {
			s.jitter = jitter
		}
	}
}

// NewSender builds a Sender. A non-positive rate disables pacing.
func NewSender(api API, attempts uint, messagesPerSecond float64, logger *slog.Logger, opts ...SenderOption) *Sender {
	if attempts == 0 {
		attempts = 1
	}
	limit := rate.Inf
	if messagesPerSecond > 0 {
		limit = rate.Limit(messagesPerSecond)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Sender{
		api:      api,
		attempts: attempts,
		delay:    time.Second,
		jitter:   500 * time.Millisecond,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger.With("component", "telegram-sender"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers msg to dest. A message carrying an image is sent as a photo
// with the body as caption when the caption fits.
func (s *Sender) Send(ctx context.Context, dest domain.Destination, msg domain.Message) error {
	if msg.Empty() {
		return nil
	}

	chattable := s.chattable(dest, msg)

	err := retry.Do(
		func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			_, err := s.api.Send(chattable)
			return err
		},
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.MaxDelay(time.Minute),
		retry.MaxJitter(s.jitter),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Info("telegram throttled, retrying", "chat", dest, "attempt", n+1, "error", err)
		}),
		retry.RetryIf(IsTooManyRequests),
	)
	if err != nil {
		return fmt.Errorf("send to chat %d: %w", dest, err)
	}
	return nil
}

func (s *Sender) chattable(dest domain.Destination, msg domain.Message) tgbotapi.Chattable {
	if msg.ImageURL != "" && utf8.RuneCountInString(msg.Body) <= captionLimit {
		photo := tgbotapi.NewPhoto(int64(dest), tgbotapi.FileURL(msg.ImageURL))
		photo.Caption = msg.Body
		photo.ParseMode = msg.ParseMode
		return photo
	}

	text := tgbotapi.NewMessage(int64(dest), msg.Body)
	text.ParseMode = msg.ParseMode
	return text
}

// IsTooManyRequests reports whether err is a Telegram flood-control reply.
func IsTooManyRequests(err error) bool {
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) {
		return false
	}
	return tgErr.Code == 429 || tgErr.RetryAfter > 0
}
