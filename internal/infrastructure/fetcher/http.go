// Package fetcher retrieves raw forum markup. It is the only network I/O of the
// content pipeline; everything above it is pure given its output.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"WorumTop/internal/ports"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Kind classifies a fetch failure.
type Kind int

const (
	KindNetwork Kind = iota
	KindDecode
)

func (k Kind) String() string {
	if k == KindDecode {
		return "decode"
	}
	return "network"
}

// Error is returned for every failed fetch.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind checks whether err is a fetch error of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}

// HTTP issues a single GET per page: no retries, no caching.
type HTTP struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ ports.Fetcher = (*HTTP)(nil)

// New wires an HTTP client; a nil client uses one without a timeout override.
func New(client *http.Client, userAgent string, logger *slog.Logger) *HTTP {
	if client == nil {
		client = &http.Client{}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HTTP{client: client, userAgent: userAgent, logger: logger}
}

// Fetch returns the page body decoded to UTF-8 text.
func (h *HTTP) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", &Error{Kind: KindNetwork, URL: pageURL, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")

	started := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warn("HTTP request failed", "url", pageURL, "duration_ms", time.Since(started).Milliseconds(), "error", err)
		return "", &Error{Kind: KindNetwork, URL: pageURL, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			h.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	h.logger.Debug("HTTP request completed",
		"url", pageURL,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: KindNetwork, URL: pageURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &Error{Kind: KindDecode, URL: pageURL, Err: err}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", &Error{Kind: KindNetwork, URL: pageURL, Err: fmt.Errorf("read body: %w", err)}
	}
	if !utf8.Valid(body) {
		return "", &Error{Kind: KindDecode, URL: pageURL, Err: errors.New("body is not valid text")}
	}

	return string(body), nil
}
