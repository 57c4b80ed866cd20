// Package logger adapts slog to the printf-style logger some libraries expect.
package logger

import (
	"log"
	"log/slog"
)

// New returns a *log.Logger that writes through base at the given level,
// tagged with a component attribute. A nil base uses slog.Default().
func New(component string, base *slog.Logger, level slog.Level) *log.Logger {
	if base == nil {
		base = slog.Default()
	}
	return slog.NewLogLogger(base.With("component", component).Handler(), level)
}
