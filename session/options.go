// Package session binds live queries and record collections to derived
// search results, and layers list-picker selection state on top.
package session

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// DefaultDebounce is the quiet period used by debounced search sessions.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultCloseDelay is the grace period before a deferred close.
	DefaultCloseDelay = 200 * time.Millisecond
)

// Option configures a Search or Selection session.
type Option func(*config)

type config struct {
	debounce           time.Duration
	closeDelay         time.Duration
	reopenCancelsClose bool
	clock              clock.Clock
	logger             *slog.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{
		closeDelay:         DefaultCloseDelay,
		reopenCancelsClose: true,
		clock:              clock.New(),
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithDebounce defers recomputation until d has passed since the last
// query change. Zero, the default, recomputes synchronously.
func WithDebounce(d time.Duration) Option {
	return func(cfg *config) {
		cfg.debounce = max(d, 0)
	}
}

// WithCloseDelay sets the grace period used by Selection.CloseDeferred.
func WithCloseDelay(d time.Duration) Option {
	return func(cfg *config) {
		cfg.closeDelay = max(d, 0)
	}
}

// WithReopenCancelsClose controls whether Selection.Open cancels a pending
// deferred close. It defaults to true; false lets the close fire regardless.
func WithReopenCancelsClose(cancel bool) Option {
	return func(cfg *config) {
		cfg.reopenCancelsClose = cancel
	}
}

// WithClock sets the clock used to schedule deferred work.
func WithClock(c clock.Clock) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// WithLogger sets the logger for session diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}
