package idempotency

import (
	"log/slog"
	"time"
)

// Options configures Middleware
type Options struct {
	// Service scopes keys when several services share one table
	Service string
	Store   Store

	// RequireKey rejects POSTs without a key. Otherwise they run undeduplicated.
	RequireKey bool

	MaxKeyLength int
	// LockTimeout is how long an unfinished request holds its key before another may take over
	LockTimeout time.Duration
	// Retention is how long a completed response stays replayable
	Retention time.Duration
	// MaxResponseSize caps the stored body. Larger bodies store a placeholder.
	MaxResponseSize int

	Metrics *Metrics
	Logger  *slog.Logger
}

// DefaultOptions keeps responses for a day
func DefaultOptions(service string, store Store) *Options {
	return &Options{
		Service:         service,
		Store:           store,
		MaxKeyLength:    255,
		LockTimeout:     5 * time.Minute,
		Retention:       24 * time.Hour,
		MaxResponseSize: 1 << 20,
		Logger:          slog.Default(),
	}
}
