package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is wrapped by every call the breaker refuses
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig configures a Breaker
type BreakerConfig struct {
	Name string

	// HalfOpenRequests is how many probes may run while half-open
	HalfOpenRequests uint32
	// ResetInterval clears the closed-state counts; zero never clears them
	ResetInterval time.Duration
	// OpenTimeout is how long the breaker stays open before probing
	OpenTimeout time.Duration

	// The breaker trips on ConsecutiveFailures in a row, or once MinRequests
	// have been seen and the failure ratio reaches FailureRatio.
	ConsecutiveFailures uint32
	FailureRatio        float64
	MinRequests         uint32

	// IsSuccessful decides which errors count against the breaker. Nil counts every error.
	IsSuccessful func(err error) bool

	// OnStateChange runs after the transition is logged
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig trips after 5 consecutive failures or a 50% failure
// rate over at least 10 calls, and probes again after 30s.
func DefaultBreakerConfig(name string) *BreakerConfig {
	return &BreakerConfig{
		Name:                name,
		HalfOpenRequests:    3,
		ResetInterval:       time.Minute,
		OpenTimeout:         30 * time.Second,
		ConsecutiveFailures: 5,
		FailureRatio:        0.5,
		MinRequests:         10,
	}
}

// Breaker guards calls to one dependency
type Breaker struct {
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewBreaker creates a Breaker. A nil logger uses slog.Default.
func NewBreaker(config *BreakerConfig, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:         config.Name,
		MaxRequests:  config.HalfOpenRequests,
		Interval:     config.ResetInterval,
		Timeout:      config.OpenTimeout,
		IsSuccessful: config.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= config.ConsecutiveFailures {
				return true
			}
			return counts.Requests >= config.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= config.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			if config.OnStateChange != nil {
				config.OnStateChange(name, from, to)
			}
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), logger: logger}
}

// Run calls fn unless ctx is already done or the breaker refuses the call
func (b *Breaker) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		b.logger.Warn("Circuit breaker rejected call", "name", b.cb.Name())
		return fmt.Errorf("%s unavailable: %w", b.cb.Name(), ErrCircuitOpen)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		b.logger.Warn("Circuit breaker half-open limit reached", "name", b.cb.Name())
		return fmt.Errorf("%s unavailable: %w (half-open limit reached)", b.cb.Name(), ErrCircuitOpen)
	}
	return err
}

// State returns the current breaker state
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// Counts returns the counts of the current generation
func (b *Breaker) Counts() gobreaker.Counts { return b.cb.Counts() }
