// Package limiter guards host-library evaluation: a circuit breaker stops
// hammering a broken host build, and a rate limiter throttles hosts that
// persist intermediate state on every call.
package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Config holds protection configuration.
type Config struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// EvalsPerSecond throttles host calls; zero disables the limiter.
	EvalsPerSecond float64
	Burst          int
}

// DefaultConfig returns settings suited to a local host library.
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
	}
}

// Protection wraps a function with a circuit breaker and an optional rate
// limiter.
type Protection struct {
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// New creates a protection manager.
func New(config Config) *Protection {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Candidates failing semantically is normal; only consecutive
			// failures suggest the host itself is broken.
			return counts.ConsecutiveFailures >= 10
		},
	})
	var limiter *rate.Limiter
	if config.EvalsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.EvalsPerSecond), burst)
	}
	return &Protection{breaker: breaker, limiter: limiter}
}

// Execute runs fn through the limiter and breaker.
func (p *Protection) Execute(ctx context.Context, fn func() (any, error)) (any, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	return p.breaker.Execute(fn)
}

// State returns the breaker state for logging.
func (p *Protection) State() gobreaker.State {
	return p.breaker.State()
}
