// Package breaker wraps outbound calls in a circuit breaker.
package breaker

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kipper0508/escape-bot/internal/logging"
)

// Config holds circuit breaker settings.
type Config struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio at which the breaker opens.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultConfig returns the default breaker configuration for name.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Breaker is a circuit breaker around one upstream service.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a breaker from cfg.
func New(cfg Config) *Breaker {
	return &Breaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logging.Warn("circuit breaker state changed",
				logging.KeyService, name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not an upstream failure.
			return err == nil || err == context.Canceled
		},
	})}
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.cb.Name()
}

// State returns the current breaker state as a string.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Check fails while the breaker is open. It fits a health check.
func (b *Breaker) Check(context.Context) error {
	if b.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s circuit open", b.cb.Name())
	}
	return nil
}

// Do runs fn through the breaker. An open breaker rejects the call with
// gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

// IsOpen reports whether err is a rejection by an open or half-open breaker.
func IsOpen(err error) bool {
	return err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests
}
