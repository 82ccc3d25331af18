// Package circuitbreaker implements a three-state failure shield (closed,
// open, half-open) in front of any outbound dependency. It wraps
// sony/gobreaker to get linearizable state transitions for free and adds the
// distinct CircuitOpenError and structured transition logging this codebase
// expects everywhere a circuit is used.
package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// CircuitOpenError is returned immediately when the circuit is open and a
// call is rejected without invoking the guarded function.
type CircuitOpenError struct {
	Name string
}

func (e *CircuitOpenError) Error() string {
	return "circuitbreaker: " + e.Name + " is open"
}

// IsOpen reports whether err is (or wraps) a CircuitOpenError.
func IsOpen(err error) bool {
	var coe *CircuitOpenError
	return errors.As(err, &coe)
}

// Config controls the breaker's trip/reset behavior.
type Config struct {
	Name                string
	FailureThreshold    uint32        // consecutive failures before tripping; default 5
	ResetTimeout        time.Duration // open duration before probing; default 30s
	HalfOpenMaxAttempts uint32        // probes allowed in half-open; default 1
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.ResetTimeout == 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxAttempts == 0 {
		c.HalfOpenMaxAttempts = 1
	}
	if c.Name == "" {
		c.Name = "default"
	}
	return c
}

// CircuitBreaker wraps gobreaker.CircuitBreaker to expose the state machine
// described by the watch/cache subsystems: closed -> open on consecutive
// failures, open -> half-open lazily after resetTimeout, half-open -> closed
// on success or back to open on failure.
type CircuitBreaker struct {
	cfg Config
	cb  *gobreaker.CircuitBreaker
}

// New constructs a CircuitBreaker. Every state transition is logged with the
// from/to states and the breaker name.
func New(cfg Config) *CircuitBreaker {
	cfg = cfg.withDefaults()
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenMaxAttempts,
		Interval:    0, // never reset closed-state failure counts on a timer; only consecutive failures matter
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	}
	return &CircuitBreaker{cfg: cfg, cb: gobreaker.NewCircuitBreaker(settings)}
}

// State mirrors gobreaker's state as the three names used in the spec.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "halfOpen"
	default:
		return "closed"
	}
}

// State reports the breaker's current state without side effects.
func (b *CircuitBreaker) State() State {
	switch b.cb.State() {
	case gobreaker.StateOpen:
		return Open
	case gobreaker.StateHalfOpen:
		return HalfOpen
	default:
		return Closed
	}
}

// Execute runs fn under the breaker's protection. If the circuit is open (or
// half-open with no probe budget left), fn is never called and a
// *CircuitOpenError is returned instead.
func (b *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil && errors.Is(err, gobreaker.ErrOpenState) {
		return nil, &CircuitOpenError{Name: b.cfg.Name}
	}
	if err != nil && errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &CircuitOpenError{Name: b.cfg.Name}
	}
	return res, err
}
