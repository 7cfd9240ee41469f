package scheduler

import (
	"sync"
	"time"

	"retail-assortment-optimizer/pkg/logger"
)

// CircuitState is the run-health breaker's current state.
type CircuitState string

const (
	CircuitClosed   CircuitState = "Closed"
	CircuitOpen     CircuitState = "Open"
	CircuitHalfOpen CircuitState = "HalfOpen"
)

// BreakerConfig controls how many consecutive failures open the
// breaker, how long it stays open, and how many consecutive successes
// in the half-open state are needed to close it again.
type BreakerConfig struct {
	ErrorThreshold   int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

// DefaultBreakerConfig opens after 3 consecutive failed runs, waits an
// hour before probing again, and requires 2 consecutive clean runs to
// close.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ErrorThreshold:   3,
		SuccessThreshold: 2,
		OpenTimeout:      time.Hour,
	}
}

// CircuitBreaker tracks run-to-run pipeline health across scheduled
// invocations, tripping after repeated run-ending failures of any
// error type so a broken feature extract or degenerate clustering run
// doesn't fire the same bad recommendations on every cron tick.
// Adapted from the teacher's safety.CircuitBreaker, which tracked
// consecutive Kubernetes-apply failures on an OptimizerConfig's status
// subresource; here state lives in the process, scoped to one pipeline
// schedule rather than one CRD object.
type CircuitBreaker struct {
	mu     sync.Mutex
	config BreakerConfig
	log    *logger.Logger

	state               CircuitState
	consecutiveErrors   int
	consecutiveSuccess  int
	lastTransition      time.Time
	totalRunsSucceeded  int
	totalRunsFailed     int
}

// NewCircuitBreaker returns a closed breaker using DefaultBreakerConfig.
func NewCircuitBreaker() *CircuitBreaker {
	return NewCircuitBreakerWithConfig(DefaultBreakerConfig())
}

// NewCircuitBreakerWithConfig returns a closed breaker using cfg.
func NewCircuitBreakerWithConfig(cfg BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		config:         cfg,
		log:            logger.WithComponent("scheduler"),
		state:          CircuitClosed,
		lastTransition: time.Time{},
	}
}

// ShouldAllow reports whether a new run should be started given the
// breaker's current state, transitioning Open -> HalfOpen once
// OpenTimeout has elapsed since the trip.
func (cb *CircuitBreaker) ShouldAllow(now time.Time) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != CircuitOpen {
		return true
	}
	if now.Sub(cb.lastTransition) >= cb.config.OpenTimeout {
		cb.transition(CircuitHalfOpen, now)
		cb.consecutiveErrors = 0
		cb.consecutiveSuccess = 0
		return true
	}
	return false
}

// RecordSuccess records a clean pipeline run and reports whether the
// breaker's state changed.
func (cb *CircuitBreaker) RecordSuccess(now time.Time) (stateChanged bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveErrors = 0
	cb.consecutiveSuccess++
	cb.totalRunsSucceeded++

	if cb.state == CircuitHalfOpen && cb.consecutiveSuccess >= cb.config.SuccessThreshold {
		cb.transition(CircuitClosed, now)
		cb.consecutiveSuccess = 0
		return true
	}
	return false
}

// RecordFailure records a failed pipeline run and reports whether the
// breaker's state changed. err is logged but not inspected — every
// run-ending failure (clustering quality, insufficient data, or
// anything else the pipeline surfaces as fatal) counts toward the
// threshold equally.
func (cb *CircuitBreaker) RecordFailure(now time.Time, err error) (stateChanged bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveSuccess = 0
	cb.consecutiveErrors++
	cb.totalRunsFailed++

	if cb.state != CircuitOpen && cb.consecutiveErrors >= cb.config.ErrorThreshold {
		cb.log.Warnf("circuit breaker opening after %d consecutive failed runs: %v", cb.consecutiveErrors, err)
		cb.transition(CircuitOpen, now)
		return true
	}
	return false
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) transition(to CircuitState, now time.Time) {
	cb.state = to
	cb.lastTransition = now
}
