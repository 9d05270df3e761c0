package resilience

import (
	"sync"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/observability"
	"go.uber.org/zap"
)

// BreakerState is the state of a circuit for one downstream service
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateHalfOpen
	StateOpen
)

// String returns the state name
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	}
	return "unknown"
}

// BreakerConfig configures the circuit breaker
type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	RecoveryTime     time.Duration
}

// Verdict is the outcome of a breaker check
type Verdict struct {
	Allowed    bool
	State      BreakerState
	Reason     string
	RetryAfter time.Duration // set only on fast-fail
}

type circuitState struct {
	state           BreakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time
}

// CircuitBreaker tracks failures per downstream service and fast-fails
// calls to a service that is known to be bad, probing it again after the
// recovery window has elapsed.
type CircuitBreaker struct {
	config   BreakerConfig
	services map[string]*circuitState
	mu       sync.Mutex
	logger   *logging.SafeLogger
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config BreakerConfig, logger *logging.SafeLogger) *CircuitBreaker {
	return &CircuitBreaker{
		config:   config,
		services: make(map[string]*circuitState),
		logger:   logger,
	}
}

// Check reports whether a call to serviceKey should be attempted. On an open
// circuit whose recovery window has elapsed, it transitions to half-open and
// admits a single probe.
func (cb *CircuitBreaker) Check(serviceKey string) Verdict {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cs := cb.stateLocked(serviceKey)

	switch cs.state {
	case StateOpen:
		elapsed := time.Since(cs.lastFailureTime)
		if elapsed >= cb.config.RecoveryTime {
			cs.state = StateHalfOpen
			cs.successCount = 0
			cb.exportStateLocked(serviceKey, cs)
			cb.logger.Info("circuit half-open, allowing probe",
				zap.String("service", serviceKey))
			return Verdict{Allowed: true, State: StateHalfOpen}
		}
		return Verdict{
			Allowed:    false,
			State:      StateOpen,
			Reason:     "circuit open",
			RetryAfter: cb.config.RecoveryTime - elapsed,
		}
	case StateHalfOpen:
		return Verdict{Allowed: true, State: StateHalfOpen}
	default:
		return Verdict{Allowed: true, State: StateClosed}
	}
}

// RecordSuccess records a successful call to serviceKey
func (cb *CircuitBreaker) RecordSuccess(serviceKey string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cs := cb.stateLocked(serviceKey)

	switch cs.state {
	case StateHalfOpen:
		cs.successCount++
		if cs.successCount >= cb.config.SuccessThreshold {
			cs.state = StateClosed
			cs.failureCount = 0
			cs.successCount = 0
			cb.exportStateLocked(serviceKey, cs)
			cb.logger.Info("circuit closed after recovery",
				zap.String("service", serviceKey))
		}
	case StateClosed:
		// Decay isolated failures
		cs.failureCount = 0
	}
}

// RecordFailure records a failed call to serviceKey
func (cb *CircuitBreaker) RecordFailure(serviceKey string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cs := cb.stateLocked(serviceKey)
	cs.failureCount++
	cs.lastFailureTime = time.Now()
	cs.successCount = 0

	if cs.state == StateHalfOpen || cs.failureCount >= cb.config.FailureThreshold {
		if cs.state != StateOpen {
			cb.logger.Warn("circuit opened",
				zap.String("service", serviceKey),
				zap.Int("failure_count", cs.failureCount),
				zap.String("previous_state", cs.state.String()))
		}
		cs.state = StateOpen
		cb.exportStateLocked(serviceKey, cs)
	}
}

// State returns the current state for serviceKey
func (cb *CircuitBreaker) State(serviceKey string) BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked(serviceKey).state
}

// FailureCount returns the current failure count for serviceKey
func (cb *CircuitBreaker) FailureCount(serviceKey string) int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked(serviceKey).failureCount
}

func (cb *CircuitBreaker) stateLocked(serviceKey string) *circuitState {
	cs, ok := cb.services[serviceKey]
	if !ok {
		cs = &circuitState{state: StateClosed}
		cb.services[serviceKey] = cs
	}
	return cs
}

func (cb *CircuitBreaker) exportStateLocked(serviceKey string, cs *circuitState) {
	var value float64
	switch cs.state {
	case StateHalfOpen:
		value = 1
	case StateOpen:
		value = 2
	}
	observability.CircuitBreakerState.WithLabelValues(serviceKey).Set(value)
}
