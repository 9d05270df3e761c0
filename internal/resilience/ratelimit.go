package resilience

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/observability"
	"go.uber.org/zap"
)

// sweepProbability is the chance that a Check call also purges expired
// windows, bounding table growth without a dedicated goroutine.
const sweepProbability = 0.01

// AdmissionConfig configures the fixed-window admission controller
type AdmissionConfig struct {
	WindowDuration time.Duration
	MaxRequests    int
}

// Decision is the outcome of an admission check
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter int // seconds, set only on rejection
}

type windowEntry struct {
	count       int
	windowStart time.Time
	resetTime   time.Time
}

// AdmissionController is a per-key fixed-window request counter. It is the
// first gate on every registration write: O(1), never blocks, only
// accepts or rejects.
type AdmissionController struct {
	config  AdmissionConfig
	entries map[string]*windowEntry
	mu      sync.Mutex
	logger  *logging.SafeLogger
}

// NewAdmissionController creates a new admission controller
func NewAdmissionController(config AdmissionConfig, logger *logging.SafeLogger) *AdmissionController {
	return &AdmissionController{
		config:  config,
		entries: make(map[string]*windowEntry),
		logger:  logger,
	}
}

// Check records one request for key and decides whether to admit it.
// The key composes caller identity with the target operation, e.g.
// "registration:203.0.113.9:evt-123".
func (ac *AdmissionController) Check(key string) Decision {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	now := time.Now()

	if rand.Float64() < sweepProbability {
		ac.sweepLocked(now)
	}

	entry, ok := ac.entries[key]
	if !ok || !now.Before(entry.resetTime) {
		// First request for this key, or the previous window expired:
		// a fresh window replaces the entry atomically.
		entry = &windowEntry{
			count:       1,
			windowStart: now,
			resetTime:   now.Add(ac.config.WindowDuration),
		}
		ac.entries[key] = entry

		observability.AdmissionDecisions.WithLabelValues("allowed").Inc()
		return Decision{
			Allowed:   true,
			Limit:     ac.config.MaxRequests,
			Remaining: ac.config.MaxRequests - 1,
			ResetTime: entry.resetTime,
		}
	}

	entry.count++
	if entry.count > ac.config.MaxRequests {
		retryAfter := int(math.Ceil(entry.resetTime.Sub(now).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}

		ac.logger.Warn("admission rejected",
			zap.String("key", key),
			zap.Int("count", entry.count),
			zap.Int("max_requests", ac.config.MaxRequests),
			zap.Int("retry_after", retryAfter))

		observability.AdmissionDecisions.WithLabelValues("rejected").Inc()
		return Decision{
			Allowed:    false,
			Limit:      ac.config.MaxRequests,
			Remaining:  0,
			ResetTime:  entry.resetTime,
			RetryAfter: retryAfter,
		}
	}

	observability.AdmissionDecisions.WithLabelValues("allowed").Inc()
	return Decision{
		Allowed:   true,
		Limit:     ac.config.MaxRequests,
		Remaining: ac.config.MaxRequests - entry.count,
		ResetTime: entry.resetTime,
	}
}

// Size returns the number of tracked windows
func (ac *AdmissionController) Size() int {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return len(ac.entries)
}

// Sweep removes all expired windows immediately
func (ac *AdmissionController) Sweep() {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.sweepLocked(time.Now())
}

func (ac *AdmissionController) sweepLocked(now time.Time) {
	removed := 0
	for key, entry := range ac.entries {
		if !now.Before(entry.resetTime) {
			delete(ac.entries, key)
			removed++
		}
	}
	if removed > 0 {
		ac.logger.Debug("swept expired admission windows",
			zap.Int("removed", removed),
			zap.Int("remaining", len(ac.entries)))
	}
}
