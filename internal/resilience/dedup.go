package resilience

import (
	"math/rand"
	"sync"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/logging"
	"go.uber.org/zap"
)

// ProcessingStatus is the lifecycle state of an in-flight write
type ProcessingStatus string

const (
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// ProcessingEntry tracks the current outcome of one logical write key
type ProcessingEntry struct {
	Key       string
	Status    ProcessingStatus
	Result    interface{}
	Error     string
	Timestamp time.Time
}

// ProcessingTracker guarantees at most one concurrent write per logical key
// within this process. Begin claims a key atomically under the tracker's
// lock, so two racing callers cannot both start a write for the same key.
// The guarantee does not extend across process instances; the downstream
// unique constraint covers that gap.
type ProcessingTracker struct {
	entries map[string]*ProcessingEntry
	ttl     time.Duration
	mu      sync.Mutex
	logger  *logging.SafeLogger
}

// NewProcessingTracker creates a new tracker. Entries older than ttl are
// purged opportunistically.
func NewProcessingTracker(ttl time.Duration, logger *logging.SafeLogger) *ProcessingTracker {
	return &ProcessingTracker{
		entries: make(map[string]*ProcessingEntry),
		ttl:     ttl,
		logger:  logger,
	}
}

// Begin attempts to claim key for a new write. When the claim succeeds the
// caller owns the write and must later call Complete, Fail, or Delete.
// When it fails, the returned entry tells the caller what to do instead:
// replay a completed result or report that processing is underway. A failed
// entry is cleared and re-claimed for a fresh attempt.
func (pt *ProcessingTracker) Begin(key string) (bool, *ProcessingEntry) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if rand.Float64() < sweepProbability {
		pt.sweepLocked()
	}

	entry, ok := pt.entries[key]
	if ok && entry.Status != StatusFailed && time.Since(entry.Timestamp) < pt.ttl {
		snapshot := *entry
		return false, &snapshot
	}

	pt.entries[key] = &ProcessingEntry{
		Key:       key,
		Status:    StatusProcessing,
		Timestamp: time.Now(),
	}
	return true, nil
}

// Get returns a snapshot of the entry for key
func (pt *ProcessingTracker) Get(key string) (*ProcessingEntry, bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	entry, ok := pt.entries[key]
	if !ok {
		return nil, false
	}
	snapshot := *entry
	return &snapshot, true
}

// Complete marks the write for key as completed with its result
func (pt *ProcessingTracker) Complete(key string, result interface{}) {
	pt.setStatus(key, StatusCompleted, result, "")
}

// Fail marks the write for key as failed
func (pt *ProcessingTracker) Fail(key string, errMsg string) {
	pt.setStatus(key, StatusFailed, nil, errMsg)
}

// Delete removes the entry for key
func (pt *ProcessingTracker) Delete(key string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	delete(pt.entries, key)
}

// Size returns the number of tracked entries
func (pt *ProcessingTracker) Size() int {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return len(pt.entries)
}

// Sweep removes entries older than the tracker TTL. Begin also runs this
// opportunistically on a small fraction of calls, so the table shrinks
// under load without a dedicated goroutine.
func (pt *ProcessingTracker) Sweep() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.sweepLocked()
}

func (pt *ProcessingTracker) sweepLocked() {
	cutoff := time.Now().Add(-pt.ttl)
	removed := 0
	for key, entry := range pt.entries {
		if entry.Timestamp.Before(cutoff) {
			delete(pt.entries, key)
			removed++
		}
	}
	if removed > 0 {
		pt.logger.Debug("swept stale processing entries",
			zap.Int("removed", removed),
			zap.Int("remaining", len(pt.entries)))
	}
}

func (pt *ProcessingTracker) setStatus(key string, status ProcessingStatus, result interface{}, errMsg string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	entry, ok := pt.entries[key]
	if !ok {
		entry = &ProcessingEntry{Key: key}
		pt.entries[key] = entry
	}
	entry.Status = status
	entry.Result = result
	entry.Error = errMsg
	entry.Timestamp = time.Now()
}
