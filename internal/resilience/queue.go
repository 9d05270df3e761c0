package resilience

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobType identifies which handler processes an emergency job
type JobType string

const (
	JobTypeRegistration JobType = "registration_create"
	JobTypeNotification JobType = "notification"
)

// JobStatus is the lifecycle state of an emergency job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// EmergencyJob is a write the pipeline could not complete synchronously
type EmergencyJob struct {
	ID            string      `json:"id"`
	Type          JobType     `json:"type"`
	Payload       interface{} `json:"payload"`
	OriginalError string      `json:"original_error"`
	LastError     string      `json:"last_error,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	RetryCount    int         `json:"retry_count"`
	Status        JobStatus   `json:"status"`
	ProcessedAt   *time.Time  `json:"processed_at,omitempty"`
}

// JobHandler processes one emergency job. Handlers contain their own error
// handling and report failure through the returned error; they must not panic.
type JobHandler func(ctx context.Context, job EmergencyJob) error

// QueueConfig configures the emergency queue's retry and scheduling behavior
type QueueConfig struct {
	MaxRetries         int
	KickDelay          time.Duration // delay before the pass triggered by Add
	InterJobDelay      time.Duration // throttle between jobs within a pass
	RescheduleDelay    time.Duration // delay before re-running while jobs remain pending
	CompletedRetention time.Duration
	FailedRetention    time.Duration
}

// DefaultQueueConfig returns the production queue settings
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxRetries:         10,
		KickDelay:          1 * time.Second,
		InterJobDelay:      2 * time.Second,
		RescheduleDelay:    30 * time.Second,
		CompletedRetention: 1 * time.Hour,
		FailedRetention:    2 * time.Hour,
	}
}

// EmergencyQueue is a volatile, in-process, at-least-once retry queue. Add
// never fails; a background pass drains pending jobs with backoff until each
// succeeds or exhausts its retry budget. State does not survive a restart,
// which is why callers are handed a ticket rather than a guarantee.
type EmergencyQueue struct {
	config   QueueConfig
	jobs     map[string]*EmergencyJob
	handlers map[JobType]JobHandler
	mu       sync.Mutex
	active   bool // reentrancy flag: at most one processor pass at a time
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *logging.SafeLogger
}

// NewEmergencyQueue creates a new emergency queue
func NewEmergencyQueue(config QueueConfig, logger *logging.SafeLogger) *EmergencyQueue {
	return &EmergencyQueue{
		config:   config,
		jobs:     make(map[string]*EmergencyJob),
		handlers: make(map[JobType]JobHandler),
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// RegisterHandler installs the handler for a job type
func (q *EmergencyQueue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// Add enqueues a job and returns its id. It cannot fail: the job table is
// in-process memory and the processor is scheduled without blocking.
func (q *EmergencyQueue) Add(jobType JobType, payload interface{}, originalError string) string {
	job := &EmergencyJob{
		ID:            "emg-" + uuid.NewString(),
		Type:          jobType,
		Payload:       payload,
		OriginalError: originalError,
		CreatedAt:     time.Now(),
		Status:        JobStatusPending,
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	pending := q.pendingCountLocked()
	scheduleNeeded := !q.active
	q.mu.Unlock()

	observability.EmergencyQueueDepth.Set(float64(pending))
	q.logger.Warn("emergency job queued",
		zap.String("job_id", job.ID),
		zap.String("job_type", string(jobType)),
		zap.String("original_error", originalError),
		zap.Int("pending", pending))

	if scheduleNeeded {
		q.scheduleAfter(q.config.KickDelay)
	}

	return job.ID
}

// Job returns a snapshot of one job by id
func (q *EmergencyQueue) Job(id string) (EmergencyJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return EmergencyJob{}, false
	}
	return *job, true
}

// Jobs returns snapshots of all jobs in creation order
func (q *EmergencyQueue) Jobs() []EmergencyJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]EmergencyJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// QueueStats summarizes the job table
type QueueStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Stats returns per-status job counts
func (q *EmergencyQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	var stats QueueStats
	for _, job := range q.jobs {
		switch job.Status {
		case JobStatusPending:
			stats.Pending++
		case JobStatusProcessing:
			stats.Processing++
		case JobStatusCompleted:
			stats.Completed++
		case JobStatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// Stop prevents further processor passes from being scheduled
func (q *EmergencyQueue) Stop() {
	q.stopOnce.Do(func() { close(q.stopCh) })
}

// scheduleAfter triggers a processor pass after delay. The goroutine exits
// as soon as the timer fires or the queue stops, so repeated scheduling
// through a long outage does not accumulate parked goroutines.
func (q *EmergencyQueue) scheduleAfter(delay time.Duration) {
	timer := time.NewTimer(delay)
	go func() {
		defer timer.Stop()
		select {
		case <-timer.C:
			q.processPass()
		case <-q.stopCh:
		}
	}()
}

// processPass drains pending jobs once. The reentrancy flag guarantees a
// single active pass; concurrent triggers collapse into no-ops.
func (q *EmergencyQueue) processPass() {
	q.mu.Lock()
	if q.active {
		q.mu.Unlock()
		return
	}
	q.active = true
	pending := q.pendingSnapshotLocked()
	q.mu.Unlock()

	for i, job := range pending {
		select {
		case <-q.stopCh:
			q.finishPass()
			return
		default:
		}

		q.processJob(job)

		// Throttle load on the downstream between jobs
		if q.config.InterJobDelay > 0 && i < len(pending)-1 {
			select {
			case <-time.After(q.config.InterJobDelay):
			case <-q.stopCh:
				q.finishPass()
				return
			}
		}
	}

	q.cleanup()
	remaining := q.finishPass()

	observability.EmergencyQueueDepth.Set(float64(remaining))
	if remaining > 0 {
		q.logger.Info("emergency jobs still pending, rescheduling pass",
			zap.Int("pending", remaining),
			zap.Duration("delay", q.config.RescheduleDelay))
		q.scheduleAfter(q.config.RescheduleDelay)
	}
}

func (q *EmergencyQueue) finishPass() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.active = false
	return q.pendingCountLocked()
}

func (q *EmergencyQueue) processJob(snapshot EmergencyJob) {
	q.mu.Lock()
	job, ok := q.jobs[snapshot.ID]
	if !ok || job.Status != JobStatusPending {
		q.mu.Unlock()
		return
	}
	job.Status = JobStatusProcessing
	handler := q.handlers[job.Type]
	current := *job
	q.mu.Unlock()

	var err error
	if handler == nil {
		q.logger.Error("no handler registered for emergency job type",
			zap.String("job_id", current.ID),
			zap.String("job_type", string(current.Type)))
		err = errNoHandler
	} else {
		err = handler(context.Background(), current)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok = q.jobs[snapshot.ID]
	if !ok {
		return
	}

	if err == nil {
		now := time.Now()
		job.Status = JobStatusCompleted
		job.ProcessedAt = &now
		job.LastError = ""
		observability.EmergencyJobsProcessed.WithLabelValues(string(job.Type), "completed").Inc()
		q.logger.Info("emergency job completed",
			zap.String("job_id", job.ID),
			zap.String("job_type", string(job.Type)),
			zap.Int("retry_count", job.RetryCount))
		return
	}

	job.RetryCount++
	job.LastError = err.Error()
	if job.RetryCount >= q.config.MaxRetries {
		now := time.Now()
		job.Status = JobStatusFailed
		job.ProcessedAt = &now
		observability.EmergencyJobsProcessed.WithLabelValues(string(job.Type), "failed").Inc()
		q.logger.Error("emergency job failed permanently",
			zap.String("job_id", job.ID),
			zap.String("job_type", string(job.Type)),
			zap.Int("retry_count", job.RetryCount),
			zap.String("last_error", job.LastError))
		return
	}

	job.Status = JobStatusPending
	q.logger.Warn("emergency job failed, will retry",
		zap.String("job_id", job.ID),
		zap.String("job_type", string(job.Type)),
		zap.Int("retry_count", job.RetryCount),
		zap.String("error", job.LastError))
}

// cleanup purges completed jobs past the short retention window and failed
// jobs past the longer one.
func (q *EmergencyQueue) cleanup() {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for id, job := range q.jobs {
		if job.ProcessedAt == nil {
			continue
		}
		switch job.Status {
		case JobStatusCompleted:
			if now.Sub(*job.ProcessedAt) > q.config.CompletedRetention {
				delete(q.jobs, id)
			}
		case JobStatusFailed:
			if now.Sub(*job.ProcessedAt) > q.config.FailedRetention {
				delete(q.jobs, id)
			}
		}
	}
}

func (q *EmergencyQueue) pendingSnapshotLocked() []EmergencyJob {
	out := make([]EmergencyJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		if job.Status == JobStatusPending {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (q *EmergencyQueue) pendingCountLocked() int {
	count := 0
	for _, job := range q.jobs {
		if job.Status == JobStatusPending {
			count++
		}
	}
	return count
}
