package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/models"
	"github.com/eventos-rio/app-guestlist/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PrimaryWriter is the normal write path into the persistent store
type PrimaryWriter interface {
	CreateRegistration(ctx context.Context, eventID string, req *models.RegistrationRequest) (*models.Registration, error)
}

// DirectWriter is the lower-level fallback write path that bypasses the
// caching layer and derived artifacts
type DirectWriter interface {
	InsertRegistrationDirect(ctx context.Context, eventID string, req *models.RegistrationRequest) (*models.Registration, error)
}

// PipelineConfig configures the cascading write pipeline
type PipelineConfig struct {
	ServiceKey     string // breaker key for the primary store
	PrimaryTimeout time.Duration
	DirectTimeout  time.Duration
}

// EmergencyPayload is the job payload for a deferred registration write
type EmergencyPayload struct {
	EventID string                      `json:"event_id"`
	Request *models.RegistrationRequest `json:"request"`
}

// RegistrationPipeline orchestrates ordered write attempts across tiers of
// decreasing guarantees. Write never reports failure to the caller: internal
// failure is translated into a deferred-processing ticket instead.
type RegistrationPipeline struct {
	config  PipelineConfig
	primary PrimaryWriter
	direct  DirectWriter
	breaker *CircuitBreaker
	tracker *ProcessingTracker
	queue   *EmergencyQueue
	logger  *logging.SafeLogger
}

// NewRegistrationPipeline wires the pipeline with its collaborators
func NewRegistrationPipeline(
	config PipelineConfig,
	primary PrimaryWriter,
	direct DirectWriter,
	breaker *CircuitBreaker,
	tracker *ProcessingTracker,
	queue *EmergencyQueue,
	logger *logging.SafeLogger,
) *RegistrationPipeline {
	return &RegistrationPipeline{
		config:  config,
		primary: primary,
		direct:  direct,
		breaker: breaker,
		tracker: tracker,
		queue:   queue,
		logger:  logger,
	}
}

// Write attempts the registration through each tier in order. The returned
// envelope always has Success set; the caller decides nothing about retries.
func (p *RegistrationPipeline) Write(ctx context.Context, eventID string, req *models.RegistrationRequest) *models.RegistrationResponse {
	key := models.RegistrationKey(eventID, req.Email)
	logger := p.logger.With(
		zap.String("event_id", eventID),
		zap.String("registration_key", key),
	)

	claimed, existing := p.tracker.Begin(key)
	if !claimed {
		switch existing.Status {
		case StatusCompleted:
			logger.Debug("replaying completed registration")
			reg, _ := existing.Result.(*models.Registration)
			return &models.RegistrationResponse{
				Success: true,
				Data:    reg,
				Message: "registration already confirmed",
			}
		default:
			logger.Debug("registration already in flight")
			return &models.RegistrationResponse{
				Success:    true,
				Processing: true,
				Message:    "registration is being processed, please wait",
			}
		}
	}

	var errTrace string

	// Tier 1: primary write under the circuit breaker
	verdict := p.breaker.Check(p.config.ServiceKey)
	if verdict.Allowed {
		reg, err := p.runWithTimeout(ctx, p.config.PrimaryTimeout, func(ctx context.Context) (*models.Registration, error) {
			return p.primary.CreateRegistration(ctx, eventID, req)
		})
		if err == nil {
			p.breaker.RecordSuccess(p.config.ServiceKey)
			p.tracker.Complete(key, reg)
			observability.RegistrationTiers.WithLabelValues("1", "success").Inc()
			return &models.RegistrationResponse{
				Success: true,
				Data:    reg,
				Message: "registration confirmed",
			}
		}
		if errors.Is(err, models.ErrDuplicateGuest) {
			return p.duplicateResponse(key, "1", logger)
		}
		p.breaker.RecordFailure(p.config.ServiceKey)
		observability.RegistrationTiers.WithLabelValues("1", "failure").Inc()
		errTrace = fmt.Sprintf("tier 1: %v", err)
		logger.Warn("tier 1 primary write failed", zap.Error(err))
	} else {
		observability.RegistrationTiers.WithLabelValues("1", "skipped").Inc()
		errTrace = fmt.Sprintf("tier 1: skipped, %s", verdict.Reason)
		logger.Warn("tier 1 skipped, circuit open",
			zap.Duration("retry_after", verdict.RetryAfter))
	}

	// Tier 2: direct insert, bypassing cache and derived artifacts
	reg, err := p.runWithTimeout(ctx, p.config.DirectTimeout, func(ctx context.Context) (*models.Registration, error) {
		return p.direct.InsertRegistrationDirect(ctx, eventID, req)
	})
	if err == nil {
		p.tracker.Complete(key, reg)
		observability.RegistrationTiers.WithLabelValues("2", "success").Inc()
		return &models.RegistrationResponse{
			Success:      true,
			Data:         reg,
			Message:      "registration confirmed",
			FallbackUsed: true,
		}
	}
	if errors.Is(err, models.ErrDuplicateGuest) {
		return p.duplicateResponse(key, "2", logger)
	}
	observability.RegistrationTiers.WithLabelValues("2", "failure").Inc()
	errTrace = fmt.Sprintf("%s; tier 2: %v", errTrace, err)
	logger.Warn("tier 2 direct write failed", zap.Error(err))

	// Tier 3: defer to the emergency queue. The dedup entry stays in
	// processing state so concurrent retries keep getting "please wait"
	// until the TTL sweep clears it.
	if jobID, ok := p.enqueue(eventID, req, errTrace); ok {
		observability.RegistrationTiers.WithLabelValues("3", "success").Inc()
		logger.Warn("registration deferred to emergency queue",
			zap.String("emergency_ticket", jobID))
		return &models.RegistrationResponse{
			Success:         true,
			Message:         "registration accepted and will be processed shortly",
			FallbackUsed:    true,
			EmergencyTicket: jobID,
			EstimatedTime:   "2-5 minutes",
		}
	}

	// Tier 4: even the enqueue failed. Synthesize a manual ticket locally;
	// this tier cannot fail. The dedup entry is marked failed so the next
	// attempt for this guest claims a fresh write instead of waiting out
	// the TTL on an entry nothing will resolve.
	p.tracker.Fail(key, errTrace)
	manualTicket := "manual-" + uuid.NewString()
	observability.RegistrationTiers.WithLabelValues("4", "success").Inc()
	logger.Error("all write tiers failed, issuing manual ticket",
		zap.String("manual_ticket", manualTicket),
		zap.String("error_trace", errTrace))
	return &models.RegistrationResponse{
		Success:         true,
		Message:         "registration received; contact support with this code if no confirmation arrives",
		FallbackUsed:    true,
		EmergencyTicket: manualTicket,
	}
}

// duplicateResponse reports an already-registered guest as confirmed. The
// store answered authoritatively, so the breaker records a success and the
// dedup entry is completed for replay.
func (p *RegistrationPipeline) duplicateResponse(key, tier string, logger *logging.SafeLogger) *models.RegistrationResponse {
	p.breaker.RecordSuccess(p.config.ServiceKey)
	p.tracker.Complete(key, nil)
	observability.RegistrationTiers.WithLabelValues(tier, "duplicate").Inc()
	logger.Debug("duplicate registration reported as confirmed")
	return &models.RegistrationResponse{
		Success: true,
		Message: "registration already confirmed",
	}
}

// enqueue wraps queue.Add in a recover so that nothing can propagate past
// tier 4, even a panic inside the queue itself.
func (p *RegistrationPipeline) enqueue(eventID string, req *models.RegistrationRequest, errTrace string) (jobID string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("tier 3 enqueue panicked",
				zap.Any("panic", r),
				zap.String("event_id", eventID))
			jobID, ok = "", false
		}
	}()

	payload := EmergencyPayload{EventID: eventID, Request: req}
	return p.queue.Add(JobTypeRegistration, payload, errTrace), true
}

// runWithTimeout races fn against a timer. On expiry the tier is treated as
// failed; the underlying call is not cancelled and a late result is
// discarded through the buffered channel.
func (p *RegistrationPipeline) runWithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) (*models.Registration, error)) (*models.Registration, error) {
	type outcome struct {
		reg *models.Registration
		err error
	}

	ch := make(chan outcome, 1)
	go func() {
		reg, err := fn(ctx)
		ch <- outcome{reg: reg, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-ch:
		return o.reg, o.err
	case <-timer.C:
		return nil, ErrWriteTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
