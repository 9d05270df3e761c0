package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/models"
	"github.com/eventos-rio/app-guestlist/internal/observability"
	"github.com/eventos-rio/app-guestlist/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Sender delivers a notification over its channel. Implementations must be
// safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, job models.NotifyJob) error
}

// LogSender is the default sender: it logs the dispatch instead of calling a
// real provider. Useful in development and as a stand-in until a provider is
// configured.
type LogSender struct {
	logger *logging.SafeLogger
}

// NewLogSender creates a sender that only logs deliveries
func NewLogSender(logger *logging.SafeLogger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the notification as delivered
func (s *LogSender) Send(_ context.Context, job models.NotifyJob) error {
	s.logger.Info("notification dispatched",
		zap.String("notification_id", job.ID),
		zap.String("channel", job.Channel),
		zap.String("email", observability.MaskEmail(job.Email)),
		zap.String("subject", job.Subject))
	return nil
}

// NotifyWorker drains the Redis notification queue and dispatches jobs
// through a Sender. Failed jobs are re-queued with an incremented retry
// count until MaxRetries, then marked failed in MongoDB.
type NotifyWorker struct {
	redis         *redisclient.Client
	notifications *NotificationService
	sender        Sender
	logger        *logging.SafeLogger
	stopChan      chan struct{}
	pollInterval  time.Duration
	backfillAge   time.Duration
}

// NewNotifyWorker creates a new notification worker
func NewNotifyWorker(redisClient *redisclient.Client, notifications *NotificationService, sender Sender, logger *logging.SafeLogger) *NotifyWorker {
	return &NotifyWorker{
		redis:         redisClient,
		notifications: notifications,
		sender:        sender,
		logger:        logger,
		stopChan:      make(chan struct{}),
		pollInterval:  200 * time.Millisecond,
		backfillAge:   10 * time.Minute,
	}
}

// Start runs the worker loop until Stop is called
func (w *NotifyWorker) Start() {
	w.logger.Info("notification worker started",
		zap.String("queue", config.AppConfig.NotifyQueueKey))

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	backfill := time.NewTicker(w.backfillAge)
	defer backfill.Stop()

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("notification worker stopped")
			return
		case <-ticker.C:
			w.drainOnce()
		case <-backfill.C:
			w.backfillPending()
		}
	}
}

// Stop stops the worker
func (w *NotifyWorker) Stop() {
	close(w.stopChan)
}

// drainOnce pops and processes at most a handful of jobs per cycle so a
// burst of registrations cannot starve the shutdown path.
func (w *NotifyWorker) drainOnce() {
	const maxJobsPerCycle = 5

	for i := 0; i < maxJobsPerCycle; i++ {
		job, ok := w.popJob()
		if !ok {
			return
		}
		w.processJob(job)
	}
}

func (w *NotifyWorker) popJob() (models.NotifyJob, bool) {
	var job models.NotifyJob

	raw, err := w.redis.RPop(context.Background(), config.AppConfig.NotifyQueueKey).Result()
	if err != nil {
		if err != redis.Nil {
			w.logger.Warn("failed to pop notification job", zap.Error(err))
		}
		return job, false
	}

	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// A malformed payload would loop forever if re-queued
		w.logger.Error("discarding malformed notification job", zap.Error(err))
		return job, false
	}
	return job, true
}

func (w *NotifyWorker) processJob(job models.NotifyJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := w.sender.Send(ctx, job)
	if err == nil {
		observability.NotificationsDispatched.WithLabelValues(job.Channel, "sent").Inc()
		if err := w.notifications.MarkSent(ctx, job.ID); err != nil {
			w.logger.Warn("failed to mark notification sent",
				zap.String("notification_id", job.ID),
				zap.Error(err))
		}
		return
	}

	job.RetryCount++
	if job.RetryCount >= job.MaxRetries {
		observability.NotificationsDispatched.WithLabelValues(job.Channel, "failed").Inc()
		w.logger.Error("notification failed permanently",
			zap.String("notification_id", job.ID),
			zap.Int("retry_count", job.RetryCount),
			zap.Error(err))
		if err := w.notifications.MarkFailed(ctx, job.ID); err != nil {
			w.logger.Warn("failed to mark notification failed",
				zap.String("notification_id", job.ID),
				zap.Error(err))
		}
		return
	}

	observability.NotificationsDispatched.WithLabelValues(job.Channel, "retry").Inc()
	w.logger.Warn("notification dispatch failed, re-queueing",
		zap.String("notification_id", job.ID),
		zap.Int("retry_count", job.RetryCount),
		zap.Error(err))
	if err := w.notifications.Requeue(ctx, job); err != nil {
		w.logger.Error("failed to re-queue notification job",
			zap.String("notification_id", job.ID),
			zap.Error(err))
	}
}

// backfillPending re-queues notifications stuck in the queued state. This
// recovers jobs lost when Redis restarts, since the Mongo document is the
// source of truth.
func (w *NotifyWorker) backfillPending() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pending, err := w.notifications.PendingNotifications(ctx, w.backfillAge, 100)
	if err != nil {
		w.logger.Warn("failed to list pending notifications for backfill", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	w.logger.Info("backfilling stuck notifications", zap.Int("count", len(pending)))
	for _, n := range pending {
		job := models.NotifyJob{
			ID:         n.ID.Hex(),
			EventID:    n.EventID,
			Email:      n.Email,
			Channel:    n.Channel,
			Subject:    n.Subject,
			Body:       n.Body,
			Timestamp:  n.CreatedAt,
			MaxRetries: config.AppConfig.EmergencyMaxRetries,
		}
		if err := w.notifications.Requeue(ctx, job); err != nil {
			w.logger.Warn("failed to backfill notification",
				zap.String("notification_id", job.ID),
				zap.Error(err))
		}
	}
}
