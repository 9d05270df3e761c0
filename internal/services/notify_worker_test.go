package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// recordingSender captures dispatched jobs and can be scripted to fail
type recordingSender struct {
	mu       sync.Mutex
	sent     []models.NotifyJob
	failures int
}

func (s *recordingSender) Send(_ context.Context, job models.NotifyJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("provider unavailable")
	}
	s.sent = append(s.sent, job)
	return nil
}

func TestNotifyWorkerDispatchesJob(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	ctx := context.Background()
	notifications := NewNotificationService(config.MongoDB, config.Redis, testLogger())
	sender := &recordingSender{}
	worker := NewNotifyWorker(config.Redis, notifications, sender, testLogger())

	reg := &models.Registration{EventID: "event-1", Email: "a@example.com", TicketCode: "TKT-A"}
	if err := notifications.QueueConfirmation(ctx, reg); err != nil {
		t.Fatalf("failed to queue: %v", err)
	}

	worker.drainOnce()

	sender.mu.Lock()
	sent := len(sender.sent)
	sender.mu.Unlock()
	if sent != 1 {
		t.Fatalf("expected 1 dispatched job, got %d", sent)
	}

	var notification models.Notification
	collection := config.MongoDB.Collection(config.AppConfig.NotificationCollection)
	if err := collection.FindOne(ctx, bson.M{}).Decode(&notification); err != nil {
		t.Fatalf("notification not found: %v", err)
	}
	if notification.Status != models.NotificationStatusSent {
		t.Errorf("expected sent status, got %s", notification.Status)
	}
}

func TestNotifyWorkerRetriesAndFails(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	ctx := context.Background()
	notifications := NewNotificationService(config.MongoDB, config.Redis, testLogger())
	// Fail more times than the retry ceiling allows
	sender := &recordingSender{failures: 1000}
	worker := NewNotifyWorker(config.Redis, notifications, sender, testLogger())

	reg := &models.Registration{EventID: "event-1", Email: "b@example.com", TicketCode: "TKT-B"}
	if err := notifications.QueueConfirmation(ctx, reg); err != nil {
		t.Fatalf("failed to queue: %v", err)
	}

	// Each drain pops, fails and re-queues until MaxRetries is exhausted
	for i := 0; i < config.AppConfig.EmergencyMaxRetries+2; i++ {
		worker.drainOnce()
	}

	var notification models.Notification
	collection := config.MongoDB.Collection(config.AppConfig.NotificationCollection)
	if err := collection.FindOne(ctx, bson.M{}).Decode(&notification); err != nil {
		t.Fatalf("notification not found: %v", err)
	}
	if notification.Status != models.NotificationStatusFailed {
		t.Errorf("expected failed status, got %s", notification.Status)
	}

	depth, err := config.Redis.LLen(ctx, config.AppConfig.NotifyQueueKey).Result()
	if err != nil {
		t.Fatalf("failed to read queue depth: %v", err)
	}
	if depth != 0 {
		t.Errorf("expected an empty queue after terminal failure, got %d", depth)
	}
}

func TestNotifyWorkerDiscardsMalformedJob(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	ctx := context.Background()
	notifications := NewNotificationService(config.MongoDB, config.Redis, testLogger())
	sender := &recordingSender{}
	worker := NewNotifyWorker(config.Redis, notifications, sender, testLogger())

	if err := config.Redis.LPush(ctx, config.AppConfig.NotifyQueueKey, "not-json").Err(); err != nil {
		t.Fatalf("failed to plant malformed job: %v", err)
	}

	worker.drainOnce()

	depth, err := config.Redis.LLen(ctx, config.AppConfig.NotifyQueueKey).Result()
	if err != nil {
		t.Fatalf("failed to read queue depth: %v", err)
	}
	if depth != 0 {
		t.Error("malformed job should be discarded, not re-queued")
	}
}
