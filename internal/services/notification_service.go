package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/models"
	"github.com/eventos-rio/app-guestlist/internal/observability"
	"github.com/eventos-rio/app-guestlist/internal/redisclient"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NotificationService persists guest-facing notifications in MongoDB and
// enqueues dispatch jobs on a Redis list drained by the worker binary.
type NotificationService struct {
	database *mongo.Database
	redis    *redisclient.Client
	logger   *logging.SafeLogger
}

// NewNotificationService creates a new notification service instance
func NewNotificationService(database *mongo.Database, redisClient *redisclient.Client, logger *logging.SafeLogger) *NotificationService {
	return &NotificationService{
		database: database,
		redis:    redisClient,
		logger:   logger,
	}
}

// QueueConfirmation records a registration confirmation notification and
// pushes a dispatch job for the worker. The Mongo document is the source of
// truth; the Redis job only carries what the worker needs to send it.
func (s *NotificationService) QueueConfirmation(ctx context.Context, registration *models.Registration) error {
	notification := &models.Notification{
		EventID:   registration.EventID,
		Email:     registration.Email,
		Channel:   models.NotificationChannelEmail,
		Subject:   "Your registration is confirmed",
		Body:      fmt.Sprintf("Ticket code: %s", registration.TicketCode),
		Status:    models.NotificationStatusQueued,
		CreatedAt: time.Now(),
	}

	collection := s.database.Collection(config.AppConfig.NotificationCollection)
	result, err := collection.InsertOne(ctx, notification)
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("insert_notification", "error").Inc()
		return fmt.Errorf("failed to persist notification: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("insert_notification", "success").Inc()

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if ok {
		notification.ID = oid
	}

	job := models.NotifyJob{
		ID:         oid.Hex(),
		EventID:    notification.EventID,
		Email:      notification.Email,
		Channel:    notification.Channel,
		Subject:    notification.Subject,
		Body:       notification.Body,
		Timestamp:  notification.CreatedAt,
		RetryCount: 0,
		MaxRetries: config.AppConfig.EmergencyMaxRetries,
	}
	if err := s.enqueueJob(ctx, job); err != nil {
		// The document stays queued in Mongo; the worker's backfill pass
		// will pick it up on its next scan.
		s.logger.Warn("failed to enqueue notification job",
			zap.String("notification_id", job.ID),
			zap.Error(err))
		return nil
	}

	s.logger.Debug("notification queued",
		zap.String("notification_id", job.ID),
		zap.String("event_id", job.EventID),
		zap.String("email", observability.MaskEmail(job.Email)))
	return nil
}

func (s *NotificationService) enqueueJob(ctx context.Context, job models.NotifyJob) error {
	if s.redis == nil {
		return fmt.Errorf("redis client not configured")
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal notification job: %w", err)
	}
	if err := s.redis.LPush(ctx, config.AppConfig.NotifyQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to push notification job: %w", err)
	}
	return nil
}

// MarkSent transitions a notification to sent
func (s *NotificationService) MarkSent(ctx context.Context, notificationID string) error {
	oid, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return fmt.Errorf("invalid notification id: %w", err)
	}

	now := time.Now()
	collection := s.database.Collection(config.AppConfig.NotificationCollection)
	update := bson.M{"$set": bson.M{
		"status":  models.NotificationStatusSent,
		"sent_at": now,
	}}
	res, err := collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotificationNotFound
	}
	return nil
}

// MarkFailed transitions a notification to failed after its retries run out
func (s *NotificationService) MarkFailed(ctx context.Context, notificationID string) error {
	oid, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return fmt.Errorf("invalid notification id: %w", err)
	}

	collection := s.database.Collection(config.AppConfig.NotificationCollection)
	update := bson.M{"$set": bson.M{"status": models.NotificationStatusFailed}}
	res, err := collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotificationNotFound
	}
	return nil
}

// PendingNotifications lists queued notifications older than the given age,
// used by the worker's backfill pass to recover jobs lost from Redis.
func (s *NotificationService) PendingNotifications(ctx context.Context, olderThan time.Duration, limit int64) ([]models.Notification, error) {
	collection := s.database.Collection(config.AppConfig.NotificationCollection)
	filter := bson.M{
		"status":     models.NotificationStatusQueued,
		"created_at": bson.M{"$lt": time.Now().Add(-olderThan)},
	}

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	for cursor.Next(ctx) {
		var n models.Notification
		if err := cursor.Decode(&n); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		notifications = append(notifications, n)
		if limit > 0 && int64(len(notifications)) >= limit {
			break
		}
	}
	return notifications, cursor.Err()
}

// Requeue pushes a dispatch job back onto the Redis queue
func (s *NotificationService) Requeue(ctx context.Context, job models.NotifyJob) error {
	return s.enqueueJob(ctx, job)
}
