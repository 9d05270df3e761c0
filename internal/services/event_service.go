package services

import (
	"context"
	"fmt"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/models"
	"github.com/eventos-rio/app-guestlist/internal/observability"
	"github.com/eventos-rio/app-guestlist/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EventService manages the event catalog backing the guest lists
type EventService struct {
	database *mongo.Database
	logger   *logging.SafeLogger
}

// NewEventService creates a new event service instance
func NewEventService(database *mongo.Database, logger *logging.SafeLogger) *EventService {
	return &EventService{
		database: database,
		logger:   logger,
	}
}

// CreateEvent inserts a new event. The slug must be unique.
func (s *EventService) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	ctx, _, done := utils.TraceDatabaseOperation(ctx, "insert", config.AppConfig.EventCollection)
	defer done()

	event.CreatedAt = time.Now()

	collection := s.database.Collection(config.AppConfig.EventCollection)
	result, err := collection.InsertOne(ctx, event)
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("insert_event", "error").Inc()
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("event slug %q already taken: %w", event.Slug, err)
		}
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("insert_event", "success").Inc()

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid
	}

	s.logger.Info("event created",
		zap.String("event_id", event.ID.Hex()),
		zap.String("slug", event.Slug))

	return event, nil
}

// GetEventByID finds an event by its hex ObjectID
func (s *EventService) GetEventByID(ctx context.Context, eventID string) (*models.Event, error) {
	oid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return nil, models.ErrInvalidEventID
	}

	collection := s.database.Collection(config.AppConfig.EventCollection)

	var event models.Event
	if err := utils.FindOneWithTimeout(ctx, collection, bson.M{"_id": oid}, &event, utils.DefaultQueryTimeout); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return &event, nil
}

// GetEventBySlug finds an event by its URL slug
func (s *EventService) GetEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	collection := s.database.Collection(config.AppConfig.EventCollection)

	var event models.Event
	if err := utils.FindOneWithTimeout(ctx, collection, bson.M{"slug": slug}, &event, utils.DefaultQueryTimeout); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event by slug: %w", err)
	}
	return &event, nil
}

// GetEventStats counts registrations against the event's capacity
func (s *EventService) GetEventStats(ctx context.Context, eventID string) (*models.EventStats, error) {
	event, err := s.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	registrations := s.database.Collection(config.AppConfig.RegistrationCollection)
	count, err := utils.CountDocumentsWithTimeout(ctx, registrations, bson.M{"event_id": eventID}, utils.DefaultQueryTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}

	remaining := int64(event.Capacity) - count
	if event.Capacity <= 0 {
		// Zero capacity means unbounded
		remaining = -1
	} else if remaining < 0 {
		remaining = 0
	}

	return &models.EventStats{
		EventID:           eventID,
		RegistrationCount: count,
		Capacity:          event.Capacity,
		SpotsRemaining:    remaining,
	}, nil
}

// CheckCapacity returns ErrEventFull when the event has a capacity and the
// registration count has reached it.
func (s *EventService) CheckCapacity(ctx context.Context, eventID string) error {
	stats, err := s.GetEventStats(ctx, eventID)
	if err != nil {
		return err
	}
	if stats.Capacity > 0 && stats.SpotsRemaining == 0 {
		return models.ErrEventFull
	}
	return nil
}

// ListEvents returns upcoming events ordered by start time
func (s *EventService) ListEvents(ctx context.Context, limit int64) ([]models.Event, error) {
	collection := s.database.Collection(config.AppConfig.EventCollection)

	cursor, err := utils.FindWithLimitAndTimeout(ctx, collection, bson.M{}, limit, utils.DefaultQueryTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}
