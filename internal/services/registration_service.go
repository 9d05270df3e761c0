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

// RegistrationService handles guest registration writes against MongoDB.
// It implements both write paths of the degradation pipeline: the primary
// path with derived artifacts and side effects, and the lean direct path.
type RegistrationService struct {
	database *mongo.Database
	cache    *CacheService
	notifier *NotificationService
	logger   *logging.SafeLogger
}

// NewRegistrationService creates a new registration service instance
func NewRegistrationService(database *mongo.Database, cache *CacheService, notifier *NotificationService, logger *logging.SafeLogger) *RegistrationService {
	return &RegistrationService{
		database: database,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateRegistration is the tier-1 write: inserts the registration, derives
// the ticket code and QR artifact, invalidates the duplicate-check cache and
// queues the confirmation notification.
func (s *RegistrationService) CreateRegistration(ctx context.Context, eventID string, req *models.RegistrationRequest) (*models.Registration, error) {
	ctx, _, done := utils.TraceDatabaseOperation(ctx, "insert", config.AppConfig.RegistrationCollection)
	defer done()

	now := time.Now()
	ticketCode := utils.GenerateTicketCode()
	registration := &models.Registration{
		EventID:    eventID,
		GuestName:  req.GuestName,
		Email:      utils.NormalizeEmail(req.Email),
		Phone:      req.Phone,
		TicketCode: ticketCode,
		QRCodeURL:  fmt.Sprintf("/v1/tickets/%s/qr", ticketCode),
		Source:     models.RegistrationSourcePrimary,
		CreatedAt:  now,
	}

	collection := s.database.Collection(config.AppConfig.RegistrationCollection)
	result, err := collection.InsertOne(ctx, registration)
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("insert", "error").Inc()
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrDuplicateGuest
		}
		return nil, fmt.Errorf("failed to insert registration: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("insert", "success").Inc()

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		registration.ID = oid
	}

	// Side effects are best-effort; the write already landed
	if s.cache != nil {
		if err := s.cache.SetCachedCheck(ctx, models.RegistrationKey(eventID, req.Email), true, registration); err != nil {
			s.logger.Warn("failed to update duplicate-check cache",
				zap.String("event_id", eventID),
				zap.Error(err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.QueueConfirmation(ctx, registration); err != nil {
			s.logger.Warn("failed to queue confirmation notification",
				zap.String("event_id", eventID),
				zap.String("email", observability.MaskEmail(registration.Email)),
				zap.Error(err))
		}
	}

	s.logger.Info("registration created",
		zap.String("event_id", eventID),
		zap.String("ticket_code", ticketCode),
		zap.String("email", observability.MaskEmail(registration.Email)))

	return registration, nil
}

// InsertRegistrationDirect is the tier-2 write: a lean insert that skips the
// QR artifact, cache and notification side effects. The unique index on
// event_id+email still protects against duplicates.
func (s *RegistrationService) InsertRegistrationDirect(ctx context.Context, eventID string, req *models.RegistrationRequest) (*models.Registration, error) {
	ctx, _, done := utils.TraceDatabaseOperation(ctx, "insert_direct", config.AppConfig.RegistrationCollection)
	defer done()

	registration := &models.Registration{
		EventID:    eventID,
		GuestName:  req.GuestName,
		Email:      utils.NormalizeEmail(req.Email),
		Phone:      req.Phone,
		TicketCode: utils.GenerateTicketCode(),
		Source:     models.RegistrationSourceDirect,
		CreatedAt:  time.Now(),
	}

	collection := s.database.Collection(config.AppConfig.RegistrationCollection)
	result, err := collection.InsertOne(ctx, registration)
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("insert_direct", "error").Inc()
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrDuplicateGuest
		}
		return nil, fmt.Errorf("failed to insert registration directly: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("insert_direct", "success").Inc()

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		registration.ID = oid
	}

	s.logger.Info("registration created via direct path",
		zap.String("event_id", eventID),
		zap.String("email", observability.MaskEmail(registration.Email)))

	return registration, nil
}

// GetRegistration finds one registration by event and guest email
func (s *RegistrationService) GetRegistration(ctx context.Context, eventID, email string) (*models.Registration, error) {
	collection := s.database.Collection(config.AppConfig.RegistrationCollection)

	var registration models.Registration
	filter := bson.M{"event_id": eventID, "email": utils.NormalizeEmail(email)}
	err := utils.FindOneWithTimeout(ctx, collection, filter, &registration, utils.DefaultQueryTimeout)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}

	return &registration, nil
}

// GetRegistrationByTicket finds one registration by its ticket code
func (s *RegistrationService) GetRegistrationByTicket(ctx context.Context, ticketCode string) (*models.Registration, error) {
	collection := s.database.Collection(config.AppConfig.RegistrationCollection)

	var registration models.Registration
	err := utils.FindOneWithTimeout(ctx, collection, bson.M{"ticket_code": ticketCode}, &registration, utils.DefaultQueryTimeout)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration by ticket: %w", err)
	}

	return &registration, nil
}

// CheckInGuest marks a registration as checked in at the door
func (s *RegistrationService) CheckInGuest(ctx context.Context, ticketCode string) (*models.Registration, error) {
	collection := s.database.Collection(config.AppConfig.RegistrationCollection)

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"checked_in":    true,
		"checked_in_at": now,
		"updated_at":    now,
	}}

	var registration models.Registration
	err := collection.FindOneAndUpdate(ctx, bson.M{"ticket_code": ticketCode}, update).Decode(&registration)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to check in guest: %w", err)
	}

	registration.CheckedIn = true
	registration.CheckedInAt = &now

	s.logger.Info("guest checked in",
		zap.String("ticket_code", ticketCode),
		zap.String("event_id", registration.EventID))

	return &registration, nil
}
