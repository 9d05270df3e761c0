package services

import (
	"context"
	"testing"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/models"
)

func TestEventServiceCreateAndGet(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	ctx := context.Background()
	service := NewEventService(config.MongoDB, testLogger())

	event, err := service.CreateEvent(ctx, &models.Event{
		Slug:     "rock-in-rio-2026",
		Name:     "Rock in Rio",
		Venue:    "Cidade do Rock",
		City:     "Rio de Janeiro",
		Capacity: 100,
		StartsAt: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	if event.ID.IsZero() {
		t.Fatal("expected event ID to be set")
	}

	byID, err := service.GetEventByID(ctx, event.ID.Hex())
	if err != nil {
		t.Fatalf("failed to get event by ID: %v", err)
	}
	if byID.Slug != "rock-in-rio-2026" {
		t.Errorf("unexpected slug: %s", byID.Slug)
	}

	bySlug, err := service.GetEventBySlug(ctx, "rock-in-rio-2026")
	if err != nil {
		t.Fatalf("failed to get event by slug: %v", err)
	}
	if bySlug.ID != event.ID {
		t.Error("slug lookup returned a different event")
	}
}

func TestEventServiceNotFound(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	ctx := context.Background()
	service := NewEventService(config.MongoDB, testLogger())

	if _, err := service.GetEventByID(ctx, "000000000000000000000000"); err != models.ErrEventNotFound {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
	if _, err := service.GetEventByID(ctx, "not-a-hex-id"); err != models.ErrInvalidEventID {
		t.Errorf("expected ErrInvalidEventID, got %v", err)
	}
	if _, err := service.GetEventBySlug(ctx, "missing"); err != models.ErrEventNotFound {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}

func TestEventServiceStatsAndCapacity(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	ctx := context.Background()
	events := NewEventService(config.MongoDB, testLogger())
	registrations := NewRegistrationService(config.MongoDB, nil, nil, testLogger())

	event, err := events.CreateEvent(ctx, &models.Event{
		Slug:     "intimate-show",
		Name:     "Intimate Show",
		Capacity: 2,
		StartsAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	eventID := event.ID.Hex()

	stats, err := events.GetEventStats(ctx, eventID)
	if err != nil {
		t.Fatalf("failed to get stats: %v", err)
	}
	if stats.RegistrationCount != 0 || stats.SpotsRemaining != 2 {
		t.Errorf("unexpected initial stats: %+v", stats)
	}
	if err := events.CheckCapacity(ctx, eventID); err != nil {
		t.Errorf("expected capacity available, got %v", err)
	}

	for i, email := range []string{"a@example.com", "b@example.com"} {
		_, err := registrations.CreateRegistration(ctx, eventID, &models.RegistrationRequest{
			GuestName: "Guest",
			Email:     email,
		})
		if err != nil {
			t.Fatalf("registration %d failed: %v", i, err)
		}
	}

	stats, err = events.GetEventStats(ctx, eventID)
	if err != nil {
		t.Fatalf("failed to get stats: %v", err)
	}
	if stats.RegistrationCount != 2 || stats.SpotsRemaining != 0 {
		t.Errorf("unexpected stats after fill: %+v", stats)
	}
	if err := events.CheckCapacity(ctx, eventID); err != models.ErrEventFull {
		t.Errorf("expected ErrEventFull, got %v", err)
	}
}
