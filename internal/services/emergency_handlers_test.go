package services

import (
	"context"
	"testing"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/models"
	"github.com/eventos-rio/app-guestlist/internal/resilience"
)

func newTestTracker() *resilience.ProcessingTracker {
	return resilience.NewProcessingTracker(time.Minute, testLogger())
}

func TestRegistrationJobHandler(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	ctx := context.Background()
	registrations := NewRegistrationService(config.MongoDB, nil, nil, testLogger())
	tracker := newTestTracker()
	handler := NewRegistrationJobHandler(registrations, tracker, testLogger())

	req := &models.RegistrationRequest{GuestName: "Maria", Email: "maria@example.com"}
	key := models.RegistrationKey("event-1", req.Email)
	tracker.Begin(key)

	job := resilience.EmergencyJob{
		ID:      "emg-test",
		Type:    resilience.JobTypeRegistration,
		Payload: resilience.EmergencyPayload{EventID: "event-1", Request: req},
	}
	if err := handler(ctx, job); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	// The write landed and the in-flight entry now replays it
	reg, err := registrations.GetRegistration(ctx, "event-1", req.Email)
	if err != nil {
		t.Fatalf("registration not found after handler: %v", err)
	}
	entry, ok := tracker.Get(key)
	if !ok || entry.Status != resilience.StatusCompleted {
		t.Fatal("expected tracker entry to be completed")
	}
	if tracked, _ := entry.Result.(*models.Registration); tracked == nil || tracked.TicketCode != reg.TicketCode {
		t.Error("tracker holds a different registration")
	}
}

func TestRegistrationJobHandlerDuplicate(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	ctx := context.Background()
	registrations := NewRegistrationService(config.MongoDB, nil, nil, testLogger())
	tracker := newTestTracker()
	handler := NewRegistrationJobHandler(registrations, tracker, testLogger())

	req := &models.RegistrationRequest{GuestName: "Maria", Email: "maria@example.com"}
	if _, err := registrations.CreateRegistration(ctx, "event-1", req); err != nil {
		t.Fatalf("seed registration failed: %v", err)
	}

	job := resilience.EmergencyJob{
		ID:      "emg-dup",
		Type:    resilience.JobTypeRegistration,
		Payload: resilience.EmergencyPayload{EventID: "event-1", Request: req},
	}
	if err := handler(ctx, job); err != nil {
		t.Errorf("duplicate should count as success, got %v", err)
	}
}

func TestRegistrationJobHandlerBadPayload(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	registrations := NewRegistrationService(config.MongoDB, nil, nil, testLogger())
	handler := NewRegistrationJobHandler(registrations, newTestTracker(), testLogger())

	job := resilience.EmergencyJob{ID: "emg-bad", Payload: "wrong type"}
	if err := handler(context.Background(), job); err == nil {
		t.Error("expected error for unexpected payload type")
	}

	job = resilience.EmergencyJob{ID: "emg-nil", Payload: resilience.EmergencyPayload{EventID: "e"}}
	if err := handler(context.Background(), job); err == nil {
		t.Error("expected error for nil request")
	}
}
