package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/models"
	"github.com/eventos-rio/app-guestlist/internal/resilience"
	"github.com/eventos-rio/app-guestlist/internal/services"
	"github.com/gin-gonic/gin"
)

// newTestStack wires the full write path against the live test backends
func newTestStack(t *testing.T) (*gin.Engine, *services.EventService) {
	t.Helper()
	logger := testLogger()

	cache := services.NewCacheService(config.Redis, time.Minute, logger)
	registrations := services.NewRegistrationService(config.MongoDB, cache, nil, logger)
	events := services.NewEventService(config.MongoDB, logger)

	breaker := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		FailureThreshold: config.AppConfig.BreakerFailureThreshold,
		SuccessThreshold: config.AppConfig.BreakerSuccessThreshold,
		RecoveryTime:     config.AppConfig.BreakerRecoveryTime,
	}, logger)
	tracker := resilience.NewProcessingTracker(time.Minute, logger)
	queue := resilience.NewEmergencyQueue(resilience.DefaultQueueConfig(), logger)
	t.Cleanup(queue.Stop)

	pipeline := resilience.NewRegistrationPipeline(resilience.PipelineConfig{
		ServiceKey:     "mongodb",
		PrimaryTimeout: config.AppConfig.PrimaryWriteTimeout,
		DirectTimeout:  config.AppConfig.DirectWriteTimeout,
	}, registrations, registrations, breaker, tracker, queue, logger)

	handler := NewRegistrationHandler(pipeline, registrations, cache, events, logger)

	router := gin.New()
	router.POST("/v1/events/:event_id/registrations", handler.CreateRegistration)
	router.GET("/v1/events/:event_id/registrations", handler.GetRegistration)
	router.GET("/v1/tickets/:ticket_code", handler.GetTicket)
	router.POST("/v1/tickets/:ticket_code/checkin", handler.CheckIn)
	return router, events
}

func createTestEvent(t *testing.T, events *services.EventService, capacity int) string {
	t.Helper()
	event, err := events.CreateEvent(context.Background(), &models.Event{
		Slug:     "test-event-" + time.Now().Format("150405.000000000"),
		Name:     "Test Event",
		Capacity: capacity,
		StartsAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to create test event: %v", err)
	}
	return event.ID.Hex()
}

func postRegistration(router *gin.Engine, eventID string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/events/"+eventID+"/registrations", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestCreateRegistrationEndpoint(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	router, events := newTestStack(t)
	eventID := createTestEvent(t, events, 0)

	w := postRegistration(router, eventID, models.RegistrationRequest{
		GuestName: "Maria Silva",
		Email:     "maria@example.com",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.RegistrationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success envelope")
	}
	if resp.Data == nil || resp.Data.TicketCode == "" {
		t.Fatalf("expected registration data with ticket code, got %+v", resp)
	}
	if resp.FallbackUsed {
		t.Error("healthy path should not report a fallback")
	}

	// Ticket lookup round-trips
	lookup := httptest.NewRecorder()
	router.ServeHTTP(lookup, httptest.NewRequest(http.MethodGet, "/v1/tickets/"+resp.Data.TicketCode, nil))
	if lookup.Code != http.StatusOK {
		t.Errorf("ticket lookup: expected 200, got %d", lookup.Code)
	}
}

func TestCreateRegistrationDuplicateShortCircuit(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	router, events := newTestStack(t)
	eventID := createTestEvent(t, events, 0)

	req := models.RegistrationRequest{GuestName: "Maria", Email: "maria@example.com"}
	if w := postRegistration(router, eventID, req); w.Code != http.StatusOK {
		t.Fatalf("first registration: expected 200, got %d", w.Code)
	}

	// The repeat submission is answered from the duplicate-check cache
	w := postRegistration(router, eventID, req)
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate: expected 200, got %d", w.Code)
	}
	var resp models.RegistrationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("duplicate submission must still succeed")
	}
	if resp.Data == nil || resp.Data.Email != "maria@example.com" {
		t.Errorf("expected existing registration in response, got %+v", resp.Data)
	}
}

func TestCreateRegistrationValidation(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	router, events := newTestStack(t)
	eventID := createTestEvent(t, events, 0)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing name", models.RegistrationRequest{Email: "a@example.com"}},
		{"bad email", models.RegistrationRequest{GuestName: "A", Email: "nope"}},
		{"bad phone", models.RegistrationRequest{GuestName: "A", Email: "a@example.com", Phone: "xyz"}},
		{"not json", "plain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := postRegistration(router, eventID, tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestCreateRegistrationUnknownEvent(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	router, _ := newTestStack(t)

	w := postRegistration(router, "000000000000000000000000", models.RegistrationRequest{
		GuestName: "Maria", Email: "maria@example.com",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestCreateRegistrationEventFull(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	router, events := newTestStack(t)
	eventID := createTestEvent(t, events, 1)

	if w := postRegistration(router, eventID, models.RegistrationRequest{
		GuestName: "First", Email: "first@example.com",
	}); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w := postRegistration(router, eventID, models.RegistrationRequest{
		GuestName: "Second", Email: "second@example.com",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for full event, got %d", w.Code)
	}
}

func TestGetRegistrationEndpoint(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	router, events := newTestStack(t)
	eventID := createTestEvent(t, events, 0)

	postRegistration(router, eventID, models.RegistrationRequest{
		GuestName: "Maria", Email: "maria@example.com",
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/v1/events/"+eventID+"/registrations?email=maria@example.com", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	missing := httptest.NewRecorder()
	router.ServeHTTP(missing, httptest.NewRequest(http.MethodGet,
		"/v1/events/"+eventID+"/registrations?email=ghost@example.com", nil))
	if missing.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", missing.Code)
	}

	noEmail := httptest.NewRecorder()
	router.ServeHTTP(noEmail, httptest.NewRequest(http.MethodGet,
		"/v1/events/"+eventID+"/registrations", nil))
	if noEmail.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without email, got %d", noEmail.Code)
	}
}
