package handlers

import (
	"net/http"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/models"
	"github.com/eventos-rio/app-guestlist/internal/resilience"
	"github.com/eventos-rio/app-guestlist/internal/services"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// EventHandler serves the event catalog
type EventHandler struct {
	events     *services.EventService
	breaker    *resilience.CircuitBreaker
	serviceKey string
	logger     *logging.SafeLogger
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *services.EventService, breaker *resilience.CircuitBreaker, serviceKey string, logger *logging.SafeLogger) *EventHandler {
	return &EventHandler{
		events:     events,
		breaker:    breaker,
		serviceKey: serviceKey,
		logger:     logger,
	}
}

// fastFail answers reads with 503 while the store's circuit is open. Reads
// have no fallback tier, so failing fast beats queueing on a dead store.
func (h *EventHandler) fastFail(c *gin.Context) bool {
	verdict := h.breaker.Check(h.serviceKey)
	if verdict.Allowed {
		return false
	}
	c.Header("Retry-After", verdict.RetryAfter.Round(time.Second).String())
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: resilience.ErrCircuitOpen.Error()})
	return true
}

// CreateEvent godoc
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Param request body models.Event true "Event data"
// @Success 201 {object} models.Event
// @Failure 400 {object} ErrorResponse "Invalid payload"
// @Security BearerAuth
// @Router /admin/events [post]
func (h *EventHandler) CreateEvent(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "CreateEvent")
	defer span.End()

	var event models.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if event.Slug == "" || event.Name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "slug and name are required"})
		return
	}

	created, err := h.events.CreateEvent(ctx, &event)
	if err != nil {
		h.logger.Error("failed to create event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create event"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetEvent godoc
// @Summary Get an event
// @Description Fetches an event by ID, including its slug, venue and capacity.
// @Tags events
// @Produce json
// @Param event_id path string true "Event ID"
// @Success 200 {object} models.Event
// @Failure 404 {object} ErrorResponse "Event not found"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /events/{event_id} [get]
func (h *EventHandler) GetEvent(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "GetEvent")
	defer span.End()

	if h.fastFail(c) {
		return
	}

	event, err := h.events.GetEventByID(ctx, c.Param("event_id"))
	if err != nil {
		switch err {
		case models.ErrEventNotFound, models.ErrInvalidEventID:
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		default:
			h.breaker.RecordFailure(h.serviceKey)
			h.logger.Error("failed to get event", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get event"})
		}
		return
	}
	h.breaker.RecordSuccess(h.serviceKey)
	c.JSON(http.StatusOK, event)
}

// GetEventStats godoc
// @Summary Get registration stats for an event
// @Tags events
// @Produce json
// @Param event_id path string true "Event ID"
// @Success 200 {object} models.EventStats
// @Failure 404 {object} ErrorResponse "Event not found"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /events/{event_id}/stats [get]
func (h *EventHandler) GetEventStats(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "GetEventStats")
	defer span.End()

	if h.fastFail(c) {
		return
	}

	stats, err := h.events.GetEventStats(ctx, c.Param("event_id"))
	if err != nil {
		switch err {
		case models.ErrEventNotFound, models.ErrInvalidEventID:
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		default:
			h.breaker.RecordFailure(h.serviceKey)
			h.logger.Error("failed to get event stats", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get event stats"})
		}
		return
	}
	h.breaker.RecordSuccess(h.serviceKey)
	c.JSON(http.StatusOK, stats)
}

// ListEvents godoc
// @Summary List events
// @Tags events
// @Produce json
// @Success 200 {array} models.Event
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /events [get]
func (h *EventHandler) ListEvents(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "ListEvents")
	defer span.End()

	if h.fastFail(c) {
		return
	}

	events, err := h.events.ListEvents(ctx, 100)
	if err != nil {
		h.breaker.RecordFailure(h.serviceKey)
		h.logger.Error("failed to list events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list events"})
		return
	}
	h.breaker.RecordSuccess(h.serviceKey)
	if events == nil {
		events = []models.Event{}
	}
	c.JSON(http.StatusOK, events)
}
