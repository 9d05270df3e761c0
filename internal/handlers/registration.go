package handlers

import (
	"net/http"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/models"
	"github.com/eventos-rio/app-guestlist/internal/observability"
	"github.com/eventos-rio/app-guestlist/internal/resilience"
	"github.com/eventos-rio/app-guestlist/internal/services"
	"github.com/eventos-rio/app-guestlist/internal/utils"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// RegistrationHandler serves the registration write path and lookups
type RegistrationHandler struct {
	pipeline      *resilience.RegistrationPipeline
	registrations *services.RegistrationService
	cache         *services.CacheService
	events        *services.EventService
	logger        *logging.SafeLogger
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(
	pipeline *resilience.RegistrationPipeline,
	registrations *services.RegistrationService,
	cache *services.CacheService,
	events *services.EventService,
	logger *logging.SafeLogger,
) *RegistrationHandler {
	return &RegistrationHandler{
		pipeline:      pipeline,
		registrations: registrations,
		cache:         cache,
		events:        events,
		logger:        logger,
	}
}

// CreateRegistration godoc
// @Summary Register a guest for an event
// @Description Registers a guest on an event's guest list. The write path degrades through fallback tiers under load, so a successful response may indicate deferred processing instead of an immediate confirmation.
// @Tags registrations
// @Accept json
// @Produce json
// @Param event_id path string true "Event ID"
// @Param request body models.RegistrationRequest true "Guest data"
// @Success 200 {object} models.RegistrationResponse "Registration accepted"
// @Failure 400 {object} ErrorResponse "Invalid payload"
// @Failure 404 {object} ErrorResponse "Event not found"
// @Failure 409 {object} ErrorResponse "Event at capacity"
// @Failure 429 {object} models.RegistrationResponse "Too many attempts"
// @Router /events/{event_id}/registrations [post]
func (h *RegistrationHandler) CreateRegistration(c *gin.Context) {
	startTime := time.Now()
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "CreateRegistration")
	defer span.End()

	eventID := c.Param("event_id")
	logger := h.logger.With(zap.String("event_id", eventID))
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("operation", "create_registration"),
	)

	var req models.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := utils.ValidateRegistrationRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	req.Email = utils.NormalizeEmail(req.Email)
	if req.Phone != "" {
		if normalized, err := utils.NormalizePhone(req.Phone); err == nil {
			req.Phone = normalized
		}
	}

	event, err := h.events.GetEventByID(ctx, eventID)
	if err == models.ErrEventNotFound || err == models.ErrInvalidEventID {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	}
	if err != nil {
		// A store failure here must not block the write; the pipeline
		// owns degradation from this point on
		logger.Warn("event lookup failed, proceeding with write", zap.Error(err))
	}
	if event != nil && event.Capacity > 0 {
		if err := h.events.CheckCapacity(ctx, eventID); err == models.ErrEventFull {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "event is at capacity"})
			return
		}
	}

	// Cached duplicate short-circuit: a repeat submission inside the cache
	// TTL is answered without touching the write path at all
	key := models.RegistrationKey(eventID, req.Email)
	if check, err := h.cache.GetCachedCheck(ctx, key); err == nil && check != nil && check.Registered {
		logger.Debug("duplicate registration served from cache")
		c.JSON(http.StatusOK, models.RegistrationResponse{
			Success: true,
			Data:    check.Registration,
			Message: "guest is already registered for this event",
		})
		return
	}

	response := h.pipeline.Write(ctx, eventID, &req)

	logger.Info("registration request completed",
		zap.Bool("fallback_used", response.FallbackUsed),
		zap.Bool("processing", response.Processing),
		zap.Duration("total_duration", time.Since(startTime)))
	c.JSON(http.StatusOK, response)
}

// GetRegistration godoc
// @Summary Look up a registration
// @Description Finds a guest's registration on an event by email.
// @Tags registrations
// @Produce json
// @Param event_id path string true "Event ID"
// @Param email query string true "Guest email"
// @Success 200 {object} models.Registration
// @Failure 400 {object} ErrorResponse "Missing email"
// @Failure 404 {object} ErrorResponse "Registration not found"
// @Router /events/{event_id}/registrations [get]
func (h *RegistrationHandler) GetRegistration(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "GetRegistration")
	defer span.End()

	eventID := c.Param("event_id")
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "email query parameter is required"})
		return
	}

	registration, err := h.registrations.GetRegistration(ctx, eventID, email)
	if err != nil {
		if err == models.ErrRegistrationNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "registration not found"})
			return
		}
		h.logger.Error("failed to look up registration",
			zap.String("event_id", eventID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to look up registration"})
		return
	}
	c.JSON(http.StatusOK, registration)
}

// GetTicket godoc
// @Summary Look up a registration by ticket code
// @Tags registrations
// @Produce json
// @Param ticket_code path string true "Ticket code"
// @Success 200 {object} models.Registration
// @Failure 404 {object} ErrorResponse "Ticket not found"
// @Router /tickets/{ticket_code} [get]
func (h *RegistrationHandler) GetTicket(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "GetTicket")
	defer span.End()

	ticketCode := c.Param("ticket_code")
	registration, err := h.registrations.GetRegistrationByTicket(ctx, ticketCode)
	if err != nil {
		if err == models.ErrRegistrationNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
			return
		}
		h.logger.Error("failed to look up ticket",
			zap.String("ticket_code", ticketCode),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to look up ticket"})
		return
	}
	c.JSON(http.StatusOK, registration)
}

// CheckIn godoc
// @Summary Check a guest in at the door
// @Tags registrations
// @Produce json
// @Param ticket_code path string true "Ticket code"
// @Success 200 {object} models.Registration
// @Failure 404 {object} ErrorResponse "Ticket not found"
// @Router /tickets/{ticket_code}/checkin [post]
func (h *RegistrationHandler) CheckIn(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "CheckIn")
	defer span.End()

	ticketCode := c.Param("ticket_code")
	registration, err := h.registrations.CheckInGuest(ctx, ticketCode)
	if err != nil {
		if err == models.ErrRegistrationNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
			return
		}
		h.logger.Error("failed to check in guest",
			zap.String("ticket_code", ticketCode),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to check in guest"})
		return
	}

	observability.Logger().Info("guest checked in",
		zap.String("ticket_code", ticketCode),
		zap.String("event_id", registration.EventID))
	c.JSON(http.StatusOK, registration)
}
