package handlers

import (
	"net/http"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/resilience"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

// ErrorResponse is the generic error envelope
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports per-dependency health
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthHandler serves liveness and dependency health
type HealthHandler struct {
	breaker    *resilience.CircuitBreaker
	serviceKey string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(breaker *resilience.CircuitBreaker, serviceKey string) *HealthHandler {
	return &HealthHandler{breaker: breaker, serviceKey: serviceKey}
}

// HealthCheck godoc
// @Summary Health check
// @Description Checks the API and its dependencies (MongoDB and Redis). Reports the write-path circuit state as a service entry.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse "All services healthy"
// @Failure 503 {object} HealthResponse "One or more services unavailable"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "HealthCheck")
	defer span.End()

	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	if config.MongoDB == nil {
		health.Status = "unhealthy"
		health.Services["mongodb"] = "not configured"
	} else if err := config.MongoDB.Client().Ping(ctx, nil); err != nil {
		health.Status = "unhealthy"
		health.Services["mongodb"] = "unhealthy"
	} else {
		health.Services["mongodb"] = "healthy"
	}

	if config.Redis == nil {
		health.Status = "unhealthy"
		health.Services["redis"] = "not configured"
	} else if err := config.Redis.Ping(ctx).Err(); err != nil {
		health.Status = "unhealthy"
		health.Services["redis"] = "unhealthy"
	} else {
		health.Services["redis"] = "healthy"
	}

	// The circuit state is informational: an open circuit degrades the
	// write path but the process itself is still serving
	if h.breaker != nil {
		health.Services["write_circuit"] = h.breaker.State(h.serviceKey).String()
	}

	if health.Status == "healthy" {
		c.JSON(http.StatusOK, health)
		return
	}
	c.JSON(http.StatusServiceUnavailable, health)
}
