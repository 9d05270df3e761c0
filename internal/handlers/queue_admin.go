package handlers

import (
	"net/http"

	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/resilience"
	"github.com/gin-gonic/gin"
)

// QueueAdminHandler exposes the emergency queue for operators
type QueueAdminHandler struct {
	queue  *resilience.EmergencyQueue
	logger *logging.SafeLogger
}

// NewQueueAdminHandler creates a new queue admin handler
func NewQueueAdminHandler(queue *resilience.EmergencyQueue, logger *logging.SafeLogger) *QueueAdminHandler {
	return &QueueAdminHandler{queue: queue, logger: logger}
}

// ListJobs godoc
// @Summary List emergency queue jobs
// @Description Lists deferred registration jobs in creation order, including retry counts and terminal status.
// @Tags admin
// @Produce json
// @Success 200 {array} resilience.EmergencyJob
// @Security BearerAuth
// @Router /admin/emergency-jobs [get]
func (h *QueueAdminHandler) ListJobs(c *gin.Context) {
	jobs := h.queue.Jobs()
	if status := c.Query("status"); status != "" {
		filtered := jobs[:0]
		for _, job := range jobs {
			if string(job.Status) == status {
				filtered = append(filtered, job)
			}
		}
		jobs = filtered
	}
	if jobs == nil {
		jobs = []resilience.EmergencyJob{}
	}
	c.JSON(http.StatusOK, jobs)
}

// GetJob godoc
// @Summary Get one emergency queue job
// @Tags admin
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} resilience.EmergencyJob
// @Failure 404 {object} ErrorResponse "Job not found"
// @Security BearerAuth
// @Router /admin/emergency-jobs/{id} [get]
func (h *QueueAdminHandler) GetJob(c *gin.Context) {
	job, ok := h.queue.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// QueueStats godoc
// @Summary Emergency queue statistics
// @Tags admin
// @Produce json
// @Success 200 {object} resilience.QueueStats
// @Security BearerAuth
// @Router /admin/emergency-jobs/stats [get]
func (h *QueueAdminHandler) QueueStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.queue.Stats())
}
