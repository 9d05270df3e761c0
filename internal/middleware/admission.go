package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/eventos-rio/app-guestlist/internal/models"
	"github.com/eventos-rio/app-guestlist/internal/resilience"
	"github.com/gin-gonic/gin"
)

// Admission gates registration writes with the fixed-window admission
// controller. The window is keyed by client IP and target event so one hot
// event cannot exhaust another's budget.
func Admission(controller *resilience.AdmissionController) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("registration:%s:%s", c.ClientIP(), c.Param("event_id"))
		decision := controller.Check(key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetTime.Unix(), 10))

		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(decision.RetryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.RegistrationResponse{
				Success:    false,
				Message:    resilience.ErrAdmissionRejected.Error(),
				RetryAfter: decision.RetryAfter,
			})
			return
		}

		c.Next()
	}
}
