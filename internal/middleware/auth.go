package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/gin-gonic/gin"
)

// AdminAuth guards operational endpoints with a static bearer token.
// When no token is configured the endpoints are disabled outright.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := config.AppConfig.AdminToken
		if token == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin endpoints are not configured"})
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
