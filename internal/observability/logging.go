package observability

import (
	"strings"

	"github.com/eventos-rio/app-guestlist/internal/logging"
)

// Logger returns the global safe logger instance
func Logger() *logging.SafeLogger {
	return logging.Logger
}

// MaskEmail masks a guest email address for logging
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 1 {
		return "****"
	}
	return email[:1] + "****" + email[at:]
}

// MaskPhone masks a guest phone number for logging
func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// MaskSensitiveData masks sensitive guest fields in a map
func MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	sensitiveFields := []string{"email", "phone", "document", "guest_name"}
	masked := make(map[string]interface{})

	for k, v := range data {
		if contains(sensitiveFields, k) {
			masked[k] = "********"
		} else {
			masked[k] = v
		}
	}

	return masked
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
