package utils

import (
	"regexp"
	"strings"

	"github.com/eventos-rio/app-guestlist/internal/models"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail lowercases and trims an email address. Registration
// identity and the duplicate index both use the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks basic email shape
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(NormalizeEmail(email)) {
		return models.ErrInvalidEmail
	}
	return nil
}

// ValidateGuestName rejects empty and absurdly long guest names
func ValidateGuestName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || len(trimmed) > 200 {
		return models.ErrInvalidGuestName
	}
	return nil
}

// ValidateRegistrationRequest validates the inbound registration payload
// beyond what the binding tags already enforce.
func ValidateRegistrationRequest(req *models.RegistrationRequest) error {
	if err := ValidateGuestName(req.GuestName); err != nil {
		return err
	}
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if req.Phone != "" {
		if _, err := NormalizePhone(req.Phone); err != nil {
			return models.ErrInvalidPhoneNumber
		}
	}
	return nil
}
