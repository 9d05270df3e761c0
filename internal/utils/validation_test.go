package utils

import (
	"testing"

	"github.com/eventos-rio/app-guestlist/internal/models"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Guest@Example.COM", "guest@example.com"},
		{"  padded@example.com  ", "padded@example.com"},
		{"already@example.com", "already@example.com"},
	}

	for _, tt := range tests {
		if got := NormalizeEmail(tt.input); got != tt.expected {
			t.Errorf("NormalizeEmail(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"guest@example.com", "a.b+c@sub.example.org", "UPPER@EXAMPLE.COM"}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("expected %q to be valid, got %v", email, err)
		}
	}

	invalid := []string{"", "no-at-sign", "missing@domain", "@example.com", "spaces in@example.com"}
	for _, email := range invalid {
		if err := ValidateEmail(email); err != models.ErrInvalidEmail {
			t.Errorf("expected %q to be invalid, got %v", email, err)
		}
	}
}

func TestValidateGuestName(t *testing.T) {
	if err := ValidateGuestName("Maria Silva"); err != nil {
		t.Errorf("expected valid name, got %v", err)
	}
	if err := ValidateGuestName("   "); err != models.ErrInvalidGuestName {
		t.Errorf("expected blank name to be rejected, got %v", err)
	}

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateGuestName(string(long)); err != models.ErrInvalidGuestName {
		t.Errorf("expected oversized name to be rejected, got %v", err)
	}
}

func TestValidateRegistrationRequest(t *testing.T) {
	req := &models.RegistrationRequest{
		GuestName: "Maria Silva",
		Email:     "maria@example.com",
		Phone:     "+5521987654321",
	}
	if err := ValidateRegistrationRequest(req); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}

	req.Phone = "not-a-phone"
	if err := ValidateRegistrationRequest(req); err != models.ErrInvalidPhoneNumber {
		t.Errorf("expected phone rejection, got %v", err)
	}

	req.Phone = ""
	if err := ValidateRegistrationRequest(req); err != nil {
		t.Errorf("expected empty phone to be accepted, got %v", err)
	}
}
