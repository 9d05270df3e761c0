package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already e164", "+5521987654321", "+5521987654321"},
		{"national without prefix", "21987654321", "+5521987654321"},
		{"formatted national", "(21) 98765-4321", "+5521987654321"},
		{"foreign number", "+14155552671", "+14155552671"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("NormalizePhone(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizePhoneInvalid(t *testing.T) {
	invalid := []string{"", "abc", "+123", "000"}
	for _, phone := range invalid {
		if _, err := NormalizePhone(phone); err == nil {
			t.Errorf("expected %q to be rejected", phone)
		}
	}
}
