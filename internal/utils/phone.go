package utils

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultPhoneRegion = "BR"

// NormalizePhone parses a guest phone number and returns it in E.164 form.
// Numbers without a country prefix are assumed to be Brazilian.
func NormalizePhone(phone string) (string, error) {
	cleaned := strings.TrimSpace(phone)
	if cleaned == "" {
		return "", fmt.Errorf("empty phone number")
	}

	num, err := phonenumbers.Parse(cleaned, defaultPhoneRegion)
	if err != nil {
		return "", fmt.Errorf("failed to parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number: %s", phone)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
