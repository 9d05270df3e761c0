package config

import (
	"os"
)

// TestConfig holds configuration for E2E/smoke tests
type TestConfig struct {
	// API endpoint configuration
	BaseURL string // e.g., "http://localhost:8080/v1"

	// Admin bearer token for management endpoints; empty disables admin tests
	AdminToken string

	// Test timeouts
	HealthCheckTimeout int // seconds
	APICallTimeout     int // seconds
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	baseURL := os.Getenv("TEST_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080/v1" // Default for local testing
	}

	return &TestConfig{
		BaseURL:            baseURL,
		AdminToken:         os.Getenv("TEST_ADMIN_TOKEN"),
		HealthCheckTimeout: 30,
		APICallTimeout:     10,
	}
}
