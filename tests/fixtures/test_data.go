package fixtures

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/eventos-rio/app-guestlist/tests/config"
)

// APIClient wraps HTTP client with common test functionality
type APIClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// NewAPIClient creates a new API client for testing. Token is the admin
// bearer token; leave it empty for guest-facing endpoints.
func NewAPIClient(cfg *config.TestConfig, token string) *APIClient {
	return &APIClient{
		BaseURL: cfg.BaseURL,
		HTTPClient: &http.Client{
			Timeout: time.Duration(cfg.APICallTimeout) * time.Second,
		},
		Token: token,
	}
}

// Get performs a GET request, attaching the bearer token when present
func (c *APIClient) Get(path string) (*http.Response, error) {
	req, err := http.NewRequest("GET", c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	return c.HTTPClient.Do(req)
}

// Post performs a POST request with a JSON body
func (c *APIClient) Post(path string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", c.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	return c.HTTPClient.Do(req)
}

// TestEventData represents an event payload for admin creation
type TestEventData struct {
	Slug     string    `json:"slug"`
	Name     string    `json:"name"`
	Venue    string    `json:"venue"`
	City     string    `json:"city"`
	Capacity int       `json:"capacity"`
	StartsAt time.Time `json:"starts_at"`
}

// GetTestEventData returns a sample event; the slug is timestamped so
// repeated runs against the same deployment do not collide.
func GetTestEventData() *TestEventData {
	return &TestEventData{
		Slug:     fmt.Sprintf("smoke-%d", time.Now().UnixNano()),
		Name:     "Smoke Test Event",
		Venue:    "Marina da Gloria",
		City:     "Rio de Janeiro",
		Capacity: 500,
		StartsAt: time.Now().Add(48 * time.Hour),
	}
}

// TestGuestData represents a registration payload
type TestGuestData struct {
	GuestName string `json:"guest_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// GetTestGuestData returns a sample guest with a unique email per run
func GetTestGuestData() *TestGuestData {
	return &TestGuestData{
		GuestName: "Convidado Teste",
		Email:     fmt.Sprintf("smoke+%d@example.com", time.Now().UnixNano()),
		Phone:     "21987654321",
	}
}
