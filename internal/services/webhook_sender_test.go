package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventos-rio/app-guestlist/internal/models"
	"github.com/eventos-rio/app-guestlist/internal/utils/httpclient"
)

func TestWebhookSenderDeliversJob(t *testing.T) {
	var received models.NotifyJob
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	pool := httpclient.NewPool(2)
	defer pool.Close()

	sender := NewWebhookSender(server.URL, pool, testLogger())
	job := models.NotifyJob{
		ID:        "n1",
		EventID:   "ev1",
		Email:     "guest@example.com",
		Channel:   models.NotificationChannelEmail,
		Subject:   "Registration confirmed",
		Timestamp: time.Now(),
	}

	err := sender.Send(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "n1", received.ID)
	assert.Equal(t, "guest@example.com", received.Email)
}

func TestWebhookSenderRejectedDelivery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "provider unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	pool := httpclient.NewPool(1)
	defer pool.Close()

	sender := NewWebhookSender(server.URL, pool, testLogger())
	err := sender.Send(context.Background(), models.NotifyJob{ID: "n2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookSenderUnreachableEndpoint(t *testing.T) {
	pool := httpclient.NewPool(1)
	defer pool.Close()

	sender := NewWebhookSender("http://127.0.0.1:1", pool, testLogger())
	err := sender.Send(context.Background(), models.NotifyJob{ID: "n3"})
	assert.Error(t, err)
}
