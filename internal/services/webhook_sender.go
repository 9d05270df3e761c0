package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/models"
	"github.com/eventos-rio/app-guestlist/internal/observability"
	"github.com/eventos-rio/app-guestlist/internal/utils/httpclient"
)

// WebhookSender delivers notification jobs by POSTing them as JSON to a
// configured endpoint, typically an external mail or messaging gateway.
type WebhookSender struct {
	url    string
	pool   *httpclient.Pool
	logger *logging.SafeLogger
}

// NewWebhookSender creates a sender targeting url, drawing clients from pool
func NewWebhookSender(url string, pool *httpclient.Pool, logger *logging.SafeLogger) *WebhookSender {
	return &WebhookSender{
		url:    url,
		pool:   pool,
		logger: logger,
	}
}

// Send posts the job to the webhook endpoint. Any non-2xx status is an
// error so the worker's retry path applies.
func (s *WebhookSender) Send(ctx context.Context, job models.NotifyJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal notification job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.pool.Get()
	defer s.pool.Put(client)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(snippet))
	}

	s.logger.Debug("notification delivered via webhook",
		zap.String("notification_id", job.ID),
		zap.String("channel", job.Channel),
		zap.String("email", observability.MaskEmail(job.Email)))

	return nil
}
