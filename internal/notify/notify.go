// Package notify delivers creator notifications. Delivery is best-effort;
// callers fire it in the background and never depend on the outcome.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sentientworks/pulse/pkg/utils"
	"go.uber.org/zap"
)

// WebhookNotifier POSTs notifications to a configured webhook endpoint.
type WebhookNotifier struct {
	httpClient *http.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: &http.Client{},
		url:        url,
		logger:     logger.Named("notify"),
	}
}

type notification struct {
	CreatorID string    `json:"creatorId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sentAt"`
}

// Notify delivers one notification, retrying transient failures.
func (n *WebhookNotifier) Notify(ctx context.Context, creatorID, title, body string) error {
	payload, err := sonic.Marshal(notification{
		CreatorID: creatorID,
		Title:     title,
		Body:      body,
		SentAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	_, err = utils.WithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, n.send(ctx, payload)
	}, utils.GetWebhookRetryOptions())

	return err
}

func (n *WebhookNotifier) send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification returned status %d", resp.StatusCode)
	}

	return nil
}

// NopNotifier silently drops notifications. Used when no webhook is
// configured.
type NopNotifier struct{}

// NewNopNotifier creates a notifier that drops everything.
func NewNopNotifier() *NopNotifier {
	return &NopNotifier{}
}

// Notify drops the notification.
func (NopNotifier) Notify(context.Context, string, string, string) error {
	return nil
}
