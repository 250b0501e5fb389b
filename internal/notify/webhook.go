package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookNotifier POSTs order events as JSON to an external endpoint such
// as a chat channel integration. Message events are not forwarded.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &WebhookNotifier{url: url, client: client}
}

func (n *WebhookNotifier) OrderPlaced(ctx context.Context, event OrderEvent) error {
	body, err := json.Marshal(Envelope{Type: TypeOrderPlaced, Data: event})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}

func (n *WebhookNotifier) MessagePosted(context.Context, MessageEvent) error { return nil }
