package notify

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher is the part of the websocket hub the notifier needs.
type Publisher interface {
	Publish(message []byte) error
}

// HubNotifier pushes events to the connected staff dashboards.
type HubNotifier struct {
	hub Publisher
}

func NewHubNotifier(hub Publisher) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) OrderPlaced(_ context.Context, event OrderEvent) error {
	return n.publish(TypeOrderPlaced, event)
}

func (n *HubNotifier) MessagePosted(_ context.Context, event MessageEvent) error {
	return n.publish(TypeMessagePosted, event)
}

func (n *HubNotifier) publish(eventType string, data interface{}) error {
	payload, err := json.Marshal(Envelope{Type: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	if err := n.hub.Publish(payload); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}
