// Package notify delivers best-effort events about new orders and support
// messages to staff channels. Callers log failures and never surface them.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	TypeOrderPlaced   = "order.placed"
	TypeMessagePosted = "message.posted"
)

// OrderEvent summarises a freshly placed order
type OrderEvent struct {
	OrderID       uuid.UUID       `json:"orderId"`
	UserID        uuid.UUID       `json:"userId"`
	FullName      string          `json:"fullName"`
	City          string          `json:"city"`
	PaymentMethod string          `json:"paymentMethod"`
	ItemCount     int             `json:"itemCount"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// MessageEvent summarises a message posted into a conversation
type MessageEvent struct {
	ConversationID uuid.UUID `json:"conversationId"`
	MessageID      uuid.UUID `json:"messageId"`
	SenderID       uuid.UUID `json:"senderId"`
	Subject        string    `json:"subject"`
	Preview        string    `json:"preview"`
	IsFromAdmin    bool      `json:"isFromAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Envelope is the wire shape shared by every transport.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type Notifier interface {
	OrderPlaced(ctx context.Context, event OrderEvent) error
	MessagePosted(ctx context.Context, event MessageEvent) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) OrderPlaced(context.Context, OrderEvent) error     { return nil }
func (Nop) MessagePosted(context.Context, MessageEvent) error { return nil }

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) OrderPlaced(ctx context.Context, event OrderEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.OrderPlaced(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) MessagePosted(ctx context.Context, event MessageEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.MessagePosted(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Preview shortens content to at most n runes for event payloads.
func Preview(content string, n int) string {
	r := []rune(content)
	if len(r) <= n {
		return content
	}
	return string(r[:n]) + "…"
}
