package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPNotifier publishes events to a topic exchange. Routing keys are the
// event types (order.placed, message.posted).
type AMQPNotifier struct {
	conn     *amqp.Connection
	exchange string

	mu sync.Mutex
	ch *amqp.Channel
}

// NewAMQPNotifier dials url and declares a durable topic exchange.
func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	if exchange == "" {
		exchange = "storefront.events"
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPNotifier{conn: conn, exchange: exchange, ch: ch}, nil
}

func (n *AMQPNotifier) OrderPlaced(ctx context.Context, event OrderEvent) error {
	return n.publish(ctx, TypeOrderPlaced, event)
}

func (n *AMQPNotifier) MessagePosted(ctx context.Context, event MessageEvent) error {
	return n.publish(ctx, TypeMessagePosted, event)
}

func (n *AMQPNotifier) publish(ctx context.Context, routingKey string, data interface{}) error {
	body, err := json.Marshal(Envelope{Type: routingKey, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	// amqp channels are not safe for concurrent publishing
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch == nil || n.ch.IsClosed() {
		ch, err := n.conn.Channel()
		if err != nil {
			return fmt.Errorf("reopen amqp channel: %w", err)
		}
		n.ch = ch
	}
	err = n.ch.PublishWithContext(ctx, n.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch != nil {
		_ = n.ch.Close()
	}
	return n.conn.Close()
}
