package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPNotifier publishes events to a durable topic exchange. The routing key
// is the channel, so the push service can bind per hotel or per entity type.
type AMQPNotifier struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPNotifier(url, exchange string) *AMQPNotifier {
	return &AMQPNotifier{url: url, exchange: exchange}
}

// channel returns an open channel, redialing when the broker dropped the last one.
func (n *AMQPNotifier) channel() (*amqp.Channel, error) {
	if n.ch != nil && !n.ch.IsClosed() {
		return n.ch, nil
	}
	if n.conn == nil || n.conn.IsClosed() {
		conn, err := amqp.Dial(n.url)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq dial failed: %w", err)
		}
		n.conn = conn
	}

	ch, err := n.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel open failed: %w", err)
	}

	// Idempotent; durable so bindings survive broker restarts.
	if err := ch.ExchangeDeclare(
		n.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare failed: %w", err)
	}

	n.ch = ch
	return ch, nil
}

func (n *AMQPNotifier) Publish(ctx context.Context, channel, eventName string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification failed: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	ch, err := n.channel()
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         eventName,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, n.exchange, channel, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish failed: %w", err)
	}
	return nil
}

// Close releases the broker connection.
func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
