package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQConfig describes where email jobs are published.
type RabbitMQConfig struct {
	URL         string
	Exchange    string
	Queue       string
	RoutingKey  string
	FromAddress string
}

// publisher is the subset of *amqp.Channel used for publishing.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQNotifier publishes emails as persistent JSON messages for the mail sender.
type RabbitMQNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	pub     publisher
	cfg     RabbitMQConfig
	logger  *zap.Logger

	// publishes on one channel are serialized
	mu sync.Mutex
}

// NewRabbitMQNotifier dials the broker and declares the exchange, queue and binding.
func NewRabbitMQNotifier(cfg RabbitMQConfig, logger *zap.Logger) (*RabbitMQNotifier, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}
	if err := ch.QueueBind(cfg.Queue, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue %s: %w", cfg.Queue, err)
	}

	logger.Info("rabbitmq notifier ready",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", cfg.Queue))

	return &RabbitMQNotifier{conn: conn, channel: ch, pub: ch, cfg: cfg, logger: logger}, nil
}

// Notify publishes email.
func (n *RabbitMQNotifier) Notify(ctx context.Context, email Email) error {
	if email.From == "" {
		email.From = n.cfg.FromAddress
	}
	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.pub.PublishWithContext(ctx, n.cfg.Exchange, n.cfg.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now(),
		DeliveryMode: amqp.Persistent,
		Type:         string(email.Kind),
	})
	if err != nil {
		return fmt.Errorf("failed to publish email: %w", err)
	}

	n.logger.Debug("email published",
		zap.String("kind", string(email.Kind)),
		zap.String("to", email.To))
	return nil
}

// Close closes the channel and connection.
func (n *RabbitMQNotifier) Close() error {
	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
