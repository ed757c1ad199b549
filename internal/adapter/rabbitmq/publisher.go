package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"healthmate/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var _ domain.EventPublisher = (*Publisher)(nil)

// Publisher sends domain events to a durable topic exchange. The event
// type is the routing key.
type Publisher struct {
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher opens a channel on conn and declares exchange.
func NewPublisher(conn *Connection, exchange string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// Publish sends e with routingKey.
func (p *Publisher) Publish(ctx context.Context, routingKey string, e domain.Event) error {
	msg, err := publishing(e)
	if err != nil {
		return err
	}

	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey,
		false, // mandatory
		false, // immediate
		msg,
	)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published event",
		zap.String("routing_key", routingKey),
		zap.Int64("user_id", e.UserID),
		zap.String("kind", e.Kind),
	)
	return nil
}

// Close closes the publisher channel.
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}

func publishing(e domain.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         e.Type,
		Timestamp:    e.At,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}, nil
}
