package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/uuid/v5"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cornjacket/returns-service/internal/shared/domain/events"
)

// ErrConnectionClosed is returned by Consume when the broker closes the delivery stream.
var ErrConnectionClosed = errors.New("rabbitmq delivery channel closed")

// SubscriberConfig holds configuration for a Subscriber.
type SubscriberConfig struct {
	URL      string
	Exchange string
	Queue    string

	// Bindings are topic patterns bound to Queue, e.g. "return.*".
	Bindings []string

	Prefetch int
}

// Subscriber consumes events from a durable queue bound to the topic exchange.
type Subscriber struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	config SubscriberConfig
	logger *slog.Logger
}

// NewSubscriber connects to the broker and declares the exchange, queue and bindings.
func NewSubscriber(ctx context.Context, config SubscriberConfig, logger *slog.Logger) (*Subscriber, error) {
	if config.Prefetch <= 0 {
		config.Prefetch = 10
	}

	conn, err := dial(ctx, config.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := setupQueue(ch, config); err != nil {
		conn.Close()
		return nil, err
	}

	return &Subscriber{
		conn:   conn,
		ch:     ch,
		config: config,
		logger: logger.With("component", "amqp-subscriber"),
	}, nil
}

func setupQueue(ch *amqp.Channel, config SubscriberConfig) error {
	if err := declareExchange(ch, config.Exchange); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(config.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", config.Queue, err)
	}

	for _, pattern := range config.Bindings {
		if err := ch.QueueBind(config.Queue, pattern, config.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind %s to %s: %w", config.Queue, pattern, err)
		}
	}

	if err := ch.Qos(config.Prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}
	return nil
}

// Consume delivers events to handle until ctx is cancelled.
// Successful events are acked. Undecodable or failed events are rejected
// without requeue so a poison message cannot loop forever.
func (s *Subscriber) Consume(ctx context.Context, handle events.HandlerFunc) error {
	deliveries, err := s.ch.ConsumeWithContext(ctx, s.config.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %w", s.config.Queue, err)
	}

	s.logger.Info("starting amqp subscriber",
		"queue", s.config.Queue,
		"bindings", s.config.Bindings,
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("amqp subscriber stopping")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrConnectionClosed
			}
			s.processDelivery(ctx, d, handle)
		}
	}
}

func (s *Subscriber) processDelivery(ctx context.Context, d amqp.Delivery, handle events.HandlerFunc) {
	logger := s.logger.With("routing_key", d.RoutingKey, "message_id", d.MessageId)

	event, err := fromDelivery(d)
	if err != nil {
		logger.Error("failed to decode event", "error", err)
		if err := d.Nack(false, false); err != nil {
			logger.Error("failed to reject message", "error", err)
		}
		return
	}

	if err := handle(ctx, event); err != nil {
		logger.Error("failed to handle event", "error", err)
		if err := d.Nack(false, false); err != nil {
			logger.Error("failed to reject message", "error", err)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		logger.Error("failed to ack message", "error", err)
		return
	}
	logger.Debug("event processed successfully")
}

// fromDelivery rebuilds an envelope from message properties and body.
func fromDelivery(d amqp.Delivery) (*events.Envelope, error) {
	if !json.Valid(d.Body) {
		return nil, errors.New("message body is not valid JSON")
	}

	event := &events.Envelope{
		RoutingKey: d.RoutingKey,
		OccurredAt: d.Timestamp,
		Payload:    d.Body,
	}
	if d.MessageId != "" {
		id, err := uuid.FromString(d.MessageId)
		if err != nil {
			return nil, fmt.Errorf("invalid message id %q: %w", d.MessageId, err)
		}
		event.EventID = id
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return event, nil
}

// Close releases the channel and connection.
func (s *Subscriber) Close() error {
	s.ch.Close()
	err := s.conn.Close()
	s.logger.Info("amqp subscriber closed")
	if err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return nil
}
