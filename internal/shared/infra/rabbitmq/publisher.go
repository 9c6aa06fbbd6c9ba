// Package rabbitmq connects the returns service to a RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cornjacket/returns-service/internal/shared/domain/events"
)

// Publisher implements eventbus.Publisher against a RabbitMQ topic exchange.
// Every publication opens its own connection, so a broker restart between
// publications needs no reconnect logic.
type Publisher struct {
	url      string
	exchange string
	logger   *slog.Logger
}

// NewPublisher creates a publisher for exchange on the broker at url.
// No connection is made until the first Publish.
func NewPublisher(url, exchange string, logger *slog.Logger) *Publisher {
	return &Publisher{
		url:      url,
		exchange: exchange,
		logger:   logger.With("component", "amqp-publisher"),
	}
}

// Publish declares the durable topic exchange and publishes event as a
// persistent JSON message, waiting for the broker to confirm it.
func (p *Publisher) Publish(ctx context.Context, event *events.Envelope) error {
	conn, err := dial(ctx, p.url)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := declareExchange(ch, p.exchange); err != nil {
		return err
	}

	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, event.RoutingKey, false, false, toPublishing(event))
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.exchange, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed waiting for publish confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("broker rejected message %s", event.EventID)
	}

	p.logger.Debug("event published to RabbitMQ",
		"exchange", p.exchange,
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
	)
	return nil
}

// dial connects to the broker, bounding the TCP connect and AMQP handshake by ctx.
func dial(ctx context.Context, url string) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			c, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if deadline, ok := ctx.Deadline(); ok {
				// amqp091 clears the deadline once the handshake completes
				if err := c.SetDeadline(deadline); err != nil {
					c.Close()
					return nil, err
				}
			}
			return c, nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return nil
}

func toPublishing(event *events.Envelope) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID.String(),
		Timestamp:    event.OccurredAt,
		Type:         event.RoutingKey,
		Body:         event.Payload,
	}
}
