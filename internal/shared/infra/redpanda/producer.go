package redpanda

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/cornjacket/returns-service/internal/shared/domain/events"
)

// Record header names carrying envelope metadata. The record value is the payload.
const (
	HeaderEventID    = "event_id"
	HeaderRoutingKey = "routing_key"
	HeaderOccurredAt = "occurred_at"
)

// Producer implements eventbus.Publisher using Redpanda (Kafka-compatible).
// All events go to a single topic named after the exchange; the routing key is
// the record key so events of one kind share a partition.
type Producer struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewProducer creates a new Redpanda producer writing to topic.
func NewProducer(brokers []string, topic string, logger *slog.Logger) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redpanda client: %w", err)
	}

	return &Producer{
		client: client,
		topic:  topic,
		logger: logger.With("component", "redpanda-producer"),
	}, nil
}

// Publish sends event synchronously.
func (p *Producer) Publish(ctx context.Context, event *events.Envelope) error {
	results := p.client.ProduceSync(ctx, toRecord(p.topic, event))
	if err := results.FirstErr(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}

	p.logger.Debug("event published to Redpanda",
		"topic", p.topic,
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
	)

	return nil
}

func toRecord(topic string, event *events.Envelope) *kgo.Record {
	return &kgo.Record{
		Topic:     topic,
		Key:       []byte(event.RoutingKey),
		Value:     event.Payload,
		Timestamp: event.OccurredAt,
		Headers: []kgo.RecordHeader{
			{Key: HeaderEventID, Value: []byte(event.EventID.String())},
			{Key: HeaderRoutingKey, Value: []byte(event.RoutingKey)},
			{Key: HeaderOccurredAt, Value: []byte(event.OccurredAt.Format(time.RFC3339Nano))},
		},
	}
}

// Close closes the producer connection.
func (p *Producer) Close() {
	p.client.Close()
	p.logger.Info("Redpanda producer closed")
}
