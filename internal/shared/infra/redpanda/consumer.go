package redpanda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/cornjacket/returns-service/internal/shared/domain/events"
)

// ConsumerConfig holds configuration for the event consumer.
type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topic   string

	// Bindings filter records by routing key using topic-exchange patterns.
	// Records matching none of them are skipped and still committed.
	Bindings []string
}

// Consumer reads events from a Redpanda topic as part of a consumer group.
type Consumer struct {
	client *kgo.Client
	config ConsumerConfig
	logger *slog.Logger
}

// NewConsumer creates a new event consumer.
func NewConsumer(config ConsumerConfig, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(config.Brokers...),
		kgo.ConsumerGroup(config.GroupID),
		kgo.ConsumeTopics(config.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redpanda consumer: %w", err)
	}

	return &Consumer{
		client: client,
		config: config,
		logger: logger.With("component", "redpanda-consumer"),
	}, nil
}

// Consume polls records and hands matching events to handle until ctx is cancelled.
// Offsets are committed after each batch; a failed event is logged and skipped.
func (c *Consumer) Consume(ctx context.Context, handle events.HandlerFunc) error {
	c.logger.Info("starting redpanda consumer",
		"group_id", c.config.GroupID,
		"topic", c.config.Topic,
		"bindings", c.config.Bindings,
	)

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			c.logger.Info("redpanda consumer stopping")
			return nil
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		fetches.EachRecord(func(record *kgo.Record) {
			c.processRecord(ctx, record, handle)
		})

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("failed to commit offsets", "error", err)
		}
	}
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record, handle events.HandlerFunc) {
	logger := c.logger.With(
		"partition", record.Partition,
		"offset", record.Offset,
	)

	event, err := fromRecord(record)
	if err != nil {
		logger.Error("failed to decode event", "error", err)
		return
	}

	if !c.matches(event.RoutingKey) {
		logger.Debug("skipping unbound routing key", "routing_key", event.RoutingKey)
		return
	}

	logger = logger.With("routing_key", event.RoutingKey, "event_id", event.EventID)
	if err := handle(ctx, event); err != nil {
		logger.Error("failed to handle event", "error", err)
		return
	}

	logger.Debug("event processed successfully")
}

func (c *Consumer) matches(routingKey string) bool {
	for _, pattern := range c.config.Bindings {
		if events.MatchTopic(pattern, routingKey) {
			return true
		}
	}
	return false
}

// fromRecord rebuilds an envelope from record headers and value.
func fromRecord(record *kgo.Record) (*events.Envelope, error) {
	if !json.Valid(record.Value) {
		return nil, errors.New("record value is not valid JSON")
	}

	event := &events.Envelope{
		RoutingKey: string(record.Key),
		OccurredAt: record.Timestamp,
		Payload:    record.Value,
	}

	for _, h := range record.Headers {
		switch h.Key {
		case HeaderEventID:
			id, err := uuid.FromString(string(h.Value))
			if err != nil {
				return nil, fmt.Errorf("invalid %s header: %w", HeaderEventID, err)
			}
			event.EventID = id
		case HeaderRoutingKey:
			event.RoutingKey = string(h.Value)
		case HeaderOccurredAt:
			ts, err := time.Parse(time.RFC3339Nano, string(h.Value))
			if err != nil {
				return nil, fmt.Errorf("invalid %s header: %w", HeaderOccurredAt, err)
			}
			event.OccurredAt = ts
		}
	}

	if event.RoutingKey == "" {
		return nil, errors.New("record has no routing key")
	}
	return event, nil
}

// Close releases consumer resources.
func (c *Consumer) Close() error {
	c.client.Close()
	c.logger.Info("redpanda consumer closed")
	return nil
}
