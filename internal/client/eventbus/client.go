package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cornjacket/returns-service/internal/shared/domain/events"
	"github.com/cornjacket/returns-service/internal/shared/metrics"
)

// ErrPublish wraps any broker failure during publication.
var ErrPublish = errors.New("event publish failed")

// Publisher delivers a single event to the message bus.
type Publisher interface {
	Publish(ctx context.Context, event *events.Envelope) error
}

// Client provides best-effort publication of domain events.
// With a nil Publisher every call is a silent no-op.
type Client struct {
	publisher Publisher
	timeout   time.Duration
	logger    *slog.Logger
	inflight  sync.WaitGroup
}

// New creates an event bus client. Pass a nil publisher to disable publishing.
// Each publication is bounded by timeout.
func New(publisher Publisher, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		publisher: publisher,
		timeout:   timeout,
		logger:    logger.With("client", "eventbus"),
	}
}

// Enabled reports whether a broker is configured.
func (c *Client) Enabled() bool {
	return c.publisher != nil
}

// Publish wraps payload in an envelope and hands it to the broker, waiting for the result.
func (c *Client) Publish(ctx context.Context, routingKey string, payload any) error {
	if c.publisher == nil {
		metrics.EventsPublishedTotal.WithLabelValues(routingKey, metrics.PublishOutcomeSkipped).Inc()
		c.logger.Debug("no broker configured, skipping publish", "routing_key", routingKey)
		return nil
	}

	event, err := events.NewEnvelope(routingKey, payload)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(routingKey, metrics.PublishOutcomeFailed).Inc()
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.publisher.Publish(ctx, event); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(routingKey, metrics.PublishOutcomeFailed).Inc()
		c.logger.Error("failed to publish event",
			"event_id", event.EventID,
			"routing_key", routingKey,
			"error", err,
		)
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(routingKey, metrics.PublishOutcomePublished).Inc()
	c.logger.Debug("event published",
		"event_id", event.EventID,
		"routing_key", routingKey,
	)
	return nil
}

// PublishAsync publishes on a separate goroutine and never reports back.
// The publication is detached from ctx cancellation so an aborted request
// does not cut it short; failures are only logged and counted.
func (c *Client) PublishAsync(ctx context.Context, routingKey string, payload any) {
	ctx = context.WithoutCancel(ctx)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		_ = c.Publish(ctx, routingKey, payload)
	}()
}

// Wait blocks until in-flight asynchronous publications finish or ctx is done.
func (c *Client) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		c.logger.Warn("gave up waiting for in-flight publications")
		return ctx.Err()
	}
}
