package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cornjacket/returns-service/e2e/client"
	"github.com/cornjacket/returns-service/e2e/runner"
	"github.com/cornjacket/returns-service/internal/shared/domain/events"
	"github.com/cornjacket/returns-service/internal/shared/infra/rabbitmq"
)

func init() {
	runner.Register(&runner.Test{
		Name:        "return-events",
		Description: "Creating and approving a return publishes return.created and return.approved",
		Run:         runEventsTest,
	})
}

func runEventsTest(ctx context.Context, cfg *runner.Config) error {
	if cfg.RabbitURL == "" {
		return runner.ErrSkip
	}

	queue := fmt.Sprintf("e2e-returns-%d", time.Now().UnixNano())
	sub, err := rabbitmq.NewSubscriber(ctx, rabbitmq.SubscriberConfig{
		URL:      cfg.RabbitURL,
		Exchange: cfg.Exchange,
		Queue:    queue,
		Bindings: []string{"return.*"},
	}, slog.New(slog.DiscardHandler))
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Close()

	received := make(chan *events.Envelope, 16)
	consumeCtx, stop := context.WithCancel(ctx)
	defer stop()
	go sub.Consume(consumeCtx, func(ctx context.Context, event *events.Envelope) error {
		received <- event
		return nil
	})

	c := client.New(cfg.ReturnsURL)
	created, err := c.CreateReturn(ctx, cfg.ExistingOrderID, "not as described")
	if err != nil {
		return fmt.Errorf("failed to create return: %w", err)
	}
	defer c.DeleteReturn(context.WithoutCancel(ctx), created.ID)

	if _, err := c.UpdateStatus(ctx, created.ID, "approved"); err != nil {
		return fmt.Errorf("failed to approve return: %w", err)
	}

	for _, want := range []string{"return.created", "return.approved"} {
		if err := awaitEvent(ctx, received, want, created.ID); err != nil {
			return err
		}
	}
	return nil
}

// awaitEvent waits for routingKey carrying returnID, ignoring events for other returns.
func awaitEvent(ctx context.Context, received <-chan *events.Envelope, routingKey string, returnID int64) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for %s", routingKey)
		case ev := <-received:
			var payload struct {
				ReturnID int64 `json:"return_id"`
			}
			if err := json.Unmarshal(ev.Payload, &payload); err != nil {
				return fmt.Errorf("bad %s payload: %w", ev.RoutingKey, err)
			}
			if ev.RoutingKey == routingKey && payload.ReturnID == returnID {
				return nil
			}
		}
	}
}
