package subscriber

import (
	"context"

	"github.com/cornjacket/returns-service/internal/shared/domain/events"
)

// mockEventHandler implements EventHandler for testing.
type mockEventHandler struct {
	HandleFn func(ctx context.Context, event *events.Envelope) error
}

func (m *mockEventHandler) Handle(ctx context.Context, event *events.Envelope) error {
	return m.HandleFn(ctx, event)
}

// mockConsumer implements Consumer for testing.
type mockConsumer struct {
	ConsumeFn func(ctx context.Context, handle events.HandlerFunc) error
	closed    bool
}

func (m *mockConsumer) Consume(ctx context.Context, handle events.HandlerFunc) error {
	return m.ConsumeFn(ctx, handle)
}

func (m *mockConsumer) Close() error {
	m.closed = true
	return nil
}
