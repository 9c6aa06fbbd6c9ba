package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornjacket/returns-service/internal/shared/domain/events"
)

// mockPublisher implements Publisher for testing.
type mockPublisher struct {
	mu        sync.Mutex
	published []*events.Envelope
	PublishFn func(ctx context.Context, event *events.Envelope) error
}

func (m *mockPublisher) Publish(ctx context.Context, event *events.Envelope) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	m.mu.Unlock()
	if m.PublishFn != nil {
		return m.PublishFn(ctx, event)
	}
	return nil
}

func (m *mockPublisher) captured() []*events.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*events.Envelope(nil), m.published...)
}

func TestPublish_Success(t *testing.T) {
	pub := &mockPublisher{}
	client := New(pub, time.Second, slog.Default())

	err := client.Publish(context.Background(), "return.created", map[string]any{"return_id": 1, "order_id": 7})
	require.NoError(t, err)

	got := pub.captured()
	require.Len(t, got, 1)
	assert.Equal(t, "return.created", got[0].RoutingKey)
	assert.JSONEq(t, `{"return_id":1,"order_id":7}`, string(got[0].Payload))
}

func TestPublish_NoBrokerIsSilent(t *testing.T) {
	client := New(nil, time.Second, slog.Default())

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Publish(context.Background(), "return.created", map[string]any{"return_id": 1}))
}

func TestPublish_BrokerErrorIsWrapped(t *testing.T) {
	pub := &mockPublisher{
		PublishFn: func(ctx context.Context, event *events.Envelope) error {
			return fmt.Errorf("connection refused")
		},
	}
	client := New(pub, time.Second, slog.Default())

	err := client.Publish(context.Background(), "return.approved", map[string]any{"return_id": 1})
	assert.ErrorIs(t, err, ErrPublish)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPublish_AppliesTimeout(t *testing.T) {
	pub := &mockPublisher{
		PublishFn: func(ctx context.Context, event *events.Envelope) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	client := New(pub, 50*time.Millisecond, slog.Default())

	start := time.Now()
	err := client.Publish(context.Background(), "return.created", nil)
	assert.ErrorIs(t, err, ErrPublish)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPublishAsync_SurvivesCallerCancellation(t *testing.T) {
	pub := &mockPublisher{
		PublishFn: func(ctx context.Context, event *events.Envelope) error {
			time.Sleep(20 * time.Millisecond)
			return ctx.Err()
		},
	}
	client := New(pub, time.Second, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	client.PublishAsync(ctx, "return.created", map[string]any{"return_id": 1})
	cancel()

	require.NoError(t, client.Wait(context.Background()))
	assert.Len(t, pub.captured(), 1)
}

func TestPublishAsync_FailureIsSwallowed(t *testing.T) {
	pub := &mockPublisher{
		PublishFn: func(ctx context.Context, event *events.Envelope) error {
			return fmt.Errorf("broker down")
		},
	}
	client := New(pub, time.Second, slog.Default())

	client.PublishAsync(context.Background(), "return.rejected", nil)

	require.NoError(t, client.Wait(context.Background()))
	assert.Len(t, pub.captured(), 1)
}

func TestWait_GivesUpOnContext(t *testing.T) {
	release := make(chan struct{})
	pub := &mockPublisher{
		PublishFn: func(ctx context.Context, event *events.Envelope) error {
			<-release
			return nil
		},
	}
	client := New(pub, time.Minute, slog.Default())
	client.PublishAsync(context.Background(), "return.created", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, client.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, client.Wait(context.Background()))
}
