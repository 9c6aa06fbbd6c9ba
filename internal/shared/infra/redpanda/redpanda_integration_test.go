//go:build integration

package redpanda

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornjacket/returns-service/internal/shared/domain/events"
	"github.com/cornjacket/returns-service/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func testTopicName(t *testing.T) string {
	t.Helper()
	name := strings.NewReplacer("/", "-", " ", "-").Replace(t.Name())
	return fmt.Sprintf("test-%s-%d", name, time.Now().UnixNano())
}

func TestProducerConsumerRoundTrip(t *testing.T) {
	topic := testTopicName(t)

	producer, err := NewProducer(testutil.TestBrokers(), topic, testLogger())
	require.NoError(t, err)
	defer producer.Close()

	created, err := events.NewEnvelope("return.created", map[string]any{"return_id": 1})
	require.NoError(t, err)
	other, err := events.NewEnvelope("order.created", map[string]any{"order_id": 7})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, producer.Publish(ctx, other))
	require.NoError(t, producer.Publish(ctx, created))

	consumer, err := NewConsumer(ConsumerConfig{
		Brokers:  testutil.TestBrokers(),
		GroupID:  "test-group-" + topic,
		Topic:    topic,
		Bindings: []string{"return.*"},
	}, testLogger())
	require.NoError(t, err)
	defer consumer.Close()

	var mu sync.Mutex
	var received []*events.Envelope
	done := make(chan error, 1)
	go func() {
		done <- consumer.Consume(ctx, func(ctx context.Context, event *events.Envelope) error {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, event)
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 8*time.Second, 50*time.Millisecond)

	mu.Lock()
	assert.Equal(t, created.EventID, received[0].EventID)
	assert.Equal(t, "return.created", received[0].RoutingKey)
	mu.Unlock()

	cancel()
	assert.NoError(t, <-done)
}
