package subscriber

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornjacket/returns-service/internal/shared/domain/events"
)

func newTestEnvelope(t *testing.T, routingKey string, payload any) *events.Envelope {
	t.Helper()
	env, err := events.NewEnvelope(routingKey, payload)
	require.NoError(t, err)
	return env
}

func TestDispatch_MatchedHandler(t *testing.T) {
	var handled string
	mock := &mockEventHandler{
		HandleFn: func(ctx context.Context, event *events.Envelope) error {
			handled = event.RoutingKey
			return nil
		},
	}

	registry := NewHandlerRegistry(slog.Default())
	registry.Register("return.*", mock)

	err := registry.Dispatch(context.Background(), newTestEnvelope(t, "return.approved", map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, "return.approved", handled)
}

func TestDispatch_FirstMatchWins(t *testing.T) {
	var calls []string
	handler := func(name string) *mockEventHandler {
		return &mockEventHandler{
			HandleFn: func(ctx context.Context, event *events.Envelope) error {
				calls = append(calls, name)
				return nil
			},
		}
	}

	registry := NewHandlerRegistry(slog.Default())
	registry.Register("return.created", handler("created"))
	registry.Register("return.#", handler("any"))

	require.NoError(t, registry.Dispatch(context.Background(), newTestEnvelope(t, "return.created", map[string]any{})))
	require.NoError(t, registry.Dispatch(context.Background(), newTestEnvelope(t, "return.refunded", map[string]any{})))

	assert.Equal(t, []string{"created", "any"}, calls)
}

func TestDispatch_NoHandler(t *testing.T) {
	registry := NewHandlerRegistry(slog.Default())
	registry.Register("return.*", &mockEventHandler{
		HandleFn: func(ctx context.Context, event *events.Envelope) error {
			t.Fatal("handler should not be called")
			return nil
		},
	})

	err := registry.Dispatch(context.Background(), newTestEnvelope(t, "order.created", map[string]any{}))
	assert.NoError(t, err, "unmatched event should not error")
}

func TestDispatch_ErrorPropagation(t *testing.T) {
	registry := NewHandlerRegistry(slog.Default())
	registry.Register("return.*", &mockEventHandler{
		HandleFn: func(ctx context.Context, event *events.Envelope) error {
			return fmt.Errorf("downstream unavailable")
		},
	})

	err := registry.Dispatch(context.Background(), newTestEnvelope(t, "return.created", map[string]any{}))
	assert.Error(t, err)
}

func TestReturnHandler(t *testing.T) {
	handler := NewReturnHandler(slog.Default())

	tests := []struct {
		name    string
		key     string
		payload any
		wantErr bool
	}{
		{
			name: "created with order summary",
			key:  "return.created",
			payload: map[string]any{
				"return_id": 1, "order_id": 7, "reason": "damaged", "status": "created",
				"order_status": "paid", "total_price": 49.9,
			},
		},
		{
			name:    "status change",
			key:     "return.approved",
			payload: map[string]any{"return_id": 1, "order_id": 7, "status": "approved"},
		},
		{
			name:    "missing return id",
			key:     "return.approved",
			payload: map[string]any{"order_id": 7, "status": "approved"},
			wantErr: true,
		},
		{
			name:    "wrong payload shape",
			key:     "return.created",
			payload: []string{"not", "an", "object"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handler.Handle(context.Background(), newTestEnvelope(t, tt.key, tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
