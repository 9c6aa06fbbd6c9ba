package subscriber

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cornjacket/returns-service/internal/shared/domain/events"
	"github.com/cornjacket/returns-service/internal/shared/metrics"
)

// EventHandler processes a single consumed event.
type EventHandler interface {
	Handle(ctx context.Context, event *events.Envelope) error
}

type route struct {
	pattern string
	handler EventHandler
}

// HandlerRegistry dispatches events to the first handler whose topic pattern
// matches the routing key. Patterns are tried in registration order.
type HandlerRegistry struct {
	routes []route
	logger *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		logger: logger.With("component", "handler-registry"),
	}
}

// Register adds a handler for routing keys matching pattern ("*" one word, "#" any).
func (r *HandlerRegistry) Register(pattern string, handler EventHandler) {
	r.routes = append(r.routes, route{pattern: pattern, handler: handler})
	r.logger.Info("registered handler", "pattern", pattern)
}

// Dispatch routes an event to the matching handler.
func (r *HandlerRegistry) Dispatch(ctx context.Context, event *events.Envelope) error {
	metrics.EventsConsumedTotal.WithLabelValues(event.RoutingKey).Inc()

	for _, rt := range r.routes {
		if events.MatchTopic(rt.pattern, event.RoutingKey) {
			return rt.handler.Handle(ctx, event)
		}
	}
	// Unrouted events are acknowledged and dropped
	r.logger.Debug("no handler for routing key", "routing_key", event.RoutingKey)
	return nil
}

// ReturnEvent is the payload shape shared by all return.* events.
// Reason and the forwarded order fields are only present on return.created.
type ReturnEvent struct {
	ReturnID    int64  `json:"return_id"`
	OrderID     int64  `json:"order_id"`
	Reason      string `json:"reason,omitempty"`
	Status      string `json:"status"`
	OrderStatus any    `json:"order_status,omitempty"`
	TotalPrice  any    `json:"total_price,omitempty"`
}

// ReturnHandler logs return lifecycle events.
type ReturnHandler struct {
	logger *slog.Logger
}

// NewReturnHandler creates a new return event handler.
func NewReturnHandler(logger *slog.Logger) *ReturnHandler {
	return &ReturnHandler{
		logger: logger.With("handler", "return"),
	}
}

// Handle decodes a return event and records it in the log.
func (h *ReturnHandler) Handle(ctx context.Context, event *events.Envelope) error {
	var ev ReturnEvent
	if err := event.ParsePayload(&ev); err != nil {
		return fmt.Errorf("failed to decode return event: %w", err)
	}
	if ev.ReturnID < 1 {
		return fmt.Errorf("return event %s has no return_id", event.EventID)
	}

	attrs := []any{
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"occurred_at", event.OccurredAt,
		"return_id", ev.ReturnID,
		"order_id", ev.OrderID,
		"status", ev.Status,
	}
	if ev.Reason != "" {
		attrs = append(attrs, "reason", ev.Reason)
	}
	if ev.OrderStatus != nil {
		attrs = append(attrs, "order_status", ev.OrderStatus)
	}
	if ev.TotalPrice != nil {
		attrs = append(attrs, "total_price", ev.TotalPrice)
	}

	h.logger.Info("return event received", attrs...)
	return nil
}
