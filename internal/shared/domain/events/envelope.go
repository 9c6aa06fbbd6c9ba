package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/cornjacket/returns-service/internal/shared/domain/clock"
)

// Envelope is a domain event ready to be handed to the message bus.
// Only Payload travels as the message body; the remaining fields map to
// broker message properties (message id, routing key, timestamp).
type Envelope struct {
	// EventID uniquely identifies this event (UUIDv7, time-ordered)
	EventID uuid.UUID `json:"event_id"`

	// RoutingKey addresses the event on the topic exchange (e.g. "return.created")
	RoutingKey string `json:"routing_key"`

	// OccurredAt is when the event was created
	OccurredAt time.Time `json:"occurred_at"`

	// Payload is the JSON-encoded event body
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope encodes payload as JSON and wraps it with a fresh event ID and timestamp.
func NewEnvelope(routingKey string, payload any) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate event id: %w", err)
	}

	return &Envelope{
		EventID:    id,
		RoutingKey: routingKey,
		OccurredAt: clock.Now(),
		Payload:    body,
	}, nil
}

// ParsePayload unmarshals the payload into the provided type.
func (e *Envelope) ParsePayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}
