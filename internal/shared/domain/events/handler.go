package events

import "context"

// HandlerFunc processes one consumed event. A non-nil error marks the event as failed.
type HandlerFunc func(ctx context.Context, event *Envelope) error
