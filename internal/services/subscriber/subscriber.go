// Package subscriber consumes return events from the message bus and logs them.
package subscriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cornjacket/returns-service/internal/shared/domain/events"
)

// Consumer delivers events from a broker until its context is cancelled.
type Consumer interface {
	Consume(ctx context.Context, handle events.HandlerFunc) error
	Close() error
}

// Config holds configuration for the subscriber service.
type Config struct {
	// Binding is the routing-key pattern handled as a return event.
	Binding string
}

// RunningService represents a started subscriber service.
type RunningService struct {
	// Shutdown stops consuming and releases the consumer.
	Shutdown func(ctx context.Context) error
}

// Start runs consumer in the background, dispatching events to the return handler.
// A consumer failure is reported on errorCh.
func Start(ctx context.Context, cfg Config, consumer Consumer, logger *slog.Logger, errorCh chan<- error) (*RunningService, error) {
	if cfg.Binding == "" {
		return nil, errors.New("subscriber binding is required")
	}
	logger = logger.With("service", "subscriber")

	registry := NewHandlerRegistry(logger)
	registry.Register(cfg.Binding, NewReturnHandler(logger))

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := consumer.Consume(runCtx, registry.Dispatch); err != nil {
			logger.Error("event consumer error", "error", err)
			if errorCh != nil {
				errorCh <- fmt.Errorf("subscriber failed: %w", err)
			}
		}
	}()

	return &RunningService{
		Shutdown: func(shutdownCtx context.Context) error {
			logger.Info("shutting down subscriber service")
			cancel()

			select {
			case <-done:
			case <-shutdownCtx.Done():
				logger.Warn("consumer did not stop in time")
			}
			return consumer.Close()
		},
	}, nil
}
