package returns

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Config holds configuration for the returns service.
type Config struct {
	Port int

	// OrderPayload selects the PayloadShaper ("summary", "full", "none").
	OrderPayload string
}

// RunningService represents a started returns service.
type RunningService struct {
	// Shutdown stops the HTTP server gracefully.
	Shutdown func(ctx context.Context) error
}

// Start starts the returns HTTP server.
// The repository, validator and publisher are the service's collaborators;
// their lifecycles belong to the caller.
func Start(
	ctx context.Context,
	cfg Config,
	repo Repository,
	validator OrderValidator,
	publisher EventPublisher,
	logger *slog.Logger,
	errorCh chan<- error,
) (*RunningService, error) {
	logger = logger.With("service", "returns")

	shape, err := ShaperFor(cfg.OrderPayload)
	if err != nil {
		return nil, err
	}

	// Wire service → handler → routes → HTTP server
	svc := NewService(repo, validator, publisher, shape, logger)
	handler := NewHandler(svc, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(handler, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting returns server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("returns server error", "error", err)
			if errorCh != nil {
				errorCh <- fmt.Errorf("returns server failed: %w", err)
			}
		}
	}()

	return &RunningService{
		Shutdown: func(shutdownCtx context.Context) error {
			logger.Info("shutting down returns service")
			return server.Shutdown(shutdownCtx)
		},
	}, nil
}
