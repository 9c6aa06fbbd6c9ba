package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cornjacket/returns-service/internal/client/eventbus"
	"github.com/cornjacket/returns-service/internal/client/orders"
	"github.com/cornjacket/returns-service/internal/services/returns"
	"github.com/cornjacket/returns-service/internal/shared/config"
	"github.com/cornjacket/returns-service/internal/shared/infra/memory"
	"github.com/cornjacket/returns-service/internal/shared/infra/postgres"
	"github.com/cornjacket/returns-service/internal/shared/infra/rabbitmq"
	"github.com/cornjacket/returns-service/internal/shared/infra/redpanda"
	"github.com/cornjacket/returns-service/internal/shared/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("starting returns service",
		"port", cfg.Port,
		"orders_base_url", cfg.OrdersBaseURL,
		"event_bus", cfg.EventBus,
		"publishing", cfg.PublishingEnabled(),
	)

	if err := run(cfg, logger); err != nil {
		slog.Error("returns service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("returns service stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	repo, closeStore, err := newRepository(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize returns store: %w", err)
	}
	defer closeStore()

	// Event bus
	var publisher eventbus.Publisher
	if cfg.PublishingEnabled() {
		switch cfg.EventBus {
		case config.EventBusRedpanda:
			producer, err := redpanda.NewProducer(strings.Split(cfg.RedpandaBrokers, ","), cfg.EventsExchange, logger)
			if err != nil {
				return fmt.Errorf("failed to create Redpanda producer: %w", err)
			}
			defer producer.Close()
			publisher = producer
		default:
			publisher = rabbitmq.NewPublisher(cfg.RabbitURL, cfg.EventsExchange, logger)
		}
	} else {
		slog.Warn("no broker configured, events will not be published")
	}
	bus := eventbus.New(publisher, cfg.EventPublishTimeout, logger)

	ordersClient := orders.New(cfg.OrdersBaseURL, cfg.OrdersTimeout, logger)

	errorCh := make(chan error, 1)
	returnsSvc, err := returns.Start(ctx, returns.Config{
		Port:         cfg.Port,
		OrderPayload: cfg.EventOrderPayload,
	}, repo, ordersClient, bus, logger, errorCh)
	if err != nil {
		return fmt.Errorf("failed to start returns service: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	case runErr = <-errorCh:
	}

	// Stop accepting requests, then let in-flight publications finish
	slog.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := returnsSvc.Shutdown(shutdownCtx); err != nil {
		slog.Error("returns service shutdown error", "error", err)
	}
	if err := bus.Wait(shutdownCtx); err != nil {
		slog.Error("event bus drain error", "error", err)
	}

	return runErr
}

// newRepository selects the PostgreSQL store when a database URL is configured
// and the in-memory store otherwise. The returned func releases the store.
func newRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (returns.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("RETURNS_DATABASE_URL not set, returns are kept in memory")
		return memory.NewReturnsStore(logger), func() {}, nil
	}

	migration := postgres.Migration{FS: returns.Migrations, Dir: "migrations", Table: "goose_returns"}
	if err := postgres.RunMigrations(cfg.DatabaseURL, migration, logger); err != nil {
		return nil, nil, err
	}

	pg, err := postgres.NewClient(ctx, cfg.DatabaseURL, postgres.DefaultPoolConfig, logger)
	if err != nil {
		return nil, nil, err
	}

	return postgres.NewReturnsRepo(pg.Pool(), logger), pg.Close, nil
}
