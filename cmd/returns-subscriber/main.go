package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/cornjacket/returns-service/internal/services/subscriber"
	"github.com/cornjacket/returns-service/internal/shared/config"
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

	slog.Info("starting returns subscriber",
		"event_bus", cfg.EventBus,
		"exchange", cfg.EventsExchange,
		"binding", cfg.SubscriberBinding,
	)

	if err := run(cfg, logger); err != nil {
		slog.Error("returns subscriber failed", "error", err)
		os.Exit(1)
	}
	slog.Info("returns subscriber stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if !cfg.PublishingEnabled() {
		return errors.New("no broker configured for event bus " + cfg.EventBus)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer, err := newConsumer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	errorCh := make(chan error, 1)
	svc, err := subscriber.Start(gctx, subscriber.Config{Binding: cfg.SubscriberBinding}, consumer, logger, errorCh)
	if err != nil {
		consumer.Close()
		return fmt.Errorf("failed to start subscriber: %w", err)
	}

	g.Go(func() error {
		select {
		case err := <-errorCh:
			return err
		case <-gctx.Done():
			return nil
		}
	})

	var metricsServer *http.Server
	if cfg.SubscriberMetricsPort > 0 {
		metricsServer = newMetricsServer(cfg.SubscriberMetricsPort)
		g.Go(func() error {
			logger.Info("starting metrics server", "port", cfg.SubscriberMetricsPort)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
	}

	// Shut everything down once a signal arrives or any member fails
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
		}
		return svc.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newConsumer connects to the configured event bus backend.
func newConsumer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (subscriber.Consumer, error) {
	switch cfg.EventBus {
	case config.EventBusRedpanda:
		consumer, err := redpanda.NewConsumer(redpanda.ConsumerConfig{
			Brokers:  strings.Split(cfg.RedpandaBrokers, ","),
			GroupID:  cfg.SubscriberGroup,
			Topic:    cfg.EventsExchange,
			Bindings: []string{cfg.SubscriberBinding},
		}, logger)
		if err != nil {
			return nil, err
		}
		return consumer, nil
	default:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		sub, err := rabbitmq.NewSubscriber(connectCtx, rabbitmq.SubscriberConfig{
			URL:      cfg.RabbitURL,
			Exchange: cfg.EventsExchange,
			Queue:    cfg.SubscriberQueue,
			Bindings: []string{cfg.SubscriberBinding},
		}, logger)
		if err != nil {
			return nil, err
		}
		return sub, nil
	}
}

func newMetricsServer(port int) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
