package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported event bus backends.
const (
	EventBusAMQP     = "amqp"
	EventBusRedpanda = "redpanda"
)

// Order payload variants forwarded into return.created events.
const (
	OrderPayloadSummary = "summary"
	OrderPayloadFull    = "full"
	OrderPayloadNone    = "none"
)

// Config holds all configuration for the returns service and its subscriber.
type Config struct {
	// Logging
	LogLevel  string
	LogFormat string

	// HTTP server
	Port int

	// Durable store. Empty means the in-memory store.
	DatabaseURL string

	// Orders service
	OrdersBaseURL string
	OrdersTimeout time.Duration

	// Event bus. An empty broker address disables publishing.
	EventBus            string
	RabbitURL           string
	RedpandaBrokers     string
	EventsExchange      string
	EventPublishTimeout time.Duration
	EventOrderPayload   string

	// Subscriber
	SubscriberQueue   string
	SubscriberBinding string
	SubscriberGroup   string

	// SubscriberMetricsPort serves /metrics from the subscriber process. 0 disables it.
	SubscriberMetricsPort int
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:  getEnv("RETURNS_LOG_LEVEL", "info"),
		LogFormat: getEnv("RETURNS_LOG_FORMAT", "json"),

		Port: getEnvInt("RETURNS_PORT", 8004),

		DatabaseURL: os.Getenv("RETURNS_DATABASE_URL"),

		OrdersBaseURL: getEnv("ORDERS_BASE_URL", "http://localhost:8003/api"),
		OrdersTimeout: getEnvDuration("ORDERS_TIMEOUT", 3*time.Second),

		EventBus:            getEnv("EVENT_BUS", EventBusAMQP),
		RabbitURL:           os.Getenv("RABBIT_URL"),
		RedpandaBrokers:     os.Getenv("REDPANDA_BROKERS"),
		EventsExchange:      getEnv("EVENTS_EXCHANGE", "events_topic"),
		EventPublishTimeout: getEnvDuration("EVENT_PUBLISH_TIMEOUT", 5*time.Second),
		EventOrderPayload:   getEnv("EVENT_ORDER_PAYLOAD", OrderPayloadSummary),

		SubscriberQueue:   getEnv("SUBSCRIBER_QUEUE", "returns_events_queue"),
		SubscriberBinding: getEnv("SUBSCRIBER_BINDING", "return.*"),
		SubscriberGroup:   getEnv("SUBSCRIBER_GROUP", "returns-subscriber"),

		SubscriberMetricsPort: getEnvInt("SUBSCRIBER_METRICS_PORT", 9105),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PublishingEnabled reports whether a broker endpoint is configured for the selected bus.
func (c *Config) PublishingEnabled() bool {
	switch c.EventBus {
	case EventBusRedpanda:
		return c.RedpandaBrokers != ""
	default:
		return c.RabbitURL != ""
	}
}

func (c *Config) validate() error {
	if c.OrdersBaseURL == "" {
		return fmt.Errorf("ORDERS_BASE_URL is required")
	}
	if c.OrdersTimeout < 3*time.Second || c.OrdersTimeout > 5*time.Second {
		return fmt.Errorf("ORDERS_TIMEOUT must be between 3s and 5s, got %s", c.OrdersTimeout)
	}
	if c.EventBus != EventBusAMQP && c.EventBus != EventBusRedpanda {
		return fmt.Errorf("EVENT_BUS must be %q or %q, got %q", EventBusAMQP, EventBusRedpanda, c.EventBus)
	}
	if c.EventsExchange == "" {
		return fmt.Errorf("EVENTS_EXCHANGE is required")
	}
	switch c.EventOrderPayload {
	case OrderPayloadSummary, OrderPayloadFull, OrderPayloadNone:
	default:
		return fmt.Errorf("EVENT_ORDER_PAYLOAD must be one of summary, full, none, got %q", c.EventOrderPayload)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
