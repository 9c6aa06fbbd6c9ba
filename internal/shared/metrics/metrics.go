package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publish outcomes recorded in EventsPublishedTotal.
const (
	PublishOutcomePublished = "published"
	PublishOutcomeFailed    = "failed"
	PublishOutcomeSkipped   = "skipped"
)

var (
	ReturnsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "returns_created_total",
		Help: "Total number of returns successfully created.",
	})

	ReturnStatusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_status_updates_total",
		Help: "Total number of return status updates, by target status.",
	},
		[]string{"status"},
	)

	ReturnsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "returns_deleted_total",
		Help: "Total number of returns deleted.",
	})

	OrderChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_order_checks_total",
		Help: "Order existence checks against the Orders service, by outcome.",
	},
		[]string{"outcome"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_events_published_total",
		Help: "Return event publication attempts, by routing key and outcome.",
	},
		[]string{"routing_key", "outcome"},
	)

	EventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_events_consumed_total",
		Help: "Return events handled by the subscriber, by routing key.",
	},
		[]string{"routing_key"},
	)
)
