// Package metrics holds the Prometheus counters for the storefront engine.
//
// Counters are registered on Registry rather than the global default
// registry so tests and binaries can expose exactly this set.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	// Registry is the registry every storefront metric is registered on.
	Registry = prometheus.NewRegistry()

	OrdersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders placed.",
	})

	OrderStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_changes_total",
			Help:      "Order status transitions, by target status.",
		},
		[]string{"status"},
	)

	NotificationsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_emitted_total",
			Help:      "Notifications appended for users, by type.",
		},
		[]string{"type"},
	)

	// StorageRecoveries counts persisted values that failed validation and
	// were replaced by their default.
	StorageRecoveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "recoveries_total",
			Help:      "Corrupt persisted values replaced by defaults, by key.",
		},
		[]string{"key"},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events handed to the publisher, by result.",
		},
		[]string{"result"},
	)

	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "emails_sent_total",
			Help:      "Notification emails attempted, by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		OrdersPlaced,
		OrderStatusChanges,
		NotificationsEmitted,
		StorageRecoveries,
		EventsPublished,
		EmailsSent,
	)
}

// Handler returns the scrape handler for Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
