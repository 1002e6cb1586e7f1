// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DeliveryOutcomes counts per-subscription delivery attempts by outcome reason.
	DeliveryOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "commerce_admin",
		Subsystem: "notify",
		Name:      "delivery_outcomes_total",
		Help:      "Delivery attempts per fan-out invocation, labelled by outcome reason.",
	}, []string{"reason"})

	// PruneFailures counts subscriptions that should have been removed but
	// whose best-effort deletion failed.
	PruneFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "commerce_admin",
		Subsystem: "notify",
		Name:      "prune_failures_total",
		Help:      "Failed best-effort deletions of permanently invalid subscriptions.",
	})

	// Dispatches counts fan-out invocations by final result (ok, invalid_argument, internal).
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "commerce_admin",
		Subsystem: "notify",
		Name:      "dispatches_total",
		Help:      "Fan-out invocations by result.",
	}, []string{"result"})

	// RateLimited counts requests rejected by the API rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "commerce_admin",
		Subsystem: "api",
		Name:      "rate_limited_total",
		Help:      "Requests rejected with 429 by the rate limiter.",
	})
)

// Handler exposes the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
