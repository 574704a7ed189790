// README: Prometheus instruments for dispatch outcomes.
package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_requests_total",
			Help: "Ride requests processed, by outcome",
		},
		[]string{"outcome"},
	)

	orphanedRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_orphaned_requests_total",
		Help: "Ride requests persisted without a payment intent",
	})

	advisoryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_advisory_failures_total",
			Help: "Advisory side effects that failed or panicked",
		},
		[]string{"task"},
	)
)
