// Package metrics holds the Prometheus collectors of the server. They are
// registered on the default registry and served by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gophplaces_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	ExternalCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gophplaces_external_calls_total",
			Help: "Calls to geocoding and object storage by outcome",
		},
		[]string{"service", "operation", "outcome"},
	)

	OrphanedObjects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gophplaces_orphaned_objects_total",
			Help: "Remote objects whose best-effort delete failed",
		},
		[]string{"operation"},
	)
)

// Outcome labels for ExternalCalls.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// RecordExternalCall counts one call to an external collaborator.
func RecordExternalCall(service, operation, outcome string) {
	ExternalCalls.WithLabelValues(service, operation, outcome).Inc()
}

// RecordOrphanedObject counts a remote object left behind by operation.
func RecordOrphanedObject(operation string) {
	OrphanedObjects.WithLabelValues(operation).Inc()
}
