// Package metrics exposes the Prometheus collectors registered by the
// server: request counts and latencies per operation, and a couple of
// index-shape gauges refreshed on demand. internal/httpapi serves Registry
// at /metrics through promhttp.HandlerFor.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lirsacc/crible/internal/executor"
)

// Registry is the collector registry used by the server; kept distinct
// from prometheus.DefaultRegisterer so tests can spin up independent
// instances without colliding on collector names.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// RequestsTotal counts every operation dispatched through the
	// executor, labeled by operation name and outcome ("ok", "error").
	RequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "crible_requests_total",
		Help: "Total number of operations handled, by operation and outcome.",
	}, []string{"operation", "outcome"})

	// RequestDuration tracks end-to-end operation latency, including time
	// spent waiting for a worker slot.
	RequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crible_request_duration_seconds",
		Help:    "Operation latency in seconds, by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// QueueRejectionsTotal counts admissions refused with
	// executor.ErrTooManyRequests.
	QueueRejectionsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "crible_queue_rejections_total",
		Help: "Total number of operations rejected because the admission queue was full.",
	})

	// IndexProperties reports the current number of distinct properties
	// in the index, refreshed after every mutation made through the HTTP
	// API. A backend reload does not refresh it.
	IndexProperties = factory.NewGauge(prometheus.GaugeOpts{
		Name: "crible_index_properties",
		Help: "Number of distinct properties currently held in the index.",
	})

	// IndexRootCardinality reports the size of the union of every
	// property, i.e. the number of distinct element ids known to the
	// index.
	IndexRootCardinality = factory.NewGauge(prometheus.GaugeOpts{
		Name: "crible_index_root_cardinality",
		Help: "Number of distinct element ids known to the index across all properties.",
	})
)

// ObserveOperation records the outcome and latency of a single operation.
func ObserveOperation(operation string, seconds float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, executor.ErrTooManyRequests) {
			QueueRejectionsTotal.Inc()
		}
	}
	RequestsTotal.WithLabelValues(operation, outcome).Inc()
	RequestDuration.WithLabelValues(operation).Observe(seconds)
}
