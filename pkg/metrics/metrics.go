// Package metrics holds the Prometheus collectors of the service.
//
// Collectors live on a private registry that the kernel exposes:
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", "metrics", metrics.Handler())
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fashioncraft"

// DefaultRegistry holds every collector exposed on /metrics.
var DefaultRegistry = prometheus.NewRegistry()

var factory = promauto.With(DefaultRegistry)

func init() {
	DefaultRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ─── http ────────────────────────────────────────────────────────────────────

var (
	// RequestDuration and RequestTotal are labelled with the chi route
	// pattern so order ids stay out of the label set.
	RequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
		Help:    "Latency of API requests by route.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"method", "route", "status"})

	RequestTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "http", Name: "requests_total",
		Help: "API requests by route and status.",
	}, []string{"method", "route", "status"})

	RequestInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "http", Name: "requests_in_flight",
		Help: "API requests being served.",
	})

	// ResponseSize buckets go up to a few MB for preview downloads.
	ResponseSize = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "http", Name: "response_size_bytes",
		Help:    "Size of API response bodies.",
		Buckets: prometheus.ExponentialBuckets(64, 4, 9),
	}, []string{"method", "route"})

	RateLimited = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "http", Name: "rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})

	Panics = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "http", Name: "panics_total",
		Help: "Handler panics answered with a 500.",
	})
)

// ─── domain ──────────────────────────────────────────────────────────────────

var (
	// StoreDuration is labelled by outcome: ok, not_found or error.
	StoreDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "store", Name: "operation_duration_seconds",
		Help:    "Latency of repository calls by driver and operation.",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, 1},
	}, []string{"driver", "operation", "outcome"})

	AuthAttempts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "auth", Name: "attempts_total",
		Help: "Registrations and logins by outcome.",
	}, []string{"action", "outcome"})

	// OrderMutations is labelled create, update, delete or preview.
	OrderMutations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "orders", Name: "mutations_total",
		Help: "Successful order writes by operation.",
	}, []string{"operation"})
)

// ObserveStore records one repository call:
//
//	defer func(start time.Time) { metrics.ObserveStore("mongo", "create", outcome, start) }(time.Now())
func ObserveStore(driver, operation, outcome string, start time.Time) {
	StoreDuration.WithLabelValues(driver, operation, outcome).Observe(time.Since(start).Seconds())
}

// RecordAuth counts an auth attempt.
func RecordAuth(action, outcome string) {
	AuthAttempts.WithLabelValues(action, outcome).Inc()
}

// RecordOrderMutation counts a successful order write.
func RecordOrderMutation(operation string) {
	OrderMutations.WithLabelValues(operation).Inc()
}
