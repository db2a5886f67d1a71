package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec
	RateLimitedTotal    prometheus.Counter

	// Geocoding Metrics
	ProviderAttemptsTotal *prometheus.CounterVec
	ProviderDuration      *prometheus.HistogramVec
	PrimaryAvailable      prometheus.Gauge
	GeocodeLookupsTotal   *prometheus.CounterVec

	// Boundary Metrics
	BoundaryChecksTotal *prometheus.CounterVec
	BoundaryParts       prometheus.Gauge
}

// New creates all metrics and registers them with reg.
// A nil reg uses the default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "endpoint", "status"},
		),

		RateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
		),

		// Geocoding Metrics
		ProviderAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geocoder_provider_attempts_total",
				Help: "Total number of geocoding provider attempts",
			},
			[]string{"provider", "outcome"},
		),

		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geocoder_provider_duration_seconds",
				Help:    "Geocoding provider call latency in seconds, including the fallback delay",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 1.5, 2.5, 5, 10},
			},
			[]string{"provider"},
		),

		PrimaryAvailable: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "geocoder_primary_available",
				Help: "1 when the current session probe reached the primary provider",
			},
		),

		GeocodeLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geocoder_lookups_total",
				Help: "Total number of address lookups by final status",
			},
			[]string{"status"},
		),

		// Boundary Metrics
		BoundaryChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boundary_checks_total",
				Help: "Total number of boundary evaluations",
			},
			[]string{"result"},
		),

		BoundaryParts: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "boundary_parts",
				Help: "Number of polygon parts in the loaded boundary",
			},
		),
	}
}
