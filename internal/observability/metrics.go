package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes used as the "outcome" label of FetchesTotal.
const (
	OutcomeSuccess        = "success"
	OutcomeHTTPError      = "http_error"
	OutcomeParseError     = "parse_error"
	OutcomeTransportError = "transport_error"
)

// Metrics holds the Prometheus collectors for the weather viewer.
type Metrics struct {
	FetchesTotal       *prometheus.CounterVec   // labels: mode, outcome
	FetchDuration      *prometheus.HistogramVec // labels: mode
	StaleResults       prometheus.Counter
	ValidationFailures *prometheus.CounterVec // labels: reason={empty_city,geolocation_denied}
	SessionsActive     prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchesTotal,
		m.FetchDuration,
		m.StaleResults,
		m.ValidationFailures,
		m.SessionsActive,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_viewer",
			Name:      "fetches_total",
			Help:      "Upstream weather fetches by display mode and outcome.",
		}, []string{"mode", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_viewer",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of an upstream fetch including normalization.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"mode"}),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_viewer",
			Name:      "stale_results_total",
			Help:      "Fetch results discarded because a newer request superseded them.",
		}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_viewer",
			Name:      "validation_failures_total",
			Help:      "Requests rejected before any network call.",
		}, []string{"reason"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_viewer",
			Name:      "sessions_active",
			Help:      "Number of live browser sessions.",
		}),
	}
}
