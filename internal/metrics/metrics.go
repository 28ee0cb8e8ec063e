// Package metrics defines the Prometheus collectors of the stop search
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Suggest outcomes.
const (
	OutcomeTooShort = "too_short"
	OutcomeMatched  = "matched"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus collectors for the service. It also
// implements stopsearch.Observer.
type Metrics struct {
	SuggestRequestsTotal *prometheus.CounterVec
	SuggestLatency       prometheus.Histogram
	SuggestResultsCount  prometheus.Histogram
	CatalogLoadsTotal    *prometheus.CounterVec
	CatalogLoadDuration  prometheus.Histogram
	CatalogStops         prometheus.Gauge
	CatalogPrefixBuckets prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates all collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry creates all collectors and registers them with reg. The
// handler serves what gatherer collects.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		SuggestRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stopsearch_suggest_requests_total",
				Help: "Total suggest requests by outcome (too_short, matched, empty, error).",
			},
			[]string{"outcome"},
		),
		SuggestLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stopsearch_suggest_latency_seconds",
				Help:    "Suggest latency in seconds, including a first catalog load.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		SuggestResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stopsearch_suggest_results_count",
				Help:    "Number of suggestions returned per request.",
				Buckets: []float64{0, 1, 5, 10, 20, 30},
			},
		),
		CatalogLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stopsearch_catalog_loads_total",
				Help: "Total catalog load attempts by status.",
			},
			[]string{"status"},
		),
		CatalogLoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stopsearch_catalog_load_duration_seconds",
				Help:    "Time to read the stop dataset and build the prefix index.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
		CatalogStops: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "stopsearch_catalog_stops",
				Help: "Number of stops in the loaded catalog.",
			},
		),
		CatalogPrefixBuckets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "stopsearch_catalog_prefix_buckets",
				Help: "Number of distinct prefixes in the loaded index.",
			},
		),
		gatherer: gatherer,
	}

	reg.MustRegister(
		m.SuggestRequestsTotal,
		m.SuggestLatency,
		m.SuggestResultsCount,
		m.CatalogLoadsTotal,
		m.CatalogLoadDuration,
		m.CatalogStops,
		m.CatalogPrefixBuckets,
	)

	return m
}

// ObserveSuggest records one suggest request.
func (m *Metrics) ObserveSuggest(outcome string, results int, elapsed time.Duration) {
	m.SuggestRequestsTotal.WithLabelValues(outcome).Inc()
	m.SuggestLatency.Observe(elapsed.Seconds())
	if outcome != OutcomeError {
		m.SuggestResultsCount.Observe(float64(results))
	}
}

// CatalogLoaded records a successful catalog build.
func (m *Metrics) CatalogLoaded(stops, buckets int, elapsed time.Duration) {
	m.CatalogLoadsTotal.WithLabelValues("success").Inc()
	m.CatalogLoadDuration.Observe(elapsed.Seconds())
	m.CatalogStops.Set(float64(stops))
	m.CatalogPrefixBuckets.Set(float64(buckets))
}

// CatalogLoadFailed records a failed catalog build.
func (m *Metrics) CatalogLoadFailed(error) {
	m.CatalogLoadsTotal.WithLabelValues("failure").Inc()
}

// Handler returns the Prometheus scrape HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
