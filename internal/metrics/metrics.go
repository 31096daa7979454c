// Package metrics expone las métricas Prometheus del servicio.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa todos los colectores. Un *Metrics nil es válido y no registra nada.
type Metrics struct {
	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Búsqueda
	SearchQueriesTotal *prometheus.CounterVec
	SearchResultsTotal prometheus.Counter

	// Sugerencias
	SuggestionRequestsTotal  *prometheus.CounterVec
	SuggestionFallbacksTotal *prometheus.CounterVec
	StarterCacheTotal        *prometheus.CounterVec

	// Access gate
	GateDecisionsTotal *prometheus.CounterVec

	// Base de datos
	DBQueryDuration *prometheus.HistogramVec
}

// NewMetrics crea y registra los colectores en reg. Con reg nil usa el
// registro global de Prometheus.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	m := &Metrics{}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsearch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatsearch_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.HTTPRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatsearch_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	m.SearchQueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsearch_search_queries_total",
			Help: "Total number of chat search queries",
		},
		[]string{"status"},
	)

	m.SearchResultsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "chatsearch_search_results_total",
			Help: "Total number of search results returned",
		},
	)

	m.SuggestionRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsearch_suggestion_requests_total",
			Help: "Total number of suggestion requests by kind and source",
		},
		[]string{"kind", "source"},
	)

	m.SuggestionFallbacksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsearch_suggestion_fallbacks_total",
			Help: "Suggestion requests degraded to the empty or fixed fallback list",
		},
		[]string{"kind"},
	)

	m.StarterCacheTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsearch_starter_cache_total",
			Help: "Starter suggestion cache lookups",
		},
		[]string{"result"},
	)

	m.GateDecisionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsearch_gate_decisions_total",
			Help: "Access gate decisions",
		},
		[]string{"decision"},
	)

	m.DBQueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatsearch_db_query_duration_seconds",
			Help:    "Duration of repository queries in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	return m
}

// RecordHTTPRequest registra una request HTTP terminada.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) RecordSearch(status string, results int) {
	if m == nil {
		return
	}
	m.SearchQueriesTotal.WithLabelValues(status).Inc()
	m.SearchResultsTotal.Add(float64(results))
}

func (m *Metrics) RecordSuggestion(kind, source string) {
	if m == nil {
		return
	}
	m.SuggestionRequestsTotal.WithLabelValues(kind, source).Inc()
}

func (m *Metrics) RecordSuggestionFallback(kind string) {
	if m == nil {
		return
	}
	m.SuggestionFallbacksTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordStarterCache(result string) {
	if m == nil {
		return
	}
	m.StarterCacheTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordGateDecision(decision string) {
	if m == nil {
		return
	}
	m.GateDecisionsTotal.WithLabelValues(decision).Inc()
}

func (m *Metrics) ObserveDBQuery(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
