// Package observability exposes the service's Prometheus instrumentation.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector the service registers. All collectors
// live on a private registry so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec

	ChatRequestsTotal *prometheus.CounterVec
	LLMFailuresTotal  prometheus.Counter

	IngestRunsTotal     prometheus.Counter
	IngestFailuresTotal prometheus.Counter
	GraphNodes          prometheus.Gauge
	GraphEdges          prometheus.Gauge
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	with := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: with.NewCounterVec(prometheus.CounterOpts{
			Name: "ekg_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		HTTPDuration: with.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ekg_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ChatRequestsTotal: with.NewCounterVec(prometheus.CounterOpts{
			Name: "ekg_chat_requests_total",
			Help: "Chat requests by parsed intent",
		}, []string{"intent"}),
		LLMFailuresTotal: with.NewCounter(prometheus.CounterOpts{
			Name: "ekg_llm_failures_total",
			Help: "LLM calls that failed or were rejected by the circuit breaker",
		}),
		IngestRunsTotal: with.NewCounter(prometheus.CounterOpts{
			Name: "ekg_ingest_runs_total",
			Help: "Completed graph ingest runs",
		}),
		IngestFailuresTotal: with.NewCounter(prometheus.CounterOpts{
			Name: "ekg_ingest_failures_total",
			Help: "Graph ingest runs that failed",
		}),
		GraphNodes: with.NewGauge(prometheus.GaugeOpts{
			Name: "ekg_graph_nodes",
			Help: "Nodes currently in the graph",
		}),
		GraphEdges: with.NewGauge(prometheus.GaugeOpts{
			Name: "ekg_graph_edges",
			Help: "Edges currently in the graph",
		}),
	}

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// Handler serves the metrics endpoint for this instance's registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
