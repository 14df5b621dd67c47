// Package metrics holds the Prometheus collectors exported by vendsite.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "vendsite"

// Metrics groups the collectors. Each instance owns its registry so tests
// can build as many as they like without duplicate registration panics.
type Metrics struct {
	Registry *prometheus.Registry

	CMSRequests     *prometheus.CounterVec
	CMSDuration     *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	DeprecatedCalls *prometheus.CounterVec
	ContactMessages prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		CMSRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cms_requests_total",
			Help:      "CMS delivery API requests by content type and HTTP status code.",
		}, []string{"content_type", "code"}),
		CMSDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "cms_request_duration_seconds",
			Help:      "CMS delivery API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"content_type"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_lookups_total",
			Help:      "Content cache lookups by result (fresh, stale, miss).",
		}, []string{"result"}),
		DeprecatedCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "deprecated_calls_total",
			Help:      "Calls to operations disabled by the read-only adapters.",
		}, []string{"content_type", "operation"}),
		ContactMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "contact_messages_total",
			Help:      "Contact form submissions accepted.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
