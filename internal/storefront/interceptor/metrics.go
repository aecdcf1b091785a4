package interceptor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routing rules and the source that answered a request.
const (
	ruleRealtime  = "realtime"
	ruleOrderList = "order_list"
	ruleDefault   = "default"

	sourceCache   = "cache"
	sourceNetwork = "network"
	sourceCanned  = "canned"
	sourceOffline = "offline"
	sourceError   = "error"
)

// Metrics counts routing decisions and lifecycle transitions.
type Metrics struct {
	Fetches   *prometheus.CounterVec
	Lifecycle *prometheus.CounterVec
	Precached prometheus.Counter
}

// NewMetrics registers the interceptor collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ruchi",
		Subsystem: "interceptor",
		Name:      "fetches_total",
		Help:      "Requests handled by the active worker, by routing rule and answering source.",
	}, []string{"rule", "source"})
	lifecycle := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ruchi",
		Subsystem: "interceptor",
		Name:      "lifecycle_events_total",
		Help:      "Worker lifecycle transitions.",
	}, []string{"event"})
	precached := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ruchi",
		Subsystem: "interceptor",
		Name:      "precached_assets_total",
		Help:      "Assets stored during install.",
	})
	if reg != nil {
		reg.MustRegister(fetches, lifecycle, precached)
	}
	return &Metrics{Fetches: fetches, Lifecycle: lifecycle, Precached: precached}
}

// Handler exposes the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) fetch(rule, source string) {
	if m != nil {
		m.Fetches.WithLabelValues(rule, source).Inc()
	}
}

func (m *Metrics) event(name string) {
	if m != nil {
		m.Lifecycle.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) recordPrecached(n int) {
	if m != nil {
		m.Precached.Add(float64(n))
	}
}
