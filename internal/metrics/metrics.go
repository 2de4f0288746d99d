// Package metrics exposes Prometheus collectors for list view loads and
// the collection cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"oldphonedeals/internal/listview"
)

const namespace = "oldphonedeals"

// Metrics owns a dedicated registry so tests can create as many as they
// like.
type Metrics struct {
	registry *prometheus.Registry

	loads    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
	mounted  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listview",
			Name:      "loads_total",
			Help:      "List view loads by view, strategy and outcome.",
		}, []string{"view", "strategy", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "listview",
			Name:      "load_seconds",
			Help:      "Time spent fetching a list view page.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"view", "strategy"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Collection cache lookups by result.",
		}, []string{"result"}),
		mounted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "listview",
			Name:      "mounted",
			Help:      "Currently mounted list views.",
		}),
	}
	m.registry.MustRegister(m.loads, m.duration, m.cache, m.mounted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveLoad implements listview.Observer.
func (m *Metrics) ObserveLoad(view string, strategy listview.Strategy, outcome listview.Outcome, elapsed time.Duration) {
	m.loads.WithLabelValues(view, string(strategy), string(outcome)).Inc()
	if outcome == listview.OutcomeOK {
		m.duration.WithLabelValues(view, string(strategy)).Observe(elapsed.Seconds())
	}
}

// ObserveCache implements cache.Observer.
func (m *Metrics) ObserveCache(result string) {
	m.cache.WithLabelValues(result).Inc()
}

// SetMounted records the number of mounted views.
func (m *Metrics) SetMounted(n int) {
	m.mounted.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
