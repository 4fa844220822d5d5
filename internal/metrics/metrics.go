// Package metrics holds the Prometheus instruments relmap exposes on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every instrument on a private registry. All methods are
// safe on a nil receiver, which records nothing.
type Collector struct {
	registry *prometheus.Registry

	Mutations    *prometheus.CounterVec
	Undos        prometheus.Counter
	Redos        prometheus.Counter
	HistoryDepth prometheus.Gauge
	Persists     *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates a collector with its own registry.
func New(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	mutations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Snapshot mutations pushed onto the history, by operation",
		},
		[]string{"op"},
	)
	undos := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "undo_total",
		Help:      "Successful undo steps",
	})
	redos := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "redo_total",
		Help:      "Successful redo steps",
	})
	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "history_entries",
		Help:      "Entries currently held in the undo log",
	})
	persists := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_total",
			Help:      "Snapshot persistence attempts, by result",
		},
		[]string{"result"},
	)
	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	registry.MustRegister(mutations, undos, redos, depth, persists, httpRequests, httpDuration)

	return &Collector{
		registry:     registry,
		Mutations:    mutations,
		Undos:        undos,
		Redos:        redos,
		HistoryDepth: depth,
		Persists:     persists,
		HTTPRequests: httpRequests,
		HTTPDuration: httpDuration,
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Mutation(op string, depth int) {
	if c == nil {
		return
	}
	c.Mutations.WithLabelValues(op).Inc()
	c.HistoryDepth.Set(float64(depth))
}

func (c *Collector) Undo() {
	if c != nil {
		c.Undos.Inc()
	}
}

func (c *Collector) Redo() {
	if c != nil {
		c.Redos.Inc()
	}
}

// Persisted records the outcome of one save.
func (c *Collector) Persisted(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Persists.WithLabelValues(result).Inc()
}

// Request records one served HTTP request.
func (c *Collector) Request(method, route, status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
