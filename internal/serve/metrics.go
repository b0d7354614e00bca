package serve

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates Prometheus metrics for the preview server.
type Metrics struct {
	rebuilds    *prometheus.CounterVec
	reloadsSent prometheus.Counter
	connections prometheus.Gauge
	connTotal   prometheus.Counter
	requests    *prometheus.CounterVec
}

// NewMetrics registers the serve metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		rebuilds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docsmith",
			Subsystem: "serve",
			Name:      "rebuilds_total",
			Help:      "Rebuilds triggered by source changes, by result.",
		}, []string{"result"}),
		reloadsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "docsmith",
			Subsystem: "serve",
			Name:      "reload_broadcasts_total",
			Help:      "Reload notifications published to the bus.",
		}),
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "docsmith",
			Subsystem: "serve",
			Name:      "livereload_connections",
			Help:      "Currently connected livereload clients.",
		}),
		connTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "docsmith",
			Subsystem: "serve",
			Name:      "livereload_connections_total",
			Help:      "Livereload connections accepted since start.",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docsmith",
			Subsystem: "serve",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by status code.",
		}, []string{"code"}),
	}
}

// RebuildSucceeded records a successful rebuild.
func (m *Metrics) RebuildSucceeded() {
	m.rebuilds.WithLabelValues("success").Inc()
}

// RebuildFailed records a failed rebuild.
func (m *Metrics) RebuildFailed() {
	m.rebuilds.WithLabelValues("failure").Inc()
}

// ReloadPublished records a reload broadcast.
func (m *Metrics) ReloadPublished() {
	m.reloadsSent.Inc()
}

// ConnectionOpened records a new livereload connection.
func (m *Metrics) ConnectionOpened() {
	m.connTotal.Inc()
	m.connections.Inc()
}

// ConnectionClosed records a livereload connection teardown.
func (m *Metrics) ConnectionClosed() {
	m.connections.Dec()
}

// Middleware counts requests by response status code.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		m.requests.WithLabelValues(strconv.Itoa(ww.Status())).Inc()
	})
}
