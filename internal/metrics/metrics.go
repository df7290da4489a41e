// Package metrics exposes Prometheus metrics for the HTTP API and the tracker store.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/tracker"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	commitsTotal    *prometheus.CounterVec
	applications    *prometheus.GaugeVec
	folders         prometheus.Gauge
}

// New registers the Go and process collectors plus the clovern metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		commitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clovern_commits_total",
				Help: "Committed document changes by kind and save outcome",
			},
			[]string{"kind", "saved"},
		),
		applications: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clovern_applications",
				Help: "Tracked applications by status",
			},
			[]string{"status"},
		),
		folders: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "clovern_folders",
				Help: "Number of folders",
			},
		),
	}
	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.requestsTotal, m.requestDuration, m.commitsTotal, m.applications, m.folders,
	)
	return m
}

// TrackSubscribers exports the live count of event stream clients.
func (m *Metrics) TrackSubscribers(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "clovern_event_subscribers",
			Help: "Connected server-sent event clients",
		},
		func() float64 { return float64(count()) },
	))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency by chi route pattern, so
// ids in the path do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Observe counts a committed change and refreshes the document gauges.
// Its signature matches tracker.Observer.
func (m *Metrics) Observe(_ context.Context, change tracker.Change, doc *models.Document) {
	m.commitsTotal.WithLabelValues(change.Kind, strconv.FormatBool(change.Saved)).Inc()
	m.SetDocument(doc)
}

// SetDocument sets the application and folder gauges from doc.
func (m *Metrics) SetDocument(doc *models.Document) {
	counts := make(map[models.Status]int, len(models.Statuses))
	for _, a := range doc.Applications {
		counts[a.Status]++
	}
	for _, st := range models.Statuses {
		m.applications.WithLabelValues(string(st)).Set(float64(counts[st]))
	}
	m.folders.Set(float64(len(doc.Folders)))
}
