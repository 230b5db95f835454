package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tendant/lost-and-found/pkg/lostfound"
)

// Metrics holds the Prometheus collectors for the HTTP layer and item
// lifecycle. A nil *Metrics records nothing.
type Metrics struct {
	reqTotal     *prometheus.CounterVec
	reqLatency   *prometheus.HistogramVec
	itemsCreated *prometheus.CounterVec
	itemsDeleted prometheus.Counter
	rejections   *prometheus.CounterVec
	registry     *prometheus.Registry
}

// NewMetrics creates a new Metrics instance with a private Prometheus registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		reqTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		reqLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		itemsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lostfound_items_created_total",
				Help: "Items created, by whether an image was attached",
			},
			[]string{"image"},
		),
		itemsDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lostfound_items_deleted_total",
				Help: "Items deleted",
			},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lostfound_create_rejections_total",
				Help: "Create requests rejected, by reason",
			},
			[]string{"reason"},
		),
		registry: registry,
	}

	registry.MustRegister(m.reqTotal, m.reqLatency, m.itemsCreated, m.itemsDeleted, m.rejections)
	return m
}

// Middleware returns a chi middleware that collects request metrics
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			// Route patterns keep item IDs and filenames out of the labels
			path := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}

			status := http.StatusText(rw.statusCode)
			m.reqTotal.WithLabelValues(r.Method, path, status).Inc()
			m.reqLatency.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler returns an http.Handler that serves Prometheus metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the private registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) created(item *lostfound.Item) {
	if m == nil {
		return
	}
	label := "false"
	if item.HasImage() {
		label = "true"
	}
	m.itemsCreated.WithLabelValues(label).Inc()
}

func (m *Metrics) deleted() {
	if m == nil {
		return
	}
	m.itemsDeleted.Inc()
}

func (m *Metrics) rejected(err error) {
	if m == nil {
		return
	}
	var validationErr *lostfound.ValidationError
	reason := "error"
	switch {
	case errors.As(err, &validationErr):
		reason = "missing_fields"
	case errors.Is(err, lostfound.ErrInvalidAssetType):
		reason = "invalid_type"
	case errors.Is(err, lostfound.ErrAssetTooLarge):
		reason = "too_large"
	case errors.Is(err, errBadRequestBody):
		reason = "bad_body"
	}
	m.rejections.WithLabelValues(reason).Inc()
}
