package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tendant/lost-and-found/pkg/lostfound"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Service    lostfound.Service
	Assets     lostfound.AssetStore
	Repository Pinger

	// MaxUploadSize bounds image uploads; zero keeps the default.
	MaxUploadSize int64
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
	// ExposeErrors includes internal error text in 500 bodies.
	ExposeErrors bool
	// Metrics enables /metrics when set.
	Metrics *Metrics
}

// NewRouter builds the HTTP handler for the service.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	opts := []ItemHandlerOption{
		WithErrorDetail(cfg.ExposeErrors),
		WithMetrics(cfg.Metrics),
	}
	if cfg.MaxUploadSize > 0 {
		opts = append(opts, WithMaxUploadSize(cfg.MaxUploadSize))
	}
	items := NewItemHandler(cfg.Service, opts...)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Mount("/item", items.Routes())
	})
	r.Mount("/files", NewFilesHandler(cfg.Assets).Routes())

	if cfg.Repository != nil {
		r.Get("/health", HealthHandler(cfg.Repository))
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	return r
}
