package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	appmetrics "github.com/turtacn/moldock/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/moldock/internal/interfaces/http/handlers"
	"github.com/turtacn/moldock/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies needed to
// construct the complete HTTP route tree.
type RouterConfig struct {
	DockHandler      *handlers.DockHandler
	StructureHandler *handlers.StructureHandler
	HealthHandler    *handlers.HealthHandler

	Logger  logging.Logger
	Metrics *appmetrics.AppMetrics

	// MetricsGatherer serves /metrics when set.
	MetricsGatherer prometheus.Gatherer

	CORS *middleware.CORSConfig
}

// NewRouter wires global middleware, probe endpoints and the v1 API into a
// single handler suitable for http.Server.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	cors := middleware.DefaultCORSConfig()
	if cfg.CORS != nil {
		cors = *cfg.CORS
	}
	r.Use(middleware.CORS(cors))
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Metrics, middleware.DefaultLoggingConfig()))

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.DockHandler != nil {
			api.Post("/dock", cfg.DockHandler.Dock)
			api.Post("/dock/async", cfg.DockHandler.DockAsync)
		}
		if cfg.StructureHandler != nil {
			api.Get("/structures", cfg.StructureHandler.Get)
		}
	})

	return r
}
