// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/siteforms/internal/adapters/repository"
	"github.com/okian/siteforms/pkg/logger"
	"github.com/okian/siteforms/pkg/metrics"
)

// Route paths.
const (
	RouteContact    = "/api/contact"
	RouteWorkWithUs = "/api/work-with-us"
	RouteSubscribe  = "/api/subscribe"
	RouteHealth     = "/healthz"
	RouteMetrics    = "/metrics"
)

const corsMaxAge = 300

// Dependencies required by HTTP handlers: the active store plus a health probe.
type Dependencies interface {
	repository.Store
	HealthReporter
}

// Server wires HTTP routes for the form API.
type Server struct {
	forms          *FormsHandler
	health         *HealthHandler
	allowedOrigins []string
	now            func() time.Time
	logger         logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		allowedOrigins: []string{"*"},
		now:            time.Now,
		logger:         logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.forms = NewFormsHandler(deps, s.now, s.logger)
	s.health = NewHealthHandler(deps)
	return s
}

// Router builds a chi router with every route attached.
func (s *Server) Router(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.CORS())
	s.Register(ctx, r)
	return r
}

// CORS returns the cross-origin middleware for the form routes.
// It must be installed with Use so preflight requests reach it.
func (s *Server) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         corsMaxAge,
	})
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(ctx context.Context, r chi.Router) {
	r.Get(RouteHealth, MetricsMiddleware(s.health.HandleHealth, "healthz"))
	r.Handle(RouteMetrics, promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Post(RouteContact, MetricsMiddleware(s.forms.HandleContact, RouteContact))
	r.Post(RouteWorkWithUs, MetricsMiddleware(s.forms.HandleWorkWithUs, RouteWorkWithUs))
	r.Post(RouteSubscribe, MetricsMiddleware(s.forms.HandleSubscribe, RouteSubscribe))

	s.logger.Debug(ctx, "routes registered", logger.Any("origins", s.allowedOrigins))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
