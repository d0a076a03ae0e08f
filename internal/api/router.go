// Package api serves the results endpoint and its operational routes.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/cazamitos/cazamitos/internal/results"
)

// ResultsPath is the submission route.
const ResultsPath = "/api/guardar-resultados"

// Deps are the collaborators the router needs.
type Deps struct {
	Results *results.Service
	Metrics *Metrics
	Logger  *zap.Logger
}

// NewRouter builds the HTTP handler.
func NewRouter(cfg Config, deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(deps.Logger), middleware.Recoverer)
	r.Use(deps.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	h := &handlers{
		results: deps.Results,
		metrics: deps.Metrics,
		logger:  deps.Logger,
		debug:   cfg.Debug(),
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		if cfg.RateLimit > 0 {
			r.Use(newIPLimiter(cfg.RateLimit).middleware)
		}
		// Every method is routed here so the handler can answer 405 in
		// the endpoint's own format.
		r.HandleFunc(ResultsPath, h.saveResults)
	})

	if cfg.MaterialsDir != "" {
		r.Get("/api/materials", h.materials(cfg.MaterialsDir))
	}
	return r
}
