package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"quizhub/internal/logger"
	"quizhub/internal/metrics"
)

type RouterOptions struct {
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
	CORSOrigins []string
	// Health reports backend readiness for /healthz; nil means always healthy.
	Health func(r *http.Request) error
}

// NewRouter wires the REST API, the live-taking socket and the ops endpoints.
func NewRouter(api *API, ws *WSHandler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP, RequestLogger(opts.Logger), middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if opts.Health != nil {
			if err := opts.Health(req); err != nil {
				opts.Logger.WithError(err).Warn("health check failed")
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	r.Get("/ws/quizzes/{id}", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		api.Routes(r)
	})
	return r
}
