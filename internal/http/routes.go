package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/ssojohn/internal/http/middlewares"
	"github.com/dropDatabas3/ssojohn/internal/rate"
)

// ReadyChecker reporta si las dependencias del proceso (storage) están
// accesibles.
type ReadyChecker func(ctx context.Context) error

type RouterConfig struct {
	Handlers *Handlers
	Ready    ReadyChecker

	// Limiters por grupo de endpoints; nil = sin límite.
	LoginLimiter        rate.Limiter
	PasswordlessLimiter rate.Limiter

	Metrics prometheus.Registerer
}

// NewRouter arma el árbol de rutas con los middlewares base.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithLogging())
	r.Use(WithMetrics())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Ready != nil {
			if err := cfg.Ready(req.Context()); err != nil {
				WriteError(w, http.StatusServiceUnavailable, "not_ready", "storage unavailable")
				return
			}
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Method(http.MethodGet, "/metrics", RegisterMetrics(cfg.Metrics))

	r.Route("/v1/auth", func(r chi.Router) {
		login := limited(cfg.LoginLimiter)
		pla := limited(cfg.PasswordlessLimiter)

		r.With(login).Post("/mfa-status", cfg.Handlers.MFAStatus)
		r.With(login).Post("/login", cfg.Handlers.Login)
		r.Post("/refresh", cfg.Handlers.Refresh)
		r.With(pla).Post("/passwordless/start", cfg.Handlers.PasswordlessStart)
		r.With(pla).Post("/passwordless/complete", cfg.Handlers.PasswordlessComplete)
	})

	return r
}

// limited devuelve el middleware de rate limit, o un passthrough si no
// hay limiter configurado.
func limited(l rate.Limiter) middlewares.Middleware {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middlewares.WithRateLimit(l, middlewares.IPPathRateKey)
}
