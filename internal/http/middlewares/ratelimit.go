package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dropDatabas3/ssojohn/internal/observability/logger"
	"github.com/dropDatabas3/ssojohn/internal/rate"
)

// RateKeyFunc deriva la clave de limiting de un request.
type RateKeyFunc func(r *http.Request) string

// IPPathRateKey: IP + path, sin leer el body. Separa los límites por
// endpoint (login vs passwordless) sin depender del contenido.
func IPPathRateKey(r *http.Request) string {
	return clientIP(r) + "|" + r.URL.Path
}

func clientIP(r *http.Request) string {
	// Detrás de proxy: primer hop de X-Forwarded-For.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// WithRateLimit corta con 429 cuando la clave agotó la ventana. Si el
// limiter mismo falla (redis caído) el request PASA: degradar rate
// limiting nunca puede tirar el login.
func WithRateLimit(l rate.Limiter, key RateKeyFunc) Middleware {
	if key == nil {
		key = IPPathRateKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), key(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable, allowing request",
					logger.Component("http.ratelimit"),
					logger.Err(err),
				)
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				if res.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				}
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"Too many attempts, slow down"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
