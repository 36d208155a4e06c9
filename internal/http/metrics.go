package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/ssojohn/internal/http/middlewares"
)

var (
	metricsOnce sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	loginAttemptsTotal    *prometheus.CounterVec
	tokenPairsIssuedTotal *prometheus.CounterVec
	codesIssuedTotal      prometheus.Counter
)

// RegisterMetrics registra las métricas del broker y devuelve el
// handler para /metrics. Idempotente.
func RegisterMetrics(reg prometheus.Registerer) http.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		loginAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Intentos de login por flujo y resultado",
		}, []string{"flow", "result"}) // flow: password|passwordless|refresh

		tokenPairsIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_pairs_issued_total",
			Help: "Pares access/refresh emitidos por flujo",
		}, []string{"flow"})

		codesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_passwordless_codes_issued_total",
			Help: "Códigos passwordless emitidos",
		})

		reg.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			loginAttemptsTotal,
			tokenPairsIssuedTotal,
			codesIssuedTotal,
		)
	})
	return promhttp.Handler()
}

func observeLogin(flow, result string) {
	if loginAttemptsTotal == nil {
		return
	}
	loginAttemptsTotal.WithLabelValues(flow, result).Inc()
	if result == "ok" {
		tokenPairsIssuedTotal.WithLabelValues(flow).Inc()
	}
}

func observeCodeIssued() {
	if codesIssuedTotal != nil {
		codesIssuedTotal.Inc()
	}
}

// WithMetrics instrumenta cada request. El label de path usa la ruta
// declarada, no la URL cruda, así la cardinalidad queda acotada.
func WithMetrics() middlewares.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpRequestsTotal == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &metricsRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			path := r.URL.Path
			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type metricsRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (m *metricsRecorder) WriteHeader(code int) {
	if !m.wroteHeader {
		m.status = code
		m.wroteHeader = true
	}
	m.ResponseWriter.WriteHeader(code)
}
