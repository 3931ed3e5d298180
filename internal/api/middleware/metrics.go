// metrics.go — Prometheus HTTP метрики certificate-manager.
// Регистрирует метрики: cm_http_requests_total, cm_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cm_http_requests_total",
			Help: "Общее количество HTTP-запросов к certificate-manager",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cm_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к certificate-manager в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			status := strconv.Itoa(wrapped.statusCode)
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// batchesPrefix — префикс путей отдельного пакета.
const batchesPrefix = "/api/v1/batches/"

// normalizePath заменяет идентификатор пакета на {id}, неизвестные пути — на "other",
// чтобы кардинальность метрик не росла.
// /api/v1/batches/a1b2c3d4-.../restore → /api/v1/batches/{id}/restore
func normalizePath(path string) string {
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/openapi.json",
		"/api/v1/auth/login",
		"/api/v1/auth/logout",
		"/api/v1/auth/me",
		"/api/v1/certificates",
		"/api/v1/certificates/export",
		"/api/v1/uploads/parse",
		"/api/v1/uploads/confirm",
		"/api/v1/batches",
		"/api/v1/dashboard/stats",
		"/api/v1/audit-logs":
		return path
	}

	if rest, ok := strings.CutPrefix(path, batchesPrefix); ok && rest != "" {
		if strings.HasSuffix(rest, "/restore") {
			return batchesPrefix + "{id}/restore"
		}
		if !strings.Contains(rest, "/") {
			return batchesPrefix + "{id}"
		}
	}

	return "other"
}
