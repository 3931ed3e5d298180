// health.go — обработчики health endpoints certificate-manager.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (PostgreSQL доступен)
// /metrics — Prometheus метрики
package handlers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aryan-dev-enth/certificate-manager/internal/config"
)

// serviceName — имя сервиса в ответах health.
const serviceName = "certificate-manager"

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
	CheckReady() (status string, message string)
}

// DependencyHealth — последнее состояние зависимостей по данным topologymetrics.
// Реализуется service.DephealthService.
type DependencyHealth interface {
	Health() map[string]bool
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	pgChecker   ReadinessChecker
	deps        DependencyHealth
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// pgChecker может быть nil (readiness вернёт "fail"), deps — nil, если topologymetrics не запущен.
func NewHealthHandler(pgChecker ReadinessChecker, deps DependencyHealth) *HealthHandler {
	return &HealthHandler{
		pgChecker:   pgChecker,
		deps:        deps,
		promHandler: promhttp.Handler(),
	}
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		PostgreSQL healthCheckResult `json:"postgresql"`
	} `json:"checks"`
	Dependencies map[string]bool `json:"dependencies,omitempty"`
}

// HealthLive — liveness probe. Возвращает 200, если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	})
}

// HealthReady — readiness probe. Проверяет PostgreSQL.
// Возвращает 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	if h.pgChecker != nil {
		status, msg := h.pgChecker.CheckReady()
		resp.Checks.PostgreSQL = healthCheckResult{Status: status, Message: msg}
	} else {
		resp.Checks.PostgreSQL = healthCheckResult{Status: "fail", Message: "не инициализирован"}
	}

	if h.deps != nil {
		resp.Dependencies = h.deps.Health()
	}

	resp.Status = overallStatus(resp.Checks.PostgreSQL.Status)

	status := http.StatusOK
	if resp.Status == "fail" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// overallStatus определяет итоговый статус из статусов зависимостей.
// Если хотя бы одна зависимость fail — итог fail.
// Если хотя бы одна degraded — итог degraded.
// Иначе — ok.
func overallStatus(statuses ...string) string {
	hasDegraded := false
	for _, s := range statuses {
		if s == "fail" {
			return "fail"
		}
		if s == "degraded" {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return "degraded"
	}
	return "ok"
}
