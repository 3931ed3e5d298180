// dashboard.go — обработчики статистики dashboard и журнала аудита.
package handlers

import (
	"net/http"

	apierrors "github.com/Aryan-dev-enth/certificate-manager/internal/api/errors"
	"github.com/Aryan-dev-enth/certificate-manager/internal/api/middleware"
)

// DashboardStats — GET /api/v1/dashboard/stats.
// Ошибки хранилища не возвращаются: статистика деградирует до нулевой.
func (h *APIHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapDashboard(h.query.DashboardStats(r.Context())))
}

// ListAuditLogs — GET /api/v1/audit-logs.
// Последние записи журнала, только суперадминистратор.
func (h *APIHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	logs, err := h.audit.List(r.Context(), middleware.IdentityFromContext(r.Context()), limit)
	if err != nil {
		h.writeServiceError(w, err, "list_audit_logs")
		return
	}

	items := make([]auditLogResponse, len(logs))
	for i, e := range logs {
		items[i] = mapAuditLog(e)
	}
	writeJSON(w, http.StatusOK, auditLogListResponse{Logs: items})
}
