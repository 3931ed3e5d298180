// auth.go — обработчики /api/v1/auth endpoints: вход, выход, текущий пользователь.
package handlers

import (
	"net/http"

	apierrors "github.com/Aryan-dev-enth/certificate-manager/internal/api/errors"
	"github.com/Aryan-dev-enth/certificate-manager/internal/api/middleware"
	"github.com/Aryan-dev-enth/certificate-manager/internal/auth"
)

// maxJSONBody — ограничение тела JSON-запросов без строк CSV.
const maxJSONBody = 64 << 10

// Login — POST /api/v1/auth/login.
// Проверяет email и пароль, выставляет cookie сессии и возвращает токен.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req loginRequest
	if msg := decodeJSON(r, &req); msg != "" {
		apierrors.ValidationError(w, msg)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err, "login")
		return
	}

	auth.SetSessionCookie(w, res.Token, res.ExpiresAt, h.opts.SecureCookie)
	writeJSON(w, http.StatusOK, loginResponse{
		User:      mapIdentity(res.Identity),
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	})
}

// Logout — POST /api/v1/auth/logout.
// Удаляет cookie сессии; при действительной сессии пишет LOGOUT в журнал.
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context(), middleware.IdentityFromContext(r.Context()))
	auth.ClearSessionCookie(w, h.opts.SecureCookie)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Выход выполнен"})
}

// Me — GET /api/v1/auth/me.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	if id == nil {
		apierrors.Unauthorized(w, "Требуется вход в систему")
		return
	}
	writeJSON(w, http.StatusOK, mapIdentity(*id))
}
