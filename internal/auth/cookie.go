package auth

import (
	"net/http"
	"strings"
	"time"
)

// CookieName — имя cookie с токеном сессии.
const CookieName = "auth-token"

// SetSessionCookie устанавливает HttpOnly cookie с токеном.
func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie удаляет cookie сессии.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokensFromRequest возвращает токены запроса в порядке проверки:
// сначала из заголовка Authorization: Bearer, затем из cookie.
// Одинаковые значения не повторяются; без токенов — nil.
func TokensFromRequest(r *http.Request) []string {
	var tokens []string

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		if t := strings.TrimSpace(parts[1]); t != "" {
			tokens = append(tokens, t)
		}
	}

	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if len(tokens) == 0 || tokens[0] != c.Value {
			tokens = append(tokens, c.Value)
		}
	}
	return tokens
}
