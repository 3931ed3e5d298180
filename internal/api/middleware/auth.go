// auth.go — middleware сессий certificate-manager.
// Извлекает токен из cookie auth-token или заголовка Authorization,
// проверяет подпись и помещает Identity в контекст запроса.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/Aryan-dev-enth/certificate-manager/internal/api/errors"
	"github.com/Aryan-dev-enth/certificate-manager/internal/auth"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyIdentity — пользователь сессии в контексте запроса.
const ContextKeyIdentity contextKey = "identity"

// TokenVerifier проверяет токен сессии.
// Реализуется auth.TokenManager.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*model.Identity, error)
}

// SessionAuth — middleware аутентификации по токену сессии.
type SessionAuth struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewSessionAuth создаёт middleware сессий.
func NewSessionAuth(verifier TokenVerifier, logger *slog.Logger) *SessionAuth {
	return &SessionAuth{
		verifier: verifier,
		logger:   logger.With(slog.String("component", "session_auth")),
	}
}

// Middleware помещает Identity в контекст по первому действительному токену
// (заголовок Authorization, затем cookie).
// Запрос без токена или с невалидными токенами проходит дальше без Identity:
// доступ проверяет RequireAuth.
func (a *SessionAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, token := range auth.TokensFromRequest(r) {
				id, err := a.verifier.Verify(r.Context(), token)
				if err != nil {
					a.logger.Debug("Токен сессии не прошёл проверку",
						slog.String("error", err.Error()),
						slog.String("remote_addr", r.RemoteAddr),
					)
					continue
				}
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth возвращает 401, если в контексте нет Identity.
// Должен использоваться ПОСЛЕ SessionAuth.Middleware().
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IdentityFromContext(r.Context()) == nil {
				apierrors.Unauthorized(w, "Требуется вход в систему")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- Context helpers ---

// WithIdentity помещает Identity в контекст.
func WithIdentity(ctx context.Context, id *model.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, id)
}

// IdentityFromContext извлекает Identity из контекста запроса.
// Возвращает nil, если сессии нет.
func IdentityFromContext(ctx context.Context) *model.Identity {
	id, _ := ctx.Value(ContextKeyIdentity).(*model.Identity)
	return id
}
