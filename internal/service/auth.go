// auth.go — вход по фиксированным учётным записям и выход.
package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Aryan-dev-enth/certificate-manager/internal/config"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/rbac"
)

// TokenIssuer выпускает токен сессии для пользователя.
type TokenIssuer interface {
	Issue(id model.Identity) (token string, expiresAt time.Time, err error)
}

// LoginResult — результат успешного входа.
type LoginResult struct {
	Identity  model.Identity
	Token     string
	ExpiresAt time.Time
}

// AuthService — аутентификация по фиксированным учётным записям.
type AuthService struct {
	passwords       map[string]string
	superAdminEmail string
	tokens          TokenIssuer
	audit           *AuditService
	logger          *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
// Учётные записи без пароля войти не могут.
func NewAuthService(
	accounts []config.Account,
	superAdminEmail string,
	tokens TokenIssuer,
	audit *AuditService,
	logger *slog.Logger,
) *AuthService {
	passwords := make(map[string]string, len(accounts))
	for _, a := range accounts {
		passwords[normalizeEmail(a.Email)] = a.Password
	}
	return &AuthService{
		passwords:       passwords,
		superAdminEmail: normalizeEmail(superAdminEmail),
		tokens:          tokens,
		audit:           audit,
		logger:          logger.With(slog.String("component", "auth_service")),
	}
}

// Login проверяет email и пароль, выпускает токен и пишет LOGIN в журнал.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)

	stored, ok := s.passwords[email]
	if !ok || stored == "" || !passwordMatches(stored, password) {
		s.logger.Warn("Неудачная попытка входа", slog.String("email", email))
		return nil, ErrInvalidCredentials
	}

	id := rbac.NewIdentity(email, s.superAdminEmail)
	token, expiresAt, err := s.tokens.Issue(id)
	if err != nil {
		return nil, fmt.Errorf("выпуск токена: %w", err)
	}

	s.audit.Record(ctx, model.AuditLogin, id, map[string]any{"role": id.Role})
	s.logger.Info("Пользователь вошёл",
		slog.String("email", id.Email),
		slog.String("role", id.Role),
	)

	return &LoginResult{Identity: id, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout пишет LOGOUT в журнал, если сессия была действительна.
func (s *AuthService) Logout(ctx context.Context, actor *model.Identity) {
	if actor == nil {
		return
	}
	s.audit.Record(ctx, model.AuditLogout, *actor, map[string]any{})
	s.logger.Info("Пользователь вышел", slog.String("email", actor.Email))
}

// passwordMatches сравнивает пароль с сохранённым значением.
// Значение с префиксом bcrypt проверяется как хеш, иначе — сравнение за постоянное время.
func passwordMatches(stored, password string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
