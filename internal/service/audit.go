// audit.go — журнал аудита действий пользователей.
// Запись best-effort: сбой журнала не прерывает основную операцию.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/rbac"
	"github.com/Aryan-dev-enth/certificate-manager/internal/repository"
)

// Ограничения выдачи журнала.
const (
	DefaultAuditLimit = 100
	MaxAuditLimit     = 1000
)

// AuditService — запись и чтение журнала аудита.
type AuditService struct {
	repo   repository.AuditLogRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditService создаёт сервис журнала аудита.
func NewAuditService(repo repository.AuditLogRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger.With(slog.String("component", "audit_service")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record добавляет запись в журнал. Ошибка записи логируется и не возвращается.
// IP и User-Agent берутся из контекста запроса.
func (s *AuditService) Record(ctx context.Context, action string, actor model.Identity, details map[string]any) {
	entry := &model.AuditLog{
		Action:    action,
		UserID:    actor.Email,
		UserEmail: actor.Email,
		Details:   details,
		Timestamp: s.now(),
	}
	if meta, ok := RequestMetaFromContext(ctx); ok {
		if meta.IPAddress != "" {
			entry.IPAddress = &meta.IPAddress
		}
		if meta.UserAgent != "" {
			entry.UserAgent = &meta.UserAgent
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("Ошибка записи в журнал аудита",
			slog.String("action", action),
			slog.String("user", actor.Email),
			slog.String("error", err.Error()),
		)
	}
}

// List возвращает последние записи журнала. Доступно только суперадминистратору.
func (s *AuditService) List(ctx context.Context, actor *model.Identity, limit int) ([]*model.AuditLog, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if !rbac.CanViewAudit(actor) {
		return nil, ErrForbidden
	}

	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}

	logs, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("получение журнала аудита: %w", err)
	}
	return logs, nil
}
