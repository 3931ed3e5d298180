package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
)

// AuditLogRepository — журнал аудита (только добавление и чтение).
type AuditLogRepository interface {
	// Create добавляет запись в журнал.
	Create(ctx context.Context, entry *model.AuditLog) error
	// List возвращает последние limit записей, новые первыми.
	List(ctx context.Context, limit int) ([]*model.AuditLog, error)
}

// auditLogRepo — реализация AuditLogRepository.
type auditLogRepo struct {
	db DBTX
}

// NewAuditLogRepository создаёт репозиторий журнала аудита.
func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Create(ctx context.Context, entry *model.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("ошибка кодирования details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, action, user_id, user_email, details, occurred_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.Exec(ctx, query,
		entry.ID, entry.Action, entry.UserID, entry.UserEmail, detailsJSON,
		entry.Timestamp, entry.IPAddress, entry.UserAgent,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: запись аудита с таким ID уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка записи аудита: %w", err)
	}
	return nil
}

func (r *auditLogRepo) List(ctx context.Context, limit int) ([]*model.AuditLog, error) {
	query := `
		SELECT id, action, user_id, user_email, details, occurred_at, ip_address, user_agent
		FROM audit_logs
		ORDER BY occurred_at DESC, id
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения журнала аудита: %w", err)
	}
	defer rows.Close()

	var result []*model.AuditLog
	for rows.Next() {
		e := &model.AuditLog{}
		var details []byte
		if err := rows.Scan(&e.ID, &e.Action, &e.UserID, &e.UserEmail, &details,
			&e.Timestamp, &e.IPAddress, &e.UserAgent); err != nil {
			return nil, fmt.Errorf("ошибка чтения записи аудита: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("ошибка декодирования details: %w", err)
			}
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
