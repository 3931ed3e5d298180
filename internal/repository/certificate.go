package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
)

// CertificateRepository — чтение таблицы certificates.
// Все запросы учитывают только сертификаты неудалённых пакетов.
type CertificateRepository interface {
	// List возвращает сертификаты по фильтру: uploaded_at по убыванию, затем порядок вставки.
	List(ctx context.Context, filter model.CertificateFilter, limit, offset int) ([]*model.Certificate, error)
	// Count возвращает количество сертификатов по фильтру.
	Count(ctx context.Context, filter model.CertificateFilter) (int64, error)
	// CountByUploader группирует сертификаты по загрузившему, по убыванию количества.
	CountByUploader(ctx context.Context) ([]model.GroupCount, error)
	// CountByEvent группирует сертификаты по мероприятию, по убыванию количества, не более limit групп.
	CountByEvent(ctx context.Context, limit int) ([]model.GroupCount, error)
}

// certificateRepo — реализация CertificateRepository.
type certificateRepo struct {
	db DBTX
}

// NewCertificateRepository создаёт репозиторий сертификатов.
func NewCertificateRepository(db DBTX) CertificateRepository {
	return &certificateRepo{db: db}
}

// certificateFilterColumns — соответствие полей фильтра колонкам таблицы.
// Порядок фиксирован, чтобы номера параметров были стабильны.
var certificateFilterColumns = []struct {
	column string
	value  func(f model.CertificateFilter) string
}{
	{"c.name", func(f model.CertificateFilter) string { return f.Name }},
	{"c.roll_no", func(f model.CertificateFilter) string { return f.RollNo }},
	{"c.event", func(f model.CertificateFilter) string { return f.Event }},
	{"c.event_date", func(f model.CertificateFilter) string { return f.Date }},
	{"c.uploaded_by", func(f model.CertificateFilter) string { return f.UploadedBy }},
	{"c.certificate_no", func(f model.CertificateFilter) string { return f.CertificateNo }},
}

// buildCertificateWhere строит WHERE-условие и аргументы для фильтрации сертификатов.
// Каждое непустое текстовое поле — ILIKE по подстроке, BatchID — равенство
// (некорректный UUID не совпадает ни с чем); условия объединяются через AND.
func buildCertificateWhere(filter model.CertificateFilter, startArg int) (string, []any) {
	conditions := []string{"b.is_deleted = FALSE"}
	var args []any
	argNum := startArg

	for _, fc := range certificateFilterColumns {
		v := strings.TrimSpace(fc.value(filter))
		if v == "" {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", fc.column, argNum))
		args = append(args, containsPattern(v))
		argNum++
	}

	if id := strings.TrimSpace(filter.BatchID); id != "" {
		if !isUUID(id) {
			conditions = append(conditions, "FALSE")
		} else {
			conditions = append(conditions, fmt.Sprintf("c.batch_id = $%d", argNum))
			args = append(args, id)
		}
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

const certificateFrom = `FROM certificates c JOIN upload_batches b ON b.id = c.batch_id`

func (r *certificateRepo) List(ctx context.Context, filter model.CertificateFilter, limit, offset int) ([]*model.Certificate, error) {
	where, args := buildCertificateWhere(filter, 1)
	argNum := len(args) + 1

	query := fmt.Sprintf(`
		SELECT c.id, c.batch_id, c.certificate_no, c.name, c.roll_no, c.event, c.event_date,
			c.uploaded_by, c.uploaded_at, c.additional_data, c.created_at, c.updated_at
		%s
		%s
		ORDER BY c.uploaded_at DESC, c.seq ASC
		LIMIT $%d OFFSET $%d`, certificateFrom, where, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка сертификатов: %w", err)
	}
	defer rows.Close()

	var result []*model.Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *certificateRepo) Count(ctx context.Context, filter model.CertificateFilter) (int64, error) {
	where, args := buildCertificateWhere(filter, 1)
	query := fmt.Sprintf(`SELECT COUNT(*) %s %s`, certificateFrom, where)

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта сертификатов: %w", err)
	}
	return count, nil
}

func (r *certificateRepo) CountByUploader(ctx context.Context) ([]model.GroupCount, error) {
	query := fmt.Sprintf(`
		SELECT c.uploaded_by, COUNT(*) AS cnt
		%s
		WHERE b.is_deleted = FALSE
		GROUP BY c.uploaded_by
		ORDER BY cnt DESC, c.uploaded_by ASC`, certificateFrom)

	return r.groupCounts(ctx, query)
}

func (r *certificateRepo) CountByEvent(ctx context.Context, limit int) ([]model.GroupCount, error) {
	query := fmt.Sprintf(`
		SELECT c.event, COUNT(*) AS cnt
		%s
		WHERE b.is_deleted = FALSE
		GROUP BY c.event
		ORDER BY cnt DESC, c.event ASC
		LIMIT $1`, certificateFrom)

	return r.groupCounts(ctx, query, limit)
}

// groupCounts выполняет запрос вида (ключ, количество).
func (r *certificateRepo) groupCounts(ctx context.Context, query string, args ...any) ([]model.GroupCount, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка агрегации сертификатов: %w", err)
	}
	defer rows.Close()

	result := []model.GroupCount{}
	for rows.Next() {
		var g model.GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, fmt.Errorf("ошибка чтения агрегата: %w", err)
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// scanCertificate сканирует строку сертификата.
func scanCertificate(row pgx.Row) (*model.Certificate, error) {
	c := &model.Certificate{}
	var extra []byte
	err := row.Scan(
		&c.ID, &c.BatchID, &c.CertificateNo, &c.Name, &c.RollNo, &c.Event, &c.Date,
		&c.UploadedBy, &c.UploadedAt, &extra, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сертификата: %w", err)
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &c.AdditionalData); err != nil {
			return nil, fmt.Errorf("ошибка декодирования additional_data: %w", err)
		}
	}
	return c, nil
}
