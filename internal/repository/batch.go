package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
)

// BatchRepository — интерфейс для таблицы upload_batches.
type BatchRepository interface {
	// Create атомарно сохраняет пакет и все его сертификаты.
	Create(ctx context.Context, batch *model.UploadBatch, certs []*model.Certificate) error
	// GetByID возвращает пакет по UUID (в том числе удалённый).
	GetByID(ctx context.Context, id string) (*model.UploadBatch, error)
	// List возвращает пакеты по убыванию времени загрузки.
	List(ctx context.Context, includeDeleted bool, limit int) ([]*model.UploadBatch, error)
	// CountActive возвращает количество неудалённых пакетов.
	CountActive(ctx context.Context) (int64, error)
	// SoftDelete помечает пакет удалённым. Повторный вызов состояние не меняет.
	SoftDelete(ctx context.Context, id, deletedBy string, deletedAt time.Time) (*model.UploadBatch, error)
	// Restore снимает пометку удаления. Повторный вызов состояние не меняет.
	Restore(ctx context.Context, id string) (*model.UploadBatch, error)
}

// batchRepo — реализация BatchRepository.
type batchRepo struct {
	db DBTX
}

// NewBatchRepository создаёт репозиторий пакетов загрузки.
func NewBatchRepository(db DBTX) BatchRepository {
	return &batchRepo{db: db}
}

const batchColumns = `id, file_name, original_name, uploaded_by, uploaded_at,
	total_records, processed_records, status, is_deleted, deleted_by, deleted_at,
	event_code, description, created_at, updated_at`

// certificateCopyColumns — колонки COPY для массовой вставки сертификатов.
var certificateCopyColumns = []string{
	"id", "batch_id", "certificate_no", "name", "roll_no", "event", "event_date",
	"uploaded_by", "uploaded_at", "additional_data",
}

func (r *batchRepo) Create(ctx context.Context, batch *model.UploadBatch, certs []*model.Certificate) error {
	batchID, err := uuid.Parse(batch.ID)
	if err != nil {
		return fmt.Errorf("некорректный ID пакета %q: %w", batch.ID, err)
	}

	rows := make([][]any, 0, len(certs))
	for _, c := range certs {
		certID, err := uuid.Parse(c.ID)
		if err != nil {
			return fmt.Errorf("некорректный ID сертификата %q: %w", c.ID, err)
		}
		extra, err := marshalAdditionalData(c.AdditionalData)
		if err != nil {
			return err
		}
		rows = append(rows, []any{
			certID, batchID, c.CertificateNo, c.Name, c.RollNo, c.Event, c.Date,
			c.UploadedBy, c.UploadedAt, extra,
		})
	}

	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO upload_batches (id, file_name, original_name, uploaded_by, uploaded_at,
				total_records, processed_records, status, event_code, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING is_deleted, created_at, updated_at`

		err := tx.QueryRow(ctx, query,
			batchID, batch.FileName, batch.OriginalName, batch.UploadedBy, batch.UploadedAt,
			batch.TotalRecords, batch.ProcessedRecords, batch.Status, batch.EventCode, batch.Description,
		).Scan(&batch.IsDeleted, &batch.CreatedAt, &batch.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: пакет с таким ID уже существует", ErrConflict)
			}
			return fmt.Errorf("ошибка создания пакета: %w", err)
		}

		n, err := tx.CopyFrom(ctx, pgx.Identifier{"certificates"}, certificateCopyColumns, pgx.CopyFromRows(rows))
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: сертификат с таким ID уже существует", ErrConflict)
			}
			return fmt.Errorf("ошибка вставки сертификатов: %w", err)
		}
		if int(n) != len(certs) {
			return fmt.Errorf("вставлено сертификатов: %d, ожидалось: %d", n, len(certs))
		}

		for _, c := range certs {
			c.BatchID = batch.ID
		}
		return nil
	})
}

func (r *batchRepo) GetByID(ctx context.Context, id string) (*model.UploadBatch, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + batchColumns + ` FROM upload_batches WHERE id = $1`

	b, err := scanBatch(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, batchLookupError("ошибка получения пакета", err)
	}
	return b, nil
}

func (r *batchRepo) List(ctx context.Context, includeDeleted bool, limit int) ([]*model.UploadBatch, error) {
	where := "WHERE is_deleted = FALSE"
	if includeDeleted {
		where = ""
	}
	query := fmt.Sprintf(`SELECT %s FROM upload_batches %s
		ORDER BY uploaded_at DESC, created_at DESC
		LIMIT $1`, batchColumns, where)

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка пакетов: %w", err)
	}
	defer rows.Close()

	var result []*model.UploadBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения пакета: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *batchRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM upload_batches WHERE is_deleted = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта пакетов: %w", err)
	}
	return count, nil
}

func (r *batchRepo) SoftDelete(ctx context.Context, id, deletedBy string, deletedAt time.Time) (*model.UploadBatch, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	// Отметки удаления ставятся только при смене состояния.
	query := `
		UPDATE upload_batches SET
			is_deleted = TRUE,
			deleted_by = CASE WHEN is_deleted THEN deleted_by ELSE $2 END,
			deleted_at = CASE WHEN is_deleted THEN deleted_at ELSE $3 END,
			updated_at = CASE WHEN is_deleted THEN updated_at ELSE NOW() END
		WHERE id = $1
		RETURNING ` + batchColumns

	b, err := scanBatch(r.db.QueryRow(ctx, query, id, deletedBy, deletedAt))
	if err != nil {
		return nil, batchLookupError("ошибка удаления пакета", err)
	}
	return b, nil
}

func (r *batchRepo) Restore(ctx context.Context, id string) (*model.UploadBatch, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	query := `
		UPDATE upload_batches SET
			is_deleted = FALSE,
			deleted_by = NULL,
			deleted_at = NULL,
			updated_at = CASE WHEN is_deleted THEN NOW() ELSE updated_at END
		WHERE id = $1
		RETURNING ` + batchColumns

	b, err := scanBatch(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, batchLookupError("ошибка восстановления пакета", err)
	}
	return b, nil
}

// scanBatch сканирует строку upload_batches в порядке batchColumns.
func scanBatch(row pgx.Row) (*model.UploadBatch, error) {
	b := &model.UploadBatch{}
	err := row.Scan(
		&b.ID, &b.FileName, &b.OriginalName, &b.UploadedBy, &b.UploadedAt,
		&b.TotalRecords, &b.ProcessedRecords, &b.Status, &b.IsDeleted, &b.DeletedBy, &b.DeletedAt,
		&b.EventCode, &b.Description, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// isUUID — id является корректным UUID. Некорректный id не может принадлежать ни одной записи.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// batchLookupError переводит ошибки поиска пакета в ошибки слоя репозиториев.
func batchLookupError(msg string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// marshalAdditionalData кодирует дополнительные колонки в JSON; пустой набор — NULL.
func marshalAdditionalData(data map[string]string) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования additional_data: %w", err)
	}
	return b, nil
}
