// ingestion.go — подтверждение загрузки CSV, мягкое удаление и восстановление пакетов.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Aryan-dev-enth/certificate-manager/internal/csvimport"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/rbac"
	"github.com/Aryan-dev-enth/certificate-manager/internal/repository"
)

// Prometheus-метрики загрузок.
var (
	batchesConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_batches_confirmed_total",
		Help: "Общее количество подтверждённых пакетов загрузки.",
	})
	certificatesIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_certificates_ingested_total",
		Help: "Общее количество загруженных сертификатов.",
	})
)

// Ограничения выдачи списка пакетов.
const (
	DefaultBatchListLimit = 50
	MaxBatchListLimit     = 500
)

// storedFilePrefix — префикс сохранённого имени файла.
const storedFilePrefix = "processed_"

// Колонки строки, из которых берутся поля сертификата (в порядке приоритета).
var (
	certificateNoColumns = []string{"ID", "CertificateNo"}
	nameColumns          = []string{"name", "Name"}
	rollNoColumns        = []string{"RollNo", "rollNo"}
	eventColumns         = []string{"Event", "event"}
	dateColumns          = []string{"Date", "date"}
)

// mappedColumns — колонки, не попадающие в additionalData.
var mappedColumns = func() map[string]bool {
	m := make(map[string]bool)
	for _, cols := range [][]string{certificateNoColumns, nameColumns, rollNoColumns, eventColumns, dateColumns} {
		for _, c := range cols {
			m[c] = true
		}
	}
	return m
}()

// ConfirmRequest — данные подтверждения загрузки.
type ConfirmRequest struct {
	// Rows — строки предпросмотра после фильтрации
	Rows []csvimport.Row
	// FileName — исходное имя файла
	FileName string
	// EventCode — необязательный код мероприятия
	EventCode *string
	// Description — необязательное описание
	Description *string
}

// ConfirmResult — результат подтверждения загрузки.
type ConfirmResult struct {
	BatchID          string
	RecordsProcessed int
}

// IngestionService — сохранение пакетов загрузки и управление ими.
type IngestionService struct {
	batches repository.BatchRepository
	cache   *StatsCache
	audit   *AuditService
	logger  *slog.Logger
	now     func() time.Time
}

// NewIngestionService создаёт сервис загрузки.
func NewIngestionService(
	batches repository.BatchRepository,
	cache *StatsCache,
	audit *AuditService,
	logger *slog.Logger,
) *IngestionService {
	return &IngestionService{
		batches: batches,
		cache:   cache,
		audit:   audit,
		logger:  logger.With(slog.String("component", "ingestion_service")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ConfirmUpload сохраняет строки как один пакет и по сертификату на строку.
// Пакет и сертификаты пишутся в одной транзакции.
func (s *IngestionService) ConfirmUpload(ctx context.Context, actor *model.Identity, req ConfirmRequest) (*ConfirmResult, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		return nil, fmt.Errorf("%w: не указано имя файла", ErrValidation)
	}
	if len(req.Rows) == 0 {
		return nil, fmt.Errorf("%w: нет данных для загрузки", ErrValidation)
	}

	uploadedAt := s.now()
	batch := &model.UploadBatch{
		ID:               uuid.New().String(),
		FileName:         storedFilePrefix + fileName,
		OriginalName:     fileName,
		UploadedBy:       actor.Email,
		UploadedAt:       uploadedAt,
		TotalRecords:     len(req.Rows),
		ProcessedRecords: len(req.Rows),
		Status:           model.BatchStatusCompleted,
		EventCode:        trimmedOrNil(req.EventCode),
		Description:      trimmedOrNil(req.Description),
	}

	certs := make([]*model.Certificate, 0, len(req.Rows))
	for i, row := range req.Rows {
		c, err := certificateFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: строка %d: %v", ErrValidation, i+1, err)
		}
		c.ID = uuid.New().String()
		c.BatchID = batch.ID
		c.UploadedBy = actor.Email
		c.UploadedAt = uploadedAt
		certs = append(certs, c)
	}

	if err := s.batches.Create(ctx, batch, certs); err != nil {
		return nil, fmt.Errorf("сохранение пакета: %w", err)
	}

	batchesConfirmedTotal.Inc()
	certificatesIngestedTotal.Add(float64(len(certs)))
	s.cache.Invalidate()

	details := map[string]any{
		"batchId":     batch.ID,
		"fileName":    fileName,
		"recordCount": len(certs),
	}
	if batch.EventCode != nil {
		details["eventCode"] = *batch.EventCode
	}
	if batch.Description != nil {
		details["description"] = *batch.Description
	}
	s.audit.Record(ctx, model.AuditUpload, *actor, details)

	s.logger.Info("Пакет загрузки сохранён",
		slog.String("batch_id", batch.ID),
		slog.String("uploaded_by", actor.Email),
		slog.String("file_name", fileName),
		slog.Int("records", len(certs)),
	)

	return &ConfirmResult{BatchID: batch.ID, RecordsProcessed: len(certs)}, nil
}

// ListBatches возвращает пакеты по убыванию времени загрузки.
// Удалённые пакеты видит только суперадминистратор.
func (s *IngestionService) ListBatches(ctx context.Context, actor *model.Identity, includeDeleted bool, limit int) ([]*model.UploadBatch, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if includeDeleted && !rbac.CanViewDeletedBatches(actor) {
		return nil, ErrForbidden
	}

	if limit <= 0 {
		limit = DefaultBatchListLimit
	}
	if limit > MaxBatchListLimit {
		limit = MaxBatchListLimit
	}

	batches, err := s.batches.List(ctx, includeDeleted, limit)
	if err != nil {
		return nil, fmt.Errorf("получение списка пакетов: %w", err)
	}
	return batches, nil
}

// SoftDelete мягко удаляет пакет. Доступно только суперадминистратору.
// Повторное удаление состояние не меняет.
func (s *IngestionService) SoftDelete(ctx context.Context, actor *model.Identity, batchID string) (*model.UploadBatch, error) {
	if err := s.checkManage(actor, batchID); err != nil {
		return nil, err
	}

	batch, err := s.batches.SoftDelete(ctx, batchID, actor.Email, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пакет %s", ErrNotFound, batchID)
		}
		return nil, fmt.Errorf("удаление пакета: %w", err)
	}

	s.cache.Invalidate()
	s.audit.Record(ctx, model.AuditDelete, *actor, map[string]any{
		"batchId":  batch.ID,
		"fileName": batch.OriginalName,
	})
	s.logger.Info("Пакет удалён",
		slog.String("batch_id", batch.ID),
		slog.String("deleted_by", actor.Email),
	)

	return batch, nil
}

// Restore восстанавливает мягко удалённый пакет. Доступно только суперадминистратору.
func (s *IngestionService) Restore(ctx context.Context, actor *model.Identity, batchID string) (*model.UploadBatch, error) {
	if err := s.checkManage(actor, batchID); err != nil {
		return nil, err
	}

	batch, err := s.batches.Restore(ctx, batchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пакет %s", ErrNotFound, batchID)
		}
		return nil, fmt.Errorf("восстановление пакета: %w", err)
	}

	s.cache.Invalidate()
	s.audit.Record(ctx, model.AuditRestore, *actor, map[string]any{
		"batchId":  batch.ID,
		"fileName": batch.OriginalName,
	})
	s.logger.Info("Пакет восстановлен",
		slog.String("batch_id", batch.ID),
		slog.String("restored_by", actor.Email),
	)

	return batch, nil
}

// checkManage проверяет права на управление пакетом и формат идентификатора.
func (s *IngestionService) checkManage(actor *model.Identity, batchID string) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if !rbac.CanManageBatches(actor) {
		return ErrForbidden
	}
	if _, err := uuid.Parse(batchID); err != nil {
		return fmt.Errorf("%w: некорректный идентификатор пакета %q", ErrValidation, batchID)
	}
	return nil
}

// certificateFromRow извлекает поля сертификата из строки CSV.
// Непустые колонки, не относящиеся к полям сертификата, сохраняются в AdditionalData.
func certificateFromRow(row csvimport.Row) (*model.Certificate, error) {
	c := &model.Certificate{
		CertificateNo: firstValue(row, certificateNoColumns),
		Name:          firstValue(row, nameColumns),
		RollNo:        firstValue(row, rollNoColumns),
		Event:         firstValue(row, eventColumns),
		Date:          firstValue(row, dateColumns),
	}
	if c.CertificateNo == "" {
		return nil, errors.New("не указан номер сертификата (ID или CertificateNo)")
	}
	if c.Name == "" {
		return nil, errors.New("не указано имя (name или Name)")
	}

	for k, v := range row {
		if mappedColumns[k] || strings.TrimSpace(v) == "" {
			continue
		}
		if c.AdditionalData == nil {
			c.AdditionalData = make(map[string]string)
		}
		c.AdditionalData[k] = v
	}
	return c, nil
}

// firstValue возвращает первое непустое значение из колонок cols.
// CRLF внутри значения приводится к LF: так значение переживает выгрузку в CSV
// и повторный разбор без изменений.
func firstValue(row csvimport.Row, cols []string) string {
	for _, col := range cols {
		if v := strings.TrimSpace(row[col]); v != "" {
			return strings.ReplaceAll(v, "\r\n", "\n")
		}
	}
	return ""
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
