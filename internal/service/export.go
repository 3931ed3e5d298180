// export.go — выгрузка отфильтрованных сертификатов в CSV или XLSX.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Aryan-dev-enth/certificate-manager/internal/csvexport"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
	"github.com/Aryan-dev-enth/certificate-manager/internal/repository"
)

var exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cm_exports_total",
	Help: "Общее количество выгрузок сертификатов.",
}, []string{"format"})

// ExportResult — готовый файл выгрузки.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	RecordCount int
}

// ExportService — формирование файлов выгрузки.
type ExportService struct {
	certs  repository.CertificateRepository
	audit  *AuditService
	fields []string
	limit  int
	logger *slog.Logger
	now    func() time.Time
}

// NewExportService создаёт сервис выгрузки.
// fields — колонки файла, limit — максимум строк.
func NewExportService(
	certs repository.CertificateRepository,
	audit *AuditService,
	fields []string,
	limit int,
	logger *slog.Logger,
) *ExportService {
	return &ExportService{
		certs:  certs,
		audit:  audit,
		fields: fields,
		limit:  limit,
		logger: logger.With(slog.String("component", "export_service")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GenerateExport формирует файл со всеми сертификатами по фильтру (не более limit).
// Пустой результат — ErrNoData.
func (s *ExportService) GenerateExport(
	ctx context.Context,
	actor *model.Identity,
	filter model.CertificateFilter,
	format csvexport.Format,
) (*ExportResult, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if format == "" {
		format = csvexport.FormatCSV
	}

	certs, err := s.certs.List(ctx, filter, s.limit, 0)
	if err != nil {
		return nil, fmt.Errorf("получение сертификатов для выгрузки: %w", err)
	}
	if len(certs) == 0 {
		return nil, ErrNoData
	}

	var buf bytes.Buffer
	if err := csvexport.Write(&buf, format, s.fields, certs); err != nil {
		return nil, fmt.Errorf("формирование файла выгрузки: %w", err)
	}

	filename := csvexport.Filename(s.now(), !filter.IsEmpty(), format)

	exportsTotal.WithLabelValues(string(format)).Inc()
	s.audit.Record(ctx, model.AuditExport, *actor, map[string]any{
		"recordCount": len(certs),
		"filters":     appliedFilters(filter),
		"filename":    filename,
	})
	s.logger.Info("Выгрузка сформирована",
		slog.String("user", actor.Email),
		slog.String("filename", filename),
		slog.Int("records", len(certs)),
	)

	return &ExportResult{
		Filename:    filename,
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
		RecordCount: len(certs),
	}, nil
}

// appliedFilters возвращает только заданные поля фильтра.
func appliedFilters(filter model.CertificateFilter) map[string]string {
	applied := make(map[string]string)
	for k, v := range filter.Values() {
		if v != "" {
			applied[k] = v
		}
	}
	return applied
}
