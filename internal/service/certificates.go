// certificates.go — постраничный список сертификатов и статистика dashboard.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
	"github.com/Aryan-dev-enth/certificate-manager/internal/repository"
)

// Параметры статистики dashboard.
const (
	topEventsLimit     = 10
	latestBatchesLimit = 5
)

// CertificatePage — страница списка сертификатов.
type CertificatePage struct {
	Certificates []*model.Certificate
	Total        int64
	Page         int
	PageSize     int
	TotalPages   int
}

// QueryService — чтение сертификатов и агрегатов.
type QueryService struct {
	certs       repository.CertificateRepository
	batches     repository.BatchRepository
	cache       *StatsCache
	pageSize    int
	maxPageSize int
	logger      *slog.Logger
}

// NewQueryService создаёт сервис чтения сертификатов.
// pageSize — размер страницы по умолчанию, maxPageSize — верхняя граница.
func NewQueryService(
	certs repository.CertificateRepository,
	batches repository.BatchRepository,
	cache *StatsCache,
	pageSize, maxPageSize int,
	logger *slog.Logger,
) *QueryService {
	return &QueryService{
		certs:       certs,
		batches:     batches,
		cache:       cache,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
		logger:      logger.With(slog.String("component", "query_service")),
	}
}

// ListCertificates возвращает страницу сертификатов по фильтру.
// page < 1 считается первой страницей; pageSize < 1 — размер по умолчанию.
func (s *QueryService) ListCertificates(ctx context.Context, filter model.CertificateFilter, page, pageSize int) (*CertificatePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.pageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	total, err := s.certs.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("подсчёт сертификатов: %w", err)
	}

	certs, err := s.certs.List(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("получение сертификатов: %w", err)
	}
	if certs == nil {
		certs = []*model.Certificate{}
	}

	return &CertificatePage{
		Certificates: certs,
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

// DashboardStats возвращает агрегаты dashboard.
// При любой ошибке хранилища возвращается нулевая статистика; ошибка только логируется.
func (s *QueryService) DashboardStats(ctx context.Context) *model.DashboardStats {
	if cached, ok := s.cache.Get(); ok {
		return cached
	}

	gen := s.cache.Generation()
	stats, err := s.computeStats(ctx)
	if err != nil {
		s.logger.Error("Ошибка расчёта статистики dashboard",
			slog.String("error", err.Error()),
		)
		return emptyStats()
	}

	s.cache.Set(gen, stats)
	return stats
}

// computeStats выполняет агрегаты независимо друг от друга.
func (s *QueryService) computeStats(ctx context.Context) (*model.DashboardStats, error) {
	total, err := s.certs.Count(ctx, model.CertificateFilter{})
	if err != nil {
		return nil, fmt.Errorf("всего сертификатов: %w", err)
	}

	batches, err := s.batches.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("всего пакетов: %w", err)
	}

	perClub, err := s.certs.CountByUploader(ctx)
	if err != nil {
		return nil, fmt.Errorf("сертификаты по клубам: %w", err)
	}

	perEvent, err := s.certs.CountByEvent(ctx, topEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("сертификаты по мероприятиям: %w", err)
	}

	latest, err := s.batches.List(ctx, false, latestBatchesLimit)
	if err != nil {
		return nil, fmt.Errorf("последние пакеты: %w", err)
	}

	stats := emptyStats()
	stats.TotalCertificates = total
	stats.TotalBatches = batches
	if perClub != nil {
		stats.CertificatesPerClub = perClub
	}
	if perEvent != nil {
		stats.CertificatesPerEvent = perEvent
	}
	if latest != nil {
		stats.LatestBatches = latest
	}
	return stats, nil
}

func emptyStats() *model.DashboardStats {
	return &model.DashboardStats{
		CertificatesPerClub:  []model.GroupCount{},
		CertificatesPerEvent: []model.GroupCount{},
		LatestBatches:        []*model.UploadBatch{},
	}
}
