// dephealth.go — мониторинг зависимостей через topologymetrics SDK.
//
// Единственная зависимость — PostgreSQL: SQL checker через существующий pgxpool
// (connection pool mode, critical). Метрики app_dependency_* доступны на /metrics.
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// DephealthService — сервис мониторинга зависимостей.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга с глобальным Prometheus registry.
//   - serviceID — имя вершины графа текущего приложения
//   - group — имя группы в метриках (CM_DEPHEALTH_GROUP)
//   - db — *sql.DB, полученный из pgxpool через stdlib.OpenDBFromPool()
//   - pgConnURL — URL PostgreSQL для лейблов (не для подключения)
func NewDephealthService(
	serviceID string,
	group string,
	db *sql.DB,
	pgConnURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, db, pgConnURL, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	serviceID string,
	group string,
	db *sql.DB,
	pgConnURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, db, pgConnURL, checkInterval,
		logger, dephealth.WithRegisterer(registerer))
}

func newDephealthService(
	serviceID string,
	group string,
	db *sql.DB,
	pgConnURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	opts := make([]dephealth.Option, 0, 2+len(extraOpts))
	opts = append(opts,
		dephealth.WithLogger(logger),
		dephealth.AddDependency("postgresql", dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(db)),
			dephealth.FromURL(pgConnURL),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(true),
		),
	)
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен (PostgreSQL)")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей: имя → true, если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
