// Точка входа certificate-manager — панели управления сертификатами клубов.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт сервисный слой и API handlers, запускает topologymetrics
// и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/Aryan-dev-enth/certificate-manager/internal/api/handlers"
	"github.com/Aryan-dev-enth/certificate-manager/internal/api/middleware"
	"github.com/Aryan-dev-enth/certificate-manager/internal/auth"
	"github.com/Aryan-dev-enth/certificate-manager/internal/config"
	"github.com/Aryan-dev-enth/certificate-manager/internal/database"
	"github.com/Aryan-dev-enth/certificate-manager/internal/repository"
	"github.com/Aryan-dev-enth/certificate-manager/internal/server"
	"github.com/Aryan-dev-enth/certificate-manager/internal/service"
)

func main() {
	// 0. Локальный .env (если есть); переменные окружения имеют приоритет
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Ошибка чтения .env", slog.String("error", err.Error()))
	}

	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("certificate-manager запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.Int("accounts", len(cfg.Accounts)),
	)

	if cfg.JWTSecretGenerated {
		logger.Warn("CM_JWT_SECRET не задан, сгенерирован временный ключ: сессии не переживут рестарт")
	}
	for _, a := range cfg.Accounts {
		if a.Password == "" {
			logger.Warn("Пароль учётной записи не задан, вход отключён", slog.String("email", a.Email))
		}
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (проверка через общий пул)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repositories
	batchRepo := repository.NewBatchRepository(pool)
	certRepo := repository.NewCertificateRepository(pool)
	auditRepo := repository.NewAuditLogRepository(pool)

	// 6. Services
	statsCache := service.NewStatsCache(cfg.DashboardCacheTTL)
	auditSvc := service.NewAuditService(auditRepo, logger)
	ingestionSvc := service.NewIngestionService(batchRepo, statsCache, auditSvc, logger)
	querySvc := service.NewQueryService(certRepo, batchRepo, statsCache, cfg.PageSize, cfg.MaxPageSize, logger)
	exportSvc := service.NewExportService(certRepo, auditSvc, cfg.ExportFields, cfg.ExportLimit, logger)

	tokens, err := auth.NewTokenManager(ctx, cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	if err != nil {
		logger.Error("Ошибка создания менеджера токенов", slog.String("error", err.Error()))
		os.Exit(1)
	}
	authSvc := service.NewAuthService(cfg.Accounts, cfg.SuperAdminEmail, tokens, auditSvc, logger)

	// 7. topologymetrics — мониторинг PostgreSQL
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"certificate-manager",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 8. Handlers
	var deps handlers.DependencyHealth
	if dephealthSvc != nil {
		deps = dephealthSvc
	}
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool), deps)

	openAPIHandler, err := handlers.NewOpenAPIHandler(ctx)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI-документа", slog.String("error", err.Error()))
		os.Exit(1)
	}

	apiHandler := handlers.NewAPIHandler(
		authSvc,
		querySvc,
		ingestionSvc,
		exportSvc,
		auditSvc,
		handlers.Options{MaxUploadSize: cfg.MaxUploadSize, SecureCookie: cfg.SecureCookie},
		logger,
	)

	// 9. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, server.Handlers{
		API:     apiHandler,
		Health:  healthHandler,
		OpenAPI: openAPIHandler,
		Session: middleware.NewSessionAuth(tokens, logger),
	})
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 10. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("certificate-manager остановлен")
}
