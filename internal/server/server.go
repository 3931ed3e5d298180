// Пакет server — HTTP-сервер certificate-manager с graceful shutdown.
// Без TLS: TLS termination выполняет reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/Aryan-dev-enth/certificate-manager/internal/api/handlers"
	"github.com/Aryan-dev-enth/certificate-manager/internal/api/middleware"
	"github.com/Aryan-dev-enth/certificate-manager/internal/config"
)

// Handlers — обработчики, из которых собирается маршрутизатор.
type Handlers struct {
	API     *handlers.APIHandler
	Health  *handlers.HealthHandler
	OpenAPI http.Handler
	Session *middleware.SessionAuth
}

// Server — HTTP-сервер certificate-manager.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, h Handlers) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(cfg, logger, h),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршруты API.
// Health, metrics и OpenAPI-документ публичны; вход ограничен по частоте;
// остальные маршруты /api/v1 требуют сессию.
func NewRouter(cfg *config.Config, logger *slog.Logger, h Handlers) chi.Router {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам).
	// RealIP первым: от него зависят лимит входа и аудит.
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(corsHandler(cfg.CORSAllowedOrigins))
	router.Use(middleware.ClientInfo())
	router.Use(h.Session.Middleware())

	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Get("/metrics", h.Health.GetMetrics)

	router.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodGet, "/openapi.json", h.OpenAPI)

		r.With(middleware.RateLimit(cfg.LoginRateLimit, logger)).Post("/auth/login", h.API.Login)
		r.Post("/auth/logout", h.API.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth())

			r.Get("/auth/me", h.API.Me)

			r.Get("/certificates", h.API.ListCertificates)
			r.Get("/certificates/export", h.API.ExportCertificates)

			r.Post("/uploads/parse", h.API.ParseUpload)
			r.Post("/uploads/confirm", h.API.ConfirmUpload)

			r.Get("/batches", h.API.ListBatches)
			r.Delete("/batches/{id}", h.API.DeleteBatch)
			r.Post("/batches/{id}/restore", h.API.RestoreBatch)

			r.Get("/dashboard/stats", h.API.DashboardStats)
			r.Get("/audit-logs", h.API.ListAuditLogs)
		})
	})

	return router
}

// corsHandler разрешает фронтенду с указанных origins обращаться к API с cookie сессии.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Record-Count"},
		AllowCredentials: true,
	}).Handler
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
