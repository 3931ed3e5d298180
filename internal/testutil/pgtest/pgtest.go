// Пакет pgtest — PostgreSQL в Docker-контейнере (testcontainers) для интеграционных тестов.
// Тесты запускаются только при установленной TEST_INTEGRATION.
package pgtest

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Aryan-dev-enth/certificate-manager/internal/config"
	"github.com/Aryan-dev-enth/certificate-manager/internal/database"
)

const (
	dbName     = "certificates_test"
	dbUser     = "certs"
	dbPassword = "test-password"
)

// Logger — логгер для интеграционных тестов.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// StartContainer запускает PostgreSQL и возвращает конфиг для подключения к нему.
// Контейнер останавливается в t.Cleanup.
func StartContainer(t *testing.T) *config.Config {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}
	portNum, err := strconv.Atoi(port.Port())
	if err != nil {
		t.Fatalf("Некорректный port контейнера %q: %v", port.Port(), err)
	}

	return &config.Config{
		DBHost:     host,
		DBPort:     portNum,
		DBName:     dbName,
		DBUser:     dbUser,
		DBPassword: dbPassword,
		DBSSLMode:  "disable",
	}
}

// NewPool запускает контейнер, применяет миграции и возвращает пул подключений.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	cfg := StartContainer(t)
	logger := Logger()

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}
