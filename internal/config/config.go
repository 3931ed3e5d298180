// Пакет config — загрузка и валидация конфигурации certificate-manager
// из переменных окружения.
package config

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// DefaultSuperAdminEmail — email суперадминистратора по умолчанию.
const DefaultSuperAdminEmail = "admin@srmuniversity.ac.in"

// defaultAccounts — фиксированные учётные записи: email → имя переменной с паролем.
const defaultAccounts = "admin@srmuniversity.ac.in=ADMIN_PASSWORD," +
	"webytes@srmuniversity.ac.in=WEBYTES_PASSWORD," +
	"cyberzee@srmuniversity.ac.in=CYBERZEE_PASSWORD," +
	"verge@srmuniversity.ac.in=VERGE_PASSWORD," +
	"xetech@srmuniversity.ac.in=XETECH_PASSWORD," +
	"ecell@srmuniversity.ac.in=ECELL_PASSWORD"

// ExportFields — колонки экспорта в фиксированном порядке.
var ExportFields = []string{"CertificateNo", "Name", "RollNo", "Event", "Date", "UploadedBy"}

// Account — учётная запись с фиксированным паролем.
type Account struct {
	// Email в нижнем регистре
	Email string
	// Пароль в открытом виде или bcrypt-хеш; пустой пароль запрещает вход
	Password string
}

// Config содержит все параметры конфигурации сервиса.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Разрешённые CORS origins фронтенда
	CORSAllowedOrigins []string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Сессии ---

	// Секрет подписи JWT (HS256)
	JWTSecret []byte
	// true, если секрет сгенерирован при старте (сессии не переживут рестарт)
	JWTSecretGenerated bool
	// Issuer JWT
	JWTIssuer string
	// Время жизни сессии
	SessionTTL time.Duration
	// Флаг Secure для cookie сессии
	SecureCookie bool
	// Лимит попыток входа с одного IP (формат ulule/limiter: "10-M")
	LoginRateLimit limiter.Rate

	// --- Учётные записи ---

	// Email суперадминистратора
	SuperAdminEmail string
	// Фиксированные учётные записи
	Accounts []Account

	// --- Сертификаты ---

	// Размер страницы по умолчанию
	PageSize int
	// Максимальный размер страницы
	MaxPageSize int
	// Максимум строк в экспорте
	ExportLimit int
	// Колонки экспорта
	ExportFields []string
	// Максимальный размер загружаемого CSV в байтах
	MaxUploadSize int64
	// TTL кэша статистики dashboard (0 — кэш отключён)
	DashboardCacheTTL time.Duration

	// --- Мониторинг ---

	// Группа в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// CM_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("CM_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("CM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("CM_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// CM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CM_LOG_LEVEL: %w", err)
	}

	// CM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("CM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// CM_CORS_ALLOWED_ORIGINS — origins фронтенда (по умолчанию http://localhost:3000)
	cfg.CORSAllowedOrigins = parseCSV(getEnvDefault("CM_CORS_ALLOWED_ORIGINS", "http://localhost:3000"))

	// --- PostgreSQL ---

	cfg.DBHost, err = getEnvRequired("CM_DB_HOST")
	if err != nil {
		return nil, err
	}

	cfg.DBPort, err = getEnvInt("CM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("CM_DB_PORT: %w", err)
	}

	cfg.DBName, err = getEnvRequired("CM_DB_NAME")
	if err != nil {
		return nil, err
	}

	cfg.DBUser, err = getEnvRequired("CM_DB_USER")
	if err != nil {
		return nil, err
	}

	cfg.DBPassword, err = getEnvRequired("CM_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// CM_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("CM_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("CM_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Сессии ---

	// CM_JWT_SECRET — при отсутствии генерируется случайный ключ
	if secret := os.Getenv("CM_JWT_SECRET"); secret != "" {
		if len(secret) < 32 {
			return nil, fmt.Errorf("CM_JWT_SECRET: длина секрета %d, минимум 32 символа", len(secret))
		}
		cfg.JWTSecret = []byte(secret)
	} else {
		cfg.JWTSecret = make([]byte, 32)
		if _, err := rand.Read(cfg.JWTSecret); err != nil {
			return nil, fmt.Errorf("CM_JWT_SECRET: генерация ключа: %w", err)
		}
		cfg.JWTSecretGenerated = true
	}

	cfg.JWTIssuer = getEnvDefault("CM_JWT_ISSUER", "certificate-manager")

	// CM_SESSION_TTL — время жизни сессии (по умолчанию 24h)
	cfg.SessionTTL, err = getEnvDuration("CM_SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("CM_SESSION_TTL: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("CM_SESSION_TTL: значение должно быть положительным")
	}

	cfg.SecureCookie, err = getEnvBool("CM_SECURE_COOKIE", false)
	if err != nil {
		return nil, fmt.Errorf("CM_SECURE_COOKIE: %w", err)
	}

	// CM_LOGIN_RATE_LIMIT — лимит попыток входа (по умолчанию 10 в минуту)
	cfg.LoginRateLimit, err = limiter.NewRateFromFormatted(getEnvDefault("CM_LOGIN_RATE_LIMIT", "10-M"))
	if err != nil {
		return nil, fmt.Errorf("CM_LOGIN_RATE_LIMIT: %w", err)
	}

	// --- Учётные записи ---

	cfg.SuperAdminEmail = strings.ToLower(strings.TrimSpace(
		getEnvDefault("CM_SUPER_ADMIN_EMAIL", DefaultSuperAdminEmail)))

	// CM_ACCOUNTS — пары email=ИМЯ_ПЕРЕМЕННОЙ_С_ПАРОЛЕМ через запятую
	cfg.Accounts, err = parseAccounts(getEnvDefault("CM_ACCOUNTS", defaultAccounts))
	if err != nil {
		return nil, fmt.Errorf("CM_ACCOUNTS: %w", err)
	}
	if !hasAccount(cfg.Accounts, cfg.SuperAdminEmail) {
		return nil, fmt.Errorf("CM_SUPER_ADMIN_EMAIL: %q отсутствует в CM_ACCOUNTS", cfg.SuperAdminEmail)
	}

	// --- Сертификаты ---

	cfg.PageSize, err = getEnvInt("CM_PAGE_SIZE", 25)
	if err != nil {
		return nil, fmt.Errorf("CM_PAGE_SIZE: %w", err)
	}

	cfg.MaxPageSize, err = getEnvInt("CM_MAX_PAGE_SIZE", 200)
	if err != nil {
		return nil, fmt.Errorf("CM_MAX_PAGE_SIZE: %w", err)
	}
	if cfg.MaxPageSize < 1 {
		return nil, fmt.Errorf("CM_MAX_PAGE_SIZE: значение %d должно быть положительным", cfg.MaxPageSize)
	}
	if cfg.PageSize < 1 || cfg.PageSize > cfg.MaxPageSize {
		return nil, fmt.Errorf("CM_PAGE_SIZE: значение %d вне допустимого диапазона 1-%d", cfg.PageSize, cfg.MaxPageSize)
	}

	cfg.ExportLimit, err = getEnvInt("CM_EXPORT_LIMIT", 10000)
	if err != nil {
		return nil, fmt.Errorf("CM_EXPORT_LIMIT: %w", err)
	}
	if cfg.ExportLimit < 1 {
		return nil, fmt.Errorf("CM_EXPORT_LIMIT: значение %d должно быть положительным", cfg.ExportLimit)
	}

	cfg.ExportFields = append([]string(nil), ExportFields...)

	uploadSize, err := getEnvInt("CM_MAX_UPLOAD_SIZE", 10<<20)
	if err != nil {
		return nil, fmt.Errorf("CM_MAX_UPLOAD_SIZE: %w", err)
	}
	if uploadSize < 1 {
		return nil, fmt.Errorf("CM_MAX_UPLOAD_SIZE: значение %d должно быть положительным", uploadSize)
	}
	cfg.MaxUploadSize = int64(uploadSize)

	// CM_DASHBOARD_CACHE_TTL — TTL кэша dashboard (по умолчанию 30s, 0 — отключён)
	cfg.DashboardCacheTTL, err = getEnvDuration("CM_DASHBOARD_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_DASHBOARD_CACHE_TTL: %w", err)
	}
	if cfg.DashboardCacheTTL < 0 {
		return nil, fmt.Errorf("CM_DASHBOARD_CACHE_TTL: значение не может быть отрицательным")
	}

	// --- Мониторинг ---

	cfg.DephealthGroup = getEnvDefault("CM_DEPHEALTH_GROUP", "certificate-manager")

	cfg.DephealthCheckInterval, err = getEnvDuration("CM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("CM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL (для лейблов мониторинга).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// parseAccounts разбирает пары email=ENV и читает пароли из указанных переменных.
func parseAccounts(s string) ([]Account, error) {
	pairs := parseCSV(s)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("список учётных записей пуст")
	}

	accounts := make([]Account, 0, len(pairs))
	seen := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		email, envName, ok := strings.Cut(pair, "=")
		email = strings.ToLower(strings.TrimSpace(email))
		envName = strings.TrimSpace(envName)
		if !ok || email == "" || envName == "" {
			return nil, fmt.Errorf("некорректная пара %q, ожидается email=ИМЯ_ПЕРЕМЕННОЙ", pair)
		}
		if !strings.Contains(email, "@") {
			return nil, fmt.Errorf("некорректный email %q", email)
		}
		if seen[email] {
			return nil, fmt.Errorf("email %q указан повторно", email)
		}
		seen[email] = true
		accounts = append(accounts, Account{Email: email, Password: os.Getenv(envName)})
	}
	return accounts, nil
}

func hasAccount(accounts []Account, email string) bool {
	for _, a := range accounts {
		if a.Email == email {
			return true
		}
	}
	return false
}

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
