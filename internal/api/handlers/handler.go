// handler.go — основной обработчик API certificate-manager.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "github.com/Aryan-dev-enth/certificate-manager/internal/api/errors"
	"github.com/Aryan-dev-enth/certificate-manager/internal/csvexport"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
	"github.com/Aryan-dev-enth/certificate-manager/internal/service"
)

// --- Контракты сервисного слоя ---

// AuthService — вход и выход. Реализуется service.AuthService.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, actor *model.Identity)
}

// QueryService — чтение сертификатов и статистики. Реализуется service.QueryService.
type QueryService interface {
	ListCertificates(ctx context.Context, filter model.CertificateFilter, page, pageSize int) (*service.CertificatePage, error)
	DashboardStats(ctx context.Context) *model.DashboardStats
}

// IngestionService — загрузка и управление пакетами. Реализуется service.IngestionService.
type IngestionService interface {
	ConfirmUpload(ctx context.Context, actor *model.Identity, req service.ConfirmRequest) (*service.ConfirmResult, error)
	ListBatches(ctx context.Context, actor *model.Identity, includeDeleted bool, limit int) ([]*model.UploadBatch, error)
	SoftDelete(ctx context.Context, actor *model.Identity, batchID string) (*model.UploadBatch, error)
	Restore(ctx context.Context, actor *model.Identity, batchID string) (*model.UploadBatch, error)
}

// ExportService — выгрузка сертификатов. Реализуется service.ExportService.
type ExportService interface {
	GenerateExport(ctx context.Context, actor *model.Identity, filter model.CertificateFilter, format csvexport.Format) (*service.ExportResult, error)
}

// AuditService — чтение журнала аудита. Реализуется service.AuditService.
type AuditService interface {
	List(ctx context.Context, actor *model.Identity, limit int) ([]*model.AuditLog, error)
}

// Options — параметры обработчиков из конфигурации.
type Options struct {
	// MaxUploadSize — максимальный размер тела загрузки в байтах
	MaxUploadSize int64
	// SecureCookie — выставлять Secure у cookie сессии
	SecureCookie bool
}

// APIHandler — основной обработчик API certificate-manager.
type APIHandler struct {
	auth      AuthService
	query     QueryService
	ingestion IngestionService
	export    ExportService
	audit     AuditService
	opts      Options
	logger    *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	auth AuthService,
	query QueryService,
	ingestion IngestionService,
	export ExportService,
	audit AuditService,
	opts Options,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		auth:      auth,
		query:     query,
		ingestion: ingestion,
		export:    export,
		audit:     audit,
		opts:      opts,
		logger:    logger.With(slog.String("component", "api_handler")),
	}
}

// --- Вспомогательные функции ---

// validate — общий валидатор тел запросов.
var validate = validator.New(validator.WithRequiredStructEnabled())

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst и проверяет его теги validate.
// Возвращает сообщение для клиента или пустую строку.
func decodeJSON(r *http.Request, dst any) string {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Sprintf("Тело запроса превышает %d байт", maxErr.Limit)
		}
		return "Некорректный JSON: " + err.Error()
	}
	if err := validate.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return ""
}

// validationMessage формирует сообщение из ошибок validator.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return "Некорректные данные: " + err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return "Некорректные данные: " + strings.Join(parts, ", ")
}

// writeServiceError переводит ошибку сервисного слоя в ответ API.
// Неизвестные ошибки логируются и возвращаются как 500.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		apierrors.InvalidCredentials(w, "Неверный email или пароль")
	case errors.Is(err, service.ErrUnauthorized):
		apierrors.Unauthorized(w, "Требуется вход в систему")
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, "Недостаточно прав: требуется суперадминистратор")
	case errors.Is(err, service.ErrNoData):
		apierrors.NoData(w, "Нет сертификатов, подходящих под фильтр")
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	default:
		h.logger.Error("Ошибка обработки запроса",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

// queryInt разбирает целочисленный параметр запроса; пустой — 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("параметр %s: ожидалось целое число, получено %q", name, raw)
	}
	return v, nil
}

// queryBool разбирает логический параметр запроса; пустой — false.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("параметр %s: ожидалось true или false, получено %q", name, raw)
	}
	return v, nil
}

// filterFromQuery собирает фильтр сертификатов из параметров запроса.
func filterFromQuery(r *http.Request) model.CertificateFilter {
	q := r.URL.Query()
	return model.CertificateFilter{
		Name:          q.Get("name"),
		RollNo:        q.Get("rollNo"),
		Event:         q.Get("event"),
		Date:          q.Get("date"),
		UploadedBy:    q.Get("uploadedBy"),
		CertificateNo: q.Get("certificateNo"),
		BatchID:       q.Get("batchId"),
	}
}
