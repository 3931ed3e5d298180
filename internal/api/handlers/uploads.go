// uploads.go — обработчики /api/v1/uploads: разбор CSV для предпросмотра и подтверждение загрузки.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/Aryan-dev-enth/certificate-manager/internal/api/errors"
	"github.com/Aryan-dev-enth/certificate-manager/internal/api/middleware"
	"github.com/Aryan-dev-enth/certificate-manager/internal/csvimport"
	"github.com/Aryan-dev-enth/certificate-manager/internal/service"
)

// multipartMemory — часть multipart-формы, хранимая в памяти; остальное уходит во временные файлы.
const multipartMemory = 8 << 20

// confirmBodyFactor — во сколько раз тело подтверждения может превышать лимит CSV.
// Строки в JSON заметно длиннее исходного CSV.
const confirmBodyFactor = 4

// ParseUpload — POST /api/v1/uploads/parse.
// Принимает multipart-поле file, возвращает заголовки, строки и ошибки разбора.
// Необязательное поле event оставляет только строки, где Event содержит значение.
func (h *APIHandler) ParseUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.ValidationError(w, fmt.Sprintf("Файл превышает допустимый размер %d байт", h.opts.MaxUploadSize))
			return
		}
		apierrors.ValidationError(w, "Ожидалась multipart-форма с полем file")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Файл не передан (поле file)")
		return
	}
	defer file.Close()

	result, err := csvimport.Parse(file)
	if err != nil {
		h.logger.Error("Ошибка чтения загруженного файла",
			slog.String("file_name", header.Filename),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Не удалось прочитать файл")
		return
	}

	rows := result.Rows
	if event := strings.TrimSpace(r.FormValue("event")); event != "" {
		rows = csvimport.FilterByEvent(rows, event)
	}

	headers := result.Headers
	if headers == nil {
		headers = []string{}
	}
	writeJSON(w, http.StatusOK, parseResponse{
		FileName:    header.Filename,
		Headers:     headers,
		Rows:        mapRows(rows),
		TotalRows:   result.TotalRows,
		MatchedRows: len(rows),
		Errors:      mapRowErrors(result.Errors),
	})
}

// ConfirmUpload — POST /api/v1/uploads/confirm.
// Сохраняет строки предпросмотра как новый пакет.
func (h *APIHandler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadSize*confirmBodyFactor)

	var req confirmRequest
	if msg := decodeJSON(r, &req); msg != "" {
		apierrors.ValidationError(w, msg)
		return
	}

	rows := make([]csvimport.Row, len(req.Rows))
	for i, row := range req.Rows {
		rows[i] = row
	}

	result, err := h.ingestion.ConfirmUpload(r.Context(), middleware.IdentityFromContext(r.Context()), service.ConfirmRequest{
		Rows:        rows,
		FileName:    req.FileName,
		EventCode:   req.EventCode,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, err, "confirm_upload")
		return
	}

	writeJSON(w, http.StatusCreated, confirmResponse{
		BatchID:          result.BatchID,
		RecordsProcessed: result.RecordsProcessed,
	})
}
