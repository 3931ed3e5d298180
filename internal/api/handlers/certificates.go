// certificates.go — обработчики /api/v1/certificates: список и выгрузка.
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	apierrors "github.com/Aryan-dev-enth/certificate-manager/internal/api/errors"
	"github.com/Aryan-dev-enth/certificate-manager/internal/api/middleware"
	"github.com/Aryan-dev-enth/certificate-manager/internal/csvexport"
)

// ListCertificates — GET /api/v1/certificates.
// Параметры: page, limit и поля фильтра name, rollNo, event, date, uploadedBy, certificateNo.
func (h *APIHandler) ListCertificates(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	result, err := h.query.ListCertificates(r.Context(), filterFromQuery(r), page, limit)
	if err != nil {
		h.writeServiceError(w, err, "list_certificates")
		return
	}

	writeJSON(w, http.StatusOK, mapCertificatePage(result))
}

// ExportCertificates — GET /api/v1/certificates/export.
// Отдаёт файл (format=csv|xlsx, по умолчанию csv) со всеми сертификатами по фильтру.
func (h *APIHandler) ExportCertificates(w http.ResponseWriter, r *http.Request) {
	format, err := csvexport.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	result, err := h.export.GenerateExport(r.Context(), middleware.IdentityFromContext(r.Context()), filterFromQuery(r), format)
	if err != nil {
		h.writeServiceError(w, err, "export_certificates")
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.Header().Set("X-Record-Count", strconv.Itoa(result.RecordCount))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}
