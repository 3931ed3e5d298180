// batches.go — обработчики /api/v1/batches: список, мягкое удаление, восстановление.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Aryan-dev-enth/certificate-manager/internal/api/errors"
	"github.com/Aryan-dev-enth/certificate-manager/internal/api/middleware"
)

// ListBatches — GET /api/v1/batches.
// includeDeleted=true доступен только суперадминистратору.
func (h *APIHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	includeDeleted, err := queryBool(r, "includeDeleted")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	batches, err := h.ingestion.ListBatches(r.Context(), middleware.IdentityFromContext(r.Context()), includeDeleted, limit)
	if err != nil {
		h.writeServiceError(w, err, "list_batches")
		return
	}

	writeJSON(w, http.StatusOK, batchListResponse{Batches: mapBatches(batches)})
}

// DeleteBatch — DELETE /api/v1/batches/{id}.
// Мягкое удаление, только суперадминистратор.
func (h *APIHandler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := h.ingestion.SoftDelete(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "delete_batch")
		return
	}
	writeJSON(w, http.StatusOK, mapBatch(batch))
}

// RestoreBatch — POST /api/v1/batches/{id}/restore.
// Только суперадминистратор.
func (h *APIHandler) RestoreBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := h.ingestion.Restore(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "restore_batch")
		return
	}
	writeJSON(w, http.StatusOK, mapBatch(batch))
}
