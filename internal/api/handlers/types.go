// types.go — тела запросов и ответов API и маппинг доменных моделей.
package handlers

import (
	"time"

	"github.com/Aryan-dev-enth/certificate-manager/internal/csvimport"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
	"github.com/Aryan-dev-enth/certificate-manager/internal/service"
)

// --- Запросы ---

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type confirmRequest struct {
	Rows        []map[string]string `json:"rows" validate:"required,min=1"`
	FileName    string              `json:"fileName" validate:"required,max=255"`
	EventCode   *string             `json:"eventCode" validate:"omitempty,max=64"`
	Description *string             `json:"description" validate:"omitempty,max=1000"`
}

// --- Ответы ---

type identityResponse struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

type loginResponse struct {
	User      identityResponse `json:"user"`
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type certificateResponse struct {
	ID             string            `json:"id"`
	BatchID        string            `json:"batchId"`
	CertificateNo  string            `json:"certificateNo"`
	Name           string            `json:"name"`
	RollNo         string            `json:"rollNo"`
	Event          string            `json:"event"`
	Date           string            `json:"date"`
	UploadedBy     string            `json:"uploadedBy"`
	UploadedAt     time.Time         `json:"uploadedAt"`
	AdditionalData map[string]string `json:"additionalData,omitempty"`
}

type certificatePageResponse struct {
	Certificates []certificateResponse `json:"certificates"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"pageSize"`
	TotalPages   int                   `json:"totalPages"`
}

type batchResponse struct {
	ID               string     `json:"id"`
	FileName         string     `json:"fileName"`
	OriginalName     string     `json:"originalName"`
	UploadedBy       string     `json:"uploadedBy"`
	UploadedAt       time.Time  `json:"uploadedAt"`
	TotalRecords     int        `json:"totalRecords"`
	ProcessedRecords int        `json:"processedRecords"`
	Status           string     `json:"status"`
	IsDeleted        bool       `json:"isDeleted"`
	DeletedBy        *string    `json:"deletedBy,omitempty"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
	EventCode        *string    `json:"eventCode,omitempty"`
	Description      *string    `json:"description,omitempty"`
}

type batchListResponse struct {
	Batches []batchResponse `json:"batches"`
}

type groupCountResponse struct {
	ID    string `json:"_id"`
	Count int64  `json:"count"`
}

type dashboardResponse struct {
	TotalCertificates    int64                `json:"totalCertificates"`
	TotalBatches         int64                `json:"totalBatches"`
	CertificatesPerClub  []groupCountResponse `json:"certificatesPerClub"`
	CertificatesPerEvent []groupCountResponse `json:"certificatesPerEvent"`
	LatestBatches        []batchResponse      `json:"latestBatches"`
}

type rowErrorResponse struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type parseResponse struct {
	FileName    string              `json:"fileName"`
	Headers     []string            `json:"headers"`
	Rows        []map[string]string `json:"rows"`
	TotalRows   int                 `json:"totalRows"`
	MatchedRows int                 `json:"matchedRows"`
	Errors      []rowErrorResponse  `json:"errors"`
}

type confirmResponse struct {
	BatchID          string `json:"batchId"`
	RecordsProcessed int    `json:"recordsProcessed"`
}

type auditLogResponse struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	UserID    string         `json:"userId"`
	UserEmail string         `json:"userEmail"`
	Details   map[string]any `json:"details"`
	Timestamp time.Time      `json:"timestamp"`
	IPAddress *string        `json:"ipAddress,omitempty"`
	UserAgent *string        `json:"userAgent,omitempty"`
}

type auditLogListResponse struct {
	Logs []auditLogResponse `json:"logs"`
}

// --- Маппинг ---

func mapIdentity(id model.Identity) identityResponse {
	return identityResponse{Email: id.Email, Role: id.Role, IsSuperAdmin: id.IsSuperAdmin}
}

func mapCertificate(c *model.Certificate) certificateResponse {
	return certificateResponse{
		ID:             c.ID,
		BatchID:        c.BatchID,
		CertificateNo:  c.CertificateNo,
		Name:           c.Name,
		RollNo:         c.RollNo,
		Event:          c.Event,
		Date:           c.Date,
		UploadedBy:     c.UploadedBy,
		UploadedAt:     c.UploadedAt,
		AdditionalData: c.AdditionalData,
	}
}

func mapCertificatePage(p *service.CertificatePage) certificatePageResponse {
	items := make([]certificateResponse, len(p.Certificates))
	for i, c := range p.Certificates {
		items[i] = mapCertificate(c)
	}
	return certificatePageResponse{
		Certificates: items,
		Total:        p.Total,
		Page:         p.Page,
		PageSize:     p.PageSize,
		TotalPages:   p.TotalPages,
	}
}

func mapBatch(b *model.UploadBatch) batchResponse {
	return batchResponse{
		ID:               b.ID,
		FileName:         b.FileName,
		OriginalName:     b.OriginalName,
		UploadedBy:       b.UploadedBy,
		UploadedAt:       b.UploadedAt,
		TotalRecords:     b.TotalRecords,
		ProcessedRecords: b.ProcessedRecords,
		Status:           b.Status,
		IsDeleted:        b.IsDeleted,
		DeletedBy:        b.DeletedBy,
		DeletedAt:        b.DeletedAt,
		EventCode:        b.EventCode,
		Description:      b.Description,
	}
}

func mapBatches(batches []*model.UploadBatch) []batchResponse {
	items := make([]batchResponse, len(batches))
	for i, b := range batches {
		items[i] = mapBatch(b)
	}
	return items
}

func mapGroupCounts(groups []model.GroupCount) []groupCountResponse {
	items := make([]groupCountResponse, len(groups))
	for i, g := range groups {
		items[i] = groupCountResponse{ID: g.Key, Count: g.Count}
	}
	return items
}

func mapDashboard(s *model.DashboardStats) dashboardResponse {
	return dashboardResponse{
		TotalCertificates:    s.TotalCertificates,
		TotalBatches:         s.TotalBatches,
		CertificatesPerClub:  mapGroupCounts(s.CertificatesPerClub),
		CertificatesPerEvent: mapGroupCounts(s.CertificatesPerEvent),
		LatestBatches:        mapBatches(s.LatestBatches),
	}
}

func mapRows(rows []csvimport.Row) []map[string]string {
	items := make([]map[string]string, len(rows))
	for i, r := range rows {
		items[i] = r
	}
	return items
}

func mapRowErrors(errs []csvimport.RowError) []rowErrorResponse {
	items := make([]rowErrorResponse, len(errs))
	for i, e := range errs {
		items[i] = rowErrorResponse{Line: e.Line, Message: e.Message}
	}
	return items
}

func mapAuditLog(e *model.AuditLog) auditLogResponse {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	return auditLogResponse{
		ID:        e.ID,
		Action:    e.Action,
		UserID:    e.UserID,
		UserEmail: e.UserEmail,
		Details:   details,
		Timestamp: e.Timestamp,
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
	}
}
