package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/Aryan-dev-enth/certificate-manager/internal/api/middleware"
	"github.com/Aryan-dev-enth/certificate-manager/internal/csvexport"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
	"github.com/Aryan-dev-enth/certificate-manager/internal/service"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- Моки сервисов (function fields) ---

type mockAuth struct {
	loginFn   func(ctx context.Context, email, password string) (*service.LoginResult, error)
	loggedOut []*model.Identity
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockAuth) Logout(_ context.Context, actor *model.Identity) {
	m.loggedOut = append(m.loggedOut, actor)
}

type mockQuery struct {
	listFn  func(ctx context.Context, f model.CertificateFilter, page, size int) (*service.CertificatePage, error)
	statsFn func(ctx context.Context) *model.DashboardStats
}

func (m *mockQuery) ListCertificates(ctx context.Context, f model.CertificateFilter, page, size int) (*service.CertificatePage, error) {
	return m.listFn(ctx, f, page, size)
}

func (m *mockQuery) DashboardStats(ctx context.Context) *model.DashboardStats {
	return m.statsFn(ctx)
}

type mockIngestion struct {
	confirmFn func(ctx context.Context, actor *model.Identity, req service.ConfirmRequest) (*service.ConfirmResult, error)
	listFn    func(ctx context.Context, actor *model.Identity, includeDeleted bool, limit int) ([]*model.UploadBatch, error)
	deleteFn  func(ctx context.Context, actor *model.Identity, id string) (*model.UploadBatch, error)
	restoreFn func(ctx context.Context, actor *model.Identity, id string) (*model.UploadBatch, error)
}

func (m *mockIngestion) ConfirmUpload(ctx context.Context, actor *model.Identity, req service.ConfirmRequest) (*service.ConfirmResult, error) {
	return m.confirmFn(ctx, actor, req)
}

func (m *mockIngestion) ListBatches(ctx context.Context, actor *model.Identity, includeDeleted bool, limit int) ([]*model.UploadBatch, error) {
	return m.listFn(ctx, actor, includeDeleted, limit)
}

func (m *mockIngestion) SoftDelete(ctx context.Context, actor *model.Identity, id string) (*model.UploadBatch, error) {
	return m.deleteFn(ctx, actor, id)
}

func (m *mockIngestion) Restore(ctx context.Context, actor *model.Identity, id string) (*model.UploadBatch, error) {
	return m.restoreFn(ctx, actor, id)
}

type mockExport struct {
	exportFn func(ctx context.Context, actor *model.Identity, f model.CertificateFilter, format csvexport.Format) (*service.ExportResult, error)
}

func (m *mockExport) GenerateExport(ctx context.Context, actor *model.Identity, f model.CertificateFilter, format csvexport.Format) (*service.ExportResult, error) {
	return m.exportFn(ctx, actor, f, format)
}

type mockAudit struct {
	listFn func(ctx context.Context, actor *model.Identity, limit int) ([]*model.AuditLog, error)
}

func (m *mockAudit) List(ctx context.Context, actor *model.Identity, limit int) ([]*model.AuditLog, error) {
	return m.listFn(ctx, actor, limit)
}

// testHandler — APIHandler с пустыми моками.
type testHandler struct {
	*APIHandler
	auth      *mockAuth
	query     *mockQuery
	ingestion *mockIngestion
	export    *mockExport
	audit     *mockAudit
}

func newTestHandler() *testHandler {
	th := &testHandler{
		auth:      &mockAuth{},
		query:     &mockQuery{},
		ingestion: &mockIngestion{},
		export:    &mockExport{},
		audit:     &mockAudit{},
	}
	th.APIHandler = NewAPIHandler(th.auth, th.query, th.ingestion, th.export, th.audit,
		Options{MaxUploadSize: 1 << 20}, testLogger())
	return th
}

var (
	superID = &model.Identity{Email: "admin@srmuniversity.ac.in", Role: "admin", IsSuperAdmin: true}
	clubID  = &model.Identity{Email: "verge@srmuniversity.ac.in", Role: "club"}
)

// asUser помещает Identity в контекст запроса.
func asUser(r *http.Request, id *model.Identity) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), id))
}
