package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
)

func TestRecord_RequestMeta(t *testing.T) {
	store := newMemStore()
	svc := NewAuditService(store.auditRepo(), discardLogger())

	ctx := WithRequestMeta(context.Background(), RequestMeta{IPAddress: "10.0.0.1", UserAgent: "curl/8.0"})
	svc.Record(ctx, model.AuditLogin, *club(), map[string]any{"k": "v"})
	svc.Record(context.Background(), model.AuditLogout, *club(), nil)

	if len(store.audit) != 2 {
		t.Fatalf("записей = %d, ожидалось 2", len(store.audit))
	}
	e := store.audit[0]
	if e.UserID != clubEmail || e.UserEmail != clubEmail || e.Timestamp.IsZero() {
		t.Errorf("запись = %+v", e)
	}
	if e.IPAddress == nil || *e.IPAddress != "10.0.0.1" || e.UserAgent == nil || *e.UserAgent != "curl/8.0" {
		t.Errorf("IPAddress = %v, UserAgent = %v", e.IPAddress, e.UserAgent)
	}
	if store.audit[1].IPAddress != nil || store.audit[1].UserAgent != nil {
		t.Error("без сведений о клиенте IP и User-Agent не заполняются")
	}
}

func TestRecord_FailureSwallowed(t *testing.T) {
	store := newMemStore()
	store.failAudit = errStorage
	svc := NewAuditService(store.auditRepo(), discardLogger())

	// Не должно паниковать и не возвращает ошибку
	svc.Record(context.Background(), model.AuditLogin, *club(), nil)
	if len(store.audit) != 0 {
		t.Error("запись не должна сохраниться")
	}
}

func TestAuditList(t *testing.T) {
	store := newMemStore()
	svc := NewAuditService(store.auditRepo(), discardLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		svc.Record(ctx, model.AuditLogin, *club(), nil)
	}
	svc.Record(ctx, model.AuditLogout, *club(), nil)

	if _, err := svc.List(ctx, nil, 0); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("List(nil) = %v, ожидалось ErrUnauthorized", err)
	}
	if _, err := svc.List(ctx, club(), 0); !errors.Is(err, ErrForbidden) {
		t.Errorf("List(club) = %v, ожидалось ErrForbidden", err)
	}

	logs, err := svc.List(ctx, superAdmin(), 3)
	if err != nil {
		t.Fatalf("List() вернул ошибку: %v", err)
	}
	if len(logs) != 3 || logs[0].Action != model.AuditLogout {
		t.Errorf("List() = %d записей, первая %v", len(logs), logs)
	}

	all, err := svc.List(ctx, superAdmin(), 0)
	if err != nil {
		t.Fatalf("List() вернул ошибку: %v", err)
	}
	if len(all) != 6 {
		t.Errorf("List(0) = %d, ожидалось 6", len(all))
	}

	store.failWith = errStorage
	if _, err := svc.List(ctx, superAdmin(), 0); !errors.Is(err, errStorage) {
		t.Errorf("List() = %v, ожидалась ошибка хранилища", err)
	}
}
