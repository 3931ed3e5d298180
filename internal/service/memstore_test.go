package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
	"github.com/Aryan-dev-enth/certificate-manager/internal/repository"
)

var errStorage = errors.New("хранилище недоступно")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore — in-memory реализация репозиториев для unit-тестов.
type memStore struct {
	mu      sync.Mutex
	batches map[string]*model.UploadBatch
	certs   []*model.Certificate
	audit   []*model.AuditLog

	// failWith — ошибка, возвращаемая всеми операциями (если не nil)
	failWith error
	// failAudit — ошибка записи аудита
	failAudit error
}

func newMemStore() *memStore {
	return &memStore{batches: make(map[string]*model.UploadBatch)}
}

func (m *memStore) batchRepo() repository.BatchRepository      { return (*memBatches)(m) }
func (m *memStore) certRepo() repository.CertificateRepository { return (*memCerts)(m) }
func (m *memStore) auditRepo() repository.AuditLogRepository   { return (*memAudit)(m) }

func (m *memStore) auditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var actions []string
	for _, a := range m.audit {
		actions = append(actions, a.Action)
	}
	return actions
}

// --- BatchRepository ---

type memBatches memStore

func (r *memBatches) Create(_ context.Context, b *model.UploadBatch, certs []*model.Certificate) error {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	cp := *b
	cp.CreatedAt, cp.UpdatedAt = b.UploadedAt, b.UploadedAt
	m.batches[b.ID] = &cp
	for _, c := range certs {
		cc := *c
		cc.BatchID = b.ID
		m.certs = append(m.certs, &cc)
	}
	return nil
}

func (r *memBatches) GetByID(_ context.Context, id string) (*model.UploadBatch, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	b, ok := m.batches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memBatches) List(_ context.Context, includeDeleted bool, limit int) ([]*model.UploadBatch, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var result []*model.UploadBatch
	for _, b := range m.batches {
		if b.IsDeleted && !includeDeleted {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UploadedAt.After(result[j].UploadedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memBatches) CountActive(_ context.Context) (int64, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	var n int64
	for _, b := range m.batches {
		if !b.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (r *memBatches) SoftDelete(_ context.Context, id, by string, at time.Time) (*model.UploadBatch, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	b, ok := m.batches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !b.IsDeleted {
		b.IsDeleted = true
		b.DeletedBy = &by
		b.DeletedAt = &at
		b.UpdatedAt = at
	}
	cp := *b
	return &cp, nil
}

func (r *memBatches) Restore(_ context.Context, id string) (*model.UploadBatch, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	b, ok := m.batches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	b.IsDeleted = false
	b.DeletedBy = nil
	b.DeletedAt = nil
	cp := *b
	return &cp, nil
}

// --- CertificateRepository ---

type memCerts memStore

func containsFold(value, needle string) bool {
	needle = strings.TrimSpace(needle)
	return needle == "" || strings.Contains(strings.ToLower(value), strings.ToLower(needle))
}

// visible возвращает сертификаты неудалённых пакетов по фильтру в порядке выдачи.
func (m *memStore) visible(f model.CertificateFilter) []*model.Certificate {
	var result []*model.Certificate
	for _, c := range m.certs {
		if b := m.batches[c.BatchID]; b == nil || b.IsDeleted {
			continue
		}
		if containsFold(c.Name, f.Name) && containsFold(c.RollNo, f.RollNo) &&
			containsFold(c.Event, f.Event) && containsFold(c.Date, f.Date) &&
			containsFold(c.UploadedBy, f.UploadedBy) && containsFold(c.CertificateNo, f.CertificateNo) &&
			(strings.TrimSpace(f.BatchID) == "" || c.BatchID == strings.TrimSpace(f.BatchID)) {
			result = append(result, c)
		}
	}
	// стабильная сортировка сохраняет порядок вставки при равном времени
	sort.SliceStable(result, func(i, j int) bool { return result[i].UploadedAt.After(result[j].UploadedAt) })
	return result
}

func (r *memCerts) List(_ context.Context, f model.CertificateFilter, limit, offset int) ([]*model.Certificate, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	all := m.visible(f)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memCerts) Count(_ context.Context, f model.CertificateFilter) (int64, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	return int64(len(m.visible(f))), nil
}

func (m *memStore) group(key func(*model.Certificate) string) []model.GroupCount {
	counts := make(map[string]int64)
	for _, c := range m.visible(model.CertificateFilter{}) {
		counts[key(c)]++
	}
	result := []model.GroupCount{}
	for k, v := range counts {
		result = append(result, model.GroupCount{Key: k, Count: v})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Key < result[j].Key
	})
	return result
}

func (r *memCerts) CountByUploader(_ context.Context) ([]model.GroupCount, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.group(func(c *model.Certificate) string { return c.UploadedBy }), nil
}

func (r *memCerts) CountByEvent(_ context.Context, limit int) ([]model.GroupCount, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	result := m.group(func(c *model.Certificate) string { return c.Event })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- AuditLogRepository ---

type memAudit memStore

func (r *memAudit) Create(_ context.Context, e *model.AuditLog) error {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAudit != nil {
		return m.failAudit
	}
	cp := *e
	m.audit = append(m.audit, &cp)
	return nil
}

func (r *memAudit) List(_ context.Context, limit int) ([]*model.AuditLog, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var result []*model.AuditLog
	for i := len(m.audit) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.audit[i])
	}
	return result, nil
}
