package service

import (
	"github.com/Aryan-dev-enth/certificate-manager/internal/config"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/rbac"
)

const (
	superEmail = "admin@srmuniversity.ac.in"
	clubEmail  = "webytes@srmuniversity.ac.in"
)

func superAdmin() *model.Identity {
	id := rbac.NewIdentity(superEmail, superEmail)
	return &id
}

func club() *model.Identity {
	id := rbac.NewIdentity(clubEmail, superEmail)
	return &id
}

// services — набор сервисов поверх общего memStore.
type services struct {
	store     *memStore
	cache     *StatsCache
	audit     *AuditService
	ingestion *IngestionService
	query     *QueryService
	export    *ExportService
}

func newServices() *services {
	store := newMemStore()
	logger := discardLogger()
	cache := NewStatsCache(0)
	audit := NewAuditService(store.auditRepo(), logger)
	return &services{
		store:     store,
		cache:     cache,
		audit:     audit,
		ingestion: NewIngestionService(store.batchRepo(), cache, audit, logger),
		query:     NewQueryService(store.certRepo(), store.batchRepo(), cache, 25, 200, logger),
		export:    NewExportService(store.certRepo(), audit, config.ExportFields, 10000, logger),
	}
}
