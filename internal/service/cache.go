// cache.go — кэш статистики dashboard.
// Обёртка над hashicorp/golang-lru/v2/expirable; инвалидируется при изменении пакетов.
package service

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_dashboard_cache_hits_total",
		Help: "Общее количество попаданий в кэш статистики dashboard.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_dashboard_cache_misses_total",
		Help: "Общее количество промахов кэша статистики dashboard.",
	})
)

const dashboardCacheKey = "dashboard"

// StatsCache — кэш статистики dashboard с TTL.
// Нулевой TTL отключает кэш.
// Поколение растёт при каждом Invalidate: значение, рассчитанное до сброса,
// в кэш не попадает.
type StatsCache struct {
	cache *expirable.LRU[string, *model.DashboardStats]

	mu  sync.Mutex
	gen uint64
}

// NewStatsCache создаёт кэш статистики.
func NewStatsCache(ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		return &StatsCache{}
	}
	return &StatsCache{cache: expirable.NewLRU[string, *model.DashboardStats](1, nil, ttl)}
}

// Get возвращает закэшированную статистику.
func (c *StatsCache) Get() (*model.DashboardStats, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}
	val, ok := c.cache.Get(dashboardCacheKey)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Generation возвращает текущее поколение кэша.
// Читается до расчёта статистики и передаётся в Set.
func (c *StatsCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Set сохраняет статистику, рассчитанную в поколении gen.
// Если после чтения gen был Invalidate, значение отбрасывается.
func (c *StatsCache) Set(gen uint64, stats *model.DashboardStats) {
	if c == nil || c.cache == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.cache.Add(dashboardCacheKey, stats)
}

// Invalidate сбрасывает кэш и начинает новое поколение.
func (c *StatsCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.cache != nil {
		c.cache.Purge()
	}
}
