package service

import (
	"testing"
	"time"

	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
)

func TestStatsCache(t *testing.T) {
	c := NewStatsCache(time.Minute)
	if _, ok := c.Get(); ok {
		t.Fatal("пустой кэш вернул значение")
	}

	stats := &model.DashboardStats{TotalCertificates: 7}
	c.Set(c.Generation(), stats)
	got, ok := c.Get()
	if !ok || got != stats {
		t.Fatalf("Get() = %v, %v", got, ok)
	}

	c.Invalidate()
	if _, ok := c.Get(); ok {
		t.Error("после Invalidate кэш должен быть пуст")
	}
}

func TestStatsCache_Expiry(t *testing.T) {
	c := NewStatsCache(20 * time.Millisecond)
	c.Set(c.Generation(), &model.DashboardStats{})
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get(); ok {
		t.Error("запись должна истечь")
	}
}

func TestStatsCache_Disabled(t *testing.T) {
	for name, c := range map[string]*StatsCache{"ttl 0": NewStatsCache(0), "nil": nil} {
		c.Set(c.Generation(), &model.DashboardStats{})
		if _, ok := c.Get(); ok {
			t.Errorf("%s: отключённый кэш вернул значение", name)
		}
		c.Invalidate()
	}
}

func TestStatsCache_SetAfterInvalidate(t *testing.T) {
	c := NewStatsCache(time.Minute)

	gen := c.Generation()
	c.Invalidate()
	c.Set(gen, &model.DashboardStats{TotalCertificates: 1})
	if _, ok := c.Get(); ok {
		t.Fatal("значение старого поколения не должно кэшироваться")
	}

	c.Set(c.Generation(), &model.DashboardStats{TotalCertificates: 2})
	if got, ok := c.Get(); !ok || got.TotalCertificates != 2 {
		t.Errorf("Get() = %v, %v; ожидалось значение текущего поколения", got, ok)
	}
}
