package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Aryan-dev-enth/certificate-manager/internal/config"
)

type mockChecker struct {
	status, message string
}

func (m mockChecker) CheckReady() (string, string) { return m.status, m.message }

type mockDeps map[string]bool

func (m mockDeps) Health() map[string]bool { return m }

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil, nil)
	rec := httptest.NewRecorder()
	h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d", rec.Code)
	}
	var body healthLiveResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("некорректный JSON: %v", err)
	}
	if body.Status != "ok" || body.Service != serviceName || body.Version != config.Version {
		t.Errorf("тело = %+v", body)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		checker    ReadinessChecker
		deps       DependencyHealth
		wantStatus int
		wantBody   string
	}{
		{"postgres ok", mockChecker{status: "ok"}, mockDeps{"postgres-main": true}, http.StatusOK, "ok"},
		{"postgres fail", mockChecker{status: "fail", message: "connection refused"}, nil, http.StatusServiceUnavailable, "fail"},
		{"postgres degraded", mockChecker{status: "degraded"}, nil, http.StatusOK, "degraded"},
		{"без checker", nil, nil, http.StatusServiceUnavailable, "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checker, tt.deps)
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидалось %d", rec.Code, tt.wantStatus)
			}
			var body healthReadyResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("некорректный JSON: %v", err)
			}
			if body.Status != tt.wantBody {
				t.Errorf("status = %q, ожидалось %q", body.Status, tt.wantBody)
			}
			if tt.deps != nil && !body.Dependencies["postgres-main"] {
				t.Errorf("dependencies = %v", body.Dependencies)
			}
		})
	}
}

func TestGetMetrics(t *testing.T) {
	h := NewHealthHandler(nil, nil)
	rec := httptest.NewRecorder()
	h.GetMetrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("ожидались стандартные метрики Go")
	}
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"ok"}, "ok"},
		{[]string{"ok", "degraded"}, "degraded"},
		{[]string{"degraded", "fail"}, "fail"},
		{nil, "ok"},
	}
	for _, tt := range tests {
		if got := overallStatus(tt.in...); got != tt.want {
			t.Errorf("overallStatus(%v) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}
}
