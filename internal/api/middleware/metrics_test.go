package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health/live", "/health/live"},
		{"/metrics", "/metrics"},
		{"/api/v1/certificates", "/api/v1/certificates"},
		{"/api/v1/certificates/export", "/api/v1/certificates/export"},
		{"/api/v1/batches", "/api/v1/batches"},
		{"/api/v1/batches/6f1c2a4e-9d1b-4e53-8f4a-0b1c2d3e4f50", "/api/v1/batches/{id}"},
		{"/api/v1/batches/6f1c2a4e-9d1b-4e53-8f4a-0b1c2d3e4f50/restore", "/api/v1/batches/{id}/restore"},
		{"/api/v1/batches/not-a-uuid", "/api/v1/batches/{id}"},
		{"/api/v1/batches/", "other"},
		{"/api/v1/batches/a/b/c", "other"},
		{"/unknown/path", "other"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидалось %q", tt.path, got, tt.want)
		}
	}
}

func TestMetricsMiddleware_PassesStatus(t *testing.T) {
	handler := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("статус = %d, ожидалось %d", rec.Code, http.StatusTeapot)
	}
}
