package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, string)
		wantStatus int
		wantCode   string
	}{
		{"validation", ValidationError, http.StatusBadRequest, CodeValidationError},
		{"not found", NotFound, http.StatusNotFound, CodeNotFound},
		{"no data", NoData, http.StatusNotFound, CodeNoData},
		{"unauthorized", Unauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{"invalid credentials", InvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{"forbidden", Forbidden, http.StatusForbidden, CodeForbidden},
		{"too many requests", TooManyRequests, http.StatusTooManyRequests, CodeTooManyRequests},
		{"internal", InternalError, http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, "сообщение")

			if rec.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидалось %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("некорректный JSON: %v", err)
			}
			if body.Error.Code != tt.wantCode || body.Error.Message != "сообщение" {
				t.Errorf("тело = %+v", body)
			}
		})
	}
}
