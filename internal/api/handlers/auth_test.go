package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Aryan-dev-enth/certificate-manager/internal/auth"
	"github.com/Aryan-dev-enth/certificate-manager/internal/service"
)

// errorCode извлекает error.code из тела ответа.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("некорректный JSON ошибки: %v", err)
	}
	return body.Error.Code
}

func TestLogin(t *testing.T) {
	th := newTestHandler()
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	th.auth.loginFn = func(_ context.Context, email, password string) (*service.LoginResult, error) {
		if email != superID.Email || password != "secret" {
			return nil, service.ErrInvalidCredentials
		}
		return &service.LoginResult{Identity: *superID, Token: "tok", ExpiresAt: expires}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"admin@srmuniversity.ac.in","password":"secret"}`))
	rec := httptest.NewRecorder()
	th.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидалось 200: %s", rec.Code, rec.Body.String())
	}
	var body loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("некорректный JSON: %v", err)
	}
	if body.Token != "tok" || !body.User.IsSuperAdmin || body.User.Role != "admin" || !body.ExpiresAt.Equal(expires) {
		t.Errorf("тело = %+v", body)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.CookieName || cookies[0].Value != "tok" || !cookies[0].HttpOnly {
		t.Errorf("cookie = %+v", cookies)
	}
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"неверный пароль", `{"email":"admin@srmuniversity.ac.in","password":"bad"}`, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"нет пароля", `{"email":"admin@srmuniversity.ac.in"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"некорректный email", `{"email":"admin","password":"x"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"не JSON", `email=admin`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := newTestHandler()
			th.auth.loginFn = func(context.Context, string, string) (*service.LoginResult, error) {
				return nil, service.ErrInvalidCredentials
			}

			rec := httptest.NewRecorder()
			th.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидалось %d", rec.Code, tt.wantStatus)
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("код = %s, ожидалось %s", code, tt.wantCode)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Error("при ошибке cookie не выставляется")
			}
		})
	}
}

func TestLogout(t *testing.T) {
	th := newTestHandler()

	rec := httptest.NewRecorder()
	th.Logout(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), clubID))

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидалось 200", rec.Code)
	}
	if len(th.auth.loggedOut) != 1 || th.auth.loggedOut[0] != clubID {
		t.Errorf("Logout вызван с %v", th.auth.loggedOut)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.CookieName || cookies[0].MaxAge >= 0 {
		t.Errorf("cookie не удалена: %+v", cookies)
	}
}

func TestMe(t *testing.T) {
	th := newTestHandler()

	rec := httptest.NewRecorder()
	th.Me(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("без сессии статус = %d, ожидалось 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	th.Me(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), clubID))
	var body identityResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("некорректный JSON: %v", err)
	}
	if body.Email != clubID.Email || body.Role != "club" || body.IsSuperAdmin {
		t.Errorf("тело = %+v", body)
	}
}
