package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/large-event/teamd-backend/internal/auth"
	"github.com/large-event/teamd-backend/internal/config"
	"github.com/large-event/teamd-backend/internal/db/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("TEAMD_JWT_SECRET", "test-jwt-secret-that-is-32-chars!!")
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Environment = "development"
	cfg.Auth.CookieName = "auth-token"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Security.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Logging.Level = "info"
	return cfg
}

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	router, bg := NewRouter(testConfig(), db)
	t.Cleanup(bg.Shutdown)
	return router, mock
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(router, "/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
}

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	mock.ExpectPing().WillReturnError(sql.ErrConnDone)

	router, bg := NewRouter(testConfig(), db)
	t.Cleanup(bg.Shutdown)

	rec := get(router, "/health")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when the database is unreachable", rec.Code)
	}
}

func TestDetailedHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(router, "/health/detailed")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"status", "database", "environment", "uptime", "go_version"} {
		if _, ok := body[key]; !ok {
			t.Errorf("detailed health missing %q", key)
		}
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	paths := []string{
		"/api/instances",
		"/api/instances/10",
		"/api/users",
		"/api/users/me/profile",
		"/api/organizations",
		"/api/audit/logs",
		"/api/auth/me",
		"/api/auth/token",
		"/api/session/events",
	}

	for _, path := range paths {
		rec := get(router, path)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s = %d, want 401 without a session", path, rec.Code)
		}
	}
}

func TestAdminRoutesRejectRegularUsers(t *testing.T) {
	router, _ := newTestRouter(t)
	token, err := auth.GenerateToken(models.UserSnapshot{ID: 3, Email: "user@mes.dev", Name: "MES User"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	paths := []string{"/api/users", "/api/organizations", "/api/audit/logs"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: "auth-token", Value: token})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("GET %s = %d, want 403 for a non-admin", path, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want the request origin", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want true", got)
	}
}

func TestCORSUnknownOrigin(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want unset for a disallowed origin", got)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(router, "/health")

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestRequestIDReturned(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(router, "/health")

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing from response")
	}
}

func TestRateLimiterWiredWhenEnabled(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := testConfig()
	cfg.Security.RateLimiting.Enabled = true
	cfg.Security.RateLimiting.RequestsPerMinute = 200
	cfg.Security.RateLimiting.Burst = 50

	router, bg := NewRouter(cfg, db)
	t.Cleanup(bg.Shutdown)

	rec := get(router, "/api/auth/me")

	// 401 rather than 429: the limiter admits the request and auth rejects it.
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("X-RateLimit-Limit header missing; limiter not wired")
	}
}
