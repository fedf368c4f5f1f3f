package portal

import (
	"net/http"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/large-event/teamd-backend/internal/auth"
	"github.com/large-event/teamd-backend/internal/db/models"
	"github.com/large-event/teamd-backend/internal/middleware"
	"github.com/large-event/teamd-backend/internal/session"
)

const testCookie = "auth-token"

var userCols = []string{"id", "email", "name", "is_system_admin", "created_at", "updated_at"}

func newAuthRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *session.Hub) {
	t.Helper()
	userRepo, mock := newUserRepoMock(t)
	hub := session.NewHub()
	t.Cleanup(hub.Close)

	h := NewAuthHandlers(userRepo, hub, CookieSettings{Name: testCookie})
	router := gin.New()
	router.POST("/api/auth/login", h.Login)
	router.POST("/api/auth/logout", h.Logout)
	router.GET("/api/auth/me", middleware.RequireAuth(testCookie), h.Me)
	router.GET("/api/auth/token", middleware.RequireAuth(testCookie), h.Token)
	return router, mock, hub
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestLogin_MissingEmail(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	rec := performJSON(router, http.MethodPost, "/api/auth/login", `{}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestLogin_InvalidEmailFormat(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	rec := performJSON(router, http.MethodPost, "/api/auth/login", `{"email":"not-an-email"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Message != "Invalid email format" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	router, mock, _ := newAuthRouter(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE email").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	rec := performJSON(router, http.MethodPost, "/api/auth/login", `{"email":"ghost@example.com"}`)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "USER_NOT_FOUND" {
		t.Errorf("unexpected envelope: %+v", env)
	}
	if cookie := findCookie(rec, testCookie); cookie != nil {
		t.Error("no session cookie should be set on failed login")
	}
}

func TestLogin_Success(t *testing.T) {
	router, mock, hub := newAuthRouter(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE email").
		WithArgs("user@mes.dev").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(3, "user@mes.dev", "MES User", false, time.Now(), time.Now()))

	events, cancel := hub.Subscribe()
	defer cancel()

	rec := performJSON(router, http.MethodPost, "/api/auth/login", `{"email":"user@mes.dev"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("success = false, body = %s", rec.Body.String())
	}

	cookie := findCookie(rec, testCookie)
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if !cookie.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", cookie.SameSite)
	}
	if cookie.Path != "/" {
		t.Errorf("Path = %q, want /", cookie.Path)
	}
	if cookie.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Errorf("MaxAge = %d, want 86400", cookie.MaxAge)
	}

	snapshot, err := auth.VerifyToken(cookie.Value)
	if err != nil {
		t.Fatalf("cookie does not hold a valid token: %v", err)
	}
	if snapshot.ID != 3 || snapshot.Email != "user@mes.dev" {
		t.Errorf("token snapshot = %+v, want user 3", snapshot)
	}

	select {
	case event := <-events:
		if event.Type != session.EventLogin {
			t.Errorf("event type = %q, want %q", event.Type, session.EventLogin)
		}
	case <-time.After(time.Second):
		t.Error("no login event published")
	}
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func TestLogout_ClearsCookieAndPublishes(t *testing.T) {
	router, _, hub := newAuthRouter(t)
	events, cancel := hub.Subscribe()
	defer cancel()

	rec := performJSON(router, http.MethodPost, "/api/auth/logout", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cookie := findCookie(rec, testCookie)
	if cookie == nil {
		t.Fatal("logout must rewrite the session cookie")
	}
	if cookie.MaxAge >= 0 {
		t.Errorf("MaxAge = %d, want negative to expire the cookie", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Errorf("cookie value = %q, want empty", cookie.Value)
	}

	select {
	case event := <-events:
		if event.Type != session.EventLogout {
			t.Errorf("event type = %q, want %q", event.Type, session.EventLogout)
		}
	case <-time.After(time.Second):
		t.Error("no logout event published")
	}
}

func TestLogout_WorksWithoutSession(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	rec := performJSON(router, http.MethodPost, "/api/auth/logout", "")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 even with no active session", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Me / Token
// ---------------------------------------------------------------------------

func sessionTokenFor(t *testing.T, snapshot models.UserSnapshot) string {
	t.Helper()
	token, err := auth.GenerateToken(snapshot, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func TestMe_ReturnsTokenIdentity(t *testing.T) {
	router, _, _ := newAuthRouter(t)
	token := sessionTokenFor(t, models.UserSnapshot{ID: 3, Email: "user@mes.dev", Name: "MES User"})

	req := newRequestWithCookie(http.MethodGet, "/api/auth/me", token)
	rec := serve(router, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	var user models.UserSnapshot
	mustUnmarshal(t, env.Data["user"], &user)
	if user.ID != 3 || user.Email != "user@mes.dev" {
		t.Errorf("user = %+v, want ID 3", user)
	}
}

func TestMe_Unauthenticated(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	rec := performJSON(router, http.MethodGet, "/api/auth/me", "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestToken_EchoesSessionToken(t *testing.T) {
	router, _, _ := newAuthRouter(t)
	token := sessionTokenFor(t, models.UserSnapshot{ID: 3, Email: "user@mes.dev", Name: "MES User"})

	req := newRequestWithCookie(http.MethodGet, "/api/auth/token", token)
	rec := serve(router, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	var echoed string
	mustUnmarshal(t, env.Data["token"], &echoed)
	if echoed != token {
		t.Error("echoed token differs from the presented one")
	}
}
