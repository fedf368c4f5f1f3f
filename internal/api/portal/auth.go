// Package portal implements the HTTP handlers behind the /api prefix: session
// management, instance listing and switching, user administration, and the
// first-run setup flow. Handlers translate between the response envelope and
// the repository layer; authorization decisions live here, persistence lives
// in internal/db/repositories.
package portal

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/large-event/teamd-backend/internal/api/respond"
	"github.com/large-event/teamd-backend/internal/auth"
	"github.com/large-event/teamd-backend/internal/db/repositories"
	"github.com/large-event/teamd-backend/internal/middleware"
	"github.com/large-event/teamd-backend/internal/session"
	"github.com/large-event/teamd-backend/internal/telemetry"
	"github.com/large-event/teamd-backend/internal/validation"
)

// CookieSettings captures how the session cookie is written. Production sets
// Secure and a parent domain so every portal on *.large-event.com shares the
// session; development leaves both off for plain-HTTP localhost.
type CookieSettings struct {
	Name   string
	Domain string
	Secure bool
	TTL    time.Duration
}

// AuthHandlers holds dependencies for the session endpoints.
type AuthHandlers struct {
	userRepo *repositories.UserRepository
	hub      *session.Hub
	cookie   CookieSettings
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(userRepo *repositories.UserRepository, hub *session.Hub, cookie CookieSettings) *AuthHandlers {
	if cookie.TTL == 0 {
		cookie.TTL = auth.DefaultTokenTTL
	}
	return &AuthHandlers{userRepo: userRepo, hub: hub, cookie: cookie}
}

type loginRequest struct {
	Email string `json:"email"`
}

// Login authenticates by email only. Accounts are pre-provisioned; an unknown
// email is a 404, never an account creation.
//
// POST /api/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		telemetry.LoginAttemptsTotal.WithLabelValues("invalid_email").Inc()
		respond.ValidationError(c, "Email is required", nil)
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		telemetry.LoginAttemptsTotal.WithLabelValues("invalid_email").Inc()
		respond.ValidationError(c, "Email is required", nil)
		return
	}
	if !validation.ValidEmail(email) {
		telemetry.LoginAttemptsTotal.WithLabelValues("invalid_email").Inc()
		respond.ValidationError(c, "Invalid email format", nil)
		return
	}

	user, err := h.userRepo.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		telemetry.LoginAttemptsTotal.WithLabelValues("error").Inc()
		slog.Error("login lookup failed", "error", err, "request_id", c.GetString(middleware.RequestIDKey))
		respond.InternalError(c)
		return
	}
	if user == nil {
		telemetry.LoginAttemptsTotal.WithLabelValues("user_not_found").Inc()
		respond.UserNotFound(c)
		return
	}

	token, err := auth.GenerateToken(user.Snapshot(), h.cookie.TTL)
	if err != nil {
		telemetry.LoginAttemptsTotal.WithLabelValues("error").Inc()
		slog.Error("token generation failed", "error", err, "user_id", user.ID)
		respond.Error(c, http.StatusInternalServerError, "Login failed", respond.CodeLoginError)
		return
	}

	h.setSessionCookie(c, token, int(h.cookie.TTL.Seconds()))

	telemetry.LoginAttemptsTotal.WithLabelValues("success").Inc()
	h.hub.Publish(session.Event{Type: session.EventLogin, Source: c.GetString(middleware.RequestIDKey)})

	respond.OK(c, gin.H{
		"user":  user.Snapshot(),
		"token": token,
	})
}

// Logout clears the session cookie and notifies other portals through the
// session hub. It requires no authentication: clearing an absent session is
// harmless and must not fail when the token already expired.
//
// POST /api/auth/logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)

	h.hub.Publish(session.Event{Type: session.EventLogout, Source: c.GetString(middleware.RequestIDKey)})

	respond.OK(c, gin.H{"message": "Logged out successfully"})
}

// Me returns the identity snapshot decoded from the verified token. No
// database read: the token is the source of truth for the session identity.
//
// GET /api/auth/me
func (h *AuthHandlers) Me(c *gin.Context) {
	snapshot, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Unauthorized(c, "Authentication required")
		return
	}
	respond.OK(c, gin.H{"user": snapshot})
}

// Token echoes the verified session token so browser portals can hand it to
// non-cookie clients (mobile web views, websocket connects).
//
// GET /api/auth/token
func (h *AuthHandlers) Token(c *gin.Context) {
	token := c.GetString(middleware.TokenKey)
	if token == "" {
		respond.Unauthorized(c, "Authentication required")
		return
	}
	respond.OK(c, gin.H{"token": token})
}

func (h *AuthHandlers) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}
