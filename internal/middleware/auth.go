// Package middleware provides Gin HTTP middleware for authentication,
// authorization, rate limiting, security headers, and audit logging.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Recovery → RequestID → Metrics → Logger → CORS → Security → RateLimit → Auth → Handler
//
// Security headers run before any handler so they appear on all responses
// including errors. Rate limiting runs before auth so brute-force attempts are
// rejected without any token work. Auth populates the session identity that
// downstream handlers and the audit middleware read from the context.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/large-event/teamd-backend/internal/auth"
	"github.com/large-event/teamd-backend/internal/api/respond"
	"github.com/large-event/teamd-backend/internal/db/models"
)

// Context keys set by RequireAuth for downstream handlers.
const (
	UserKey          = "user"
	UserIDKey        = "user_id"
	IsSystemAdminKey = "is_system_admin"
	TokenKey         = "session_token"
)

// extractToken pulls the session token from the request. The HttpOnly cookie
// is the primary transport for browser portals; the Authorization header is a
// fallback for non-browser clients and the token-echo flow.
func extractToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// RequireAuth validates the session token and attaches the identity snapshot
// to the request context. Every failure mode (missing token, expired, bad
// signature, malformed) produces the same 401 so the response does not reveal
// which check failed.
func RequireAuth(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			respond.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		snapshot, err := auth.VerifyToken(token)
		if err != nil {
			respond.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		c.Set(UserKey, snapshot)
		c.Set(UserIDKey, snapshot.ID)
		c.Set(IsSystemAdminKey, snapshot.IsSystemAdmin)
		c.Set(TokenKey, token)

		c.Next()
	}
}

// RequireSystemAdmin rejects requests from non-admin sessions with 403.
// It must be registered after RequireAuth.
func RequireSystemAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot, ok := CurrentUser(c)
		if !ok {
			respond.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}
		if !snapshot.IsSystemAdmin {
			respond.Forbidden(c, "System administrator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the identity snapshot attached by RequireAuth.
func CurrentUser(c *gin.Context) (models.UserSnapshot, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return models.UserSnapshot{}, false
	}
	snapshot, ok := v.(models.UserSnapshot)
	return snapshot, ok
}
