// Package api wires together all HTTP routes for the Team D platform backend.
//
// Route grouping philosophy:
//   - /api/auth/login and /api/auth/logout are unauthenticated: login creates
//     the session, and logout must succeed even with a dead or absent token so
//     a portal can always reset itself. Login carries a strict rate limit.
//   - /api/setup/admin authenticates with the one-time setup token instead of
//     a session and disables itself after first use.
//   - Everything else under /api requires a verified session; user and
//     organization administration additionally requires the system-admin flag.
package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/large-event/teamd-backend/internal/api/portal"
	"github.com/large-event/teamd-backend/internal/config"
	"github.com/large-event/teamd-backend/internal/db/repositories"
	"github.com/large-event/teamd-backend/internal/middleware"
	"github.com/large-event/teamd-backend/internal/session"
)

var startedAt = time.Now()

// BackgroundServices holds resources that must be stopped during graceful
// shutdown. The caller (cmd/server) invokes Shutdown after the HTTP server
// has drained in-flight requests.
type BackgroundServices struct {
	hub          *session.Hub
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops the session hub and rate limiter goroutines.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.hub != nil {
		bg.hub.Close()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)

	// Wrap *sql.DB with sqlx for the instance, audit, and settings repositories
	sqlxDB := sqlx.NewDb(db, "postgres")
	instanceRepo := repositories.NewInstanceRepository(sqlxDB)
	auditRepo := repositories.NewAuditRepository(sqlxDB)
	settingsRepo := repositories.NewSettingsRepository(sqlxDB)

	hub := session.NewHub()

	cookie := portal.CookieSettings{
		Name:   cfg.Auth.CookieName,
		Domain: cfg.Auth.CookieDomain,
		Secure: cfg.Server.IsProduction(),
		TTL:    cfg.Auth.TokenTTL,
	}

	authHandlers := portal.NewAuthHandlers(userRepo, hub, cookie)
	instanceHandlers := portal.NewInstanceHandlers(instanceRepo, userRepo)
	userHandlers := portal.NewUserHandlers(userRepo)
	orgHandlers := portal.NewOrganizationHandlers(orgRepo)
	setupHandlers := portal.NewSetupHandlers(userRepo, settingsRepo)
	sessionHandlers := portal.NewSessionHandlers(hub)
	auditHandlers := portal.NewAuditHandlers(auditRepo)

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeaders(middleware.APISecurityHeadersConfig()))

	bg := &BackgroundServices{hub: hub}

	// Health endpoints
	router.GET("/health", healthCheckHandler(db))
	router.GET("/health/detailed", detailedHealthHandler(cfg, db))

	requireAuth := middleware.RequireAuth(cfg.Auth.CookieName)
	requireAdmin := middleware.RequireSystemAdmin()

	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.Audit(auditRepo))

	// Session endpoints; login gets the strict limiter, the rest of the API
	// shares the general one.
	if cfg.Security.RateLimiting.Enabled {
		authLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
		apiLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.Security.RateLimiting.RequestsPerMinute,
			BurstSize:         cfg.Security.RateLimiting.Burst,
			CleanupInterval:   5 * time.Minute,
		})
		bg.rateLimiters = append(bg.rateLimiters, authLimiter, apiLimiter)

		apiGroup.Use(middleware.RateLimit(apiLimiter))
		apiGroup.POST("/auth/login", middleware.RateLimit(authLimiter), authHandlers.Login)
	} else {
		apiGroup.POST("/auth/login", authHandlers.Login)
	}

	apiGroup.POST("/auth/logout", authHandlers.Logout)
	apiGroup.GET("/auth/me", requireAuth, authHandlers.Me)
	apiGroup.GET("/auth/token", requireAuth, authHandlers.Token)

	// Setup (one-time bootstrap, token-authenticated)
	apiGroup.POST("/setup/admin", setupHandlers.CreateAdmin)

	// Instances
	apiGroup.GET("/instances", requireAuth, instanceHandlers.List)
	apiGroup.GET("/instances/:id", requireAuth, instanceHandlers.Get)
	apiGroup.POST("/instances/:id/access", requireAuth, requireAdmin, instanceHandlers.GrantAccess)
	apiGroup.DELETE("/instances/:id/access/:userId", requireAuth, requireAdmin, instanceHandlers.RevokeAccess)

	// Users
	apiGroup.GET("/users", requireAuth, requireAdmin, userHandlers.List)
	apiGroup.GET("/users/me/profile", requireAuth, userHandlers.Profile)
	apiGroup.GET("/users/:id", requireAuth, requireAdmin, userHandlers.Get)
	apiGroup.DELETE("/users/:id", requireAuth, requireAdmin, userHandlers.Delete)

	// Organizations
	apiGroup.GET("/organizations", requireAuth, requireAdmin, orgHandlers.List)
	apiGroup.GET("/organizations/:id", requireAuth, requireAdmin, orgHandlers.Get)

	// Audit trail (admin portal activity view)
	apiGroup.GET("/audit/logs", requireAuth, requireAdmin, auditHandlers.List)

	// Session event stream (cross-portal logout sync)
	apiGroup.GET("/session/events", requireAuth, sessionHandlers.Events)

	return router, bg
}

// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// detailedHealthHandler reports uptime and runtime details for dashboards.
func detailedHealthHandler(cfg *config.Config, db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		dbStatus := "connected"
		if err := db.Ping(); err != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
			dbStatus = "disconnected"
		}

		c.JSON(code, gin.H{
			"status":      status,
			"database":    dbStatus,
			"environment": cfg.Server.Environment,
			"uptime":      time.Since(startedAt).Round(time.Second).String(),
			"go_version":  runtime.Version(),
			"time":        time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware restricts cross-origin access to the configured portal origins
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
