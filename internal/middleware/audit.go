// audit.go provides Gin middleware that records authenticated write
// operations to the audit log.
package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/large-event/teamd-backend/internal/db/models"
	"github.com/large-event/teamd-backend/internal/db/repositories"
	"github.com/large-event/teamd-backend/internal/safego"
)

// Audit records successful write operations (POST/PUT/PATCH/DELETE) to the
// audit log. Reads and failed requests are skipped: the log answers "who
// changed what", not "who looked at what".
//
// The database write is fire-and-forget. A lost audit row is preferable to
// adding a synchronous DB write to every mutation; the 5-second timeout
// prevents leaked goroutines when the database is unreachable.
func Audit(auditRepo *repositories.AuditRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case "GET", "HEAD", "OPTIONS":
			return
		}
		if c.Writer.Status() >= 400 {
			return
		}

		action := c.Request.Method + " " + c.Request.URL.Path
		ipAddress := c.ClientIP()

		entry := &models.AuditLog{
			Action:    action,
			IPAddress: &ipAddress,
			CreatedAt: time.Now(),
		}

		if userID, exists := c.Get(UserIDKey); exists {
			if id, ok := userID.(int); ok && id != 0 {
				entry.UserID = &id
			}
		}

		if rt := resourceTypeForPath(c.Request.URL.Path); rt != "" {
			entry.ResourceType = &rt
		}

		safego.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := auditRepo.CreateAuditLog(ctx, entry); err != nil {
				slog.Error("failed to write audit log", "action", entry.Action, "error", err)
			}
		})
	}
}

// resourceTypeForPath maps a request path to the audit resource type.
func resourceTypeForPath(path string) string {
	switch {
	case strings.Contains(path, "/instances"):
		return "instance"
	case strings.Contains(path, "/users"):
		return "user"
	case strings.Contains(path, "/organizations"):
		return "organization"
	case strings.Contains(path, "/auth"):
		return "session"
	case strings.Contains(path, "/setup"):
		return "setup"
	}
	return ""
}
