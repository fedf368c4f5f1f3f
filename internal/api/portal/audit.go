package portal

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/large-event/teamd-backend/internal/api/respond"
	"github.com/large-event/teamd-backend/internal/db/models"
	"github.com/large-event/teamd-backend/internal/db/repositories"
)

// AuditHandlers exposes the recorded activity trail to the admin portal.
type AuditHandlers struct {
	auditRepo *repositories.AuditRepository
}

// NewAuditHandlers creates a new AuditHandlers instance.
func NewAuditHandlers(auditRepo *repositories.AuditRepository) *AuditHandlers {
	return &AuditHandlers{auditRepo: auditRepo}
}

// List returns the most recent audit entries, newest first. The limit query
// parameter is optional; out-of-range values fall back to the default.
//
// GET /api/audit/logs
func (h *AuditHandlers) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respond.ValidationError(c, "Invalid limit", nil)
			return
		}
		limit = parsed
	}

	entries, err := h.auditRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		slog.Error("audit listing failed", "error", err)
		respond.InternalError(c)
		return
	}
	if entries == nil {
		entries = []*models.AuditLog{}
	}

	respond.OK(c, gin.H{
		"logs":  entries,
		"count": len(entries),
	})
}
