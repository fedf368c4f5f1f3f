package portal

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/large-event/teamd-backend/internal/api/respond"
	"github.com/large-event/teamd-backend/internal/db/models"
	"github.com/large-event/teamd-backend/internal/db/repositories"
	"github.com/large-event/teamd-backend/internal/middleware"
)

// InstanceHandlers holds dependencies for instance listing, detail, and
// access-grant administration.
type InstanceHandlers struct {
	instanceRepo *repositories.InstanceRepository
	userRepo     *repositories.UserRepository
}

// NewInstanceHandlers creates a new InstanceHandlers instance.
func NewInstanceHandlers(instanceRepo *repositories.InstanceRepository, userRepo *repositories.UserRepository) *InstanceHandlers {
	return &InstanceHandlers{instanceRepo: instanceRepo, userRepo: userRepo}
}

// List returns every instance the caller holds an access grant for, each with
// the caller's access level and the owning organization.
//
// GET /api/instances
func (h *InstanceHandlers) List(c *gin.Context) {
	snapshot, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Unauthorized(c, "Authentication required")
		return
	}

	instances, err := h.instanceRepo.ListAccessibleInstances(c.Request.Context(), snapshot.ID)
	if err != nil {
		slog.Error("instance listing failed", "error", err, "user_id", snapshot.ID)
		respond.InternalError(c)
		return
	}
	if instances == nil {
		instances = []models.InstanceSummary{}
	}

	respond.OK(c, gin.H{
		"instances": instances,
		"count":     len(instances),
	})
}

// Get returns one instance with the caller's access level.
//
// The access check runs before the existence check: a caller without a grant
// receives 403 whether or not the instance exists, so the endpoint leaks no
// information about which instance IDs are in use.
//
// GET /api/instances/:id
func (h *InstanceHandlers) Get(c *gin.Context) {
	snapshot, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Unauthorized(c, "Authentication required")
		return
	}

	instanceID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respond.ValidationError(c, "Invalid instance ID", nil)
		return
	}

	access, err := h.instanceRepo.GetAccess(c.Request.Context(), snapshot.ID, instanceID)
	if err != nil {
		slog.Error("access lookup failed", "error", err, "user_id", snapshot.ID, "instance_id", instanceID)
		respond.InternalError(c)
		return
	}
	if access == nil {
		respond.Forbidden(c, "You do not have access to this instance")
		return
	}

	instance, err := h.instanceRepo.GetInstanceWithOrg(c.Request.Context(), instanceID)
	if err != nil {
		slog.Error("instance lookup failed", "error", err, "instance_id", instanceID)
		respond.InternalError(c)
		return
	}
	if instance == nil {
		respond.NotFound(c, "Instance not found")
		return
	}

	instance.AccessLevel = access.AccessLevel
	respond.OK(c, gin.H{"instance": instance})
}

type grantAccessRequest struct {
	UserID      int    `json:"userId"`
	AccessLevel string `json:"accessLevel"`
}

// GrantAccess inserts or replaces a user's access grant on an instance.
//
// POST /api/instances/:id/access
func (h *InstanceHandlers) GrantAccess(c *gin.Context) {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Unauthorized(c, "Authentication required")
		return
	}

	instanceID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respond.ValidationError(c, "Invalid instance ID", nil)
		return
	}

	var req grantAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.ValidationError(c, "userId and accessLevel are required", nil)
		return
	}
	if req.UserID <= 0 {
		respond.ValidationError(c, "userId is required", nil)
		return
	}
	if !models.ValidAccessLevel(req.AccessLevel) {
		respond.ValidationError(c, "accessLevel must be one of web_user, web_admin, both", nil)
		return
	}

	user, err := h.userRepo.GetUserByID(c.Request.Context(), req.UserID)
	if err != nil {
		slog.Error("grant target lookup failed", "error", err, "user_id", req.UserID)
		respond.InternalError(c)
		return
	}
	if user == nil {
		respond.UserNotFound(c)
		return
	}

	instance, err := h.instanceRepo.GetInstanceWithOrg(c.Request.Context(), instanceID)
	if err != nil {
		slog.Error("instance lookup failed", "error", err, "instance_id", instanceID)
		respond.InternalError(c)
		return
	}
	if instance == nil {
		respond.NotFound(c, "Instance not found")
		return
	}

	grantedBy := caller.ID
	access := &models.UserInstanceAccess{
		UserID:      req.UserID,
		InstanceID:  instanceID,
		AccessLevel: req.AccessLevel,
		GrantedBy:   &grantedBy,
	}
	if err := h.instanceRepo.GrantAccess(c.Request.Context(), access); err != nil {
		slog.Error("grant insert failed", "error", err, "user_id", req.UserID, "instance_id", instanceID)
		respond.InternalError(c)
		return
	}

	respond.Created(c, gin.H{"access": access})
}

// RevokeAccess removes a user's access grant. Absence of the row already
// means no access, so revoking a non-existent grant is a 404.
//
// DELETE /api/instances/:id/access/:userId
func (h *InstanceHandlers) RevokeAccess(c *gin.Context) {
	instanceID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respond.ValidationError(c, "Invalid instance ID", nil)
		return
	}
	userID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		respond.ValidationError(c, "Invalid user ID", nil)
		return
	}

	revoked, err := h.instanceRepo.RevokeAccess(c.Request.Context(), userID, instanceID)
	if err != nil {
		slog.Error("revoke failed", "error", err, "user_id", userID, "instance_id", instanceID)
		respond.InternalError(c)
		return
	}
	if !revoked {
		respond.NotFound(c, "Access grant not found")
		return
	}

	respond.OK(c, gin.H{"message": "Access revoked"})
}
