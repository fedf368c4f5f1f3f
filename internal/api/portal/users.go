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

// UserHandlers holds dependencies for user administration endpoints.
type UserHandlers struct {
	userRepo *repositories.UserRepository
}

// NewUserHandlers creates a new UserHandlers instance.
func NewUserHandlers(userRepo *repositories.UserRepository) *UserHandlers {
	return &UserHandlers{userRepo: userRepo}
}

// List returns all platform accounts.
//
// GET /api/users
func (h *UserHandlers) List(c *gin.Context) {
	users, err := h.userRepo.ListUsers(c.Request.Context())
	if err != nil {
		slog.Error("user listing failed", "error", err)
		respond.InternalError(c)
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	respond.OK(c, gin.H{
		"users": users,
		"count": len(users),
	})
}

// Get returns one account by ID.
//
// GET /api/users/:id
func (h *UserHandlers) Get(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respond.ValidationError(c, "Invalid user ID", nil)
		return
	}

	user, err := h.userRepo.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		slog.Error("user lookup failed", "error", err, "user_id", userID)
		respond.InternalError(c)
		return
	}
	if user == nil {
		respond.UserNotFound(c)
		return
	}

	respond.OK(c, gin.H{"user": user})
}

// Profile returns the caller's own database row. Unlike /api/auth/me this
// reads the database, so it reflects edits made after the token was issued.
//
// GET /api/users/me/profile
func (h *UserHandlers) Profile(c *gin.Context) {
	snapshot, ok := middleware.CurrentUser(c)
	if !ok {
		respond.Unauthorized(c, "Authentication required")
		return
	}

	user, err := h.userRepo.GetUserByID(c.Request.Context(), snapshot.ID)
	if err != nil {
		slog.Error("profile lookup failed", "error", err, "user_id", snapshot.ID)
		respond.InternalError(c)
		return
	}
	if user == nil {
		// Account deleted while the token was still valid.
		respond.UserNotFound(c)
		return
	}

	respond.OK(c, gin.H{"profile": user})
}

// Delete removes an account. The deleted row is returned so the admin portal
// can render an undo-style confirmation.
//
// DELETE /api/users/:id
func (h *UserHandlers) Delete(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respond.ValidationError(c, "Invalid user ID", nil)
		return
	}

	user, err := h.userRepo.DeleteUser(c.Request.Context(), userID)
	if err != nil {
		slog.Error("user delete failed", "error", err, "user_id", userID)
		respond.InternalError(c)
		return
	}
	if user == nil {
		respond.UserNotFound(c)
		return
	}

	respond.OK(c, gin.H{
		"message": "User deleted",
		"user":    user,
	})
}
