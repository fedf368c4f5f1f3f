package portal

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/large-event/teamd-backend/internal/api/respond"
	"github.com/large-event/teamd-backend/internal/db/models"
	"github.com/large-event/teamd-backend/internal/db/repositories"
	"github.com/large-event/teamd-backend/internal/validation"
)

// SetupHandlers implements the first-run bootstrap flow. When the server
// starts with no system admin it prints a one-time setup token and stores its
// bcrypt hash; this endpoint exchanges that token for the initial admin
// account, then disables itself permanently.
type SetupHandlers struct {
	userRepo     *repositories.UserRepository
	settingsRepo *repositories.SettingsRepository
}

// NewSetupHandlers creates a new SetupHandlers instance.
func NewSetupHandlers(userRepo *repositories.UserRepository, settingsRepo *repositories.SettingsRepository) *SetupHandlers {
	return &SetupHandlers{userRepo: userRepo, settingsRepo: settingsRepo}
}

type createAdminRequest struct {
	SetupToken string `json:"setupToken"`
	Email      string `json:"email"`
	Name       string `json:"name"`
}

// CreateAdmin creates the initial system administrator.
//
// POST /api/setup/admin
func (h *SetupHandlers) CreateAdmin(c *gin.Context) {
	ctx := c.Request.Context()

	completed, err := h.settingsRepo.IsBootstrapCompleted(ctx)
	if err != nil {
		slog.Error("bootstrap state lookup failed", "error", err)
		respond.InternalError(c)
		return
	}
	if completed {
		respond.Forbidden(c, "Setup has already been completed")
		return
	}

	var req createAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.ValidationError(c, "setupToken, email, and name are required", nil)
		return
	}

	hash, err := h.settingsRepo.GetBootstrapTokenHash(ctx)
	if err != nil {
		slog.Error("bootstrap token lookup failed", "error", err)
		respond.InternalError(c)
		return
	}
	if hash == "" {
		respond.Forbidden(c, "Setup is not available")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.SetupToken)) != nil {
		respond.Unauthorized(c, "Invalid setup token")
		return
	}

	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if !validation.ValidEmail(email) {
		respond.ValidationError(c, "Invalid email format", nil)
		return
	}
	if name == "" {
		respond.ValidationError(c, "Name is required", nil)
		return
	}

	existing, err := h.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		slog.Error("bootstrap email lookup failed", "error", err)
		respond.InternalError(c)
		return
	}
	if existing != nil {
		respond.ValidationError(c, "A user with this email already exists", nil)
		return
	}

	admin := &models.User{
		Email:         email,
		Name:          name,
		IsSystemAdmin: true,
	}
	if err := h.userRepo.CreateUser(ctx, admin); err != nil {
		slog.Error("bootstrap admin creation failed", "error", err)
		respond.InternalError(c)
		return
	}

	if err := h.settingsRepo.MarkBootstrapCompleted(ctx); err != nil {
		// Admin exists; the stale token hash is unusable once completed is set
		// on retry, so log and continue.
		slog.Error("failed to mark bootstrap completed", "error", err)
	}

	slog.Info("initial system admin created", "user_id", admin.ID, "email", admin.Email)

	respond.Created(c, gin.H{"user": admin})
}
