package portal

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/large-event/teamd-backend/internal/api/respond"
	"github.com/large-event/teamd-backend/internal/db/models"
	"github.com/large-event/teamd-backend/internal/db/repositories"
)

// OrganizationHandlers holds dependencies for organization endpoints.
type OrganizationHandlers struct {
	orgRepo *repositories.OrganizationRepository
}

// NewOrganizationHandlers creates a new OrganizationHandlers instance.
func NewOrganizationHandlers(orgRepo *repositories.OrganizationRepository) *OrganizationHandlers {
	return &OrganizationHandlers{orgRepo: orgRepo}
}

// List returns all organizations.
//
// GET /api/organizations
func (h *OrganizationHandlers) List(c *gin.Context) {
	orgs, err := h.orgRepo.ListOrganizations(c.Request.Context())
	if err != nil {
		slog.Error("organization listing failed", "error", err)
		respond.InternalError(c)
		return
	}
	if orgs == nil {
		orgs = []*models.Organization{}
	}

	respond.OK(c, gin.H{
		"organizations": orgs,
		"count":         len(orgs),
	})
}

// Get returns one organization together with the instances it owns.
//
// GET /api/organizations/:id
func (h *OrganizationHandlers) Get(c *gin.Context) {
	orgID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respond.ValidationError(c, "Invalid organization ID", nil)
		return
	}

	org, err := h.orgRepo.GetOrganizationByID(c.Request.Context(), orgID)
	if err != nil {
		slog.Error("organization lookup failed", "error", err, "organization_id", orgID)
		respond.InternalError(c)
		return
	}
	if org == nil {
		respond.NotFound(c, "Organization not found")
		return
	}

	instances, err := h.orgRepo.ListOrganizationInstances(c.Request.Context(), orgID)
	if err != nil {
		slog.Error("organization instance listing failed", "error", err, "organization_id", orgID)
		respond.InternalError(c)
		return
	}
	if instances == nil {
		instances = []*models.Instance{}
	}

	respond.OK(c, gin.H{
		"organization": org,
		"instances":    instances,
	})
}
