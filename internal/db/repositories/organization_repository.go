// organization_repository.go implements OrganizationRepository, providing queries for
// organizations, their instances, and user-organization memberships.
package repositories

import (
	"context"
	"database/sql"

	"github.com/large-event/teamd-backend/internal/db/models"
)

// OrganizationRepository handles organization database operations
type OrganizationRepository struct {
	db *sql.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// CreateOrganization creates a new organization and fills in its generated ID.
func (r *OrganizationRepository) CreateOrganization(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (name, acronym)
		VALUES ($1, $2)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query, org.Name, org.Acronym).Scan(&org.ID)
}

// GetOrganizationByID retrieves an organization by ID. Returns (nil, nil) when absent.
func (r *OrganizationRepository) GetOrganizationByID(ctx context.Context, orgID int) (*models.Organization, error) {
	query := `SELECT id, name, acronym FROM organizations WHERE id = $1`

	org := &models.Organization{}
	err := r.db.QueryRowContext(ctx, query, orgID).Scan(&org.ID, &org.Name, &org.Acronym)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return org, nil
}

// ListOrganizations returns all organizations ordered by ID.
func (r *OrganizationRepository) ListOrganizations(ctx context.Context) ([]*models.Organization, error) {
	query := `SELECT id, name, acronym FROM organizations ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org := &models.Organization{}
		if err := rows.Scan(&org.ID, &org.Name, &org.Acronym); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}

	return orgs, rows.Err()
}

// ListOrganizationInstances returns the instances owned by an organization.
func (r *OrganizationRepository) ListOrganizationInstances(ctx context.Context, orgID int) ([]*models.Instance, error) {
	query := `
		SELECT id, name, owner_organization_id
		FROM instances
		WHERE owner_organization_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []*models.Instance
	for rows.Next() {
		inst := &models.Instance{}
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.OwnerOrganizationID); err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}

	return instances, rows.Err()
}

// AddMember records a user's membership in an organization. Membership is an
// eligibility pool only and must never be consulted for instance authorization.
func (r *OrganizationRepository) AddMember(ctx context.Context, userID, orgID int, isOrgAdmin bool) error {
	query := `
		INSERT INTO user_organizations (user_id, organization_id, is_organization_admin)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query, userID, orgID, isOrgAdmin)
	return err
}

// IsOrganizationAdmin reports whether the user holds the org-admin flag for the
// given organization. A missing membership row means false.
func (r *OrganizationRepository) IsOrganizationAdmin(ctx context.Context, userID, orgID int) (bool, error) {
	query := `
		SELECT is_organization_admin
		FROM user_organizations
		WHERE user_id = $1 AND organization_id = $2
	`

	var isAdmin bool
	err := r.db.QueryRowContext(ctx, query, userID, orgID).Scan(&isAdmin)

	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return isAdmin, nil
}
