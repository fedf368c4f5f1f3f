// instance_repository.go implements InstanceRepository, the authorization core:
// the three-table join answering "which instances can this user see" and the
// per-row access check behind "can this user open instance X".
package repositories

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/large-event/teamd-backend/internal/db/models"
)

// InstanceRepository handles instance and access-grant database operations
type InstanceRepository struct {
	db *sqlx.DB
}

// NewInstanceRepository creates a new InstanceRepository
func NewInstanceRepository(db *sqlx.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

// instanceRow is the flat scan target for the instance/organization join.
type instanceRow struct {
	InstanceID  int     `db:"instance_id"`
	Name        string  `db:"name"`
	AccessLevel string  `db:"access_level"`
	OrgID       int     `db:"org_id"`
	OrgName     string  `db:"org_name"`
	OrgAcronym  *string `db:"org_acronym"`
}

func (row *instanceRow) toSummary() models.InstanceSummary {
	return models.InstanceSummary{
		ID:          row.InstanceID,
		Name:        row.Name,
		AccessLevel: row.AccessLevel,
		OwnerOrganization: models.OrganizationSummary{
			ID:      row.OrgID,
			Name:    row.OrgName,
			Acronym: row.OrgAcronym,
		},
	}
}

// CreateInstance creates a new instance and fills in its generated ID.
func (r *InstanceRepository) CreateInstance(ctx context.Context, inst *models.Instance) error {
	query := `
		INSERT INTO instances (name, owner_organization_id)
		VALUES ($1, $2)
		RETURNING id
	`

	return r.db.QueryRowxContext(ctx, query, inst.Name, inst.OwnerOrganizationID).Scan(&inst.ID)
}

// ListAccessibleInstances returns every instance for which the user holds an
// access grant, joined with the owning organization. Exactly the rows of
// user_instance_access drive the result — organization membership plays no part.
// Result order is not guaranteed.
func (r *InstanceRepository) ListAccessibleInstances(ctx context.Context, userID int) ([]models.InstanceSummary, error) {
	query := `
		SELECT i.id AS instance_id, i.name AS name, uia.access_level AS access_level,
		       o.id AS org_id, o.name AS org_name, o.acronym AS org_acronym
		FROM user_instance_access uia
		JOIN instances i ON uia.instance_id = i.id
		JOIN organizations o ON i.owner_organization_id = o.id
		WHERE uia.user_id = $1
	`

	var rows []instanceRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	summaries := make([]models.InstanceSummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, rows[i].toSummary())
	}

	return summaries, nil
}

// GetAccess retrieves the access grant for (user, instance). Returns (nil, nil)
// when no grant exists — the caller must treat that as access denied.
func (r *InstanceRepository) GetAccess(ctx context.Context, userID, instanceID int) (*models.UserInstanceAccess, error) {
	query := `
		SELECT user_id, instance_id, access_level, granted_by, granted_at
		FROM user_instance_access
		WHERE user_id = $1 AND instance_id = $2
	`

	access := &models.UserInstanceAccess{}
	err := r.db.QueryRowxContext(ctx, query, userID, instanceID).Scan(
		&access.UserID,
		&access.InstanceID,
		&access.AccessLevel,
		&access.GrantedBy,
		&access.GrantedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return access, nil
}

// GetInstanceWithOrg retrieves an instance joined with its owning organization.
// The access level of the returned summary is left empty; callers fill it from
// the grant they already checked. Returns (nil, nil) when the instance is absent.
func (r *InstanceRepository) GetInstanceWithOrg(ctx context.Context, instanceID int) (*models.InstanceSummary, error) {
	query := `
		SELECT i.id AS instance_id, i.name AS name, '' AS access_level,
		       o.id AS org_id, o.name AS org_name, o.acronym AS org_acronym
		FROM instances i
		JOIN organizations o ON i.owner_organization_id = o.id
		WHERE i.id = $1
	`

	var row instanceRow
	err := r.db.GetContext(ctx, &row, query, instanceID)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	summary := row.toSummary()
	return &summary, nil
}

// GrantAccess inserts an access grant. The (user, instance) pair is unique;
// granting again replaces the level and records the new grantor.
func (r *InstanceRepository) GrantAccess(ctx context.Context, access *models.UserInstanceAccess) error {
	query := `
		INSERT INTO user_instance_access (user_id, instance_id, access_level, granted_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, instance_id)
		DO UPDATE SET access_level = EXCLUDED.access_level,
		              granted_by = EXCLUDED.granted_by,
		              granted_at = NOW()
		RETURNING granted_at
	`

	return r.db.QueryRowxContext(ctx, query,
		access.UserID,
		access.InstanceID,
		access.AccessLevel,
		access.GrantedBy,
	).Scan(&access.GrantedAt)
}

// RevokeAccess deletes the access grant for (user, instance) and reports whether
// a row was removed. Revocation is deletion — no "none" level is ever stored.
func (r *InstanceRepository) RevokeAccess(ctx context.Context, userID, instanceID int) (bool, error) {
	query := `DELETE FROM user_instance_access WHERE user_id = $1 AND instance_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, instanceID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
