// audit_repository.go implements AuditRepository, recording authenticated write
// operations for the admin activity trail.
package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/large-event/teamd-backend/internal/db/models"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog inserts an audit log entry.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (user_id, action, resource_type, ip_address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		entry.UserID,
		entry.Action,
		entry.ResourceType,
		entry.IPAddress,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// ListRecent returns the most recent audit log entries, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, user_id, action, resource_type, ip_address, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditLog
	for rows.Next() {
		entry := &models.AuditLog{}
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Action,
			&entry.ResourceType,
			&entry.IPAddress,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
