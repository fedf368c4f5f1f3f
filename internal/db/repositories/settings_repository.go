// settings_repository.go implements SettingsRepository, a small key-value store
// backing the first-run bootstrap flow (setup token hash and completion flag).
package repositories

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

const (
	settingBootstrapTokenHash = "bootstrap_token_hash"
	settingBootstrapCompleted = "bootstrap_completed"
)

// SettingsRepository handles system settings database operations
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.GetContext(ctx, &value, `SELECT value FROM system_settings WHERE key = $1`, key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SettingsRepository) set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO system_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	_, err := r.db.ExecContext(ctx, query, key, value)
	return err
}

// GetBootstrapTokenHash returns the stored bcrypt hash of the setup token, or
// "" when none has been generated.
func (r *SettingsRepository) GetBootstrapTokenHash(ctx context.Context) (string, error) {
	return r.get(ctx, settingBootstrapTokenHash)
}

// SetBootstrapTokenHash stores the bcrypt hash of the setup token. The raw
// token is never persisted.
func (r *SettingsRepository) SetBootstrapTokenHash(ctx context.Context, hash string) error {
	return r.set(ctx, settingBootstrapTokenHash, hash)
}

// IsBootstrapCompleted reports whether the first-run bootstrap has finished.
func (r *SettingsRepository) IsBootstrapCompleted(ctx context.Context) (bool, error) {
	value, err := r.get(ctx, settingBootstrapCompleted)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// MarkBootstrapCompleted permanently disables the bootstrap endpoints.
func (r *SettingsRepository) MarkBootstrapCompleted(ctx context.Context) error {
	return r.set(ctx, settingBootstrapCompleted, "true")
}
