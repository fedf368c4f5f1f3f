// Package repositories implements the data access layer (repository pattern) for the
// Team D backend. Each repository type encapsulates all database queries for a domain
// entity. Handlers never issue SQL directly — all database access goes through this
// layer, which makes query logic testable in isolation and prevents accidental
// cross-domain data access.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/large-event/teamd-backend/internal/db/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser creates a new user and fills in its generated ID and timestamps.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, name, is_system_admin)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRowContext(ctx, query,
		user.Email,
		user.Name,
		user.IsSystemAdmin,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

// GetUserByID retrieves a user by ID. Returns (nil, nil) when no such user exists.
func (r *UserRepository) GetUserByID(ctx context.Context, userID int) (*models.User, error) {
	query := `
		SELECT id, email, name, is_system_admin, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.IsSystemAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email. Returns (nil, nil) when no such user exists.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, is_system_admin, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.IsSystemAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// ListUsers returns all users ordered by ID.
func (r *UserRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, email, name, is_system_admin, created_at, updated_at
		FROM users
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Name,
			&user.IsSystemAdmin,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// UpdateUser updates a user's mutable fields.
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET email = $2, name = $3, is_system_admin = $4, updated_at = $5
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.IsSystemAdmin,
		user.UpdatedAt,
	)

	return err
}

// DeleteUser deletes a user and returns the deleted record, or (nil, nil) when
// no row matched. Memberships and access grants cascade.
func (r *UserRepository) DeleteUser(ctx context.Context, userID int) (*models.User, error) {
	query := `
		DELETE FROM users
		WHERE id = $1
		RETURNING id, email, name, is_system_admin, created_at, updated_at
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.IsSystemAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// CountSystemAdmins returns the number of users with the system-admin flag set.
// Used at startup to decide whether the first-run bootstrap flow is needed.
func (r *UserRepository) CountSystemAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE is_system_admin = TRUE`,
	).Scan(&count)
	return count, err
}
