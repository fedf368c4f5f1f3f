// Package models - user.go defines the User model for platform accounts with email,
// display name, and the global system-admin flag.
package models

import "time"

// User represents a platform account. Accounts are pre-provisioned by an
// administrator; login never creates one.
type User struct {
	ID            int       `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	IsSystemAdmin bool      `json:"isSystemAdmin"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Snapshot returns the subset of the user record embedded in session tokens.
// Token verification reconstructs this without a database round-trip.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		IsSystemAdmin: u.IsSystemAdmin,
	}
}

// UserSnapshot is the stateless user record carried inside a session token.
type UserSnapshot struct {
	ID            int    `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	IsSystemAdmin bool   `json:"isSystemAdmin"`
}
