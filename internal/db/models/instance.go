// Package models - instance.go defines the Instance model (a switchable workspace owned
// by exactly one organization) and the per-user access grant that authorizes it.
package models

import "time"

// Access levels for a user-instance grant. The level selects which portal(s)
// the user may open for the instance.
const (
	AccessLevelWebUser  = "web_user"
	AccessLevelWebAdmin = "web_admin"
	AccessLevelBoth     = "both"
)

// ValidAccessLevel reports whether s is one of the three recognized levels.
func ValidAccessLevel(s string) bool {
	return s == AccessLevelWebUser || s == AccessLevelWebAdmin || s == AccessLevelBoth
}

// Instance represents a switchable application workspace owned by one organization.
type Instance struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	OwnerOrganizationID int    `json:"ownerOrganizationId"`
}

// UserInstanceAccess is the single source of truth for authorization.
// Absence of a row means no access; there is no persisted "none" level.
type UserInstanceAccess struct {
	UserID      int       `json:"userId"`
	InstanceID  int       `json:"instanceId"`
	AccessLevel string    `json:"accessLevel"`
	GrantedBy   *int      `json:"grantedBy"`
	GrantedAt   time.Time `json:"grantedAt"`
}

// InstanceSummary is an instance joined with the caller's access level and the
// owning organization, as returned by the instance listing and detail endpoints.
type InstanceSummary struct {
	ID                int                 `json:"id"`
	Name              string              `json:"name"`
	AccessLevel       string              `json:"accessLevel"`
	OwnerOrganization OrganizationSummary `json:"ownerOrganization"`
}
