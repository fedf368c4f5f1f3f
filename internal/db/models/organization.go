// Package models - organization.go defines the Organization model representing a tenant
// group (e.g. a student society) that owns zero or more instances.
package models

// Organization represents a tenant group owning instances.
type Organization struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Acronym *string `json:"acronym"`
}

// OrganizationSummary is the owner view embedded in instance responses.
type OrganizationSummary struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Acronym *string `json:"acronym"`
}

// UserOrganization records a user's membership in an organization. Membership
// is an eligibility pool only; it never grants instance access by itself.
type UserOrganization struct {
	UserID              int  `json:"userId"`
	OrganizationID      int  `json:"organizationId"`
	IsOrganizationAdmin bool `json:"isOrganizationAdmin"`
}
