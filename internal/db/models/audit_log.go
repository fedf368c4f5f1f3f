// Package models - audit_log.go defines the audit trail entry recorded for
// authenticated write operations.
package models

import "time"

// AuditLog records a single authenticated write action.
type AuditLog struct {
	ID           int       `json:"id"`
	UserID       *int      `json:"userId"`
	Action       string    `json:"action"`
	ResourceType *string   `json:"resourceType"`
	IPAddress    *string   `json:"ipAddress"`
	CreatedAt    time.Time `json:"createdAt"`
}
