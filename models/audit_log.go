package models

import (
	"encoding/json"
	"time"
)

// AuditLog records security-relevant account and link events
type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       *uint           `gorm:"index:idx_audit_user_id" json:"user_id,omitempty"`
	Action       string          `gorm:"size:50;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      bool            `gorm:"not null" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"not null;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionSignupCompleted = "signup_completed"
	AuditActionLoginSuccess    = "login_success"
	AuditActionLoginFailed     = "login_failed"
	AuditActionOAuthLogin      = "oauth_login"
	AuditActionLogout          = "logout"
	AuditActionProfileUpdated  = "profile_updated"
	AuditActionAvatarUpdated   = "avatar_updated"
	AuditActionLinkDeleted     = "link_deleted"
	AuditActionLinksReordered  = "links_reordered"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	UserID        *uint
	Action        *string
	Success       *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsSecurityEvent() bool {
	securityActions := map[string]bool{
		AuditActionLoginSuccess: true,
		AuditActionLoginFailed:  true,
		AuditActionOAuthLogin:   true,
		AuditActionLogout:       true,
	}
	return securityActions[a.Action]
}
