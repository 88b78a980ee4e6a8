package models

import "time"

// WorkspaceInvite grants membership in a workspace at a fixed role to whoever
// presents the matching token. The invited email is informational only.
type WorkspaceInvite struct {
	BaseModel

	WorkspaceID string        `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Email       string        `gorm:"not null;index" json:"email"`
	Role        WorkspaceRole `gorm:"not null;default:MEMBER" json:"role"`
	TokenHash   string        `gorm:"not null;uniqueIndex" json:"-"`
	InvitedBy   string        `gorm:"type:uuid" json:"invited_by"`
	ExpiresAt   time.Time     `gorm:"index" json:"expires_at"`
	AcceptedAt  *time.Time    `json:"accepted_at"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID" json:"-"`
}
