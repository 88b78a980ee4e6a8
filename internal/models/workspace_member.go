package models

// WorkspaceRole is an ordered capability level per (user, workspace) pair.
type WorkspaceRole string

const (
	RoleOwner  WorkspaceRole = "OWNER"
	RoleAdmin  WorkspaceRole = "ADMIN"
	RoleMember WorkspaceRole = "MEMBER"
	RoleViewer WorkspaceRole = "VIEWER"
)

// Valid reports whether the role is one of the recognised levels.
func (r WorkspaceRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// WorkspaceMember links a user to a workspace at a given role.
type WorkspaceMember struct {
	BaseModel

	WorkspaceID string        `gorm:"type:uuid;not null;uniqueIndex:idx_workspace_user" json:"workspace_id"`
	UserID      string        `gorm:"type:uuid;not null;uniqueIndex:idx_workspace_user" json:"user_id"`
	Role        WorkspaceRole `gorm:"not null;default:MEMBER" json:"role"`

	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Workspace *Workspace `gorm:"foreignKey:WorkspaceID" json:"-"`
}
