package models

import "gorm.io/datatypes"

// Workspace is the top-level tenant boundary owning projects and members.
// The creator is recorded twice: as OwnerID and as a member row with role OWNER.
type Workspace struct {
	BaseModel

	Name     string         `gorm:"not null" json:"name"`
	Slug     string         `gorm:"uniqueIndex;not null" json:"slug"`
	OwnerID  string         `gorm:"type:uuid;not null;index" json:"owner_id"`
	Settings datatypes.JSON `json:"settings,omitempty"`

	Owner    *User             `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members  []WorkspaceMember `gorm:"foreignKey:WorkspaceID" json:"members,omitempty"`
	Projects []Project         `gorm:"foreignKey:WorkspaceID" json:"projects,omitempty"`
}
