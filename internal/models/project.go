package models

// Project groups tasks inside a workspace. Archiving is a soft flag, not a deletion.
type Project struct {
	BaseModel

	WorkspaceID string `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Archived    bool   `gorm:"default:false" json:"archived"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID" json:"-"`
	Tasks     []Task     `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}
