package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog is an append-only record of a mutating action. Rows are never
// updated and are removed only in cascade with their parent project or task.
type ActivityLog struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	WorkspaceID string         `gorm:"type:uuid;not null;index" json:"workspace_id"`
	ProjectID   string         `gorm:"type:uuid;index" json:"project_id"`
	TaskID      *string        `gorm:"type:uuid;index" json:"task_id"`
	UserID      string         `gorm:"type:uuid;index" json:"user_id"`
	Type        string         `gorm:"not null;index" json:"type"`
	Message     string         `gorm:"not null" json:"message"`
	Payload     datatypes.JSON `json:"payload,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
