package models

// Subtask is a checklist item under a task. No further nesting.
type Subtask struct {
	BaseModel

	TaskID    string `gorm:"type:uuid;not null;index" json:"task_id"`
	Title     string `gorm:"not null" json:"title"`
	Completed bool   `gorm:"default:false" json:"completed"`

	Task *Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
}
