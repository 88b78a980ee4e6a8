package models

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusBlocked    TaskStatus = "BLOCKED"
	StatusDone       TaskStatus = "DONE"
)

// TaskPriority orders tasks by urgency.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "LOW"
	PriorityMedium   TaskPriority = "MEDIUM"
	PriorityHigh     TaskPriority = "HIGH"
	PriorityCritical TaskPriority = "CRITICAL"
)

// TaskType classifies the kind of work a task represents.
type TaskType string

const (
	TypeTask        TaskType = "TASK"
	TypeBug         TaskType = "BUG"
	TypeFeature     TaskType = "FEATURE"
	TypeImprovement TaskType = "IMPROVEMENT"
	TypeSpike       TaskType = "SPIKE"
)

// Valid reports whether the status is one of the recognised states.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusBlocked, StatusDone:
		return true
	}
	return false
}

// Valid reports whether the priority is one of the recognised levels.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Valid reports whether the type is one of the recognised kinds.
func (t TaskType) Valid() bool {
	switch t {
	case TypeTask, TypeBug, TypeFeature, TypeImprovement, TypeSpike:
		return true
	}
	return false
}

// Task belongs to a project and may nest exactly one level deep: a task with
// a parent cannot itself have children.
type Task struct {
	BaseModel

	ProjectID    string       `gorm:"type:uuid;not null;index" json:"project_id"`
	ParentTaskID *string      `gorm:"type:uuid;index" json:"parent_task_id"`
	Title        string       `gorm:"not null" json:"title"`
	Description  string       `json:"description"`
	Status       TaskStatus   `gorm:"not null;default:TODO" json:"status"`
	Priority     TaskPriority `gorm:"not null;default:MEDIUM" json:"priority"`
	Type         TaskType     `gorm:"not null;default:TASK" json:"type"`
	AssigneeID   *string      `gorm:"type:uuid;index" json:"assignee_id"`
	DueDate      *time.Time   `json:"due_date"`
	OrderIndex   int          `gorm:"not null;default:0" json:"order_index"`

	Project  *Project  `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Parent   *Task     `gorm:"foreignKey:ParentTaskID" json:"-"`
	Children []Task    `gorm:"foreignKey:ParentTaskID" json:"children,omitempty"`
	Subtasks []Subtask `gorm:"foreignKey:TaskID" json:"subtasks,omitempty"`
	Assignee *User     `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}
