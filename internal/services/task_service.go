package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/models"
	apperrors "github.com/taskrythm/taskrythm/pkg/errors"
)

var (
	// ErrTaskNotFound indicates the requested task does not exist.
	ErrTaskNotFound = apperrors.New("TASK_NOT_FOUND", "Task not found", http.StatusNotFound)
	// ErrSubtaskNotFound indicates the requested subtask does not exist.
	ErrSubtaskNotFound = apperrors.New("SUBTASK_NOT_FOUND", "Subtask not found", http.StatusNotFound)
	// ErrTaskNesting signals a parent assignment that would nest tasks more than one level.
	ErrTaskNesting = apperrors.New("TASK_NESTING", "Tasks cannot nest more than one level deep", http.StatusBadRequest)
	// ErrParentOutsideProject signals a parent task living in a different project.
	ErrParentOutsideProject = apperrors.New("TASK_PARENT_PROJECT", "Parent task must belong to the same project", http.StatusBadRequest)
)

// CreateTaskInput captures new task metadata.
type CreateTaskInput struct {
	ProjectID    string
	ParentTaskID *string
	Title        string
	Description  string
	Status       models.TaskStatus
	Priority     models.TaskPriority
	Type         models.TaskType
	AssigneeID   *string
	DueDate      *time.Time
	OrderIndex   *int
}

// UpdateTaskInput describes mutable task fields. Nil pointers leave the field untouched.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	Type          *models.TaskType
	AssigneeID    *string
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
	ParentTaskID  *string
	ClearParent   bool
	OrderIndex    *int
}

// UpdateSubtaskInput describes mutable subtask fields.
type UpdateSubtaskInput struct {
	Title     *string
	Completed *bool
}

// TaskService handles task and subtask lifecycle inside a project.
type TaskService struct {
	db       *gorm.DB
	resolver *Resolver
	activity *ActivityService
}

// NewTaskService constructs a TaskService instance.
func NewTaskService(db *gorm.DB, resolver *Resolver, activity *ActivityService) (*TaskService, error) {
	if db == nil {
		return nil, errors.New("task service: db is required")
	}
	if resolver == nil {
		return nil, errors.New("task service: resolver is required")
	}
	return &TaskService{db: db, resolver: resolver, activity: activity}, nil
}

// Create registers a new task. Requires MEMBER or better. Without an explicit
// order index the task appends after the project's current maximum. The read
// and insert share one transaction; concurrent creators may still observe the
// same maximum, which resolves as last-write-wins on display order.
func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (*models.Task, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("task title is required")
	}

	var project models.Project
	err := s.db.WithContext(ctx).First(&project, "id = ?", input.ProjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("task service: load project: %w", err)
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, project.WorkspaceID, RolesEditor...); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.StatusTodo
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	taskType := input.Type
	if taskType == "" {
		taskType = models.TypeTask
	}
	if !status.Valid() || !priority.Valid() || !taskType.Valid() {
		return nil, apperrors.NewBadRequest("unknown task status, priority, or type")
	}

	task := &models.Task{
		ProjectID:   project.ID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      status,
		Priority:    priority,
		Type:        taskType,
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.ParentTaskID != nil {
			parent, err := s.checkParent(tx, project.ID, *input.ParentTaskID)
			if err != nil {
				return err
			}
			task.ParentTaskID = &parent.ID
		}

		if input.OrderIndex != nil {
			task.OrderIndex = *input.OrderIndex
		} else {
			var maxIndex sql.NullInt64
			if err := tx.Model(&models.Task{}).
				Where("project_id = ?", project.ID).
				Select("MAX(order_index)").
				Scan(&maxIndex).Error; err != nil {
				return fmt.Errorf("task service: read max order index: %w", err)
			}
			if maxIndex.Valid {
				task.OrderIndex = int(maxIndex.Int64) + 1
			}
		}

		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("task service: create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: project.WorkspaceID,
		ProjectID:   project.ID,
		TaskID:      &task.ID,
		UserID:      userID,
		Type:        "task.create",
		Message:     fmt.Sprintf("created task %q", task.Title),
	})

	return task, nil
}

// List returns the project's top-level tasks with children and subtasks attached.
func (s *TaskService) List(ctx context.Context, userID, projectID string) ([]models.Task, error) {
	ctx = ensureContext(ctx)

	var project models.Project
	err := s.db.WithContext(ctx).First(&project, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("task service: load project: %w", err)
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, project.WorkspaceID, RolesAny...); err != nil {
		return nil, err
	}

	var tasks []models.Task
	err = s.db.WithContext(ctx).
		Preload("Children.Subtasks").
		Preload("Subtasks").
		Preload("Assignee").
		Where("project_id = ? AND parent_task_id IS NULL", projectID).
		Order("order_index ASC, created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("task service: list tasks: %w", err)
	}

	return tasks, nil
}

// Get loads a single task the caller can see.
func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*models.Task, error) {
	ctx = ensureContext(ctx)

	task, workspaceID, err := s.loadWithWorkspace(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, workspaceID, RolesAny...); err != nil {
		return nil, err
	}

	var full models.Task
	err = s.db.WithContext(ctx).
		Preload("Children.Subtasks").
		Preload("Subtasks").
		Preload("Assignee").
		First(&full, "id = ?", task.ID).Error
	if err != nil {
		return nil, fmt.Errorf("task service: reload task: %w", err)
	}

	return &full, nil
}

// Update modifies task fields. Requires MEMBER or better. Parent changes are
// held to the one-level nesting invariant.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (*models.Task, error) {
	ctx = ensureContext(ctx)

	task, workspaceID, err := s.loadWithWorkspace(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, workspaceID, RolesEditor...); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	changed := map[string]any{}

	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" && title != task.Title {
			updates["title"] = title
			changed["title"] = map[string]string{"from": task.Title, "to": title}
		}
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc != task.Description {
			updates["description"] = desc
			changed["description"] = "updated"
		}
	}
	if input.Status != nil && *input.Status != task.Status {
		if !input.Status.Valid() {
			return nil, apperrors.NewBadRequest("unknown task status")
		}
		updates["status"] = *input.Status
		changed["status"] = map[string]models.TaskStatus{"from": task.Status, "to": *input.Status}
	}
	if input.Priority != nil && *input.Priority != task.Priority {
		if !input.Priority.Valid() {
			return nil, apperrors.NewBadRequest("unknown task priority")
		}
		updates["priority"] = *input.Priority
		changed["priority"] = map[string]models.TaskPriority{"from": task.Priority, "to": *input.Priority}
	}
	if input.Type != nil && *input.Type != task.Type {
		if !input.Type.Valid() {
			return nil, apperrors.NewBadRequest("unknown task type")
		}
		updates["type"] = *input.Type
		changed["type"] = map[string]models.TaskType{"from": task.Type, "to": *input.Type}
	}
	switch {
	case input.ClearAssignee:
		updates["assignee_id"] = nil
		changed["assignee"] = nil
	case input.AssigneeID != nil:
		updates["assignee_id"] = *input.AssigneeID
		changed["assignee"] = *input.AssigneeID
	}
	switch {
	case input.ClearDueDate:
		updates["due_date"] = nil
		changed["due_date"] = nil
	case input.DueDate != nil:
		updates["due_date"] = *input.DueDate
		changed["due_date"] = input.DueDate.Format(time.RFC3339)
	}
	if input.OrderIndex != nil && *input.OrderIndex != task.OrderIndex {
		updates["order_index"] = *input.OrderIndex
		changed["order_index"] = map[string]int{"from": task.OrderIndex, "to": *input.OrderIndex}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch {
		case input.ClearParent:
			updates["parent_task_id"] = nil
			changed["parent"] = nil
		case input.ParentTaskID != nil:
			parent, err := s.checkParent(tx, task.ProjectID, *input.ParentTaskID)
			if err != nil {
				return err
			}
			// A task that already has children can never become a child itself.
			var children int64
			if err := tx.Model(&models.Task{}).Where("parent_task_id = ?", task.ID).Count(&children).Error; err != nil {
				return fmt.Errorf("task service: count children: %w", err)
			}
			if children > 0 {
				return ErrTaskNesting
			}
			updates["parent_task_id"] = parent.ID
			changed["parent"] = parent.ID
		}

		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(task).Updates(updates).Error; err != nil {
			return fmt.Errorf("task service: update task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		recordActivity(s.activity, ctx, ActivityEntry{
			WorkspaceID: workspaceID,
			ProjectID:   task.ProjectID,
			TaskID:      &task.ID,
			UserID:      userID,
			Type:        "task.update",
			Message:     fmt.Sprintf("updated task %q", task.Title),
			Payload:     changed,
		})
	}

	return s.Get(ctx, userID, taskID)
}

// Delete removes a task, its children, their subtasks, and the related
// activity rows in one transaction. Requires MEMBER or better.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	ctx = ensureContext(ctx)

	task, workspaceID, err := s.loadWithWorkspace(ctx, taskID)
	if err != nil {
		return err
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, workspaceID, RolesEditor...); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var childIDs []string
		if err := tx.Model(&models.Task{}).Where("parent_task_id = ?", task.ID).Pluck("id", &childIDs).Error; err != nil {
			return fmt.Errorf("task service: collect children: %w", err)
		}

		ids := append([]string{task.ID}, childIDs...)

		if err := tx.Where("task_id IN ?", ids).Delete(&models.ActivityLog{}).Error; err != nil {
			return fmt.Errorf("task service: delete activity: %w", err)
		}
		if err := tx.Where("task_id IN ?", ids).Delete(&models.Subtask{}).Error; err != nil {
			return fmt.Errorf("task service: delete subtasks: %w", err)
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("task service: delete tasks: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: workspaceID,
		ProjectID:   task.ProjectID,
		UserID:      userID,
		Type:        "task.delete",
		Message:     fmt.Sprintf("deleted task %q", task.Title),
	})

	return nil
}

// AddSubtask appends a checklist item to a task. Requires MEMBER or better.
func (s *TaskService) AddSubtask(ctx context.Context, userID, taskID, title string) (*models.Subtask, error) {
	ctx = ensureContext(ctx)

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewBadRequest("subtask title is required")
	}

	task, workspaceID, err := s.loadWithWorkspace(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, workspaceID, RolesEditor...); err != nil {
		return nil, err
	}

	subtask := &models.Subtask{TaskID: task.ID, Title: title}
	if err := s.db.WithContext(ctx).Create(subtask).Error; err != nil {
		return nil, fmt.Errorf("task service: create subtask: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: workspaceID,
		ProjectID:   task.ProjectID,
		TaskID:      &task.ID,
		UserID:      userID,
		Type:        "subtask.create",
		Message:     fmt.Sprintf("added subtask %q", subtask.Title),
	})

	return subtask, nil
}

// UpdateSubtask modifies a subtask's title or completion flag. Requires MEMBER or better.
func (s *TaskService) UpdateSubtask(ctx context.Context, userID, subtaskID string, input UpdateSubtaskInput) (*models.Subtask, error) {
	ctx = ensureContext(ctx)

	subtask, task, workspaceID, err := s.loadSubtask(ctx, subtaskID)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, workspaceID, RolesEditor...); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" && title != subtask.Title {
			updates["title"] = title
		}
	}
	if input.Completed != nil && *input.Completed != subtask.Completed {
		updates["completed"] = *input.Completed
	}

	if len(updates) == 0 {
		return subtask, nil
	}

	if err := s.db.WithContext(ctx).Model(subtask).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("task service: update subtask: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: workspaceID,
		ProjectID:   task.ProjectID,
		TaskID:      &task.ID,
		UserID:      userID,
		Type:        "subtask.update",
		Message:     fmt.Sprintf("updated subtask %q", subtask.Title),
	})

	if err := s.db.WithContext(ctx).First(subtask, "id = ?", subtaskID).Error; err != nil {
		return nil, fmt.Errorf("task service: reload subtask: %w", err)
	}
	return subtask, nil
}

// DeleteSubtask removes a checklist item. Requires MEMBER or better.
func (s *TaskService) DeleteSubtask(ctx context.Context, userID, subtaskID string) error {
	ctx = ensureContext(ctx)

	subtask, task, workspaceID, err := s.loadSubtask(ctx, subtaskID)
	if err != nil {
		return err
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, workspaceID, RolesEditor...); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(subtask).Error; err != nil {
		return fmt.Errorf("task service: delete subtask: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: workspaceID,
		ProjectID:   task.ProjectID,
		TaskID:      &task.ID,
		UserID:      userID,
		Type:        "subtask.delete",
		Message:     fmt.Sprintf("removed subtask %q", subtask.Title),
	})

	return nil
}

// checkParent enforces the one-level nesting invariant for a prospective parent.
func (s *TaskService) checkParent(tx *gorm.DB, projectID, parentID string) (*models.Task, error) {
	var parent models.Task
	err := tx.First(&parent, "id = ?", parentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("task service: load parent: %w", err)
	}

	if parent.ProjectID != projectID {
		return nil, ErrParentOutsideProject
	}
	if parent.ParentTaskID != nil {
		return nil, ErrTaskNesting
	}

	return &parent, nil
}

func (s *TaskService) loadWithWorkspace(ctx context.Context, taskID string) (*models.Task, string, error) {
	var task models.Task
	err := s.db.WithContext(ctx).First(&task, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrTaskNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("task service: load task: %w", err)
	}

	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", task.ProjectID).Error; err != nil {
		return nil, "", fmt.Errorf("task service: load project: %w", err)
	}

	return &task, project.WorkspaceID, nil
}

func (s *TaskService) loadSubtask(ctx context.Context, subtaskID string) (*models.Subtask, *models.Task, string, error) {
	var subtask models.Subtask
	err := s.db.WithContext(ctx).First(&subtask, "id = ?", subtaskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, "", ErrSubtaskNotFound
	}
	if err != nil {
		return nil, nil, "", fmt.Errorf("task service: load subtask: %w", err)
	}

	task, workspaceID, err := s.loadWithWorkspace(ctx, subtask.TaskID)
	if err != nil {
		return nil, nil, "", err
	}

	return &subtask, task, workspaceID, nil
}
