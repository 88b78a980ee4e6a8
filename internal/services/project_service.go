package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/models"
	apperrors "github.com/taskrythm/taskrythm/pkg/errors"
)

// ErrProjectNotFound indicates the requested project does not exist.
var ErrProjectNotFound = apperrors.New("PROJECT_NOT_FOUND", "Project not found", http.StatusNotFound)

// CreateProjectInput captures new project metadata.
type CreateProjectInput struct {
	WorkspaceID string
	Name        string
	Description string
}

// UpdateProjectInput describes mutable project fields.
type UpdateProjectInput struct {
	Name        *string
	Description *string
}

// ProjectService handles project lifecycle inside a workspace.
type ProjectService struct {
	db       *gorm.DB
	resolver *Resolver
	activity *ActivityService
}

// NewProjectService constructs a ProjectService instance.
func NewProjectService(db *gorm.DB, resolver *Resolver, activity *ActivityService) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("project service: db is required")
	}
	if resolver == nil {
		return nil, errors.New("project service: resolver is required")
	}
	return &ProjectService{db: db, resolver: resolver, activity: activity}, nil
}

// Create registers a new project. Requires MEMBER or better.
func (s *ProjectService) Create(ctx context.Context, userID string, input CreateProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("project name is required")
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, input.WorkspaceID, RolesEditor...); err != nil {
		return nil, err
	}

	project := &models.Project{
		WorkspaceID: input.WorkspaceID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}

	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, fmt.Errorf("project service: create project: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: project.WorkspaceID,
		ProjectID:   project.ID,
		UserID:      userID,
		Type:        "project.create",
		Message:     fmt.Sprintf("created project %q", project.Name),
	})

	return project, nil
}

// List returns the workspace's projects, hiding archived ones unless asked.
func (s *ProjectService) List(ctx context.Context, userID, workspaceID string, includeArchived bool) ([]models.Project, error) {
	ctx = ensureContext(ctx)

	if _, err := s.resolver.EnsureRole(ctx, userID, workspaceID, RolesAny...); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Where("workspace_id = ?", workspaceID)
	if !includeArchived {
		query = query.Where("archived = ?", false)
	}

	var projects []models.Project
	if err := query.Order("created_at ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project service: list projects: %w", err)
	}

	return projects, nil
}

// Get loads a single project the caller can see.
func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*models.Project, error) {
	ctx = ensureContext(ctx)

	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, project.WorkspaceID, RolesAny...); err != nil {
		return nil, err
	}

	return project, nil
}

// Update modifies project metadata. Requires MEMBER or better.
func (s *ProjectService) Update(ctx context.Context, userID, projectID string, input UpdateProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, project.WorkspaceID, RolesEditor...); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	changed := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" && name != project.Name {
			updates["name"] = name
			changed["name"] = map[string]string{"from": project.Name, "to": name}
		}
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc != project.Description {
			updates["description"] = desc
			changed["description"] = map[string]string{"from": project.Description, "to": desc}
		}
	}

	if len(updates) == 0 {
		return project, nil
	}

	if err := s.db.WithContext(ctx).Model(project).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("project service: update project: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: project.WorkspaceID,
		ProjectID:   project.ID,
		UserID:      userID,
		Type:        "project.update",
		Message:     fmt.Sprintf("updated project %q", project.Name),
		Payload:     changed,
	})

	return s.load(ctx, projectID)
}

// SetArchived toggles the soft archive flag. Requires MEMBER or better.
func (s *ProjectService) SetArchived(ctx context.Context, userID, projectID string, archived bool) (*models.Project, error) {
	ctx = ensureContext(ctx)

	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, project.WorkspaceID, RolesEditor...); err != nil {
		return nil, err
	}

	if project.Archived == archived {
		return project, nil
	}

	if err := s.db.WithContext(ctx).Model(project).Update("archived", archived).Error; err != nil {
		return nil, fmt.Errorf("project service: set archived: %w", err)
	}

	action := "project.archive"
	if !archived {
		action = "project.unarchive"
	}
	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: project.WorkspaceID,
		ProjectID:   project.ID,
		UserID:      userID,
		Type:        action,
		Message:     fmt.Sprintf("%sd project %q", strings.TrimPrefix(action, "project."), project.Name),
	})

	project.Archived = archived
	return project, nil
}

// Delete removes a project and its tasks, subtasks, and activity in one
// transaction. Requires ADMIN or OWNER.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	ctx = ensureContext(ctx)

	project, err := s.load(ctx, projectID)
	if err != nil {
		return err
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, project.WorkspaceID, RolesManager...); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taskIDs []string
		if err := tx.Model(&models.Task{}).Where("project_id = ?", projectID).Pluck("id", &taskIDs).Error; err != nil {
			return fmt.Errorf("project service: collect tasks: %w", err)
		}

		if err := tx.Where("project_id = ?", projectID).Delete(&models.ActivityLog{}).Error; err != nil {
			return fmt.Errorf("project service: delete activity: %w", err)
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Subtask{}).Error; err != nil {
				return fmt.Errorf("project service: delete subtasks: %w", err)
			}
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("project service: delete tasks: %w", err)
		}
		if err := tx.Delete(&models.Project{}, "id = ?", projectID).Error; err != nil {
			return fmt.Errorf("project service: delete project: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	// Workspace-level entry only: rows scoped to the deleted project are gone.
	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: project.WorkspaceID,
		UserID:      userID,
		Type:        "project.delete",
		Message:     fmt.Sprintf("deleted project %q", project.Name),
	})

	return nil
}

func (s *ProjectService) load(ctx context.Context, projectID string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).First(&project, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: load project: %w", err)
	}
	return &project, nil
}
