package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/models"
	apperrors "github.com/taskrythm/taskrythm/pkg/errors"
)

var (
	// ErrWorkspaceNotFound indicates the requested workspace does not exist.
	ErrWorkspaceNotFound = apperrors.New("WORKSPACE_NOT_FOUND", "Workspace not found", http.StatusNotFound)
	// ErrMemberNotFound indicates the requested membership does not exist.
	ErrMemberNotFound = apperrors.New("MEMBER_NOT_FOUND", "User is not a member of the workspace", http.StatusNotFound)
	// ErrLastOwner signals an operation that would leave the workspace without an owner.
	ErrLastOwner = apperrors.New("LAST_OWNER", "A workspace must retain at least one owner", http.StatusBadRequest)
)

// CreateWorkspaceInput captures new workspace metadata.
type CreateWorkspaceInput struct {
	Name     string
	Settings map[string]any
}

// UpdateWorkspaceInput describes mutable workspace fields.
type UpdateWorkspaceInput struct {
	Name     *string
	Settings map[string]any
}

// WorkspaceService handles workspace lifecycle and membership management.
type WorkspaceService struct {
	db       *gorm.DB
	resolver *Resolver
	activity *ActivityService
}

// NewWorkspaceService constructs a WorkspaceService instance.
func NewWorkspaceService(db *gorm.DB, resolver *Resolver, activity *ActivityService) (*WorkspaceService, error) {
	if db == nil {
		return nil, errors.New("workspace service: db is required")
	}
	if resolver == nil {
		return nil, errors.New("workspace service: resolver is required")
	}
	return &WorkspaceService{db: db, resolver: resolver, activity: activity}, nil
}

// Create registers a new workspace with the caller as its sole owner. The
// workspace row and its OWNER member row are written in one transaction.
func (s *WorkspaceService) Create(ctx context.Context, userID string, input CreateWorkspaceInput) (*models.Workspace, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("workspace name is required")
	}

	settings, err := encodeSettings(input.Settings)
	if err != nil {
		return nil, err
	}

	workspace := &models.Workspace{
		Name:     name,
		Slug:     slug.Make(name),
		OwnerID:  userID,
		Settings: settings,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The insert runs under a savepoint: on postgres a failed statement
		// aborts the surrounding transaction, which would doom the retry.
		createErr := tx.Transaction(func(tx *gorm.DB) error {
			return tx.Create(workspace).Error
		})
		if createErr != nil {
			if !isUniqueConstraintError(createErr) {
				return fmt.Errorf("workspace service: create workspace: %w", createErr)
			}
			// Slug collision: retry once with a random suffix.
			workspace.Slug = fmt.Sprintf("%s-%s", workspace.Slug, uuid.NewString()[:8])
			if err := tx.Create(workspace).Error; err != nil {
				return fmt.Errorf("workspace service: create workspace: %w", err)
			}
		}

		member := models.WorkspaceMember{
			WorkspaceID: workspace.ID,
			UserID:      userID,
			Role:        models.RoleOwner,
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("workspace service: create owner membership: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: workspace.ID,
		UserID:      userID,
		Type:        "workspace.create",
		Message:     fmt.Sprintf("created workspace %q", workspace.Name),
	})

	return workspace, nil
}

// List returns the workspaces the caller belongs to.
func (s *WorkspaceService) List(ctx context.Context, userID string) ([]models.Workspace, error) {
	ctx = ensureContext(ctx)

	var workspaces []models.Workspace
	err := s.db.WithContext(ctx).
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspace_members.user_id = ?", userID).
		Order("workspaces.created_at ASC").
		Find(&workspaces).Error
	if err != nil {
		return nil, fmt.Errorf("workspace service: list workspaces: %w", err)
	}

	return workspaces, nil
}

// Get loads a workspace the caller is a member of.
func (s *WorkspaceService) Get(ctx context.Context, userID, id string) (*models.Workspace, error) {
	ctx = ensureContext(ctx)

	if _, err := s.resolver.EnsureRole(ctx, userID, id, RolesAny...); err != nil {
		return nil, err
	}

	var workspace models.Workspace
	err := s.db.WithContext(ctx).Preload("Members.User").First(&workspace, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("workspace service: load workspace: %w", err)
	}

	return &workspace, nil
}

// Update modifies workspace metadata. Requires ADMIN or OWNER.
func (s *WorkspaceService) Update(ctx context.Context, userID, id string, input UpdateWorkspaceInput) (*models.Workspace, error) {
	ctx = ensureContext(ctx)

	if _, err := s.resolver.EnsureRole(ctx, userID, id, RolesManager...); err != nil {
		return nil, err
	}

	var workspace models.Workspace
	if err := s.db.WithContext(ctx).First(&workspace, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("workspace service: load workspace: %w", err)
	}

	updates := map[string]any{}
	changed := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" && name != workspace.Name {
			updates["name"] = name
			changed["name"] = map[string]string{"from": workspace.Name, "to": name}
		}
	}
	if input.Settings != nil {
		settings, err := encodeSettings(input.Settings)
		if err != nil {
			return nil, err
		}
		updates["settings"] = settings
		changed["settings"] = "updated"
	}

	if len(updates) == 0 {
		return &workspace, nil
	}

	if err := s.db.WithContext(ctx).Model(&workspace).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("workspace service: update workspace: %w", err)
	}

	if err := s.db.WithContext(ctx).First(&workspace, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("workspace service: reload workspace: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: workspace.ID,
		UserID:      userID,
		Type:        "workspace.update",
		Message:     fmt.Sprintf("updated workspace %q", workspace.Name),
		Payload:     changed,
	})

	return &workspace, nil
}

// Delete removes a workspace and everything under it. Requires OWNER. The
// cascade runs in one transaction so a crash mid-delete cannot orphan rows.
func (s *WorkspaceService) Delete(ctx context.Context, userID, id string) error {
	ctx = ensureContext(ctx)

	if _, err := s.resolver.EnsureRole(ctx, userID, id, RolesOwner...); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var projectIDs []string
		if err := tx.Model(&models.Project{}).Where("workspace_id = ?", id).Pluck("id", &projectIDs).Error; err != nil {
			return fmt.Errorf("workspace service: collect projects: %w", err)
		}

		if len(projectIDs) > 0 {
			var taskIDs []string
			if err := tx.Model(&models.Task{}).Where("project_id IN ?", projectIDs).Pluck("id", &taskIDs).Error; err != nil {
				return fmt.Errorf("workspace service: collect tasks: %w", err)
			}
			if len(taskIDs) > 0 {
				if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Subtask{}).Error; err != nil {
					return fmt.Errorf("workspace service: delete subtasks: %w", err)
				}
			}
			if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.Task{}).Error; err != nil {
				return fmt.Errorf("workspace service: delete tasks: %w", err)
			}
			if err := tx.Where("id IN ?", projectIDs).Delete(&models.Project{}).Error; err != nil {
				return fmt.Errorf("workspace service: delete projects: %w", err)
			}
		}

		for _, step := range []struct {
			cond  string
			model any
		}{
			{"workspace_id = ?", &models.ActivityLog{}},
			{"workspace_id = ?", &models.WorkspaceInvite{}},
			{"workspace_id = ?", &models.WorkspaceMember{}},
		} {
			if err := tx.Where(step.cond, id).Delete(step.model).Error; err != nil {
				return fmt.Errorf("workspace service: cascade delete: %w", err)
			}
		}

		if err := tx.Delete(&models.Workspace{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("workspace service: delete workspace: %w", err)
		}

		return nil
	})
}

// ListMembers returns the workspace's membership with user profiles attached.
func (s *WorkspaceService) ListMembers(ctx context.Context, userID, workspaceID string) ([]models.WorkspaceMember, error) {
	ctx = ensureContext(ctx)

	if _, err := s.resolver.EnsureRole(ctx, userID, workspaceID, RolesAny...); err != nil {
		return nil, err
	}

	var members []models.WorkspaceMember
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("workspace_id = ?", workspaceID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("workspace service: list members: %w", err)
	}

	return members, nil
}

// UpdateMemberRole changes a member's role. Requires ADMIN or OWNER and is
// guarded against demoting the last owner.
func (s *WorkspaceService) UpdateMemberRole(ctx context.Context, userID, workspaceID, targetUserID string, role models.WorkspaceRole) (*models.WorkspaceMember, error) {
	ctx = ensureContext(ctx)

	if !role.Valid() {
		return nil, apperrors.NewBadRequest("unknown workspace role")
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, workspaceID, RolesManager...); err != nil {
		return nil, err
	}

	var member models.WorkspaceMember
	err := s.db.WithContext(ctx).
		First(&member, "workspace_id = ? AND user_id = ?", workspaceID, targetUserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("workspace service: load membership: %w", err)
	}

	if member.Role == role {
		return &member, nil
	}

	if member.Role == models.RoleOwner && role != models.RoleOwner {
		if err := s.ensureNotLastOwner(ctx, workspaceID); err != nil {
			return nil, err
		}
	}

	previous := member.Role
	if err := s.db.WithContext(ctx).Model(&member).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("workspace service: update member role: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Type:        "member.role_change",
		Message:     "changed a member role",
		Payload: map[string]any{
			"member": targetUserID,
			"from":   previous,
			"to":     role,
		},
	})

	member.Role = role
	return &member, nil
}

// RemoveMember deletes a membership. Requires ADMIN or OWNER and is guarded
// against removing the last owner.
func (s *WorkspaceService) RemoveMember(ctx context.Context, userID, workspaceID, targetUserID string) error {
	ctx = ensureContext(ctx)

	if _, err := s.resolver.EnsureRole(ctx, userID, workspaceID, RolesManager...); err != nil {
		return err
	}

	return s.removeMembership(ctx, userID, workspaceID, targetUserID, "member.remove")
}

// Leave removes the caller's own membership, guarded against the last owner leaving.
func (s *WorkspaceService) Leave(ctx context.Context, userID, workspaceID string) error {
	ctx = ensureContext(ctx)

	if _, err := s.resolver.EnsureRole(ctx, userID, workspaceID, RolesAny...); err != nil {
		return err
	}

	return s.removeMembership(ctx, userID, workspaceID, userID, "member.leave")
}

func (s *WorkspaceService) removeMembership(ctx context.Context, actorID, workspaceID, targetUserID, action string) error {
	var member models.WorkspaceMember
	err := s.db.WithContext(ctx).
		First(&member, "workspace_id = ? AND user_id = ?", workspaceID, targetUserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMemberNotFound
	}
	if err != nil {
		return fmt.Errorf("workspace service: load membership: %w", err)
	}

	if member.Role == models.RoleOwner {
		if err := s.ensureNotLastOwner(ctx, workspaceID); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Delete(&member).Error; err != nil {
		return fmt.Errorf("workspace service: remove membership: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: workspaceID,
		UserID:      actorID,
		Type:        action,
		Message:     "removed a workspace membership",
		Payload:     map[string]any{"member": targetUserID},
	})

	return nil
}

// ensureNotLastOwner is the single guard behind every role-change and removal
// path: a workspace keeps at least one OWNER member at all times.
func (s *WorkspaceService) ensureNotLastOwner(ctx context.Context, workspaceID string) error {
	var owners int64
	err := s.db.WithContext(ctx).
		Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND role = ?", workspaceID, models.RoleOwner).
		Count(&owners).Error
	if err != nil {
		return fmt.Errorf("workspace service: count owners: %w", err)
	}

	if owners <= 1 {
		return ErrLastOwner
	}
	return nil
}

func encodeSettings(settings map[string]any) (datatypes.JSON, error) {
	if settings == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(settings)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid settings payload")
	}
	return datatypes.JSON(encoded), nil
}
