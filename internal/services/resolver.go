package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/models"
	apperrors "github.com/taskrythm/taskrythm/pkg/errors"
	"github.com/taskrythm/taskrythm/pkg/metrics"
)

// ErrWorkspaceUnresolved indicates no workspace could be derived from the request.
var ErrWorkspaceUnresolved = apperrors.New("WORKSPACE_UNRESOLVED", "Unable to determine target workspace", http.StatusNotFound)

// Role allow-lists shared by the domain services.
var (
	RolesAny     = []models.WorkspaceRole{models.RoleOwner, models.RoleAdmin, models.RoleMember, models.RoleViewer}
	RolesEditor  = []models.WorkspaceRole{models.RoleOwner, models.RoleAdmin, models.RoleMember}
	RolesManager = []models.WorkspaceRole{models.RoleOwner, models.RoleAdmin}
	RolesOwner   = []models.WorkspaceRole{models.RoleOwner}
)

// ResolveInput carries the identifiers a request may scope itself with.
// Resolution walks them in a fixed order; the first one present wins.
type ResolveInput struct {
	WorkspaceID string
	InviteToken string
	ProjectID   string
	TaskID      string
	SubtaskID   string
}

// Resolver derives the target workspace for a request and enforces role
// allow-lists. Every call re-walks the owning chain; no caching.
type Resolver struct {
	db *gorm.DB
}

// NewResolver constructs a Resolver instance.
func NewResolver(db *gorm.DB) (*Resolver, error) {
	if db == nil {
		return nil, errors.New("resolver: db is required")
	}
	return &Resolver{db: db}, nil
}

// ResolveWorkspaceID walks the input in priority order: explicit workspace id,
// invite token, project, task, subtask. Each non-direct path performs one
// lookup up the owning chain to its workspace.
func (r *Resolver) ResolveWorkspaceID(ctx context.Context, input ResolveInput) (string, error) {
	ctx = ensureContext(ctx)

	if id := strings.TrimSpace(input.WorkspaceID); id != "" {
		return id, nil
	}

	if token := strings.TrimSpace(input.InviteToken); token != "" {
		var invite models.WorkspaceInvite
		err := r.db.WithContext(ctx).First(&invite, "token_hash = ?", HashInviteToken(token)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrWorkspaceUnresolved
		}
		if err != nil {
			return "", fmt.Errorf("resolver: lookup invite: %w", err)
		}
		return invite.WorkspaceID, nil
	}

	if id := strings.TrimSpace(input.ProjectID); id != "" {
		return r.workspaceForProject(ctx, id)
	}

	if id := strings.TrimSpace(input.TaskID); id != "" {
		return r.workspaceForTask(ctx, id)
	}

	if id := strings.TrimSpace(input.SubtaskID); id != "" {
		var subtask models.Subtask
		err := r.db.WithContext(ctx).First(&subtask, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrWorkspaceUnresolved
		}
		if err != nil {
			return "", fmt.Errorf("resolver: lookup subtask: %w", err)
		}
		return r.workspaceForTask(ctx, subtask.TaskID)
	}

	return "", ErrWorkspaceUnresolved
}

// EnsureRole returns the caller's role in the workspace when it appears in
// the allow-list, and ErrForbidden otherwise. The workspace owner is OWNER
// regardless of the member row.
func (r *Resolver) EnsureRole(ctx context.Context, userID, workspaceID string, allowed ...models.WorkspaceRole) (models.WorkspaceRole, error) {
	ctx = ensureContext(ctx)

	role, err := r.lookupRole(ctx, userID, workspaceID)
	if err != nil {
		if appErr := apperrors.FromError(err); appErr.StatusCode < http.StatusInternalServerError {
			metrics.RoleChecks.WithLabelValues("denied").Inc()
		} else {
			metrics.RoleChecks.WithLabelValues("error").Inc()
		}
		return "", err
	}

	for _, candidate := range allowed {
		if role == candidate {
			metrics.RoleChecks.WithLabelValues("allowed").Inc()
			return role, nil
		}
	}

	metrics.RoleChecks.WithLabelValues("denied").Inc()
	return "", apperrors.ErrForbidden
}

func (r *Resolver) lookupRole(ctx context.Context, userID, workspaceID string) (models.WorkspaceRole, error) {
	var workspace models.Workspace
	err := r.db.WithContext(ctx).First(&workspace, "id = ?", workspaceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrWorkspaceNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolver: load workspace: %w", err)
	}

	if workspace.OwnerID == userID {
		return models.RoleOwner, nil
	}

	var member models.WorkspaceMember
	err = r.db.WithContext(ctx).
		First(&member, "workspace_id = ? AND user_id = ?", workspaceID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.ErrForbidden
	}
	if err != nil {
		return "", fmt.Errorf("resolver: load membership: %w", err)
	}

	return member.Role, nil
}

func (r *Resolver) workspaceForProject(ctx context.Context, projectID string) (string, error) {
	var project models.Project
	err := r.db.WithContext(ctx).First(&project, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrWorkspaceUnresolved
	}
	if err != nil {
		return "", fmt.Errorf("resolver: lookup project: %w", err)
	}
	return project.WorkspaceID, nil
}

func (r *Resolver) workspaceForTask(ctx context.Context, taskID string) (string, error) {
	var task models.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrWorkspaceUnresolved
	}
	if err != nil {
		return "", fmt.Errorf("resolver: lookup task: %w", err)
	}
	return r.workspaceForProject(ctx, task.ProjectID)
}

// HashInviteToken converts a raw invite token into its stored digest form.
func HashInviteToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}
