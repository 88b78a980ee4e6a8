package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskrythm/taskrythm/internal/models"
	apperrors "github.com/taskrythm/taskrythm/pkg/errors"
)

func TestProjectDeleteRequiresManager(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	admin := seedUser(t, stack.db, "admin")
	member := seedUser(t, stack.db, "member")

	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	seedMember(t, stack.db, workspace.ID, admin.ID, models.RoleAdmin)
	seedMember(t, stack.db, workspace.ID, member.ID, models.RoleMember)

	project, err := stack.projects.Create(ctx, member.ID, CreateProjectInput{WorkspaceID: workspace.ID, Name: "Launch"})
	require.NoError(t, err)

	err = stack.projects.Delete(ctx, member.ID, project.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	require.NoError(t, stack.projects.Delete(ctx, admin.ID, project.ID))
}

func TestProjectDeleteLeavesNoOrphans(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)

	doomed, err := stack.projects.Create(ctx, owner.ID, CreateProjectInput{WorkspaceID: workspace.ID, Name: "Doomed"})
	require.NoError(t, err)
	surviving, err := stack.projects.Create(ctx, owner.ID, CreateProjectInput{WorkspaceID: workspace.ID, Name: "Surviving"})
	require.NoError(t, err)

	task, err := stack.tasks.Create(ctx, owner.ID, CreateTaskInput{ProjectID: doomed.ID, Title: "task"})
	require.NoError(t, err)
	_, err = stack.tasks.AddSubtask(ctx, owner.ID, task.ID, "subtask")
	require.NoError(t, err)

	keptTask, err := stack.tasks.Create(ctx, owner.ID, CreateTaskInput{ProjectID: surviving.ID, Title: "kept"})
	require.NoError(t, err)

	require.NoError(t, stack.projects.Delete(ctx, owner.ID, doomed.ID))

	var taskCount int64
	require.NoError(t, stack.db.Model(&models.Task{}).Where("project_id = ?", doomed.ID).Count(&taskCount).Error)
	require.Zero(t, taskCount)

	var subtaskCount int64
	require.NoError(t, stack.db.Model(&models.Subtask{}).Where("task_id = ?", task.ID).Count(&subtaskCount).Error)
	require.Zero(t, subtaskCount)

	var activityCount int64
	require.NoError(t, stack.db.Model(&models.ActivityLog{}).Where("project_id = ?", doomed.ID).Count(&activityCount).Error)
	require.Zero(t, activityCount)

	// The sibling project is untouched.
	var kept models.Task
	require.NoError(t, stack.db.First(&kept, "id = ?", keptTask.ID).Error)

	// A workspace-level entry records the deletion.
	var entries []models.ActivityLog
	require.NoError(t, stack.db.
		Where("workspace_id = ? AND type = ?", workspace.ID, "project.delete").
		Find(&entries).Error)
	require.Len(t, entries, 1)
	require.Empty(t, entries[0].ProjectID)
}

func TestProjectListHidesArchived(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)

	active, err := stack.projects.Create(ctx, owner.ID, CreateProjectInput{WorkspaceID: workspace.ID, Name: "Active"})
	require.NoError(t, err)
	archived, err := stack.projects.Create(ctx, owner.ID, CreateProjectInput{WorkspaceID: workspace.ID, Name: "Old"})
	require.NoError(t, err)

	_, err = stack.projects.SetArchived(ctx, owner.ID, archived.ID, true)
	require.NoError(t, err)

	visible, err := stack.projects.List(ctx, owner.ID, workspace.ID, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, active.ID, visible[0].ID)

	all, err := stack.projects.List(ctx, owner.ID, workspace.ID, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestProjectGetUnknownID(t *testing.T) {
	stack := newTestStack(t)

	owner := seedUser(t, stack.db, "owner")
	_, err := stack.projects.Get(context.Background(), owner.ID, "missing")
	require.ErrorIs(t, err, ErrProjectNotFound)
}
