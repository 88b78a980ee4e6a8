package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskrythm/taskrythm/internal/models"
)

func TestCreateWorkspaceAssignsSingleOwner(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme Inc"})
	require.NoError(t, err)
	require.Equal(t, owner.ID, workspace.OwnerID)
	require.Equal(t, "acme-inc", workspace.Slug)

	var members []models.WorkspaceMember
	require.NoError(t, stack.db.Where("workspace_id = ?", workspace.ID).Find(&members).Error)
	require.Len(t, members, 1)
	require.Equal(t, owner.ID, members[0].UserID)
	require.Equal(t, models.RoleOwner, members[0].Role)
}

func TestCreateWorkspaceSlugCollisionRetries(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	first, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)

	second, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	require.NotEqual(t, first.Slug, second.Slug)
	require.Contains(t, second.Slug, "acme-")

	// The failed insert must not poison the transaction: the owner membership
	// written after the retry has to land too.
	var members int64
	require.NoError(t, stack.db.Model(&models.WorkspaceMember{}).
		Where("workspace_id = ?", second.ID).Count(&members).Error)
	require.Equal(t, int64(1), members)

	third, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	require.NotEqual(t, second.Slug, third.Slug)
}

func TestLastOwnerCannotBeDemotedOrRemoved(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	admin := seedUser(t, stack.db, "admin")

	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	seedMember(t, stack.db, workspace.ID, admin.ID, models.RoleAdmin)

	_, err = stack.workspaces.UpdateMemberRole(ctx, admin.ID, workspace.ID, owner.ID, models.RoleMember)
	require.ErrorIs(t, err, ErrLastOwner)

	err = stack.workspaces.RemoveMember(ctx, admin.ID, workspace.ID, owner.ID)
	require.ErrorIs(t, err, ErrLastOwner)

	err = stack.workspaces.Leave(ctx, owner.ID, workspace.ID)
	require.ErrorIs(t, err, ErrLastOwner)
}

func TestLastOwnerGuardIsPerWorkspace(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	alice := seedUser(t, stack.db, "alice")
	bob := seedUser(t, stack.db, "bob")

	first, err := stack.workspaces.Create(ctx, alice.ID, CreateWorkspaceInput{Name: "First"})
	require.NoError(t, err)
	_, err = stack.workspaces.Create(ctx, bob.ID, CreateWorkspaceInput{Name: "Second"})
	require.NoError(t, err)

	// The owner count is scoped to one workspace: bob owning the second
	// workspace does not free alice to leave the first.
	seedMember(t, stack.db, first.ID, bob.ID, models.RoleAdmin)

	err = stack.workspaces.RemoveMember(ctx, bob.ID, first.ID, alice.ID)
	require.ErrorIs(t, err, ErrLastOwner)

	err = stack.workspaces.Leave(ctx, alice.ID, first.ID)
	require.ErrorIs(t, err, ErrLastOwner)

	_, err = stack.workspaces.UpdateMemberRole(ctx, bob.ID, first.ID, alice.ID, models.RoleMember)
	require.ErrorIs(t, err, ErrLastOwner)
}

func TestSecondOwnerUnlocksDemotion(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	partner := seedUser(t, stack.db, "partner")

	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	seedMember(t, stack.db, workspace.ID, partner.ID, models.RoleOwner)

	member, err := stack.workspaces.UpdateMemberRole(ctx, partner.ID, workspace.ID, owner.ID, models.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, member.Role)
}

func TestWorkspaceDeleteCascades(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)

	project, err := stack.projects.Create(ctx, owner.ID, CreateProjectInput{WorkspaceID: workspace.ID, Name: "Launch"})
	require.NoError(t, err)
	task, err := stack.tasks.Create(ctx, owner.ID, CreateTaskInput{ProjectID: project.ID, Title: "Ship"})
	require.NoError(t, err)
	_, err = stack.tasks.AddSubtask(ctx, owner.ID, task.ID, "step one")
	require.NoError(t, err)
	_, err = stack.invites.Create(ctx, owner.ID, workspace.ID, "x@example.com", models.RoleMember)
	require.NoError(t, err)

	require.NoError(t, stack.workspaces.Delete(ctx, owner.ID, workspace.ID))

	for _, model := range []any{
		&models.Workspace{}, &models.WorkspaceMember{}, &models.WorkspaceInvite{},
		&models.Project{}, &models.Task{}, &models.Subtask{}, &models.ActivityLog{},
	} {
		var count int64
		require.NoError(t, stack.db.Model(model).Count(&count).Error)
		require.Zero(t, count)
	}
}

func TestUpdateWorkspaceRequiresManager(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	member := seedUser(t, stack.db, "member")

	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	seedMember(t, stack.db, workspace.ID, member.ID, models.RoleMember)

	name := "Renamed"
	_, err = stack.workspaces.Update(ctx, member.ID, workspace.ID, UpdateWorkspaceInput{Name: &name})
	require.Error(t, err)

	updated, err := stack.workspaces.Update(ctx, owner.ID, workspace.ID, UpdateWorkspaceInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
}
