package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskrythm/taskrythm/internal/models"
	apperrors "github.com/taskrythm/taskrythm/pkg/errors"
)

func TestInviteLifecycle(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	invitee := seedUser(t, stack.db, "invitee")

	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)

	created, err := stack.invites.Create(ctx, owner.ID, workspace.ID, "invitee@example.com", models.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, created.Token)
	require.NotEqual(t, created.Token, created.Invite.TokenHash)

	member, err := stack.invites.Accept(ctx, invitee.ID, created.Token)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, member.Role)
	require.Equal(t, workspace.ID, member.WorkspaceID)

	// Second redemption fails.
	_, err = stack.invites.Accept(ctx, invitee.ID, created.Token)
	require.ErrorIs(t, err, ErrInviteAlreadyUsed)
}

func TestInviteAcceptDoesNotCheckEmail(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	stranger := seedUser(t, stack.db, "stranger")

	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)

	created, err := stack.invites.Create(ctx, owner.ID, workspace.ID, "someone-else@example.com", models.RoleMember)
	require.NoError(t, err)

	// The token is the sole capability; the redeemer's email never matters.
	member, err := stack.invites.Accept(ctx, stranger.ID, created.Token)
	require.NoError(t, err)
	require.Equal(t, stranger.ID, member.UserID)
}

func TestInviteExpiry(t *testing.T) {
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	stack := newTestStack(t, WithInviteClock(func() time.Time { return current }))
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	late := seedUser(t, stack.db, "late")

	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)

	created, err := stack.invites.Create(ctx, owner.ID, workspace.ID, "late@example.com", models.RoleMember)
	require.NoError(t, err)

	current = current.Add(73 * time.Hour)

	_, err = stack.invites.Accept(ctx, late.ID, created.Token)
	require.ErrorIs(t, err, ErrInviteExpired)
}

func TestInviteAcceptExistingMemberKeepsRole(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	admin := seedUser(t, stack.db, "admin")

	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	seedMember(t, stack.db, workspace.ID, admin.ID, models.RoleAdmin)

	created, err := stack.invites.Create(ctx, owner.ID, workspace.ID, "admin@example.com", models.RoleViewer)
	require.NoError(t, err)

	member, err := stack.invites.Accept(ctx, admin.ID, created.Token)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, member.Role)
}

func TestInviteCreateRequiresManager(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	member := seedUser(t, stack.db, "member")

	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	seedMember(t, stack.db, workspace.ID, member.ID, models.RoleMember)

	_, err = stack.invites.Create(ctx, member.ID, workspace.ID, "x@example.com", models.RoleMember)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestInviteRevoke(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	joiner := seedUser(t, stack.db, "joiner")

	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)

	created, err := stack.invites.Create(ctx, owner.ID, workspace.ID, "x@example.com", models.RoleMember)
	require.NoError(t, err)

	require.NoError(t, stack.invites.Revoke(ctx, owner.ID, created.Invite.ID))
	_, err = stack.invites.Accept(ctx, joiner.ID, created.Token)
	require.ErrorIs(t, err, ErrInviteNotFound)

	// An accepted invite cannot be revoked.
	second, err := stack.invites.Create(ctx, owner.ID, workspace.ID, "y@example.com", models.RoleMember)
	require.NoError(t, err)
	_, err = stack.invites.Accept(ctx, joiner.ID, second.Token)
	require.NoError(t, err)
	err = stack.invites.Revoke(ctx, owner.ID, second.Invite.ID)
	require.ErrorIs(t, err, ErrInviteAlreadyUsed)
}

func TestInviteCleanupExpired(t *testing.T) {
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	stack := newTestStack(t, WithInviteClock(func() time.Time { return current }))
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)

	_, err = stack.invites.Create(ctx, owner.ID, workspace.ID, "stale@example.com", models.RoleMember)
	require.NoError(t, err)

	current = current.Add(100 * time.Hour)

	fresh, err := stack.invites.Create(ctx, owner.ID, workspace.ID, "fresh@example.com", models.RoleMember)
	require.NoError(t, err)

	removed, err := stack.invites.CleanupExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	var remaining []models.WorkspaceInvite
	require.NoError(t, stack.db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, fresh.Invite.ID, remaining[0].ID)
}
