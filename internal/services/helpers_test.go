package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/database/testutil"
	"github.com/taskrythm/taskrythm/internal/models"
)

type testStack struct {
	db         *gorm.DB
	resolver   *Resolver
	activity   *ActivityService
	identity   *IdentityService
	workspaces *WorkspaceService
	projects   *ProjectService
	tasks      *TaskService
	invites    *InviteService
}

func newTestStack(t *testing.T, inviteOpts ...InviteOption) *testStack {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	resolver, err := NewResolver(db)
	require.NoError(t, err)
	activity, err := NewActivityService(db)
	require.NoError(t, err)
	identity, err := NewIdentityService(db)
	require.NoError(t, err)
	workspaces, err := NewWorkspaceService(db, resolver, activity)
	require.NoError(t, err)
	projects, err := NewProjectService(db, resolver, activity)
	require.NoError(t, err)
	tasks, err := NewTaskService(db, resolver, activity)
	require.NoError(t, err)
	invites, err := NewInviteService(db, resolver, activity, inviteOpts...)
	require.NoError(t, err)

	return &testStack{
		db:         db,
		resolver:   resolver,
		activity:   activity,
		identity:   identity,
		workspaces: workspaces,
		projects:   projects,
		tasks:      tasks,
		invites:    invites,
	}
}

func seedUser(t *testing.T, db *gorm.DB, externalID string) *models.User {
	t.Helper()

	user := &models.User{
		ExternalID: externalID,
		Email:      externalID + "@example.com",
		Name:       externalID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// seedMember attaches an existing user to a workspace at the given role.
func seedMember(t *testing.T, db *gorm.DB, workspaceID, userID string, role models.WorkspaceRole) *models.WorkspaceMember {
	t.Helper()

	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
	}
	require.NoError(t, db.Create(member).Error)
	return member
}
