package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskrythm/taskrythm/internal/models"
)

func seedProjectFixture(t *testing.T, stack *testStack) (ownerID string, projectID string) {
	t.Helper()
	ctx := context.Background()

	owner := seedUser(t, stack.db, "owner")
	workspace, err := stack.workspaces.Create(ctx, owner.ID, CreateWorkspaceInput{Name: "Acme"})
	require.NoError(t, err)
	project, err := stack.projects.Create(ctx, owner.ID, CreateProjectInput{WorkspaceID: workspace.ID, Name: "Launch"})
	require.NoError(t, err)

	return owner.ID, project.ID
}

func TestTaskCreateAppendsOrderIndex(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	ownerID, projectID := seedProjectFixture(t, stack)

	first, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{ProjectID: projectID, Title: "first"})
	require.NoError(t, err)
	require.Equal(t, 0, first.OrderIndex)

	second, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{ProjectID: projectID, Title: "second"})
	require.NoError(t, err)
	require.Equal(t, 1, second.OrderIndex)

	explicit := 10
	third, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{ProjectID: projectID, Title: "third", OrderIndex: &explicit})
	require.NoError(t, err)
	require.Equal(t, 10, third.OrderIndex)

	fourth, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{ProjectID: projectID, Title: "fourth"})
	require.NoError(t, err)
	require.Equal(t, 11, fourth.OrderIndex)
}

func TestTaskCreateDefaults(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	ownerID, projectID := seedProjectFixture(t, stack)

	task, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{ProjectID: projectID, Title: "plain"})
	require.NoError(t, err)
	require.Equal(t, models.StatusTodo, task.Status)
	require.Equal(t, models.PriorityMedium, task.Priority)
	require.Equal(t, models.TypeTask, task.Type)
}

func TestTaskNestingIsOneLevelDeep(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	ownerID, projectID := seedProjectFixture(t, stack)

	parent, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{ProjectID: projectID, Title: "parent"})
	require.NoError(t, err)

	child, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{
		ProjectID:    projectID,
		ParentTaskID: &parent.ID,
		Title:        "child",
	})
	require.NoError(t, err)

	// A child cannot itself become a parent.
	_, err = stack.tasks.Create(ctx, ownerID, CreateTaskInput{
		ProjectID:    projectID,
		ParentTaskID: &child.ID,
		Title:        "grandchild",
	})
	require.ErrorIs(t, err, ErrTaskNesting)

	// A task with children cannot be re-parented under another task.
	other, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{ProjectID: projectID, Title: "other"})
	require.NoError(t, err)
	_, err = stack.tasks.Update(ctx, ownerID, parent.ID, UpdateTaskInput{ParentTaskID: &other.ID})
	require.ErrorIs(t, err, ErrTaskNesting)
}

func TestTaskParentMustShareProject(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	ownerID, projectID := seedProjectFixture(t, stack)

	foreignProject, err := stack.projects.Create(ctx, ownerID, CreateProjectInput{
		WorkspaceID: mustWorkspaceID(t, stack, projectID),
		Name:        "Other",
	})
	require.NoError(t, err)

	foreignParent, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{ProjectID: foreignProject.ID, Title: "afar"})
	require.NoError(t, err)

	_, err = stack.tasks.Create(ctx, ownerID, CreateTaskInput{
		ProjectID:    projectID,
		ParentTaskID: &foreignParent.ID,
		Title:        "stray",
	})
	require.ErrorIs(t, err, ErrParentOutsideProject)
}

func TestTaskUpdateFields(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	ownerID, projectID := seedProjectFixture(t, stack)

	task, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{ProjectID: projectID, Title: "draft"})
	require.NoError(t, err)

	title := "polished"
	status := models.StatusInProgress
	priority := models.PriorityHigh
	updated, err := stack.tasks.Update(ctx, ownerID, task.ID, UpdateTaskInput{
		Title:    &title,
		Status:   &status,
		Priority: &priority,
	})
	require.NoError(t, err)
	require.Equal(t, "polished", updated.Title)
	require.Equal(t, models.StatusInProgress, updated.Status)
	require.Equal(t, models.PriorityHigh, updated.Priority)
}

func TestTaskDeleteCascadesChildrenAndSubtasks(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	ownerID, projectID := seedProjectFixture(t, stack)

	parent, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{ProjectID: projectID, Title: "parent"})
	require.NoError(t, err)
	child, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{
		ProjectID:    projectID,
		ParentTaskID: &parent.ID,
		Title:        "child",
	})
	require.NoError(t, err)
	_, err = stack.tasks.AddSubtask(ctx, ownerID, parent.ID, "on parent")
	require.NoError(t, err)
	_, err = stack.tasks.AddSubtask(ctx, ownerID, child.ID, "on child")
	require.NoError(t, err)

	require.NoError(t, stack.tasks.Delete(ctx, ownerID, parent.ID))

	var taskCount int64
	require.NoError(t, stack.db.Model(&models.Task{}).Where("id IN ?", []string{parent.ID, child.ID}).Count(&taskCount).Error)
	require.Zero(t, taskCount)

	var subtaskCount int64
	require.NoError(t, stack.db.Model(&models.Subtask{}).Count(&subtaskCount).Error)
	require.Zero(t, subtaskCount)

	var activityCount int64
	require.NoError(t, stack.db.Model(&models.ActivityLog{}).
		Where("task_id IN ?", []string{parent.ID, child.ID}).Count(&activityCount).Error)
	require.Zero(t, activityCount)
}

func TestTaskListReturnsTopLevelWithChildren(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	ownerID, projectID := seedProjectFixture(t, stack)

	parent, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{ProjectID: projectID, Title: "parent"})
	require.NoError(t, err)
	_, err = stack.tasks.Create(ctx, ownerID, CreateTaskInput{
		ProjectID:    projectID,
		ParentTaskID: &parent.ID,
		Title:        "child",
	})
	require.NoError(t, err)

	tasks, err := stack.tasks.List(ctx, ownerID, projectID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, parent.ID, tasks[0].ID)
	require.Len(t, tasks[0].Children, 1)
}

func TestSubtaskLifecycle(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()
	ownerID, projectID := seedProjectFixture(t, stack)

	task, err := stack.tasks.Create(ctx, ownerID, CreateTaskInput{ProjectID: projectID, Title: "task"})
	require.NoError(t, err)

	subtask, err := stack.tasks.AddSubtask(ctx, ownerID, task.ID, "check the docs")
	require.NoError(t, err)
	require.False(t, subtask.Completed)

	done := true
	updated, err := stack.tasks.UpdateSubtask(ctx, ownerID, subtask.ID, UpdateSubtaskInput{Completed: &done})
	require.NoError(t, err)
	require.True(t, updated.Completed)

	require.NoError(t, stack.tasks.DeleteSubtask(ctx, ownerID, subtask.ID))
	_, _, _, err = stack.tasks.loadSubtask(ctx, subtask.ID)
	require.ErrorIs(t, err, ErrSubtaskNotFound)
}

func mustWorkspaceID(t *testing.T, stack *testStack, projectID string) string {
	t.Helper()

	var project models.Project
	require.NoError(t, stack.db.First(&project, "id = ?", projectID).Error)
	return project.WorkspaceID
}
