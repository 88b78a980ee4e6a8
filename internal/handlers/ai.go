package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/ai"
	"github.com/taskrythm/taskrythm/internal/models"
	"github.com/taskrythm/taskrythm/internal/services"
	apperrors "github.com/taskrythm/taskrythm/pkg/errors"
	"github.com/taskrythm/taskrythm/pkg/response"
)

type AIHandler struct {
	db       *gorm.DB
	svc      *ai.Service
	resolver *services.Resolver
}

type generatePlanRequest struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
	Goal        string `json:"goal" validate:"required,min=5,max=2000"`
	Context     string `json:"context" validate:"omitempty,max=4000"`
}

type refineTaskRequest struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
	TaskTitle   string `json:"taskTitle" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

type analyzeProjectRequest struct {
	ProjectID string `json:"projectId" validate:"required"`
}

type writeReportRequest struct {
	ProjectID string `json:"projectId" validate:"required"`
	Audience  string `json:"audience" validate:"omitempty,max=200"`
}

type chatRequest struct {
	WorkspaceID string           `json:"workspaceId" validate:"required"`
	Messages    []ai.ChatMessage `json:"messages" validate:"required,min=1,max=50"`
}

// NewAIHandler wires the AI operations behind workspace authorization. A nil
// service means AI features are disabled; every route then returns 503.
func NewAIHandler(db *gorm.DB, svc *ai.Service) (*AIHandler, error) {
	resolver, err := services.NewResolver(db)
	if err != nil {
		return nil, err
	}
	return &AIHandler{db: db, svc: svc, resolver: resolver}, nil
}

// POST /api/ai/generate-plan
func (h *AIHandler) GeneratePlan(c *gin.Context) {
	if h.svc == nil {
		response.Error(c, ai.ErrDisabled)
		return
	}

	var body generatePlanRequest
	if !bindAndValidate(c, &body) {
		return
	}

	ctx := requestContext(c)
	if _, err := h.resolver.EnsureRole(ctx, currentUserID(c), body.WorkspaceID, services.RolesEditor...); err != nil {
		response.Error(c, err)
		return
	}

	plan, err := h.svc.GeneratePlan(ctx, body.Goal, body.Context)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, plan)
}

// POST /api/ai/refine-task
func (h *AIHandler) RefineTask(c *gin.Context) {
	if h.svc == nil {
		response.Error(c, ai.ErrDisabled)
		return
	}

	var body refineTaskRequest
	if !bindAndValidate(c, &body) {
		return
	}

	ctx := requestContext(c)
	if _, err := h.resolver.EnsureRole(ctx, currentUserID(c), body.WorkspaceID, services.RolesEditor...); err != nil {
		response.Error(c, err)
		return
	}

	refined, err := h.svc.RefineTask(ctx, body.TaskTitle, body.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, refined)
}

// POST /api/ai/analyze-project
func (h *AIHandler) AnalyzeProject(c *gin.Context) {
	if h.svc == nil {
		response.Error(c, ai.ErrDisabled)
		return
	}

	var body analyzeProjectRequest
	if !bindAndValidate(c, &body) {
		return
	}

	ctx := requestContext(c)
	snapshot, err := h.authorizedSnapshot(ctx, c, body.ProjectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	analysis, err := h.svc.AnalyzeProject(ctx, *snapshot)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, analysis)
}

// POST /api/ai/write-report
func (h *AIHandler) WriteReport(c *gin.Context) {
	if h.svc == nil {
		response.Error(c, ai.ErrDisabled)
		return
	}

	var body writeReportRequest
	if !bindAndValidate(c, &body) {
		return
	}

	ctx := requestContext(c)
	snapshot, err := h.authorizedSnapshot(ctx, c, body.ProjectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.svc.WriteReport(ctx, *snapshot, body.Audience)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// POST /api/ai/chat
func (h *AIHandler) Chat(c *gin.Context) {
	if h.svc == nil {
		response.Error(c, ai.ErrDisabled)
		return
	}

	var body chatRequest
	if !bindAndValidate(c, &body) {
		return
	}

	ctx := requestContext(c)
	if _, err := h.resolver.EnsureRole(ctx, currentUserID(c), body.WorkspaceID, services.RolesAny...); err != nil {
		response.Error(c, err)
		return
	}

	workspaceContext, err := h.workspaceContext(ctx, body.WorkspaceID)
	if err != nil {
		response.Error(c, err)
		return
	}

	reply, err := h.svc.Chat(ctx, body.Messages, workspaceContext)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, reply)
}

// authorizedSnapshot resolves the project's workspace, checks membership, and
// assembles the task snapshot the model prompt is built from.
func (h *AIHandler) authorizedSnapshot(ctx context.Context, c *gin.Context, projectID string) (*ai.ProjectSnapshot, error) {
	workspaceID, err := h.resolver.ResolveWorkspaceID(ctx, services.ResolveInput{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	if _, err := h.resolver.EnsureRole(ctx, currentUserID(c), workspaceID, services.RolesAny...); err != nil {
		return nil, err
	}

	var project models.Project
	if err := h.db.WithContext(ctx).First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(err, "unable to load project")
	}

	var tasks []models.Task
	if err := h.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("order_index ASC, created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, apperrors.Wrap(err, "unable to load tasks")
	}

	snapshot := &ai.ProjectSnapshot{
		Name:        project.Name,
		Description: project.Description,
		Tasks:       make([]ai.SnapshotTask, 0, len(tasks)),
	}
	for _, t := range tasks {
		entry := ai.SnapshotTask{
			Title:    t.Title,
			Status:   string(t.Status),
			Priority: string(t.Priority),
		}
		if t.DueDate != nil {
			entry.DueDate = t.DueDate.Format("2006-01-02")
		}
		snapshot.Tasks = append(snapshot.Tasks, entry)
	}

	return snapshot, nil
}

// workspaceContext summarises the workspace for the chat prompt.
func (h *AIHandler) workspaceContext(ctx context.Context, workspaceID string) (string, error) {
	var workspace models.Workspace
	if err := h.db.WithContext(ctx).First(&workspace, "id = ?", workspaceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", services.ErrWorkspaceNotFound
		}
		return "", apperrors.Wrap(err, "unable to load workspace")
	}

	var projects []models.Project
	if err := h.db.WithContext(ctx).
		Where("workspace_id = ? AND archived = ?", workspaceID, false).
		Order("created_at ASC").
		Find(&projects).Error; err != nil {
		return "", apperrors.Wrap(err, "unable to load projects")
	}

	summary := fmt.Sprintf("Workspace: %s\nProjects:\n", workspace.Name)
	if len(projects) == 0 {
		summary += "(none yet)\n"
	}
	for _, p := range projects {
		summary += fmt.Sprintf("- %s: %s\n", p.Name, p.Description)
	}
	return summary, nil
}
