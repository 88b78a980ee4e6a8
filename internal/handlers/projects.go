package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/services"
	"github.com/taskrythm/taskrythm/pkg/errors"
	"github.com/taskrythm/taskrythm/pkg/response"
)

type ProjectHandler struct {
	svc *services.ProjectService
}

type createProjectRequest struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

type updateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Archived    *bool   `json:"archived"`
}

func NewProjectHandler(db *gorm.DB) (*ProjectHandler, error) {
	resolver, err := services.NewResolver(db)
	if err != nil {
		return nil, err
	}
	activity, err := services.NewActivityService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewProjectService(db, resolver, activity)
	if err != nil {
		return nil, err
	}
	return &ProjectHandler{svc: svc}, nil
}

// GET /api/projects?workspaceId=
func (h *ProjectHandler) List(c *gin.Context) {
	workspaceID := strings.TrimSpace(c.Query("workspaceId"))
	if workspaceID == "" {
		response.Error(c, errors.NewBadRequest("workspaceId query parameter is required"))
		return
	}

	projects, err := h.svc.List(requestContext(c), currentUserID(c), workspaceID, parseBoolQuery(c, "includeArchived"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, projects)
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var body createProjectRequest
	if !bindAndValidate(c, &body) {
		return
	}

	project, err := h.svc.Create(requestContext(c), currentUserID(c), services.CreateProjectInput{
		WorkspaceID: strings.TrimSpace(body.WorkspaceID),
		Name:        strings.TrimSpace(body.Name),
		Description: strings.TrimSpace(body.Description),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.svc.Get(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var body updateProjectRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if body.Name == nil && body.Description == nil && body.Archived == nil {
		response.Error(c, errors.NewBadRequest("no fields provided for update"))
		return
	}

	ctx := requestContext(c)
	userID := currentUserID(c)
	projectID := c.Param("id")

	if body.Name != nil || body.Description != nil {
		if _, err := h.svc.Update(ctx, userID, projectID, services.UpdateProjectInput{
			Name:        body.Name,
			Description: body.Description,
		}); err != nil {
			response.Error(c, err)
			return
		}
	}

	if body.Archived != nil {
		if _, err := h.svc.SetArchived(ctx, userID, projectID, *body.Archived); err != nil {
			response.Error(c, err)
			return
		}
	}

	project, err := h.svc.Get(ctx, userID, projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
