package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/models"
	"github.com/taskrythm/taskrythm/internal/services"
	"github.com/taskrythm/taskrythm/pkg/errors"
	"github.com/taskrythm/taskrythm/pkg/response"
)

type WorkspaceHandler struct {
	svc *services.WorkspaceService
}

type createWorkspaceRequest struct {
	Name     string         `json:"name" validate:"required,min=2,max=128"`
	Settings map[string]any `json:"settings"`
}

type updateWorkspaceRequest struct {
	Name     *string        `json:"name" validate:"omitempty,min=2,max=128"`
	Settings map[string]any `json:"settings"`
}

type updateMemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=OWNER ADMIN MEMBER VIEWER"`
}

func NewWorkspaceHandler(db *gorm.DB) (*WorkspaceHandler, error) {
	resolver, err := services.NewResolver(db)
	if err != nil {
		return nil, err
	}
	activity, err := services.NewActivityService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewWorkspaceService(db, resolver, activity)
	if err != nil {
		return nil, err
	}
	return &WorkspaceHandler{svc: svc}, nil
}

// GET /api/workspaces
func (h *WorkspaceHandler) List(c *gin.Context) {
	workspaces, err := h.svc.List(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, workspaces)
}

// POST /api/workspaces
func (h *WorkspaceHandler) Create(c *gin.Context) {
	var body createWorkspaceRequest
	if !bindAndValidate(c, &body) {
		return
	}

	workspace, err := h.svc.Create(requestContext(c), currentUserID(c), services.CreateWorkspaceInput{
		Name:     strings.TrimSpace(body.Name),
		Settings: body.Settings,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, workspace)
}

// GET /api/workspaces/:id
func (h *WorkspaceHandler) Get(c *gin.Context) {
	workspace, err := h.svc.Get(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, workspace)
}

// PATCH /api/workspaces/:id
func (h *WorkspaceHandler) Update(c *gin.Context) {
	var body updateWorkspaceRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if body.Name == nil && body.Settings == nil {
		response.Error(c, errors.NewBadRequest("no fields provided for update"))
		return
	}

	workspace, err := h.svc.Update(requestContext(c), currentUserID(c), c.Param("id"), services.UpdateWorkspaceInput{
		Name:     body.Name,
		Settings: body.Settings,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, workspace)
}

// DELETE /api/workspaces/:id
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/workspaces/:id/members
func (h *WorkspaceHandler) ListMembers(c *gin.Context) {
	members, err := h.svc.ListMembers(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, members)
}

// PATCH /api/workspaces/:id/members/:userID
func (h *WorkspaceHandler) UpdateMemberRole(c *gin.Context) {
	var body updateMemberRoleRequest
	if !bindAndValidate(c, &body) {
		return
	}

	member, err := h.svc.UpdateMemberRole(requestContext(c), currentUserID(c),
		c.Param("id"), c.Param("userID"), models.WorkspaceRole(body.Role))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, member)
}

// DELETE /api/workspaces/:id/members/:userID
func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	if err := h.svc.RemoveMember(requestContext(c), currentUserID(c), c.Param("id"), c.Param("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

// POST /api/workspaces/:id/leave
func (h *WorkspaceHandler) Leave(c *gin.Context) {
	if err := h.svc.Leave(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"left": true})
}
