package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/models"
	"github.com/taskrythm/taskrythm/internal/services"
	"github.com/taskrythm/taskrythm/pkg/response"
)

type InviteHandler struct {
	svc *services.InviteService
}

type createInviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=OWNER ADMIN MEMBER VIEWER"`
}

type acceptInviteRequest struct {
	Token string `json:"token" validate:"required,min=16"`
}

func NewInviteHandler(db *gorm.DB) (*InviteHandler, error) {
	resolver, err := services.NewResolver(db)
	if err != nil {
		return nil, err
	}
	activity, err := services.NewActivityService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewInviteService(db, resolver, activity)
	if err != nil {
		return nil, err
	}
	return &InviteHandler{svc: svc}, nil
}

// POST /api/workspaces/:id/invites
func (h *InviteHandler) Create(c *gin.Context) {
	var body createInviteRequest
	if !bindAndValidate(c, &body) {
		return
	}

	created, err := h.svc.Create(requestContext(c), currentUserID(c), c.Param("id"),
		strings.TrimSpace(body.Email), models.WorkspaceRole(body.Role))
	if err != nil {
		response.Error(c, err)
		return
	}

	// The raw token appears exactly once, in this response.
	response.Created(c, gin.H{
		"invite": created.Invite,
		"token":  created.Token,
	})
}

// GET /api/workspaces/:id/invites
func (h *InviteHandler) List(c *gin.Context) {
	invites, err := h.svc.List(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, invites)
}

// DELETE /api/invites/:id
func (h *InviteHandler) Revoke(c *gin.Context) {
	if err := h.svc.Revoke(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// POST /api/invites/accept
func (h *InviteHandler) Accept(c *gin.Context) {
	var body acceptInviteRequest
	if !bindAndValidate(c, &body) {
		return
	}

	member, err := h.svc.Accept(requestContext(c), currentUserID(c), strings.TrimSpace(body.Token))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, member)
}
