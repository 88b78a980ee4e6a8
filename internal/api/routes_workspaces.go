package api

import (
	"github.com/gin-gonic/gin"

	"github.com/taskrythm/taskrythm/internal/handlers"
)

func registerWorkspaceRoutes(api *gin.RouterGroup, h *handlers.WorkspaceHandler) {
	workspaces := api.Group("/workspaces")
	{
		workspaces.GET("", h.List)
		workspaces.POST("", h.Create)
		workspaces.GET("/:id", h.Get)
		workspaces.PATCH("/:id", h.Update)
		workspaces.DELETE("/:id", h.Delete)
		workspaces.GET("/:id/members", h.ListMembers)
		workspaces.PATCH("/:id/members/:userID", h.UpdateMemberRole)
		workspaces.DELETE("/:id/members/:userID", h.RemoveMember)
		workspaces.POST("/:id/leave", h.Leave)
	}
}
