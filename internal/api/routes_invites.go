package api

import (
	"github.com/gin-gonic/gin"

	"github.com/taskrythm/taskrythm/internal/handlers"
)

func registerInviteRoutes(api *gin.RouterGroup, h *handlers.InviteHandler) {
	api.POST("/workspaces/:id/invites", h.Create)
	api.GET("/workspaces/:id/invites", h.List)

	invites := api.Group("/invites")
	{
		invites.DELETE("/:id", h.Revoke)
		invites.POST("/accept", h.Accept)
	}
}
