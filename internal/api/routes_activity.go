package api

import (
	"github.com/gin-gonic/gin"

	"github.com/taskrythm/taskrythm/internal/handlers"
)

func registerActivityRoutes(api *gin.RouterGroup, h *handlers.ActivityHandler) {
	activity := api.Group("/activity")
	{
		activity.GET("/workspace/:id", h.ListByWorkspace)
		activity.GET("/project/:id", h.ListByProject)
	}
}
