package api

import (
	"github.com/gin-gonic/gin"

	"github.com/taskrythm/taskrythm/internal/handlers"
)

func registerProjectRoutes(api *gin.RouterGroup, h *handlers.ProjectHandler) {
	projects := api.Group("/projects")
	{
		projects.GET("", h.List)
		projects.POST("", h.Create)
		projects.GET("/:id", h.Get)
		projects.PATCH("/:id", h.Update)
		projects.DELETE("/:id", h.Delete)
	}
}
