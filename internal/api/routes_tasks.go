package api

import (
	"github.com/gin-gonic/gin"

	"github.com/taskrythm/taskrythm/internal/handlers"
)

func registerTaskRoutes(api *gin.RouterGroup, h *handlers.TaskHandler) {
	tasks := api.Group("/tasks")
	{
		tasks.GET("", h.List)
		tasks.POST("", h.Create)
		// Subtask routes sit under a literal segment so they cannot collide
		// with the :id wildcard.
		tasks.PATCH("/subtasks/:id", h.UpdateSubtask)
		tasks.DELETE("/subtasks/:id", h.DeleteSubtask)
		tasks.GET("/:id", h.Get)
		tasks.PATCH("/:id", h.Update)
		tasks.DELETE("/:id", h.Delete)
		tasks.POST("/:id/subtasks", h.AddSubtask)
	}
}
