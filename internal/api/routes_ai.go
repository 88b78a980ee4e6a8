package api

import (
	"github.com/gin-gonic/gin"

	"github.com/taskrythm/taskrythm/internal/handlers"
)

func registerAIRoutes(api *gin.RouterGroup, h *handlers.AIHandler) {
	aiGroup := api.Group("/ai")
	{
		aiGroup.POST("/generate-plan", h.GeneratePlan)
		aiGroup.POST("/refine-task", h.RefineTask)
		aiGroup.POST("/analyze-project", h.AnalyzeProject)
		aiGroup.POST("/write-report", h.WriteReport)
		aiGroup.POST("/chat", h.Chat)
	}
}
