package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/ai"
	"github.com/taskrythm/taskrythm/internal/app"
	iauth "github.com/taskrythm/taskrythm/internal/auth"
	"github.com/taskrythm/taskrythm/internal/handlers"
	"github.com/taskrythm/taskrythm/internal/middleware"
	"github.com/taskrythm/taskrythm/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
// aiSvc may be nil when AI features are disabled; those routes then return 503.
func NewRouter(db *gorm.DB, verifier iauth.TokenVerifier, cfg *app.Config, aiSvc *ai.Service) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if verifier == nil {
		return nil, fmt.Errorf("token verifier must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins))
	if cfg.Server.RateLimit.Requests > 0 {
		r.Use(middleware.RateLimit(cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))
	}

	// Public endpoints
	r.GET("/health", handlers.Health())
	if cfg.Metrics.Enabled {
		endpoint := cfg.Metrics.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	identity, err := services.NewIdentityService(db)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	api.Use(middleware.Auth(verifier, identity))

	api.GET("/me", handlers.Me)

	workspaceHandler, err := handlers.NewWorkspaceHandler(db)
	if err != nil {
		return nil, err
	}
	registerWorkspaceRoutes(api, workspaceHandler)

	inviteHandler, err := handlers.NewInviteHandler(db)
	if err != nil {
		return nil, err
	}
	registerInviteRoutes(api, inviteHandler)

	projectHandler, err := handlers.NewProjectHandler(db)
	if err != nil {
		return nil, err
	}
	registerProjectRoutes(api, projectHandler)

	taskHandler, err := handlers.NewTaskHandler(db)
	if err != nil {
		return nil, err
	}
	registerTaskRoutes(api, taskHandler)

	activityHandler, err := handlers.NewActivityHandler(db)
	if err != nil {
		return nil, err
	}
	registerActivityRoutes(api, activityHandler)

	aiHandler, err := handlers.NewAIHandler(db, aiSvc)
	if err != nil {
		return nil, err
	}
	registerAIRoutes(api, aiHandler)

	return r, nil
}
