package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/services"
	"github.com/taskrythm/taskrythm/pkg/response"
)

type ActivityHandler struct {
	svc      *services.ActivityService
	resolver *services.Resolver
}

func NewActivityHandler(db *gorm.DB) (*ActivityHandler, error) {
	resolver, err := services.NewResolver(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewActivityService(db)
	if err != nil {
		return nil, err
	}
	return &ActivityHandler{svc: svc, resolver: resolver}, nil
}

// GET /api/activity/workspace/:id
func (h *ActivityHandler) ListByWorkspace(c *gin.Context) {
	ctx := requestContext(c)
	workspaceID := c.Param("id")

	if _, err := h.resolver.EnsureRole(ctx, currentUserID(c), workspaceID, services.RolesAny...); err != nil {
		response.Error(c, err)
		return
	}

	opts := listOptions(c)
	entries, total, err := h.svc.ListByWorkspace(ctx, workspaceID, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, entries, paginationMeta(opts, total))
}

// GET /api/activity/project/:id
func (h *ActivityHandler) ListByProject(c *gin.Context) {
	ctx := requestContext(c)
	projectID := c.Param("id")

	workspaceID, err := h.resolver.ResolveWorkspaceID(ctx, services.ResolveInput{ProjectID: projectID})
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := h.resolver.EnsureRole(ctx, currentUserID(c), workspaceID, services.RolesAny...); err != nil {
		response.Error(c, err)
		return
	}

	opts := listOptions(c)
	entries, total, err := h.svc.ListByProject(ctx, projectID, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, entries, paginationMeta(opts, total))
}

func listOptions(c *gin.Context) services.ActivityListOptions {
	return services.ActivityListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "perPage", 50),
	}
}

func paginationMeta(opts services.ActivityListOptions, total int64) *response.Meta {
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	totalPages := int(total) / perPage
	if int(total)%perPage != 0 {
		totalPages++
	}

	return &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: totalPages,
	}
}
