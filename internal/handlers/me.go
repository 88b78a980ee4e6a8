package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskrythm/taskrythm/internal/middleware"
	"github.com/taskrythm/taskrythm/internal/models"
	"github.com/taskrythm/taskrythm/pkg/errors"
	"github.com/taskrythm/taskrythm/pkg/response"
)

// GET /api/me
func Me(c *gin.Context) {
	value, ok := c.Get(middleware.CtxUserKey)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, ok := value.(*models.User)
	if !ok {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, user)
}
