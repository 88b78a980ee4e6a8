package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/taskrythm/taskrythm/internal/middleware"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID returns the authenticated caller's local user id, set by the
// auth middleware. Empty when the route is somehow reached unauthenticated.
func currentUserID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Get(middleware.CtxUserIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
