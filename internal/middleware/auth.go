package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/taskrythm/taskrythm/internal/auth"
	"github.com/taskrythm/taskrythm/internal/services"
	"github.com/taskrythm/taskrythm/pkg/errors"
	"github.com/taskrythm/taskrythm/pkg/metrics"
	"github.com/taskrythm/taskrythm/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
	CtxUserKey   = "user"
)

// Auth enforces bearer authentication and resolves the caller's local user
// row, creating or backfilling it on first sight.
func Auth(verifier iauth.TokenVerifier, identity *services.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			// Normalise all validation failures to 401
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := identity.EnsureUser(c.Request.Context(), claims)
		if err != nil {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			response.Error(c, err)
			c.Abort()
			return
		}

		metrics.AuthAttempts.WithLabelValues("success").Inc()

		// Propagate identity into request context
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxUserKey, user)

		c.Next()
	}
}
