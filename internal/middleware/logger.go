package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taskrythm/taskrythm/pkg/logger"
)

// Logger writes one structured access-log line per request. Health checks
// are skipped to keep the log readable; authenticated requests carry the
// resolved user id.
func Logger() gin.HandlerFunc {
	log := logger.WithModule("http")

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID := c.GetString(CtxUserIDKey); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}

		if c.Writer.Status() >= 500 {
			log.Error("request failed", fields...)
			return
		}
		log.Info("request", fields...)
	}
}
