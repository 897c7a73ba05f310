package middleware

import (
	"log/slog"
	"runtime/debug"

	"skilltracker/utils"

	"github.com/gin-gonic/gin"
)

func RecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					"request_id", c.GetString(utils.RequestIDKey),
					"path", c.Request.URL.Path,
					"panic", err,
					"stack", string(debug.Stack()))
				utils.TrackError("panic")
				if !c.Writer.Written() {
					utils.InternalError(c, "internal server error")
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
