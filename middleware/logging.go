package middleware

import (
	"log/slog"
	"time"

	"skilltracker/utils"

	"github.com/gin-gonic/gin"
)

// AccessLogMiddleware writes one structured line per request.
func AccessLogMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		browser, os, device := utils.ParseUserAgent(c.Request.UserAgent())

		attrs := []any{
			"request_id", c.GetString(utils.RequestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
			"browser", browser,
			"os", os,
			"device", device,
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Error("request", attrs...)
		case status >= 400:
			logger.Warn("request", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	}
}
