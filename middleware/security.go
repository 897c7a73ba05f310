package middleware

import (
	"net/http"

	"skilltracker/apperrors"
	"skilltracker/utils"

	"github.com/gin-gonic/gin"
)

// RequestSizeLimiter caps the request body. A declared length over the
// limit is refused up front; a body that only turns out too long while
// being read fails with *http.MaxBytesError.
func RequestSizeLimiter(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		var w http.ResponseWriter = c.Writer
		c.Request.Body = http.MaxBytesReader(w, c.Request.Body, maxSize)

		if c.Request.ContentLength > maxSize {
			utils.PayloadTooLarge(c, apperrors.PayloadTooLarge.Error())
			return
		}

		c.Next()
	}
}

func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}
