package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
	ua "github.com/mileusna/useragent"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// GetBaseURL returns the API root as seen by the client.
func GetBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + c.Request.Host + "/api"
}

// ParseUserAgent extracts useful information from User-Agent string
func ParseUserAgent(userAgent string) (browser, os, device string) {
	if userAgent == "" {
		return "Unknown Browser", "Unknown OS", "Unknown"
	}

	parsedUA := ua.Parse(userAgent)

	browser = "Unknown Browser"
	if parsedUA.Name != "" {
		browser = parsedUA.Name
	}

	os = "Unknown OS"
	if parsedUA.OS != "" {
		os = parsedUA.OS
	}

	switch {
	case parsedUA.Bot:
		device = "Bot"
	case parsedUA.Tablet:
		device = "Tablet"
	case parsedUA.Mobile:
		device = "Mobile"
	default:
		device = "Desktop"
	}

	return strings.TrimSpace(browser), strings.TrimSpace(os), device
}
