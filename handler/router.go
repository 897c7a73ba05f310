package handler

import (
	"log/slog"
	"net/http"

	"skilltracker/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	maxJSONBodyBytes  = 1 << 20
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
)

type RouterConfig struct {
	Logger             *slog.Logger
	CORSAllowedOrigins []string
	MaxUploadBytes     int64
}

type Handlers struct {
	Users  *UserHandler
	Notes  *NotesHandler
	Health *HealthHandler
}

// NewRouter builds the gin engine with the middleware chain and every route.
func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = multipartMemory
	router.HandleMethodNotAllowed = true

	router.Use(
		middleware.RequestTracingMiddleware(),
		middleware.RecoveryMiddleware(cfg.Logger),
		middleware.AccessLogMiddleware(cfg.Logger),
		middleware.MetricsMiddleware(),
		middleware.SecurityHeadersMiddleware(),
		middleware.CORSMiddleware(cfg.CORSAllowedOrigins),
	)

	router.GET("/", h.Health.Index)
	router.GET("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	users := api.Group("/users")
	users.Use(
		middleware.CacheControlMiddleware("private, no-store"),
		middleware.RequestSizeLimiter(maxJSONBodyBytes),
	)
	{
		users.POST("/signup", h.Users.Signup)
		users.POST("/login", h.Users.Login)
		users.GET("", h.Users.List)
		users.GET("/:id", middleware.ValidateObjectID("id"), h.Users.Get)
		users.PUT("/:id", middleware.ValidateObjectID("id"), h.Users.Update)
		users.DELETE("/:id", middleware.ValidateObjectID("id"), h.Users.Delete)
	}

	notes := api.Group("/notes")
	{
		notes.POST("/upload", middleware.RequestSizeLimiter(cfg.MaxUploadBytes+multipartOverhead), h.Notes.Upload)
		notes.GET("", h.Notes.List)
		notes.GET("/download/:id", middleware.ValidateObjectID("id"), h.Notes.Download)
		notes.DELETE("/:id", middleware.ValidateObjectID("id"), h.Notes.Delete)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":          "route not found",
			"requested_path": c.Request.URL.Path,
		})
	})

	return router
}
