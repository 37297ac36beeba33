package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "jsonlify-backend/internal/auth"
	"jsonlify-backend/internal/files"
	"jsonlify-backend/internal/jobs"
	"jsonlify-backend/internal/shared/config"
	"jsonlify-backend/internal/shared/metrics"
	"jsonlify-backend/internal/shared/server/middleware"
	"jsonlify-backend/internal/shared/server/respond"
	"jsonlify-backend/internal/users"
)

// RouterDeps carries the handlers the router wires up. Nil handlers skip
// their routes, which keeps partial wiring possible in tests.
type RouterDeps struct {
	Config      config.Config
	JobsHandler *jobs.Handler
	FileHandler *files.Handler
	UserHandler *users.Handler
	GoogleAuth  *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.FileHandler != nil {
		deps.FileHandler.RegisterRoutes(api)
	}
	if deps.JobsHandler != nil {
		api.POST("/jobs", deps.JobsHandler.Create)
		api.GET("/jobs", deps.JobsHandler.List)
		api.GET("/jobs/:id", deps.JobsHandler.Get)
		api.POST("/jobs/:id/query", deps.JobsHandler.UpdateQuery)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
