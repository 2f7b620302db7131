package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hitbot-agency/suno-downloader/api/handlers"
	"github.com/hitbot-agency/suno-downloader/api/middleware"
	"github.com/hitbot-agency/suno-downloader/internal/app"
	"github.com/hitbot-agency/suno-downloader/internal/domain"
)

// Version is the service version reported by the health endpoint.
const Version = "1.0.0"

// SetupRouter sets up the HTTP router
func SetupRouter(controller *app.JobController, ledger domain.Ledger, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(Version)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		sessionHandler := handlers.NewSessionHandler(ledger, log)
		v1.GET("/plans", sessionHandler.GetPlans)
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.POST("/validate", sessionHandler.ValidateSession)
		}

		jobHandler := handlers.NewJobHandler(controller, ledger, log)
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.StartJob)
			jobs.GET("/:id", jobHandler.GetJob)
			jobs.POST("/:id/cancel", jobHandler.CancelJob)
			jobs.GET("/:id/archive", jobHandler.DownloadArchive)
		}
	}

	return router
}
