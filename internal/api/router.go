package api

import (
	"log/slog"

	"guardian/internal/api/handlers"
	"guardian/internal/api/middleware"
	"guardian/internal/policy"

	"github.com/gin-gonic/gin"
)

// RouterConfig holds dependencies for the API router
type RouterConfig struct {
	Engine policy.EngineInterface
	APIKey string
	Logger *slog.Logger
}

// NewRouter creates and configures the Gin router
func NewRouter(config RouterConfig) *gin.Engine {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(config.Logger))
	router.Use(middleware.Logging(config.Logger))
	router.Use(middleware.ContentType())

	// Health check (no auth)
	healthHandler := handlers.NewHealthHandler()
	router.GET("/health", healthHandler.GetHealth)

	// API v1 routes (with authentication)
	v1 := router.Group("/v1")
	v1.Use(authMiddleware(config.APIKey))
	{
		// Policy verdict endpoints
		verdictHandler := handlers.NewVerdictHandler(config.Engine, config.Logger)
		v1.GET("/policy/verdict", verdictHandler.GetVerdict)
		v1.POST("/policy/content-check", verdictHandler.CheckContent)
		v1.GET("/policy/blocked/:username", verdictHandler.IsUserBlocked)

		// Parental override
		overrideHandler := handlers.NewOverrideHandler(config.Engine, config.Logger)
		v1.POST("/override", overrideHandler.RequestOverride)

		// Settings endpoints
		settingsHandler := handlers.NewSettingsHandler(config.Engine, config.Logger)
		v1.GET("/settings", settingsHandler.GetSettings)
		v1.PUT("/settings/parent-password", settingsHandler.SetParentPassword)
		v1.PUT("/settings/time-limit", settingsHandler.UpdateTimeLimit)
		v1.PUT("/settings/bedtime", settingsHandler.UpdateBedtime)
		v1.PUT("/settings/content-filter", settingsHandler.UpdateContentFilter)

		// Blocked users endpoints
		blockedHandler := handlers.NewBlockedUsersHandler(config.Engine, config.Logger)
		v1.GET("/blocked-users", blockedHandler.ListBlockedUsers)
		v1.POST("/blocked-users", blockedHandler.BlockUser)
		v1.DELETE("/blocked-users/:id", blockedHandler.UnblockUser)

		// Usage tracking endpoints
		trackingHandler := handlers.NewTrackingHandler(config.Engine, config.Logger)
		v1.POST("/tracking", trackingHandler.StartTracking)
		v1.GET("/tracking", trackingHandler.ListTracking)
		v1.DELETE("/tracking/:id", trackingHandler.StopTracking)

		// Usage totals
		usageHandler := handlers.NewUsageHandler(config.Engine, config.Logger)
		v1.GET("/usage/today", usageHandler.GetTodayUsage)
	}

	return router
}

// authMiddleware verifies API key authentication
func authMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-Guardian-Key")
		if providedKey != apiKey {
			c.JSON(401, gin.H{
				"error": "Unauthorized",
				"code":  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
