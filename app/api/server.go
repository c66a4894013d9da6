package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jobcast/app/cfg"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, cronSecret string) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Routes
	setupRoutes(r, handler, cronSecret)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, cronSecret string) {
	// Subscription lifecycle
	r.POST("/register", handler.Register)
	r.GET("/verify-email/:token", handler.VerifyEmail)
	r.GET("/unsubscribe/:token", handler.Unsubscribe)

	// Health endpoint
	r.GET("/health", handler.GetHealth)

	// Manual pipeline trigger (conditionally enabled with authentication)
	if cronSecret != "" {
		api := r.Group("/api")
		api.Use(cronAuthMiddleware(cronSecret))
		{
			api.GET("/cron/job-alert", handler.RunJobAlert)
		}
		slog.Info("Cron trigger endpoint enabled with authentication")
	} else {
		slog.Info("Cron trigger endpoint disabled (CRON_SECRET not set)")
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"register":    "/register (POST)",
			"verify":      "/verify-email/<token>",
			"unsubscribe": "/unsubscribe/<token>",
			"health":      "/health",
		}

		if cronSecret != "" {
			endpoints["cron"] = "/api/cron/job-alert (requires x-cron-secret header)"
		}

		c.JSON(200, gin.H{
			"service":     "Jobcast",
			"version":     cfg.GetVersion(),
			"description": "Watches a YouTube channel for job-posting videos and emails openings to verified subscribers",
			"endpoints":   endpoints,
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// cronAuthMiddleware guards the manual pipeline trigger behind a shared
// secret delivered in the x-cron-secret header.
func cronAuthMiddleware(cronSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("x-cron-secret")

		if provided == "" || provided != cronSecret {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Provide the shared secret in the x-cron-secret header",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
