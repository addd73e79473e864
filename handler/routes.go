package handler

import (
	"net/http"
	"time"

	"github.com/ansher/agreementtracker/config"
	"github.com/ansher/agreementtracker/middleware"
	"github.com/ansher/agreementtracker/service"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the public and protected API on router
func RegisterRoutes(router *gin.Engine, cfg *config.Config, tracker *service.Tracker) {
	authHandler := NewAuthHandler(cfg)
	agreementHandler := NewAgreementHandler(tracker, cfg.Server.MaxUploadMB)
	settingsHandler := NewSettingsHandler(tracker)
	reminderHandler := NewReminderHandler(tracker, cfg.Reminders.From)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"timestamp":  time.Now().Format(time.RFC3339),
			"agreements": tracker.Count(),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.GET("/agreements", agreementHandler.List)
		protected.GET("/agreements/dashboard", agreementHandler.Dashboard)
		protected.POST("/agreements/upload", agreementHandler.Upload)
		protected.POST("/agreements", agreementHandler.Create)
		protected.GET("/agreements/:id", agreementHandler.Get)
		protected.PUT("/agreements/:id", agreementHandler.Update)
		protected.DELETE("/agreements/:id", agreementHandler.Delete)
		protected.GET("/agreements/:id/pdf", agreementHandler.PDF)
		protected.GET("/agreements/:id/reminder", reminderHandler.Draft)

		protected.GET("/settings/email", settingsHandler.Get)
		protected.PUT("/settings/email", settingsHandler.Update)

		protected.POST("/reminders/sweep", reminderHandler.Sweep)
	}
}
