package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindful-finance-ledger/internal/api_gateway/handler"
	"github.com/mindful-finance-ledger/internal/api_gateway/middleware"
	"github.com/mindful-finance-ledger/internal/config"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Accounts     *handler.AccountHandler
	Transactions *handler.TransactionHandler
	Categories   *handler.CategoryHandler
	Dashboard    *handler.DashboardHandler
	Maintenance  *handler.MaintenanceHandler
	Journal      *handler.JournalHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, auth config.AuthConfig, h Handlers) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	// API v1 endpoints, all scoped to the token's owner
	v1 := r.Group("/api/v1", middleware.Auth(auth, logger))
	{
		accounts := v1.Group("/accounts")
		{
			accounts.GET("", h.Accounts.List)
			accounts.POST("", h.Accounts.Create)
			accounts.GET("/summary", h.Accounts.Summary)
			accounts.POST("/defaults", h.Accounts.EnsureDefaults)
			accounts.GET("/:id", h.Accounts.GetByID)
			accounts.PATCH("/:id", h.Accounts.Update)
			accounts.DELETE("/:id", h.Accounts.Deactivate)
			accounts.GET("/:id/transactions", h.Transactions.GetByAccountID)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.GET("", h.Transactions.List)
			transactions.POST("", h.Transactions.Create)
			transactions.POST("/async", h.Transactions.Submit)
			transactions.GET("/:id", h.Transactions.GetByID)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", h.Categories.List)
			categories.POST("", h.Categories.Create)
			categories.PUT("/:id", h.Categories.Update)
			categories.DELETE("/:id", h.Categories.Delete)
		}

		v1.GET("/dashboard", h.Dashboard.Dashboard)
		v1.GET("/reports", h.Dashboard.Report)
		v1.GET("/insights", h.Dashboard.Insights)
		v1.GET("/journal", h.Journal.List)
		v1.GET("/journal/range", h.Journal.Range)

		maintenance := v1.Group("/maintenance")
		{
			maintenance.POST("/reconcile", h.Maintenance.Reconcile)
			maintenance.GET("/integrity", h.Maintenance.Integrity)
			maintenance.POST("/migrate", h.Maintenance.Migrate)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
