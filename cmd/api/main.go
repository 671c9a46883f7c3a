package main

import (
	"fmt"
	"net/http"
	"os"

	"saku/internal/config"
	"saku/internal/database"
	"saku/internal/extraction"
	"saku/internal/handlers"
	"saku/internal/logger"
	"saku/internal/middleware"
	"saku/internal/services"
	"saku/internal/validator"
	"saku/internal/viewcache"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "saku/internal/docs" // Import swagger docs
)

// @title           Saku API
// @version         1.0
// @description     Saku is an expense tracker: receipts captured as text or photos are parsed into structured invoices by an external model and stored in shared pockets.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	cache := viewcache.New()
	extractor := extraction.New(appConfig.OpenAIAPIKey, appConfig.OpenAIBaseURL, appConfig.OpenAIModel, appConfig.ExtractionTimeout)

	userService := services.NewUserService(db)
	pocketService := services.NewPocketService(db, cache)
	invoiceService := services.NewInvoiceService(db, extractor, pocketService, cache, appConfig.PocketOwnershipOnCreate)
	analysisService := services.NewAnalysisService(db, pocketService, cache)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, auditService)
	pocketHandler := handlers.NewPocketHandler(pocketService, auditService)
	settingsHandler := handlers.NewSettingsHandler(userService)
	analysisHandler := handlers.NewAnalysisHandler(analysisService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group; every route requires a session from the identity provider
	v1 := router.Group("/api/v1")
	v1.Use(middleware.SessionMiddleware(userService))

	// Invoice routes
	invoices := v1.Group("/invoices")
	invoices.POST("", invoiceHandler.ProcessInvoice)
	invoices.GET("", invoiceHandler.GetInvoices)
	invoices.GET("/:id", invoiceHandler.GetInvoice)
	invoices.DELETE("/:id", invoiceHandler.DeleteInvoice)

	// Pocket routes
	pockets := v1.Group("/pockets")
	pockets.POST("", pocketHandler.CreatePocket)
	pockets.GET("", pocketHandler.GetPockets)
	pockets.PUT("/:id", pocketHandler.RenamePocket)
	pockets.DELETE("/:id", pocketHandler.DeletePocket)
	pockets.GET("/:id/members", pocketHandler.GetMembers)
	pockets.POST("/:id/members", pocketHandler.SharePocket)
	pockets.DELETE("/:id/members/:userId", pocketHandler.RemoveMember)

	// Settings routes
	settings := v1.Group("/settings")
	settings.GET("", settingsHandler.GetSettings)
	settings.PUT("/currency", settingsHandler.UpdateCurrency)

	// Aggregate views
	v1.GET("/dashboard", analysisHandler.GetDashboard)
	v1.GET("/analysis", analysisHandler.GetAnalysis)

	log.Infof("Starting Saku backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
