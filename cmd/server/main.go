package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harukimoto/devkpi/internal/chat"
	"github.com/harukimoto/devkpi/internal/config"
	"github.com/harukimoto/devkpi/internal/database"
	"github.com/harukimoto/devkpi/internal/handlers"
	"github.com/harukimoto/devkpi/internal/middleware"
	"github.com/harukimoto/devkpi/internal/parser"
	"github.com/harukimoto/devkpi/internal/render"
	"github.com/harukimoto/devkpi/internal/repository"
	"github.com/harukimoto/devkpi/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize collaborators
	chatClient := chat.NewSlackClient(cfg.SlackBotToken)
	repo := repository.NewTaskRepository(database.GetDB())

	var analyzer services.Analyzer
	if cfg.OpenAIAPIKey != "" {
		analyzer = services.NewOpenAIAnalyzer(cfg.OpenAIAPIKey)
	}

	// Initialize services
	taskService := services.NewTaskService(repo, chatClient)
	reportService := services.NewReportService(
		repo,
		chatClient,
		analyzer,
		render.NewChartRenderer(),
		render.NewDocumentRenderer(),
		logger,
		cfg.ReportDir,
		cfg.AnalyticsTimeout,
	)

	// Initialize handlers
	eventsHandler := handlers.NewEventsHandler(taskService, reportService, chatClient, parser.NewMessageParser(), logger)
	filtersHandler := handlers.NewFiltersHandler(taskService, reportService, chatClient, parser.NewCommandParser(), logger, cfg.ReportCleanupDelay)

	// Initialize Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Dev KPI bot is running",
		})
	})

	// Slack webhooks
	slackRoutes := r.Group("/slack")
	slackRoutes.Use(middleware.VerifySlackSignature(cfg.SlackSigningSecret))
	{
		slackRoutes.POST("/events", eventsHandler.HandleEvents)
		slackRoutes.POST("/filters", filtersHandler.HandleFilters)
	}

	// Start server
	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
