package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"relaypanel/internal/config"
	"relaypanel/internal/database"
	"relaypanel/internal/handlers"
	"relaypanel/internal/logger"
	"relaypanel/internal/metrics"
	"relaypanel/internal/middleware"
	"relaypanel/internal/monitor"
	"relaypanel/internal/pricing"
	"relaypanel/internal/services"
	"relaypanel/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "relaypanel/internal/docs" // Import swagger docs
)

// @title           RelayPanel API
// @version         1.0
// @description     Admin console backend for an AI gateway: operation logs, channels, redemption codes, runtime settings and model pricing.

// @host      localhost:3000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	metrics.Init()
	validator.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Live stores and services
	db := dbManager.DB()
	ratioStore := pricing.NewRatioStore()
	operationLogService := services.NewOperationLogService(db)
	optionService := services.NewOptionService(db, ratioStore, operationLogService)
	userService := services.NewUserService(db, operationLogService)
	channelService := services.NewChannelService(db, operationLogService)
	redemptionService := services.NewRedemptionService(db, operationLogService)

	if err := optionService.InitOptions(); err != nil {
		return fmt.Errorf("failed to load options: %w", err)
	}

	// Background monitor tasks
	rateLimiter := monitor.NewRateLimiter()
	statsCollector := monitor.NewStatsCollector()
	statsCollector.Start(ctx, time.Duration(appConfig.StatsIntervalMinutes)*time.Minute)

	autoEnableConfig := monitor.DefaultAutoEnableConfig()
	autoEnableConfig.Interval = time.Duration(appConfig.AutoEnableIntervalMinutes) * time.Minute
	autoEnabler := monitor.NewAutoEnabler(channelService, monitor.NewHTTPProber(), rateLimiter, statsCollector, autoEnableConfig)
	autoEnabler.Start(ctx)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	operationLogHandler := handlers.NewOperationLogHandler(operationLogService)
	channelHandler := handlers.NewChannelHandler(channelService, statsCollector, rateLimiter)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionService)
	groupHandler := handlers.NewGroupHandler(optionService)
	optionHandler := handlers.NewOptionHandler(optionService)
	pricingHandler := handlers.NewPricingHandler(ratioStore, optionService, channelService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(metrics.HTTPMetrics())

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

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsAuthMiddleware(appConfig.MetricsAPIKey), gin.WrapH(metrics.Handler()))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)

	// Authenticated routes
	authed := api.Group("/")
	authed.Use(middleware.AuthMiddleware())
	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/group/", groupHandler.List)
	authed.GET("/user/groups", groupHandler.UserGroups)
	authed.GET("/pricing/:model", pricingHandler.Table)

	// Admin routes
	admin := api.Group("/")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminOnly())

	operationLogs := admin.Group("/operation_log")
	operationLogs.GET("/", operationLogHandler.List)
	operationLogs.DELETE("/", operationLogHandler.Delete)
	operationLogs.GET("/options", operationLogHandler.Options)

	channels := admin.Group("/channel")
	channels.GET("/", channelHandler.List)
	channels.GET("/stats", channelHandler.Stats)
	channels.PUT("/settings", channelHandler.SetSettings)
	channels.GET("/:id", channelHandler.Get)
	channels.PUT("/:id", channelHandler.Update)
	channels.PUT("/:id/status", channelHandler.SetStatus)
	channels.GET("/:id/setting", channelHandler.GetSetting)
	channels.PUT("/:id/setting", channelHandler.SetSetting)

	redemptions := admin.Group("/redemption")
	redemptions.POST("/", redemptionHandler.Create)
	redemptions.GET("/", redemptionHandler.List)
	redemptions.DELETE("/invalid", redemptionHandler.DeleteInvalid)
	redemptions.GET("/:id", redemptionHandler.Get)
	redemptions.PUT("/:id", redemptionHandler.Update)
	redemptions.DELETE("/:id", redemptionHandler.Delete)

	users := admin.Group("/user")
	users.POST("/", userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)

	options := admin.Group("/option")
	options.GET("/", optionHandler.List)
	options.PUT("/", optionHandler.Update)

	log.Infof("Starting RelayPanel backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
