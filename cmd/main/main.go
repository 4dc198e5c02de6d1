package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"expiry-tracker/internal/config"
	"expiry-tracker/internal/events"
	"expiry-tracker/internal/handlers"
	"expiry-tracker/internal/middleware"
	"expiry-tracker/internal/models"
	"expiry-tracker/internal/repository"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg := config.Load()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	if err := db.AutoMigrate(&models.InventoryItem{}, &models.ThresholdConfig{}); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}
	logger.Info("Database migrations completed")

	redisClient := config.InitRedis(cfg)
	if redisClient != nil {
		logger.WithField("addr", cfg.RedisAddr).Info("Redis cache enabled")
	} else {
		logger.Info("Redis not configured, caching disabled")
	}

	// NATS is optional; the service runs without event publishing
	var eventPublisher *events.TrackerEventPublisher
	if cfg.NATSURL != "" {
		eventPublisher, err = events.NewTrackerEventPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to NATS, event publishing disabled")
			eventPublisher = nil
		} else {
			logger.WithField("url", cfg.NATSURL).Info("NATS event publishing enabled")
			defer eventPublisher.Close()
		}
	}

	repo := repository.NewItemRepository(db, redisClient)

	itemHandler := handlers.NewItemHandler(repo, eventPublisher)
	exportHandler := handlers.NewExportHandler(repo)
	importHandler := handlers.NewImportHandler(repo)
	healthHandler := handlers.NewHealthHandler(repo, eventPublisher)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/health/extended", healthHandler.ExtendedHealthCheck)

	v1 := router.Group("/api/v1")
	{
		items := v1.Group("/items")
		{
			items.GET("", itemHandler.ListItems)
			items.POST("", itemHandler.CreateItem)
			items.DELETE("", itemHandler.ClearItems)
			items.GET("/import/template", importHandler.GetItemImportTemplate)
			items.POST("/import", importHandler.ImportItems)
			items.GET("/:productId", itemHandler.GetItem)
			items.PUT("/:productId", itemHandler.UpdateItem)
			items.DELETE("/:productId", itemHandler.DeleteItem)
		}

		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/stats", itemHandler.GetStats)
			dashboard.GET("/alerts", itemHandler.GetAlerts)
			dashboard.POST("/alerts/check", itemHandler.CheckExpiries)
		}

		v1.GET("/reports", itemHandler.GetReport)

		settings := v1.Group("/settings")
		{
			settings.GET("", itemHandler.GetSettings)
			settings.PUT("", itemHandler.UpdateSettings)
			settings.POST("/reset", itemHandler.ResetSettings)
		}

		v1.GET("/export", exportHandler.ExportBackup)
		v1.POST("/import", exportHandler.ImportBackup)
		v1.GET("/export/inventory", exportHandler.ExportInventoryCSV)
		v1.GET("/export/report", exportHandler.ExportReport)
		v1.GET("/export/summary", exportHandler.ExportSummaryCSV)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting expiry-tracker service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
