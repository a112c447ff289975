package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"impactbridge/partner-portal/partner-portal-backend/internal/auth"
	"impactbridge/partner-portal/partner-portal-backend/internal/config"
	"impactbridge/partner-portal/partner-portal-backend/internal/documents"
	"impactbridge/partner-portal/partner-portal-backend/internal/notifications"
	"impactbridge/partner-portal/partner-portal-backend/internal/updates"
	"impactbridge/partner-portal/partner-portal-backend/internal/verification"
	"impactbridge/partner-portal/partner-portal-backend/pkg/storage"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, relying on environment")
	}

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Connect to database
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	// S3 client for document and media storage
	s3Client, err := storage.NewS3Client(context.Background(), cfg.Storage.Region)
	if err != nil {
		logger.Fatal("Failed to initialize S3 client", zap.Error(err))
	}

	// Notifications hub
	hub := notifications.NewHub(logger)

	// Documents Module
	docsRepo := documents.NewRepository(db)
	docsStorage := documents.NewStorageProvider(s3Client, cfg.Storage.DocumentBucket)
	docsService := documents.NewService(docsRepo, docsStorage, logger)
	docsHandler := documents.NewHandler(docsService)

	// Verification Module
	verifRepo := verification.NewRepository(db)
	verifService := verification.NewService(verifRepo, docsRepo, hub, logger)
	verifHandler := verification.NewHandler(verifService)

	// Updates Module
	updatesRepo := updates.NewRepository(db)
	updatesService := updates.NewService(updatesRepo, logger)
	updatesHandler := updates.NewHandler(updatesService)

	// Setup Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api/v1")
	api.Use(auth.Middleware(cfg.Security.JWTSecret))
	{
		docsHandler.RegisterRoutes(api)
		verifHandler.RegisterRoutes(api)
		updatesHandler.RegisterRoutes(api)
	}

	router.GET("/ws/notifications", auth.Middleware(cfg.Security.JWTSecret), hub.ServeWS)

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen: %s\n", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", zap.Error(err))
	}

	logger.Info("Server exiting")
}
