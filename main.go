package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/classpulse/feedback-service/internal/config"
	"github.com/classpulse/feedback-service/internal/grading"
	"github.com/classpulse/feedback-service/internal/handlers"
	"github.com/classpulse/feedback-service/internal/realtime"
	"github.com/classpulse/feedback-service/internal/repositories/postgres"
	"github.com/classpulse/feedback-service/internal/services"
	"github.com/classpulse/feedback-service/internal/utils"
	"github.com/classpulse/feedback-service/internal/validator"
	"github.com/classpulse/feedback-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})

	// Initialize realtime layer: event broker feeding the connection hub
	broker := realtime.NewBroker(slogLogger)
	if len(cfg.KafkaBrokers) > 0 {
		if err := broker.EnableKafkaMirror(cfg.KafkaBrokers); err != nil {
			log.Printf("Warning: Failed to enable Kafka mirror: %v", err)
		}
	}

	hub := realtime.NewHub(slogLogger)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()

	events, err := broker.Subscribe(hubCtx)
	if err != nil {
		log.Fatalf("Failed to subscribe to session events: %v", err)
	}
	go hub.Run(hubCtx, events)

	// Initialize grading client
	grader := grading.NewClient(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, slogLogger)

	// Initialize validator
	validator := validator.New()

	// Initialize services
	serviceManager := services.NewServiceManager(repo, broker, grader, slogLogger, validator, services.ServiceManagerConfig{
		JWTSecret:     cfg.JWTSecret,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, hub, cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, logger)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	stopHub()

	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	logger.Info("Server exited")
}
