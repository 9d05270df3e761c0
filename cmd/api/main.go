package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/handlers"
	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/middleware"
	"github.com/eventos-rio/app-guestlist/internal/observability"
	"github.com/eventos-rio/app-guestlist/internal/resilience"
	"github.com/eventos-rio/app-guestlist/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/eventos-rio/app-guestlist/docs"
)

// mongoServiceKey is the circuit breaker key for the primary store
const mongoServiceKey = "mongodb"

// @title           Guest List API
// @version         1.0
// @description     API for high-volume event guest registration. The write path cascades through fallback tiers under load, so registration submissions succeed even while the primary store is degraded.

// @host      localhost:8080
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name registrations
// @tag.description Guest registration operations

// @tag.name events
// @tag.description Event catalog operations

// @tag.name health
// @tag.description Health check operations

func main() {
	// Initialize logger first
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	logger := logging.Logger

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// Initialize observability
	observability.InitTracer()
	defer observability.ShutdownTracer()

	// Initialize database connections
	config.InitMongoDB()
	config.InitRedis()

	// Domain services
	cache := services.NewCacheService(config.Redis, config.AppConfig.CheckCacheTTL, logger)
	notifier := services.NewNotificationService(config.MongoDB, config.Redis, logger)
	registrations := services.NewRegistrationService(config.MongoDB, cache, notifier, logger)
	events := services.NewEventService(config.MongoDB, logger)

	// Resilience stack for the registration write path
	admission := resilience.NewAdmissionController(resilience.AdmissionConfig{
		WindowDuration: config.AppConfig.AdmissionWindow,
		MaxRequests:    config.AppConfig.AdmissionMaxRequests,
	}, logger)
	breaker := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		FailureThreshold: config.AppConfig.BreakerFailureThreshold,
		SuccessThreshold: config.AppConfig.BreakerSuccessThreshold,
		RecoveryTime:     config.AppConfig.BreakerRecoveryTime,
	}, logger)
	tracker := resilience.NewProcessingTracker(config.AppConfig.CheckCacheTTL, logger)

	queueConfig := resilience.DefaultQueueConfig()
	queueConfig.MaxRetries = config.AppConfig.EmergencyMaxRetries
	queue := resilience.NewEmergencyQueue(queueConfig, logger)
	queue.RegisterHandler(resilience.JobTypeRegistration,
		services.NewRegistrationJobHandler(registrations, tracker, logger))
	defer queue.Stop()

	pipeline := resilience.NewRegistrationPipeline(resilience.PipelineConfig{
		ServiceKey:     mongoServiceKey,
		PrimaryTimeout: config.AppConfig.PrimaryWriteTimeout,
		DirectTimeout:  config.AppConfig.DirectWriteTimeout,
	}, registrations, registrations, breaker, tracker, queue, logger)

	// Handlers
	registrationHandler := handlers.NewRegistrationHandler(pipeline, registrations, cache, events, logger)
	eventHandler := handlers.NewEventHandler(events, breaker, mongoServiceKey, logger)
	queueAdminHandler := handlers.NewQueueAdminHandler(queue, logger)
	healthHandler := handlers.NewHealthHandler(breaker, mongoServiceKey)

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router with middleware
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		middleware.RequestTiming(),
		cors.Default(),
	)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.GET("/health", healthHandler.HealthCheck)

		v1.GET("/events", eventHandler.ListEvents)
		v1.GET("/events/:event_id", eventHandler.GetEvent)
		v1.GET("/events/:event_id/stats", eventHandler.GetEventStats)

		v1.POST("/events/:event_id/registrations",
			middleware.Admission(admission), registrationHandler.CreateRegistration)
		v1.GET("/events/:event_id/registrations", registrationHandler.GetRegistration)

		v1.GET("/tickets/:ticket_code", registrationHandler.GetTicket)
		v1.POST("/tickets/:ticket_code/checkin", registrationHandler.CheckIn)

		admin := v1.Group("/admin", middleware.AdminAuth())
		{
			admin.POST("/events", eventHandler.CreateEvent)
			admin.GET("/emergency-jobs", queueAdminHandler.ListJobs)
			admin.GET("/emergency-jobs/stats", queueAdminHandler.QueueStats)
			admin.GET("/emergency-jobs/:id", queueAdminHandler.GetJob)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Create server with timeouts
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.AppConfig.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("starting server",
			zap.Int("port", config.AppConfig.Port),
			zap.String("environment", config.AppConfig.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}
