package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/services"
	"github.com/eventos-rio/app-guestlist/internal/utils/httpclient"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize logging
	if err := logging.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	logger := logging.Logger

	logger.Info("Starting notification worker")

	// Initialize Redis
	config.InitRedis()
	if config.Redis == nil {
		log.Fatal("Failed to initialize Redis client")
	}

	// Initialize MongoDB
	config.InitMongoDB()
	if config.MongoDB == nil {
		log.Fatal("Failed to initialize MongoDB")
	}

	notifications := services.NewNotificationService(config.MongoDB, config.Redis, logger)

	// A configured webhook gets real delivery; otherwise dispatches are
	// only logged.
	var sender services.Sender = services.NewLogSender(logger)
	if config.AppConfig.NotifyWebhookURL != "" {
		pool := httpclient.NewPool(10)
		defer pool.Close()
		sender = services.NewWebhookSender(config.AppConfig.NotifyWebhookURL, pool, logger)
		logger.Info("webhook delivery enabled")
	}

	worker := services.NewNotifyWorker(config.Redis, notifications, sender, logger)
	go worker.Start()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutdown signal received")

	worker.Stop()

	logger.Info("Notification worker stopped")
}
