package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port        int    `json:"port"`
	Environment string `json:"environment"`

	// MongoDB configuration
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	// Redis configuration
	RedisURI      string        `json:"redis_uri"`
	RedisPassword string        `json:"redis_password"`
	RedisDB       int           `json:"redis_db"`
	RedisTTL      time.Duration `json:"redis_ttl"`

	// Collection names
	EventCollection        string `json:"mongo_event_collection"`
	RegistrationCollection string `json:"mongo_registration_collection"`
	NotificationCollection string `json:"mongo_notification_collection"`

	// Registration admission control
	AdmissionWindow      time.Duration `json:"admission_window"`
	AdmissionMaxRequests int           `json:"admission_max_requests"`

	// Circuit breaker
	BreakerFailureThreshold int           `json:"breaker_failure_threshold"`
	BreakerSuccessThreshold int           `json:"breaker_success_threshold"`
	BreakerRecoveryTime     time.Duration `json:"breaker_recovery_time"`

	// Registration write pipeline
	PrimaryWriteTimeout time.Duration `json:"primary_write_timeout"`
	DirectWriteTimeout  time.Duration `json:"direct_write_timeout"`

	// Emergency queue
	EmergencyMaxRetries int `json:"emergency_max_retries"`

	// Duplicate-check cache
	CheckCacheTTL time.Duration `json:"check_cache_ttl"`

	// Notification queue
	NotifyQueueKey   string `json:"notify_queue_key"`
	NotifyWebhookURL string `json:"notify_webhook_url"`

	// Admin endpoints
	AdminToken string `json:"-"`

	// Tracing configuration
	TracingEnabled  bool   `json:"tracing_enabled"`
	TracingEndpoint string `json:"tracing_endpoint"`
}

var (
	AppConfig *Config
)

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	redisTTL, err := time.ParseDuration(getEnvOrDefault("REDIS_TTL", "60m"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_TTL: %w", err)
	}

	admissionWindow, err := time.ParseDuration(getEnvOrDefault("ADMISSION_WINDOW", "60s"))
	if err != nil {
		return fmt.Errorf("invalid ADMISSION_WINDOW: %w", err)
	}

	admissionMaxRequests, err := strconv.Atoi(getEnvOrDefault("ADMISSION_MAX_REQUESTS", "20"))
	if err != nil {
		return fmt.Errorf("invalid ADMISSION_MAX_REQUESTS: %w", err)
	}

	breakerFailureThreshold, err := strconv.Atoi(getEnvOrDefault("BREAKER_FAILURE_THRESHOLD", "5"))
	if err != nil {
		return fmt.Errorf("invalid BREAKER_FAILURE_THRESHOLD: %w", err)
	}

	breakerSuccessThreshold, err := strconv.Atoi(getEnvOrDefault("BREAKER_SUCCESS_THRESHOLD", "1"))
	if err != nil {
		return fmt.Errorf("invalid BREAKER_SUCCESS_THRESHOLD: %w", err)
	}

	breakerRecoveryTime, err := time.ParseDuration(getEnvOrDefault("BREAKER_RECOVERY_TIME", "30s"))
	if err != nil {
		return fmt.Errorf("invalid BREAKER_RECOVERY_TIME: %w", err)
	}

	primaryWriteTimeout, err := time.ParseDuration(getEnvOrDefault("PRIMARY_WRITE_TIMEOUT", "8s"))
	if err != nil {
		return fmt.Errorf("invalid PRIMARY_WRITE_TIMEOUT: %w", err)
	}

	directWriteTimeout, err := time.ParseDuration(getEnvOrDefault("DIRECT_WRITE_TIMEOUT", "5s"))
	if err != nil {
		return fmt.Errorf("invalid DIRECT_WRITE_TIMEOUT: %w", err)
	}

	emergencyMaxRetries, err := strconv.Atoi(getEnvOrDefault("EMERGENCY_MAX_RETRIES", "10"))
	if err != nil {
		return fmt.Errorf("invalid EMERGENCY_MAX_RETRIES: %w", err)
	}

	checkCacheTTL, err := time.ParseDuration(getEnvOrDefault("CHECK_CACHE_TTL", "5m"))
	if err != nil {
		return fmt.Errorf("invalid CHECK_CACHE_TTL: %w", err)
	}

	AppConfig = &Config{
		// Server configuration
		Port:        port,
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		// MongoDB configuration
		MongoURI:      getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnvOrDefault("MONGODB_DATABASE", "guestlist"),

		// Redis configuration
		RedisURI:      getEnvOrDefault("REDIS_URI", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		RedisTTL:      redisTTL,

		// Collection names
		EventCollection:        getEnvOrDefault("MONGODB_EVENT_COLLECTION", "events"),
		RegistrationCollection: getEnvOrDefault("MONGODB_REGISTRATION_COLLECTION", "registrations"),
		NotificationCollection: getEnvOrDefault("MONGODB_NOTIFICATION_COLLECTION", "notifications"),

		// Resilience settings
		AdmissionWindow:         admissionWindow,
		AdmissionMaxRequests:    admissionMaxRequests,
		BreakerFailureThreshold: breakerFailureThreshold,
		BreakerSuccessThreshold: breakerSuccessThreshold,
		BreakerRecoveryTime:     breakerRecoveryTime,
		PrimaryWriteTimeout:     primaryWriteTimeout,
		DirectWriteTimeout:      directWriteTimeout,
		EmergencyMaxRetries:     emergencyMaxRetries,
		CheckCacheTTL:           checkCacheTTL,

		// Notification queue
		NotifyQueueKey:   getEnvOrDefault("NOTIFY_QUEUE_KEY", "guestlist:notifications:queue"),
		NotifyWebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),

		// Admin endpoints
		AdminToken: getEnvOrDefault("ADMIN_TOKEN", ""),

		// Tracing configuration
		TracingEnabled:  getEnvOrDefault("TRACING_ENABLED", "false") == "true",
		TracingEndpoint: getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
