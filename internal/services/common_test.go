package services

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

var (
	testSetupOnce sync.Once
	testInitError error
)

// setupTestEnvironment initializes the test environment once for the package
func setupTestEnvironment() {
	testSetupOnce.Do(func() {
		if os.Getenv("MONGODB_URI") == "" {
			os.Setenv("MONGODB_URI", "mongodb://localhost:27017")
		}
		if os.Getenv("REDIS_URI") == "" {
			os.Setenv("REDIS_URI", "localhost:6379")
		}
		if os.Getenv("MONGODB_DATABASE") == "" {
			os.Setenv("MONGODB_DATABASE", "guestlist_test")
		}

		if err := config.LoadConfig(); err != nil {
			testInitError = err
			return
		}
		config.InitMongoDB()
		config.InitRedis()
	})
}

// testLogger returns a logger that discards output
func testLogger() *logging.SafeLogger {
	return logging.NewSafeLogger(zap.NewNop())
}

// requireBackends skips the test when MongoDB or Redis is not reachable
func requireBackends(t *testing.T) {
	t.Helper()
	setupTestEnvironment()
	if testInitError != nil {
		t.Skipf("skipping: test environment init failed: %v", testInitError)
	}
	if config.MongoDB == nil {
		t.Skip("skipping: MongoDB not available")
	}
	if config.Redis == nil {
		t.Skip("skipping: Redis not available")
	}
}

// cleanupCollections clears the test collections and flushes test Redis
// keys. Documents are deleted rather than the collections dropped so the
// unique indexes created at init survive between tests.
func cleanupCollections(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	for _, name := range []string{
		config.AppConfig.EventCollection,
		config.AppConfig.RegistrationCollection,
		config.AppConfig.NotificationCollection,
	} {
		if _, err := config.MongoDB.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			t.Logf("failed to clear collection %s: %v", name, err)
		}
	}

	patterns := []string{"regcheck:*", config.AppConfig.NotifyQueueKey}
	for _, pattern := range patterns {
		keys, _ := config.Redis.Keys(ctx, pattern).Result()
		if len(keys) > 0 {
			config.Redis.Del(ctx, keys...)
		}
	}
}
