package tests

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/redisclient"
)

// TestContainers holds references to test containers
type TestContainers struct {
	MongoContainer *mongodb.MongoDBContainer
	RedisContainer *tcredis.RedisContainer
	MongoDB        *mongo.Database
	Redis          *redisclient.Client
	Cleanup        func()
}

// SetupTestContainers starts MongoDB and Redis containers for testing
func SetupTestContainers(t *testing.T) *TestContainers {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx,
		"mongo:7.0",
		mongodb.WithUsername("root"),
		mongodb.WithPassword("password"),
	)
	require.NoError(t, err, "Failed to start MongoDB container")

	redisContainer, err := tcredis.Run(ctx,
		"redis:7-alpine",
	)
	require.NoError(t, err, "Failed to start Redis container")

	mongoURI, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MongoDB connection string")

	redisURI, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get Redis connection string")

	clientOptions := options.Client().ApplyURI(mongoURI)
	mongoClient, err := mongo.Connect(ctx, clientOptions)
	require.NoError(t, err, "Failed to connect to MongoDB")

	err = mongoClient.Ping(ctx, nil)
	require.NoError(t, err, "Failed to ping MongoDB")

	database := mongoClient.Database("guestlist_test")

	// The ConnectionString helper returns a redis:// URL; go-redis wants a
	// bare host:port address.
	redisAddr := strings.TrimPrefix(redisURI, "redis://")
	redisClient := redisclient.NewClient(goredis.NewClient(&goredis.Options{
		Addr: redisAddr,
	}))
	err = redisClient.Ping(ctx).Err()
	require.NoError(t, err, "Failed to ping Redis")

	if config.AppConfig == nil {
		config.AppConfig = &config.Config{}
	}

	config.AppConfig.MongoURI = mongoURI
	config.AppConfig.MongoDatabase = "guestlist_test"
	config.AppConfig.RedisURI = redisAddr
	config.AppConfig.RedisDB = 0
	config.AppConfig.RedisTTL = 60 * time.Minute
	config.AppConfig.EventCollection = "events"
	config.AppConfig.RegistrationCollection = "registrations"
	config.AppConfig.NotificationCollection = "notifications"
	config.AppConfig.AdmissionWindow = 1 * time.Minute
	config.AppConfig.AdmissionMaxRequests = 100
	config.AppConfig.BreakerFailureThreshold = 3
	config.AppConfig.BreakerSuccessThreshold = 2
	config.AppConfig.BreakerRecoveryTime = 30 * time.Second
	config.AppConfig.PrimaryWriteTimeout = 5 * time.Second
	config.AppConfig.DirectWriteTimeout = 3 * time.Second
	config.AppConfig.EmergencyMaxRetries = 10
	config.AppConfig.CheckCacheTTL = 5 * time.Minute
	config.AppConfig.NotifyQueueKey = "guestlist:notifications:queue"

	config.MongoDB = database
	config.Redis = redisClient

	// Indexes normally created on startup; the registration write path
	// relies on the unique guard for duplicate detection.
	_, err = database.Collection("registrations").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("event_id_1_email_1"),
	})
	require.NoError(t, err, "Failed to create registration index")

	_, err = database.Collection("events").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("slug_1"),
	})
	require.NoError(t, err, "Failed to create event index")

	cleanup := func() {
		ctx := context.Background()
		if mongoClient != nil {
			mongoClient.Disconnect(ctx)
		}
		if mongoContainer != nil {
			mongoContainer.Terminate(ctx)
		}
		if redisContainer != nil {
			redisContainer.Terminate(ctx)
		}
	}

	return &TestContainers{
		MongoContainer: mongoContainer,
		RedisContainer: redisContainer,
		MongoDB:        database,
		Redis:          redisClient,
		Cleanup:        cleanup,
	}
}

// CleanupDatabase removes all documents from the test database while keeping
// the indexes created at setup.
func CleanupDatabase(t *testing.T, db *mongo.Database) {
	ctx := context.Background()
	collections, err := db.ListCollectionNames(ctx, map[string]interface{}{})
	require.NoError(t, err, "Failed to list collections")

	for _, collection := range collections {
		_, err := db.Collection(collection).DeleteMany(ctx, bson.M{})
		require.NoError(t, err, fmt.Sprintf("Failed to clean collection %s", collection))
	}
}
