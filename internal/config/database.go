package config

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"
)

var (
	// MongoDB client
	MongoDB *mongo.Database
	// Redis client
	Redis *redisclient.Client
)

// InitMongoDB initializes the MongoDB connection
func InitMongoDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(AppConfig.MongoURI).
		SetMonitor(otelmongo.NewMonitor()).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Fatal(err)
	}

	// Ping the database
	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		log.Fatal(err)
	}

	MongoDB = client.Database(AppConfig.MongoDatabase)

	if err := ensureIndexes(); err != nil {
		logging.Logger.Error("failed to ensure indexes on startup", zap.Error(err))
	}

	logging.Logger.Info("connected to MongoDB",
		zap.String("uri", maskMongoURI(AppConfig.MongoURI)),
		zap.String("database", AppConfig.MongoDatabase),
	)
}

// InitRedis initializes the Redis connection
func InitRedis() {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         AppConfig.RedisURI,
		Password:     AppConfig.RedisPassword,
		DB:           AppConfig.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Wrap with traced client
	Redis = redisclient.NewClient(redisClient)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Redis.Ping(ctx).Err(); err != nil {
		logging.Logger.Error("failed to connect to Redis",
			zap.String("uri", AppConfig.RedisURI),
			zap.Error(err))
		return
	}

	logging.Logger.Info("connected to Redis",
		zap.String("uri", AppConfig.RedisURI))
}

// maskMongoURI masks sensitive information in MongoDB URI
func maskMongoURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at == -1 {
		return uri
	}
	return "mongodb://****:****@" + uri[at+1:]
}

// ensureIndexes creates required indexes if they don't exist
func ensureIndexes() error {
	logger := zap.L().Named("database")
	logger.Info("ensuring required indexes exist")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ensureRegistrationIndex(ctx, logger); err != nil {
		return err
	}

	if err := ensureEventIndex(ctx, logger); err != nil {
		return err
	}

	logger.Info("all required indexes verified")
	return nil
}

// ensureRegistrationIndex creates the unique compound index on event_id+email.
// The pipeline tolerates duplicate concurrent writes; this constraint is what
// makes those duplicates harmless downstream.
func ensureRegistrationIndex(ctx context.Context, logger *zap.Logger) error {
	collection := MongoDB.Collection(AppConfig.RegistrationCollection)

	exists, err := indexExists(ctx, collection, "event_id_1_email_1")
	if err != nil {
		logger.Error("failed to list indexes", zap.Error(err))
		return err
	}
	if exists {
		logger.Debug("registration collection index already exists",
			zap.String("collection", AppConfig.RegistrationCollection))
		return nil
	}

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "email", Value: 1}},
		Options: options.Index().
			SetName("event_id_1_email_1").
			SetUnique(true),
	}

	_, err = collection.Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			logger.Info("registration index already exists (created by another instance)",
				zap.String("collection", AppConfig.RegistrationCollection))
			return nil
		}
		logger.Error("failed to create registration index",
			zap.String("collection", AppConfig.RegistrationCollection),
			zap.Error(err))
		return err
	}

	logger.Info("created registration collection index",
		zap.String("collection", AppConfig.RegistrationCollection),
		zap.String("index", "event_id_1_email_1"))
	return nil
}

// ensureEventIndex creates the slug index for event lookups
func ensureEventIndex(ctx context.Context, logger *zap.Logger) error {
	collection := MongoDB.Collection(AppConfig.EventCollection)

	exists, err := indexExists(ctx, collection, "slug_1")
	if err != nil {
		logger.Error("failed to list indexes", zap.Error(err))
		return err
	}
	if exists {
		logger.Debug("event collection index already exists",
			zap.String("collection", AppConfig.EventCollection))
		return nil
	}

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().
			SetName("slug_1").
			SetUnique(true),
	}

	_, err = collection.Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		logger.Error("failed to create event index",
			zap.String("collection", AppConfig.EventCollection),
			zap.Error(err))
		return err
	}

	logger.Info("created event collection index",
		zap.String("collection", AppConfig.EventCollection),
		zap.String("index", "slug_1"))
	return nil
}

// indexExists checks whether a named index is already present on a collection
func indexExists(ctx context.Context, collection *mongo.Collection, name string) (bool, error) {
	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		return false, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var index bson.M
		if err := cursor.Decode(&index); err != nil {
			continue
		}
		if indexName, ok := index["name"].(string); ok && indexName == name {
			return true, nil
		}
	}
	return false, nil
}
