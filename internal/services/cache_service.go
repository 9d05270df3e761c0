package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/models"
	"github.com/eventos-rio/app-guestlist/internal/observability"
	"github.com/eventos-rio/app-guestlist/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedCheck is the Redis payload for a duplicate-check lookup. A hit lets
// the write path answer repeat submissions without touching MongoDB.
type CachedCheck struct {
	Registered   bool                 `json:"registered"`
	Registration *models.Registration `json:"registration,omitempty"`
	CachedAt     time.Time            `json:"cached_at"`
}

// CacheService keeps per-guest duplicate-check results in Redis with a
// short TTL. All operations degrade gracefully: a cache failure is never
// allowed to fail a registration.
type CacheService struct {
	redis  *redisclient.Client
	ttl    time.Duration
	logger *logging.SafeLogger
}

// NewCacheService creates a new cache service instance
func NewCacheService(redisClient *redisclient.Client, ttl time.Duration, logger *logging.SafeLogger) *CacheService {
	if ttl <= 0 {
		ttl = config.AppConfig.CheckCacheTTL
	}
	return &CacheService{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

func checkCacheKey(registrationKey string) string {
	return fmt.Sprintf("regcheck:%s", registrationKey)
}

// GetCachedCheck returns the cached duplicate-check for a registration key,
// or (nil, nil) on a cache miss.
func (s *CacheService) GetCachedCheck(ctx context.Context, registrationKey string) (*CachedCheck, error) {
	if s.redis == nil {
		return nil, nil
	}

	raw, err := s.redis.Get(ctx, checkCacheKey(registrationKey)).Result()
	if err != nil {
		if err == redis.Nil {
			observability.CacheHits.WithLabelValues("check", "miss").Inc()
			return nil, nil
		}
		observability.CacheHits.WithLabelValues("check", "error").Inc()
		return nil, fmt.Errorf("failed to read check cache: %w", err)
	}

	var check CachedCheck
	if err := json.Unmarshal([]byte(raw), &check); err != nil {
		// Corrupt entry, drop it and treat as a miss
		s.logger.Warn("dropping corrupt check cache entry",
			zap.String("key", registrationKey),
			zap.Error(err))
		_ = s.redis.Del(ctx, checkCacheKey(registrationKey)).Err()
		observability.CacheHits.WithLabelValues("check", "miss").Inc()
		return nil, nil
	}

	observability.CacheHits.WithLabelValues("check", "hit").Inc()
	return &check, nil
}

// SetCachedCheck stores the duplicate-check result for a registration key
func (s *CacheService) SetCachedCheck(ctx context.Context, registrationKey string, registered bool, registration *models.Registration) error {
	if s.redis == nil {
		return nil
	}

	payload, err := json.Marshal(CachedCheck{
		Registered:   registered,
		Registration: registration,
		CachedAt:     time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal check cache entry: %w", err)
	}

	if err := s.redis.Set(ctx, checkCacheKey(registrationKey), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write check cache: %w", err)
	}
	return nil
}

// InvalidateCheck removes the cached duplicate-check for a registration key
func (s *CacheService) InvalidateCheck(ctx context.Context, registrationKey string) error {
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, checkCacheKey(registrationKey)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate check cache: %w", err)
	}
	return nil
}
