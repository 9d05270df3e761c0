package services

import (
	"context"
	"testing"
	"time"

	"github.com/eventos-rio/app-guestlist/internal/config"
	"github.com/eventos-rio/app-guestlist/internal/models"
)

func TestCacheServiceRoundTrip(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	ctx := context.Background()
	service := NewCacheService(config.Redis, time.Minute, testLogger())

	key := models.RegistrationKey("event-1", "Guest@Example.com")
	reg := &models.Registration{
		EventID:    "event-1",
		GuestName:  "Guest",
		Email:      "guest@example.com",
		TicketCode: "TKT-TEST123456",
	}

	// Miss before anything is cached
	check, err := service.GetCachedCheck(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error on miss: %v", err)
	}
	if check != nil {
		t.Fatal("expected cache miss, got a hit")
	}

	if err := service.SetCachedCheck(ctx, key, true, reg); err != nil {
		t.Fatalf("failed to set cached check: %v", err)
	}

	check, err = service.GetCachedCheck(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error on hit: %v", err)
	}
	if check == nil || !check.Registered {
		t.Fatal("expected a registered cache hit")
	}
	if check.Registration == nil || check.Registration.TicketCode != reg.TicketCode {
		t.Errorf("cached registration mismatch: %+v", check.Registration)
	}

	if err := service.InvalidateCheck(ctx, key); err != nil {
		t.Fatalf("failed to invalidate: %v", err)
	}
	check, err = service.GetCachedCheck(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error after invalidation: %v", err)
	}
	if check != nil {
		t.Error("expected miss after invalidation")
	}
}

func TestCacheServiceCorruptEntry(t *testing.T) {
	requireBackends(t)
	defer cleanupCollections(t)

	ctx := context.Background()
	service := NewCacheService(config.Redis, time.Minute, testLogger())

	key := models.RegistrationKey("event-2", "guest@example.com")
	if err := config.Redis.Set(ctx, "regcheck:"+key, "not-json", time.Minute).Err(); err != nil {
		t.Fatalf("failed to plant corrupt entry: %v", err)
	}

	check, err := service.GetCachedCheck(ctx, key)
	if err != nil {
		t.Fatalf("corrupt entry should be treated as a miss, got %v", err)
	}
	if check != nil {
		t.Error("expected miss for corrupt entry")
	}
}

func TestCacheServiceNilRedis(t *testing.T) {
	service := NewCacheService(nil, time.Minute, testLogger())

	ctx := context.Background()
	if check, err := service.GetCachedCheck(ctx, "k"); err != nil || check != nil {
		t.Errorf("expected silent miss without redis, got %v %v", check, err)
	}
	if err := service.SetCachedCheck(ctx, "k", true, nil); err != nil {
		t.Errorf("expected set to be a no-op without redis, got %v", err)
	}
	if err := service.InvalidateCheck(ctx, "k"); err != nil {
		t.Errorf("expected invalidate to be a no-op without redis, got %v", err)
	}
}
