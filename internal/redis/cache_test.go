package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/slotwise/appointment-scheduling/internal/config"
)

func newTestCache(t *testing.T, ttl time.Duration) (*AvailabilityCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewAvailabilityCache(client, ttl), mr
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireUserAuth("cacheuser", "secret")

	cfg := config.Config{
		RedisAddr:     mr.Addr(),
		RedisUsername: "cacheuser",
		RedisPassword: "secret",
		RedisPoolSize: 2,
	}

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	if got := client.Options().PoolSize; got != 2 {
		t.Errorf("PoolSize = %d, want 2", got)
	}
}

func TestConnectBadCredentials(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	if _, err := Connect(config.Config{RedisAddr: mr.Addr()}); err == nil {
		t.Fatal("expected error without password")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	providerID := uuid.New()

	if _, ok := cache.Get(ctx, providerID, "2026-09-07"); ok {
		t.Fatal("cold cache should miss")
	}

	slots := []string{"09:00", "09:30", "10:00"}
	cache.Set(ctx, providerID, "2026-09-07", slots)

	got, ok := cache.Get(ctx, providerID, "2026-09-07")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if len(got) != 3 || got[0] != "09:00" {
		t.Fatalf("slots = %v, want %v", got, slots)
	}

	// A different date for the same provider is a separate entry.
	if _, ok := cache.Get(ctx, providerID, "2026-09-08"); ok {
		t.Fatal("other dates should miss")
	}
}

func TestCacheEmptySlotListIsCacheable(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	providerID := uuid.New()

	cache.Set(ctx, providerID, "2026-09-06", []string{})

	got, ok := cache.Get(ctx, providerID, "2026-09-06")
	if !ok {
		t.Fatal("a fully booked day should still hit the cache")
	}
	if len(got) != 0 {
		t.Fatalf("slots = %v, want none", got)
	}
}

func TestCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	providerID := uuid.New()

	cache.Set(ctx, providerID, "2026-09-07", []string{"09:00"})
	cache.Set(ctx, providerID, "2026-09-08", []string{"10:00"})
	cache.Set(ctx, providerID, "2026-09-09", []string{"11:00"})

	cache.Invalidate(ctx, providerID, "2026-09-07", "2026-09-08")

	if _, ok := cache.Get(ctx, providerID, "2026-09-07"); ok {
		t.Error("2026-09-07 should be invalidated")
	}
	if _, ok := cache.Get(ctx, providerID, "2026-09-08"); ok {
		t.Error("2026-09-08 should be invalidated")
	}
	if _, ok := cache.Get(ctx, providerID, "2026-09-09"); !ok {
		t.Error("2026-09-09 should survive")
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	providerID := uuid.New()

	cache.Set(ctx, providerID, "2026-09-07", []string{"09:00"})
	mr.FastForward(2 * time.Minute)

	if _, ok := cache.Get(ctx, providerID, "2026-09-07"); ok {
		t.Fatal("entry should expire after the TTL")
	}
}

func TestCacheCorruptEntryDropped(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	providerID := uuid.New()

	key := "availability:" + providerID.String() + ":2026-09-07"
	if err := mr.Set(key, "{not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	if _, ok := cache.Get(ctx, providerID, "2026-09-07"); ok {
		t.Fatal("corrupt entry should miss")
	}
	if mr.Exists(key) {
		t.Error("corrupt entry should be deleted")
	}
}

func TestCacheBackendDownIsSilent(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	providerID := uuid.New()

	mr.Close()

	cache.Set(ctx, providerID, "2026-09-07", []string{"09:00"})
	if _, ok := cache.Get(ctx, providerID, "2026-09-07"); ok {
		t.Fatal("downed backend should miss, not error")
	}
	cache.Invalidate(ctx, providerID, "2026-09-07")
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *AvailabilityCache
	ctx := context.Background()
	providerID := uuid.New()

	cache.Set(ctx, providerID, "2026-09-07", []string{"09:00"})
	if _, ok := cache.Get(ctx, providerID, "2026-09-07"); ok {
		t.Fatal("nil cache should always miss")
	}
	cache.Invalidate(ctx, providerID, "2026-09-07")
}
