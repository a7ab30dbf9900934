package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/slotwise/appointment-scheduling/internal/config"
)

// Connect dials Redis with the address, credentials and pool size carried by
// the service configuration. The cache is optional, so a failed connect means
// "run without it" rather than a startup error.
func Connect(cfg config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: 1,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// AvailabilityCache keeps computed availability responses per provider and
// calendar date. It is strictly best-effort: a cache failure is logged and the
// caller falls through to the store.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{
		client: client,
		ttl:    ttl,
	}
}

func availabilityKey(providerID uuid.UUID, date string) string {
	return fmt.Sprintf("availability:%s:%s", providerID.String(), date)
}

// Get returns the cached slot list for a provider/date, and whether it was present.
func (c *AvailabilityCache) Get(ctx context.Context, providerID uuid.UUID, date string) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, availabilityKey(providerID, date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("provider_id", providerID.String()).Msg("availability cache read failed")
		}
		return nil, false
	}

	var slots []string
	if err := json.Unmarshal(raw, &slots); err != nil {
		log.Warn().Err(err).Str("provider_id", providerID.String()).Msg("availability cache entry corrupt, dropping")
		_ = c.client.Del(ctx, availabilityKey(providerID, date)).Err()
		return nil, false
	}

	return slots, true
}

func (c *AvailabilityCache) Set(ctx context.Context, providerID uuid.UUID, date string, slots []string) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(slots)
	if err != nil {
		log.Warn().Err(err).Msg("availability cache marshal failed")
		return
	}

	if err := c.client.Set(ctx, availabilityKey(providerID, date), raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("provider_id", providerID.String()).Msg("availability cache write failed")
	}
}

// Invalidate removes cached entries for the given provider dates. Called after
// a committed booking write so stale slot lists are never served beyond the TTL.
func (c *AvailabilityCache) Invalidate(ctx context.Context, providerID uuid.UUID, dates ...string) {
	if c == nil || c.client == nil || len(dates) == 0 {
		return
	}

	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, availabilityKey(providerID, d))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Str("provider_id", providerID.String()).Msg("availability cache invalidate failed")
	}
}
