// Package cache implements the optional L1 read-accelerator mirror in
// front of C9 (§3 of the expanded spec): it is never the system of
// record, only ever populated from the relational store; a statement's
// key is overwritten after each successful persist. Adapted from the teacher's package-level Redis
// client into an explicitly constructed, composition-root-owned Mirror
// (design note 9: no global singletons).
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"data-collection-system/pkg/config"
	"data-collection-system/pkg/logger"
)

// Mirror wraps a Redis client used purely as a serialized-JSON cache in
// front of relational reads. A nil *Mirror (returned when RedisConfig.Host
// is empty) makes every method a safe, cheap no-op so callers never need
// a separate "is caching enabled" branch.
type Mirror struct {
	client *redis.Client
	ttl    time.Duration
}

// Open connects to Redis per cfg. Returns (nil, nil) when cfg.Host is
// empty — the mirror is opt-in infrastructure, not a hard dependency.
func Open(cfg config.RedisConfig) (*Mirror, error) {
	if cfg.Host == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := time.Duration(cfg.TTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	logger.Info("redis read mirror connected successfully")
	return &Mirror{client: client, ttl: ttl}, nil
}

func (m *Mirror) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	return m.client.Close()
}

// Get returns the raw cached payload for key, or ("", false) on a miss
// or when the mirror is disabled.
func (m *Mirror) Get(ctx context.Context, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, err := m.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

// Set stores payload under key with the mirror's configured TTL. Errors
// are logged, never propagated: a mirror write failure must not affect
// the read-through result already computed from C9 (§3).
func (m *Mirror) Set(ctx context.Context, key, payload string) {
	if m == nil {
		return
	}
	if err := m.client.Set(ctx, key, payload, m.ttl).Err(); err != nil {
		logger.WithField("key", key).Warnf("redis mirror write failed: %v", err)
	}
}

// Invalidate drops key from the mirror. Errors are logged, never
// propagated.
func (m *Mirror) Invalidate(ctx context.Context, key string) {
	if m == nil {
		return
	}
	if err := m.client.Del(ctx, key).Err(); err != nil {
		logger.WithField("key", key).Warnf("redis mirror invalidate failed: %v", err)
	}
}
