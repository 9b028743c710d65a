// Package cache provides the optional redis-backed response cache. Caching
// is best effort: cache failures are logged and the request proceeds as a
// miss.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/modalflow/modalflow/config"
)

// ErrCacheMiss is returned when a key is not present.
var ErrCacheMiss = errors.New("cache: miss")

// Manager wraps a redis client with TTL defaults from configuration.
type Manager struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewManager connects to redis using cfg and verifies the connection.
func NewManager(cfg config.CacheConfig, logger *zap.Logger) (*Manager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Manager{
		client: client,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "cache")),
	}, nil
}

// Get fetches the value stored under key, or ErrCacheMiss.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := m.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, nil
}

// Set stores value under key with the configured TTL.
func (m *Manager) Set(ctx context.Context, key string, value []byte) error {
	if err := m.client.Set(ctx, key, value, m.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Close releases the redis connection pool.
func (m *Manager) Close() error {
	return m.client.Close()
}
