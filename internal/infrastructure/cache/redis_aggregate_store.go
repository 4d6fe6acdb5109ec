package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finvera/receivables/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const defaultKeyPrefix = "receivables:totals:"

// RedisAggregateStore stores ledger aggregates in Redis with a store-default
// expiry. Values are decimal strings, so no precision is lost across the
// round trip. Suitable for distributed deployments where multiple instances
// share the same cached totals.
type RedisAggregateStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisAggregateStore creates a Redis-backed aggregate store
func NewRedisAggregateStore(cfg config.RedisConfig) (*RedisAggregateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisAggregateStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       cfg.CacheTTL,
	}, nil
}

// NewRedisAggregateStoreWithClient creates a store with an existing Redis
// client, useful for testing or when sharing a client across components
func NewRedisAggregateStoreWithClient(client *redis.Client, ttl time.Duration) *RedisAggregateStore {
	return &RedisAggregateStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
	}
}

// Get reads a cached aggregate. A missing key reports found=false with no
// error; a cached zero is a regular hit.
func (s *RedisAggregateStore) Get(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("failed to read aggregate %q: %w", key, err)
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("corrupt aggregate %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes an aggregate under the store-default expiry
func (s *RedisAggregateStore) Set(ctx context.Context, key string, value decimal.Decimal) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write aggregate %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection
func (s *RedisAggregateStore) Close() error {
	return s.client.Close()
}

// Client exposes the underlying Redis client for components that share the
// connection, such as the settlement notifier
func (s *RedisAggregateStore) Client() *redis.Client {
	return s.client
}
