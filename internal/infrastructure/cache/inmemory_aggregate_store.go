package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// aggregateEntry represents a stored aggregate with expiration
type aggregateEntry struct {
	value     decimal.Decimal
	expiresAt time.Time
}

// InMemoryAggregateStore implements the aggregate cache using an in-memory
// map. Suitable for single-instance deployments and testing.
type InMemoryAggregateStore struct {
	mu      sync.RWMutex
	entries map[string]aggregateEntry
	ttl     time.Duration
}

// NewInMemoryAggregateStore creates a new in-memory aggregate store
func NewInMemoryAggregateStore(ttl time.Duration) *InMemoryAggregateStore {
	return &InMemoryAggregateStore{
		entries: make(map[string]aggregateEntry),
		ttl:     ttl,
	}
}

// Get reads a cached aggregate. Expired entries report found=false.
func (s *InMemoryAggregateStore) Get(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists || time.Now().After(e.expiresAt) {
		return decimal.Zero, false, nil
	}
	return e.value, true, nil
}

// Set writes an aggregate under the store-default expiry
func (s *InMemoryAggregateStore) Set(ctx context.Context, key string, value decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = aggregateEntry{
		value:     value,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}
