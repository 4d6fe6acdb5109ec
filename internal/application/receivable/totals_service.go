package receivable

import (
	"context"
	"fmt"

	"github.com/finvera/receivables/internal/domain/receivable"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TotalsService serves ledger aggregates through the cache.
// Cache writes are last-writer-wins; the read-through path and the scheduled
// refresh may race, which is acceptable because both only ever write fresh
// snapshots.
type TotalsService struct {
	repo   receivable.Repository
	cache  AggregateCache
	logger *zap.Logger
}

// NewTotalsService creates a new TotalsService
func NewTotalsService(repo receivable.Repository, cache AggregateCache, logger *zap.Logger) *TotalsService {
	return &TotalsService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// GetPaidTotal returns the sum of paid receivables, month to date or
// all time. Served from cache when present; computed and cached on a miss.
// Returns -1 when no receivables match.
func (s *TotalsService) GetPaidTotal(ctx context.Context, monthToDate bool) (decimal.Decimal, error) {
	key := CacheKeyPaidTotal
	if monthToDate {
		key = CacheKeyPaidMonth
	}
	return s.readThrough(ctx, key, receivable.TotalsQuery{Paid: true, MonthToDate: monthToDate})
}

// GetOpenTotal returns the sum of open receivables, month to date or
// all time, through the same read-through path as GetPaidTotal
func (s *TotalsService) GetOpenTotal(ctx context.Context, monthToDate bool) (decimal.Decimal, error) {
	key := CacheKeyOpenTotal
	if monthToDate {
		key = CacheKeyOpenMonth
	}
	return s.readThrough(ctx, key, receivable.TotalsQuery{Paid: false, MonthToDate: monthToDate})
}

func (s *TotalsService) readThrough(ctx context.Context, key string, q receivable.TotalsQuery) (decimal.Decimal, error) {
	cached, found, err := s.cache.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to a direct aggregation, never an error
		s.logger.Warn("aggregate cache read failed", zap.String("key", key), zap.Error(err))
	} else if found {
		return cached, nil
	}

	total, err := s.repo.SumTotals(ctx, q)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to aggregate totals: %w", err)
	}

	if err := s.cache.Set(ctx, key, total); err != nil {
		s.logger.Warn("aggregate cache write failed", zap.String("key", key), zap.Error(err))
	}

	return total, nil
}

// RefreshAll recomputes all four aggregates and overwrites the cache
// entries, regardless of what is already cached. Per-key failures are
// logged and the remaining keys still refresh; the first error is returned
// so callers can report a degraded cycle.
func (s *TotalsService) RefreshAll(ctx context.Context) error {
	targets := []struct {
		key   string
		query receivable.TotalsQuery
	}{
		{CacheKeyOpenTotal, receivable.TotalsQuery{Paid: false, MonthToDate: false}},
		{CacheKeyOpenMonth, receivable.TotalsQuery{Paid: false, MonthToDate: true}},
		{CacheKeyPaidTotal, receivable.TotalsQuery{Paid: true, MonthToDate: false}},
		{CacheKeyPaidMonth, receivable.TotalsQuery{Paid: true, MonthToDate: true}},
	}

	var firstErr error
	for _, t := range targets {
		total, err := s.repo.SumTotals(ctx, t.query)
		if err != nil {
			s.logger.Warn("totals refresh query failed", zap.String("key", t.key), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := s.cache.Set(ctx, t.key, total); err != nil {
			s.logger.Warn("totals refresh cache write failed", zap.String("key", t.key), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
