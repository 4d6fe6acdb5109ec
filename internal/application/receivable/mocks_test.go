package receivable

import (
	"context"

	"github.com/finvera/receivables/internal/domain/receivable"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repository
// =============================================================================

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*receivable.Receivable, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Receivable), args.Error(1)
}

func (m *MockRepository) FindAndCount(ctx context.Context, filter receivable.Filter) ([]receivable.Receivable, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]receivable.Receivable), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) Save(ctx context.Context, r *receivable.Receivable) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRepository) SettleWithLock(ctx context.Context, r *receivable.Receivable, s *receivable.Settlement) error {
	args := m.Called(ctx, r, s)
	return args.Error(0)
}

func (m *MockRepository) ReplaceSettlementsWithLock(ctx context.Context, r *receivable.Receivable) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) SumTotals(ctx context.Context, q receivable.TotalsQuery) (decimal.Decimal, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// =============================================================================
// Mock Collaborators
// =============================================================================

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) Lookup(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UserProfile), args.Error(1)
}

type MockSettlementNotifier struct {
	mock.Mock
}

func (m *MockSettlementNotifier) NotifyPaid(ctx context.Context, n SettlementNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type MockAggregateCache struct {
	mock.Mock
}

func (m *MockAggregateCache) Get(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(decimal.Decimal), args.Bool(1), args.Error(2)
}

func (m *MockAggregateCache) Set(ctx context.Context, key string, value decimal.Decimal) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}
