package receivable

import (
	"context"

	"github.com/finvera/receivables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter defines filtering options for receivable queries
type Filter struct {
	shared.Filter
	DebtorID *uuid.UUID // Filter by debtor
	Paid     *bool      // Filter by settlement status
}

// TotalsQuery selects which slice of the ledger a sum covers
type TotalsQuery struct {
	Paid        bool // Sum paid receivables when true, open otherwise
	MonthToDate bool // Restrict to rows created since the start of the current month
}

// Repository defines the interface for receivable persistence
type Repository interface {
	// FindByID finds a receivable by ID, settlements included.
	// Returns (nil, nil) when no receivable matches.
	FindByID(ctx context.Context, id uuid.UUID) (*Receivable, error)

	// FindAndCount finds receivables with filtering and returns the total count
	FindAndCount(ctx context.Context, filter Filter) ([]Receivable, int64, error)

	// Save creates or updates a receivable together with its settlements
	Save(ctx context.Context, r *Receivable) error

	// SettleWithLock persists a new settlement and the updated receivable in a
	// single transaction, guarded by the aggregate version. Returns
	// shared.ErrConcurrencyConflict when a concurrent write won.
	SettleWithLock(ctx context.Context, r *Receivable, s *Settlement) error

	// ReplaceSettlementsWithLock rewrites the settlement history and updates
	// the receivable in a single transaction under the version guard
	ReplaceSettlementsWithLock(ctx context.Context, r *Receivable) error

	// Delete removes a receivable and its settlements
	Delete(ctx context.Context, id uuid.UUID) error

	// SumTotals sums total amounts over the slice described by the query.
	// Returns -1 when no rows match, so callers can tell an empty slice from
	// a zero-valued one.
	SumTotals(ctx context.Context, q TotalsQuery) (decimal.Decimal, error)
}
