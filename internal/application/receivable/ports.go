package receivable

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cache keys for the four ledger aggregates
const (
	CacheKeyOpenTotal = "open-total"
	CacheKeyOpenMonth = "open-month"
	CacheKeyPaidTotal = "paid-total"
	CacheKeyPaidMonth = "paid-month"
)

// AggregateCache stores computed ledger aggregates. Presence is explicit:
// Get reports found=false on a miss, so a cached zero is still a hit.
type AggregateCache interface {
	Get(ctx context.Context, key string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, key string, value decimal.Decimal) error
}

// UserProfile is the directory service's view of a user
type UserProfile struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// UserDirectory resolves user IDs against the external directory service.
// Implementations return shared.ErrCommunicationFailure when the directory
// cannot be reached or the returned profile carries the nil-UUID sentinel.
type UserDirectory interface {
	Lookup(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
}

// SettlementNotification carries the payload published when a settlement
// fully pays a receivable
type SettlementNotification struct {
	ReceivableID  uuid.UUID       `json:"receivable_id"`
	DebtorName    string          `json:"debtor_name"`
	Amount        decimal.Decimal `json:"amount"`
	SettledBy     uuid.UUID       `json:"settled_by"`
	SettledByName string          `json:"settled_by_name"`
}

// SettlementNotifier publishes settlement notifications to interested
// consumers. Delivery is best effort.
type SettlementNotifier interface {
	NotifyPaid(ctx context.Context, n SettlementNotification) error
}
