package receivable

import (
	"github.com/finvera/receivables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceivableIssuedEvent is raised when a new receivable is created
type ReceivableIssuedEvent struct {
	shared.BaseDomainEvent
	DebtorID    uuid.UUID       `json:"debtor_id"`
	DebtorName  string          `json:"debtor_name"`
	IssuedBy    uuid.UUID       `json:"issued_by"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func NewReceivableIssuedEvent(r *Receivable) *ReceivableIssuedEvent {
	return &ReceivableIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("receivable.issued", "Receivable", r.ID),
		DebtorID:        r.DebtorID,
		DebtorName:      r.DebtorName,
		IssuedBy:        r.IssuedBy,
		TotalAmount:     r.TotalAmount,
	}
}

// ReceivableSettledEvent is raised when a partial settlement is recorded
type ReceivableSettledEvent struct {
	shared.BaseDomainEvent
	SettlementID uuid.UUID       `json:"settlement_id"`
	SettledBy    uuid.UUID       `json:"settled_by"`
	Amount       decimal.Decimal `json:"amount"`
	Remaining    decimal.Decimal `json:"remaining"`
}

func NewReceivableSettledEvent(r *Receivable, s *Settlement) *ReceivableSettledEvent {
	return &ReceivableSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("receivable.settled", "Receivable", r.ID),
		SettlementID:    s.ID,
		SettledBy:       s.SettledBy,
		Amount:          s.Amount,
		Remaining:       r.RemainingAmount(),
	}
}

// ReceivablePaidEvent is raised when the settlement sum reaches the total
// amount and the receivable flips to paid
type ReceivablePaidEvent struct {
	shared.BaseDomainEvent
	DebtorID    uuid.UUID       `json:"debtor_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func NewReceivablePaidEvent(r *Receivable) *ReceivablePaidEvent {
	return &ReceivablePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("receivable.paid", "Receivable", r.ID),
		DebtorID:        r.DebtorID,
		TotalAmount:     r.TotalAmount,
	}
}
