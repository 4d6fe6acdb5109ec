package receivable

import (
	"time"

	"github.com/finvera/receivables/internal/domain/shared"
	"github.com/finvera/receivables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settlement represents a single payment applied against a receivable's
// outstanding balance. Settlements are append-only: they are created through
// the settle operation and never updated, though the full history may be
// rewritten when a receivable is edited.
type Settlement struct {
	ID           uuid.UUID       `json:"id"`
	ReceivableID uuid.UUID       `json:"receivable_id"`
	SettledBy    uuid.UUID       `json:"settled_by"`
	Amount       decimal.Decimal `json:"amount"`
	SettledAt    time.Time       `json:"settled_at"`
}

// NewSettlement creates a new settlement record
func NewSettlement(receivableID, settledBy uuid.UUID, amount valueobject.Money) (*Settlement, error) {
	if receivableID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECEIVABLE", "Receivable ID cannot be empty")
	}
	if settledBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Settling user ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return &Settlement{
		ID:           uuid.New(),
		ReceivableID: receivableID,
		SettledBy:    settledBy,
		Amount:       amount.Amount(),
		SettledAt:    time.Now(),
	}, nil
}

// GetAmountMoney returns the settlement amount as a Money value object
func (s *Settlement) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(s.Amount)
}

// Receivable is the aggregate root for money owed by a debtor.
// It owns the settlement history and guards two invariants: the settlement
// sum never exceeds the total amount, and the paid flag is true exactly when
// the settlement sum equals the total.
type Receivable struct {
	shared.BaseAggregateRoot
	DebtorID    uuid.UUID       `json:"debtor_id"`
	DebtorName  string          `json:"debtor_name"`
	IssuedBy    uuid.UUID       `json:"issued_by"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Paid        bool            `json:"paid"`
	Settlements []Settlement    `json:"settlements"`
}

// NewReceivable creates a new receivable for the given debtor
func NewReceivable(debtorID uuid.UUID, debtorName string, issuedBy uuid.UUID, totalAmount valueobject.Money) (*Receivable, error) {
	if debtorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEBTOR", "Debtor ID cannot be empty")
	}
	if debtorName == "" {
		return nil, shared.NewDomainError("INVALID_DEBTOR_NAME", "Debtor name cannot be empty")
	}
	if len(debtorName) > 200 {
		return nil, shared.NewDomainError("INVALID_DEBTOR_NAME", "Debtor name cannot exceed 200 characters")
	}
	if issuedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Issuing user ID cannot be empty")
	}
	if !totalAmount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount must be positive")
	}

	r := &Receivable{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DebtorID:          debtorID,
		DebtorName:        debtorName,
		IssuedBy:          issuedBy,
		TotalAmount:       totalAmount.Amount(),
		Paid:              false,
		Settlements:       []Settlement{},
	}

	r.AddDomainEvent(NewReceivableIssuedEvent(r))

	return r, nil
}

// SettledAmount returns the sum of all recorded settlement amounts
func (r *Receivable) SettledAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range r.Settlements {
		sum = sum.Add(s.Amount)
	}
	return sum
}

// RemainingAmount returns the total amount minus the settled amount
func (r *Receivable) RemainingAmount() decimal.Decimal {
	return r.TotalAmount.Sub(r.SettledAmount())
}

// ApplySettlement records a payment against the receivable.
// Precondition order matters: a paid receivable rejects before any amount
// validation. The zero-remaining check is exact decimal equality.
func (r *Receivable) ApplySettlement(settledBy uuid.UUID, amount valueobject.Money) (*Settlement, error) {
	if r.Paid {
		return nil, ErrAlreadySettled
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	remaining := r.RemainingAmount()
	if amount.Amount().GreaterThan(remaining) || amount.Amount().GreaterThan(r.TotalAmount) {
		return nil, ErrInvalidAmount
	}

	settlement, err := NewSettlement(r.ID, settledBy, amount)
	if err != nil {
		return nil, err
	}
	r.Settlements = append(r.Settlements, *settlement)

	if amount.Amount().Equal(remaining) {
		r.Paid = true
		r.AddDomainEvent(NewReceivablePaidEvent(r))
	} else {
		r.AddDomainEvent(NewReceivableSettledEvent(r, settlement))
	}

	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return settlement, nil
}

// ReplaceSettlements rewrites the full settlement history with the supplied
// set, tagging each record with this receivable's id. The replacement set is
// re-validated against the total amount and the paid flag is re-derived, so
// the aggregate invariants hold after a bulk rewrite.
func (r *Receivable) ReplaceSettlements(settlements []Settlement) error {
	sum := decimal.Zero
	for i := range settlements {
		if !settlements[i].Amount.IsPositive() {
			return ErrInvalidAmount
		}
		sum = sum.Add(settlements[i].Amount)
	}
	if sum.GreaterThan(r.TotalAmount) {
		return ErrInvalidAmount
	}

	replaced := make([]Settlement, len(settlements))
	copy(replaced, settlements)
	for i := range replaced {
		if replaced[i].ID == uuid.Nil {
			replaced[i].ID = uuid.New()
		}
		replaced[i].ReceivableID = r.ID
		if replaced[i].SettledAt.IsZero() {
			replaced[i].SettledAt = time.Now()
		}
	}

	wasPaid := r.Paid
	r.Settlements = replaced
	r.Paid = sum.Equal(r.TotalAmount)

	if r.Paid && !wasPaid {
		r.AddDomainEvent(NewReceivablePaidEvent(r))
	}

	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// Rename updates the debtor display name
func (r *Receivable) Rename(debtorName string) error {
	if debtorName == "" {
		return shared.NewDomainError("INVALID_DEBTOR_NAME", "Debtor name cannot be empty")
	}
	r.DebtorName = debtorName
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// IsPaid returns true if the receivable is fully settled
func (r *Receivable) IsPaid() bool {
	return r.Paid
}

// SettlementCount returns the number of recorded settlements
func (r *Receivable) SettlementCount() int {
	return len(r.Settlements)
}

// GetTotalAmountMoney returns the total amount as Money
func (r *Receivable) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(r.TotalAmount)
}

// GetRemainingAmountMoney returns the remaining balance as Money
func (r *Receivable) GetRemainingAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(r.RemainingAmount())
}
