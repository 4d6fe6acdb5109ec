package dto

import (
	"time"

	"github.com/finvera/receivables/internal/domain/receivable"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementRequest carries one settlement entry in a create or edit payload
type SettlementRequest struct {
	SettledBy uuid.UUID       `json:"settled_by" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	SettledAt *time.Time      `json:"settled_at,omitempty"`
}

// CreateReceivableRequest is the payload for registering a receivable
type CreateReceivableRequest struct {
	DebtorID    uuid.UUID           `json:"debtor_id" binding:"required"`
	DebtorName  string              `json:"debtor_name" binding:"required,max=200"`
	IssuedBy    uuid.UUID           `json:"issued_by" binding:"required"`
	TotalAmount decimal.Decimal     `json:"total_amount" binding:"required"`
	Settlements []SettlementRequest `json:"settlements,omitempty"`
}

// EditReceivableRequest is the payload for a full-state edit
type EditReceivableRequest struct {
	ID          uuid.UUID           `json:"id" binding:"required"`
	DebtorName  string              `json:"debtor_name,omitempty"`
	Settlements []SettlementRequest `json:"settlements"`
}

// SettleRequest is the payload for recording a settlement
type SettleRequest struct {
	ReceivableID uuid.UUID       `json:"receivable_id" binding:"required"`
	ActingUserID uuid.UUID       `json:"acting_user_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
}

// ListReceivablesRequest holds the query parameters for listing receivables
type ListReceivablesRequest struct {
	ListRequest
	DebtorID *uuid.UUID `form:"debtor_id"`
	Paid     *bool      `form:"paid"`
}

// SettlementResponse represents a settlement in API responses
type SettlementResponse struct {
	ID        uuid.UUID       `json:"id"`
	SettledBy uuid.UUID       `json:"settled_by"`
	Amount    decimal.Decimal `json:"amount"`
	SettledAt time.Time       `json:"settled_at"`
}

// ReceivableResponse represents a receivable in API responses
type ReceivableResponse struct {
	ID              uuid.UUID            `json:"id"`
	DebtorID        uuid.UUID            `json:"debtor_id"`
	DebtorName      string               `json:"debtor_name"`
	IssuedBy        uuid.UUID            `json:"issued_by"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	SettledAmount   decimal.Decimal      `json:"settled_amount"`
	RemainingAmount decimal.Decimal      `json:"remaining_amount"`
	Paid            bool                 `json:"paid"`
	Settlements     []SettlementResponse `json:"settlements"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// SettleResponse represents the outcome of a settle call
type SettleResponse struct {
	SettlementID uuid.UUID       `json:"settlement_id"`
	ReceivableID uuid.UUID       `json:"receivable_id"`
	Amount       decimal.Decimal `json:"amount"`
	Remaining    decimal.Decimal `json:"remaining"`
	Paid         bool            `json:"paid"`
}

// TotalsResponse represents an aggregate total.
// A total of -1 means no receivables matched the slice.
type TotalsResponse struct {
	Total       decimal.Decimal `json:"total"`
	MonthToDate bool            `json:"month_to_date"`
}

// ToReceivableResponse converts a domain receivable into its API shape
func ToReceivableResponse(r *receivable.Receivable) ReceivableResponse {
	settlements := make([]SettlementResponse, len(r.Settlements))
	for i, s := range r.Settlements {
		settlements[i] = SettlementResponse{
			ID:        s.ID,
			SettledBy: s.SettledBy,
			Amount:    s.Amount,
			SettledAt: s.SettledAt,
		}
	}
	return ReceivableResponse{
		ID:              r.ID,
		DebtorID:        r.DebtorID,
		DebtorName:      r.DebtorName,
		IssuedBy:        r.IssuedBy,
		TotalAmount:     r.TotalAmount,
		SettledAmount:   r.SettledAmount(),
		RemainingAmount: r.RemainingAmount(),
		Paid:            r.Paid,
		Settlements:     settlements,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
