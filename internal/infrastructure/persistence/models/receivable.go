package models

import (
	"time"

	"github.com/finvera/receivables/internal/domain/receivable"
	"github.com/finvera/receivables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceivableModel is the persistence model for the Receivable aggregate root.
type ReceivableModel struct {
	AggregateModel
	DebtorID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	DebtorName  string            `gorm:"type:varchar(200);not null"`
	IssuedBy    uuid.UUID         `gorm:"type:uuid;not null;index"`
	TotalAmount decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Paid        bool              `gorm:"not null;default:false;index"`
	Settlements []SettlementModel `gorm:"foreignKey:ReceivableID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ReceivableModel) TableName() string {
	return "receivables"
}

// SettlementModel is the persistence model for settlement records.
type SettlementModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReceivableID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SettledBy    uuid.UUID       `gorm:"type:uuid;not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SettledAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SettlementModel) TableName() string {
	return "settlements"
}

// ToDomain converts the persistence model to a domain Receivable entity.
func (m *ReceivableModel) ToDomain() *receivable.Receivable {
	settlements := make([]receivable.Settlement, len(m.Settlements))
	for i, s := range m.Settlements {
		settlements[i] = s.ToDomain()
	}
	return &receivable.Receivable{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		DebtorID:    m.DebtorID,
		DebtorName:  m.DebtorName,
		IssuedBy:    m.IssuedBy,
		TotalAmount: m.TotalAmount,
		Paid:        m.Paid,
		Settlements: settlements,
	}
}

// FromDomain populates the persistence model from a domain Receivable entity.
func (m *ReceivableModel) FromDomain(r *receivable.Receivable) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.DebtorID = r.DebtorID
	m.DebtorName = r.DebtorName
	m.IssuedBy = r.IssuedBy
	m.TotalAmount = r.TotalAmount
	m.Paid = r.Paid
	m.Settlements = make([]SettlementModel, len(r.Settlements))
	for i := range r.Settlements {
		m.Settlements[i].FromDomain(&r.Settlements[i])
	}
}

// ReceivableModelFromDomain creates a new persistence model from a domain Receivable.
func ReceivableModelFromDomain(r *receivable.Receivable) *ReceivableModel {
	m := &ReceivableModel{}
	m.FromDomain(r)
	return m
}

// ToDomain converts the persistence model to a domain Settlement.
func (m *SettlementModel) ToDomain() receivable.Settlement {
	return receivable.Settlement{
		ID:           m.ID,
		ReceivableID: m.ReceivableID,
		SettledBy:    m.SettledBy,
		Amount:       m.Amount,
		SettledAt:    m.SettledAt,
	}
}

// FromDomain populates the persistence model from a domain Settlement.
func (m *SettlementModel) FromDomain(s *receivable.Settlement) {
	m.ID = s.ID
	m.ReceivableID = s.ReceivableID
	m.SettledBy = s.SettledBy
	m.Amount = s.Amount
	m.SettledAt = s.SettledAt
}

// SettlementModelFromDomain creates a new persistence model from a domain Settlement.
func SettlementModelFromDomain(s *receivable.Settlement) *SettlementModel {
	m := &SettlementModel{}
	m.FromDomain(s)
	return m
}
