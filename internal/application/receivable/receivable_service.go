package receivable

import (
	"context"
	"fmt"
	"time"

	"github.com/finvera/receivables/internal/domain/receivable"
	"github.com/finvera/receivables/internal/domain/shared"
	"github.com/finvera/receivables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceivableService handles receivable lifecycle operations
type ReceivableService struct {
	repo   receivable.Repository
	logger *zap.Logger
}

// NewReceivableService creates a new ReceivableService
func NewReceivableService(repo receivable.Repository, logger *zap.Logger) *ReceivableService {
	return &ReceivableService{
		repo:   repo,
		logger: logger,
	}
}

// SettlementInput carries one settlement entry supplied by a client
type SettlementInput struct {
	SettledBy uuid.UUID
	Amount    decimal.Decimal
	SettledAt *time.Time
}

// CreateReceivableRequest represents a request to create a receivable
type CreateReceivableRequest struct {
	DebtorID    uuid.UUID
	DebtorName  string
	IssuedBy    uuid.UUID
	TotalAmount decimal.Decimal
	Settlements []SettlementInput
}

// Create registers a new receivable. Imported ledgers may carry an initial
// settlement history; it goes through the same invariant checks as the edit
// path before anything is persisted.
func (s *ReceivableService) Create(ctx context.Context, req CreateReceivableRequest) (*receivable.Receivable, error) {
	total := valueobject.NewMoneyBRL(req.TotalAmount)

	r, err := receivable.NewReceivable(req.DebtorID, req.DebtorName, req.IssuedBy, total)
	if err != nil {
		return nil, err
	}

	if len(req.Settlements) > 0 {
		if err := r.ReplaceSettlements(toDomainSettlements(req.Settlements)); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save receivable: %w", err)
	}

	s.logger.Info("receivable created",
		zap.String("receivable_id", r.ID.String()),
		zap.String("debtor", r.DebtorName),
		zap.String("total_amount", r.TotalAmount.String()))

	return r, nil
}

// Get returns a receivable with its settlement history
func (s *ReceivableService) Get(ctx context.Context, id uuid.UUID) (*receivable.Receivable, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load receivable: %w", err)
	}
	if r == nil {
		return nil, receivable.ErrNotFound
	}
	return r, nil
}

// List returns receivables matching the filter along with the total count
func (s *ReceivableService) List(ctx context.Context, filter receivable.Filter) (*shared.Paginated[receivable.Receivable], error) {
	items, count, err := s.repo.FindAndCount(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list receivables: %w", err)
	}
	page := shared.NewPaginated(items, count, filter.Page, filter.PageSize)
	return &page, nil
}

// EditReceivableRequest represents a full-state edit of a receivable
type EditReceivableRequest struct {
	TargetID    uuid.UUID
	BodyID      uuid.UUID
	DebtorName  string
	Settlements []SettlementInput
}

// Edit rewrites a receivable's mutable state, replacing its settlement
// history wholesale. The replacement set is validated against the total
// amount and the paid flag is re-derived before the transaction commits.
func (s *ReceivableService) Edit(ctx context.Context, req EditReceivableRequest) (*receivable.Receivable, error) {
	if req.BodyID != req.TargetID {
		return nil, receivable.ErrMismatchedIdentifiers
	}

	r, err := s.repo.FindByID(ctx, req.TargetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receivable: %w", err)
	}
	if r == nil {
		return nil, receivable.ErrUnmodifiable
	}

	if req.DebtorName != "" && req.DebtorName != r.DebtorName {
		if err := r.Rename(req.DebtorName); err != nil {
			return nil, err
		}
	}

	if err := r.ReplaceSettlements(toDomainSettlements(req.Settlements)); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceSettlementsWithLock(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("receivable edited",
		zap.String("receivable_id", r.ID.String()),
		zap.Int("settlements", r.SettlementCount()),
		zap.Bool("paid", r.Paid))

	return r, nil
}

// Delete removes a receivable and its settlement history
func (s *ReceivableService) Delete(ctx context.Context, id uuid.UUID) error {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load receivable: %w", err)
	}
	if r == nil {
		return receivable.ErrNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete receivable: %w", err)
	}

	s.logger.Info("receivable deleted", zap.String("receivable_id", id.String()))
	return nil
}

func toDomainSettlements(inputs []SettlementInput) []receivable.Settlement {
	out := make([]receivable.Settlement, len(inputs))
	for i, in := range inputs {
		out[i] = receivable.Settlement{
			SettledBy: in.SettledBy,
			Amount:    in.Amount,
		}
		if in.SettledAt != nil {
			out[i].SettledAt = *in.SettledAt
		}
	}
	return out
}
