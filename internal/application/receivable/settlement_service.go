package receivable

import (
	"context"
	"errors"
	"fmt"

	"github.com/finvera/receivables/internal/domain/receivable"
	"github.com/finvera/receivables/internal/domain/shared"
	"github.com/finvera/receivables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// settleMaxRetries bounds the optimistic-concurrency retry loop. Each retry
// reloads the aggregate, so a loser of a version race re-validates the
// remaining balance against fresh state.
const settleMaxRetries = 3

// SettlementService records settlements against receivables
type SettlementService struct {
	repo      receivable.Repository
	directory UserDirectory
	notifier  SettlementNotifier
	logger    *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	repo receivable.Repository,
	directory UserDirectory,
	notifier SettlementNotifier,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		logger:    logger,
	}
}

// SettleRequest represents a request to settle part of a receivable
type SettleRequest struct {
	ReceivableID uuid.UUID
	ActingUserID uuid.UUID
	Amount       decimal.Decimal
}

// SettleResult represents the outcome of a settle operation
type SettleResult struct {
	SettlementID uuid.UUID       `json:"settlement_id"`
	ReceivableID uuid.UUID       `json:"receivable_id"`
	Amount       decimal.Decimal `json:"amount"`
	Remaining    decimal.Decimal `json:"remaining"`
	Paid         bool            `json:"paid"`
}

// Settle records a payment against a receivable. The acting user is resolved
// against the directory before any state is touched. The settlement insert
// and the paid-flag update commit in one transaction under the aggregate's
// version guard; a lost race reloads and re-validates, up to settleMaxRetries
// attempts.
func (s *SettlementService) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	profile, err := s.directory.Lookup(ctx, req.ActingUserID)
	if err != nil {
		s.logger.Warn("user directory lookup failed",
			zap.String("user_id", req.ActingUserID.String()),
			zap.Error(err))
		return nil, err
	}

	amount := valueobject.NewMoneyBRL(req.Amount)

	var result *SettleResult
	var debtorName string
	for attempt := 1; ; attempt++ {
		result, debtorName, err = s.trySettle(ctx, req.ReceivableID, profile.ID, amount)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) || attempt >= settleMaxRetries {
			return nil, err
		}
		s.logger.Debug("settle lost version race, retrying",
			zap.String("receivable_id", req.ReceivableID.String()),
			zap.Int("attempt", attempt))
	}

	if result.Paid {
		s.notifyPaid(ctx, result, debtorName, profile)
	}

	s.logger.Info("settlement recorded",
		zap.String("receivable_id", result.ReceivableID.String()),
		zap.String("settlement_id", result.SettlementID.String()),
		zap.String("amount", result.Amount.String()),
		zap.Bool("paid", result.Paid))

	return result, nil
}

// trySettle performs one load-validate-commit pass
func (s *SettlementService) trySettle(
	ctx context.Context,
	receivableID, settledBy uuid.UUID,
	amount valueobject.Money,
) (*SettleResult, string, error) {
	r, err := s.repo.FindByID(ctx, receivableID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load receivable: %w", err)
	}
	if r == nil {
		return nil, "", receivable.ErrNotFound
	}

	settlement, err := r.ApplySettlement(settledBy, amount)
	if err != nil {
		return nil, "", err
	}

	if err := s.repo.SettleWithLock(ctx, r, settlement); err != nil {
		return nil, "", err
	}

	result := &SettleResult{
		SettlementID: settlement.ID,
		ReceivableID: r.ID,
		Amount:       settlement.Amount,
		Remaining:    r.RemainingAmount(),
		Paid:         r.Paid,
	}
	return result, r.DebtorName, nil
}

// notifyPaid publishes a paid notification. Failures are logged, never
// surfaced: the settlement is already committed.
func (s *SettlementService) notifyPaid(ctx context.Context, result *SettleResult, debtorName string, profile *UserProfile) {
	n := SettlementNotification{
		ReceivableID:  result.ReceivableID,
		DebtorName:    debtorName,
		Amount:        result.Amount,
		SettledBy:     profile.ID,
		SettledByName: profile.Name,
	}
	if err := s.notifier.NotifyPaid(ctx, n); err != nil {
		s.logger.Warn("paid notification failed",
			zap.String("receivable_id", result.ReceivableID.String()),
			zap.Error(err))
	}
}
