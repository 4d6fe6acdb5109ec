package receivable

import (
	"testing"

	"github.com/finvera/receivables/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func createTestReceivable(t *testing.T) *Receivable {
	debtorID := uuid.New()
	issuedBy := uuid.New()
	total := valueobject.NewMoneyBRLFromFloat(1000.00)

	r, err := NewReceivable(debtorID, "Test Debtor", issuedBy, total)
	require.NoError(t, err)
	return r
}

func mustMoney(t *testing.T, s string) valueobject.Money {
	m, err := valueobject.NewMoneyBRLFromString(s)
	require.NoError(t, err)
	return m
}

// ============================================
// NewReceivable Tests
// ============================================

func TestNewReceivable_Success(t *testing.T) {
	r := createTestReceivable(t)

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, "Test Debtor", r.DebtorName)
	assert.False(t, r.Paid)
	assert.True(t, r.TotalAmount.Equal(decimal.NewFromFloat(1000.00)))
	assert.Empty(t, r.Settlements)
	assert.Equal(t, 1, r.Version)

	events := r.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "receivable.issued", events[0].EventType())
}

func TestNewReceivable_Validation(t *testing.T) {
	debtorID := uuid.New()
	issuedBy := uuid.New()
	total := valueobject.NewMoneyBRLFromFloat(100.00)

	t.Run("empty debtor ID", func(t *testing.T) {
		_, err := NewReceivable(uuid.Nil, "Debtor", issuedBy, total)
		assert.Error(t, err)
	})

	t.Run("empty debtor name", func(t *testing.T) {
		_, err := NewReceivable(debtorID, "", issuedBy, total)
		assert.Error(t, err)
	})

	t.Run("empty issuer", func(t *testing.T) {
		_, err := NewReceivable(debtorID, "Debtor", uuid.Nil, total)
		assert.Error(t, err)
	})

	t.Run("zero total", func(t *testing.T) {
		_, err := NewReceivable(debtorID, "Debtor", issuedBy, valueobject.ZeroBRL())
		assert.Error(t, err)
	})

	t.Run("negative total", func(t *testing.T) {
		_, err := NewReceivable(debtorID, "Debtor", issuedBy, valueobject.NewMoneyBRLFromFloat(-50.00))
		assert.Error(t, err)
	})
}

// ============================================
// ApplySettlement Tests
// ============================================

func TestApplySettlement_Partial(t *testing.T) {
	r := createTestReceivable(t)
	settledBy := uuid.New()

	s, err := r.ApplySettlement(settledBy, valueobject.NewMoneyBRLFromFloat(300.00))
	require.NoError(t, err)

	assert.Equal(t, r.ID, s.ReceivableID)
	assert.Equal(t, settledBy, s.SettledBy)
	assert.False(t, r.Paid)
	assert.True(t, r.SettledAmount().Equal(decimal.NewFromFloat(300.00)))
	assert.True(t, r.RemainingAmount().Equal(decimal.NewFromFloat(700.00)))
	assert.Equal(t, 2, r.Version)

	events := r.GetDomainEvents()
	assert.Equal(t, "receivable.settled", events[len(events)-1].EventType())
}

func TestApplySettlement_ExactRemainingFlipsPaid(t *testing.T) {
	r := createTestReceivable(t)
	settledBy := uuid.New()

	_, err := r.ApplySettlement(settledBy, valueobject.NewMoneyBRLFromFloat(400.00))
	require.NoError(t, err)
	require.False(t, r.Paid)

	_, err = r.ApplySettlement(settledBy, valueobject.NewMoneyBRLFromFloat(600.00))
	require.NoError(t, err)

	assert.True(t, r.Paid)
	assert.True(t, r.RemainingAmount().IsZero())

	events := r.GetDomainEvents()
	assert.Equal(t, "receivable.paid", events[len(events)-1].EventType())
}

func TestApplySettlement_AlreadyPaid(t *testing.T) {
	r := createTestReceivable(t)
	settledBy := uuid.New()

	_, err := r.ApplySettlement(settledBy, valueobject.NewMoneyBRLFromFloat(1000.00))
	require.NoError(t, err)
	require.True(t, r.Paid)

	_, err = r.ApplySettlement(settledBy, valueobject.NewMoneyBRLFromFloat(0.01))
	assert.ErrorIs(t, err, ErrAlreadySettled)
	assert.Len(t, r.Settlements, 1)
}

func TestApplySettlement_ExceedsRemaining(t *testing.T) {
	r := createTestReceivable(t)
	settledBy := uuid.New()

	_, err := r.ApplySettlement(settledBy, valueobject.NewMoneyBRLFromFloat(800.00))
	require.NoError(t, err)

	_, err = r.ApplySettlement(settledBy, valueobject.NewMoneyBRLFromFloat(200.01))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Len(t, r.Settlements, 1)
	assert.False(t, r.Paid)
}

func TestApplySettlement_NonPositiveAmount(t *testing.T) {
	r := createTestReceivable(t)
	settledBy := uuid.New()

	_, err := r.ApplySettlement(settledBy, valueobject.ZeroBRL())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = r.ApplySettlement(settledBy, valueobject.NewMoneyBRLFromFloat(-10.00))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestApplySettlement_AlreadyPaidWinsOverInvalidAmount(t *testing.T) {
	r := createTestReceivable(t)
	settledBy := uuid.New()

	_, err := r.ApplySettlement(settledBy, valueobject.NewMoneyBRLFromFloat(1000.00))
	require.NoError(t, err)

	// A paid receivable rejects before the amount is inspected
	_, err = r.ApplySettlement(settledBy, valueobject.NewMoneyBRLFromFloat(-5.00))
	assert.ErrorIs(t, err, ErrAlreadySettled)
}

func TestApplySettlement_ManyExactFractions(t *testing.T) {
	r := createTestReceivable(t)
	settledBy := uuid.New()

	// Ten settlements of 100.00 must sum exactly to 1000.00
	for i := 0; i < 10; i++ {
		_, err := r.ApplySettlement(settledBy, mustMoney(t, "100.00"))
		require.NoError(t, err)
	}

	assert.True(t, r.Paid)
	assert.True(t, r.RemainingAmount().IsZero())
	assert.Len(t, r.Settlements, 10)
}

// ============================================
// ReplaceSettlements Tests
// ============================================

func TestReplaceSettlements_RederivesPaid(t *testing.T) {
	r := createTestReceivable(t)
	settledBy := uuid.New()

	_, err := r.ApplySettlement(settledBy, valueobject.NewMoneyBRLFromFloat(200.00))
	require.NoError(t, err)

	err = r.ReplaceSettlements([]Settlement{
		{SettledBy: settledBy, Amount: decimal.NewFromFloat(600.00)},
		{SettledBy: settledBy, Amount: decimal.NewFromFloat(400.00)},
	})
	require.NoError(t, err)

	assert.True(t, r.Paid)
	assert.Len(t, r.Settlements, 2)
	for _, s := range r.Settlements {
		assert.Equal(t, r.ID, s.ReceivableID)
		assert.NotEqual(t, uuid.Nil, s.ID)
		assert.False(t, s.SettledAt.IsZero())
	}
}

func TestReplaceSettlements_BackToOpen(t *testing.T) {
	r := createTestReceivable(t)
	settledBy := uuid.New()

	_, err := r.ApplySettlement(settledBy, valueobject.NewMoneyBRLFromFloat(1000.00))
	require.NoError(t, err)
	require.True(t, r.Paid)

	err = r.ReplaceSettlements([]Settlement{
		{SettledBy: settledBy, Amount: decimal.NewFromFloat(100.00)},
	})
	require.NoError(t, err)

	assert.False(t, r.Paid)
	assert.True(t, r.RemainingAmount().Equal(decimal.NewFromFloat(900.00)))
}

func TestReplaceSettlements_ExceedsTotal(t *testing.T) {
	r := createTestReceivable(t)
	settledBy := uuid.New()

	err := r.ReplaceSettlements([]Settlement{
		{SettledBy: settledBy, Amount: decimal.NewFromFloat(1000.01)},
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, r.Settlements)
}

func TestReplaceSettlements_NonPositiveEntry(t *testing.T) {
	r := createTestReceivable(t)

	err := r.ReplaceSettlements([]Settlement{
		{SettledBy: uuid.New(), Amount: decimal.Zero},
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestReplaceSettlements_Empty(t *testing.T) {
	r := createTestReceivable(t)
	settledBy := uuid.New()

	_, err := r.ApplySettlement(settledBy, valueobject.NewMoneyBRLFromFloat(500.00))
	require.NoError(t, err)

	err = r.ReplaceSettlements(nil)
	require.NoError(t, err)

	assert.Empty(t, r.Settlements)
	assert.False(t, r.Paid)
	assert.True(t, r.RemainingAmount().Equal(decimal.NewFromFloat(1000.00)))
}

// ============================================
// Rename Tests
// ============================================

func TestRename(t *testing.T) {
	r := createTestReceivable(t)

	err := r.Rename("Renamed Debtor")
	require.NoError(t, err)
	assert.Equal(t, "Renamed Debtor", r.DebtorName)

	err = r.Rename("")
	assert.Error(t, err)
}

// ============================================
// NewSettlement Tests
// ============================================

func TestNewSettlement_Validation(t *testing.T) {
	_, err := NewSettlement(uuid.Nil, uuid.New(), valueobject.NewMoneyBRLFromFloat(10))
	assert.Error(t, err)

	_, err = NewSettlement(uuid.New(), uuid.Nil, valueobject.NewMoneyBRLFromFloat(10))
	assert.Error(t, err)

	_, err = NewSettlement(uuid.New(), uuid.New(), valueobject.ZeroBRL())
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
