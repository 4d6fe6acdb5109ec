package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	appreceivable "github.com/finvera/receivables/internal/application/receivable"
	"github.com/finvera/receivables/internal/domain/receivable"
	"github.com/finvera/receivables/internal/domain/shared"
	"github.com/finvera/receivables/internal/domain/shared/valueobject"
	"github.com/finvera/receivables/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ============================================================================
// Test doubles
// ============================================================================

// fakeRepository is an in-memory receivable.Repository for handler tests.
type fakeRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*receivable.Receivable
	sums  map[receivable.TotalsQuery]decimal.Decimal
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		items: make(map[uuid.UUID]*receivable.Receivable),
		sums:  make(map[receivable.TotalsQuery]decimal.Decimal),
	}
}

func (f *fakeRepository) clone(r *receivable.Receivable) *receivable.Receivable {
	cp := *r
	cp.Settlements = append([]receivable.Settlement(nil), r.Settlements...)
	return &cp
}

func (f *fakeRepository) FindByID(_ context.Context, id uuid.UUID) (*receivable.Receivable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	return f.clone(r), nil
}

func (f *fakeRepository) FindAndCount(_ context.Context, filter receivable.Filter) ([]receivable.Receivable, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]receivable.Receivable, 0, len(f.items))
	for _, r := range f.items {
		if filter.DebtorID != nil && *filter.DebtorID != r.DebtorID {
			continue
		}
		if filter.Paid != nil && *filter.Paid != r.Paid {
			continue
		}
		out = append(out, *f.clone(r))
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepository) Save(_ context.Context, r *receivable.Receivable) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[r.ID] = f.clone(r)
	return nil
}

func (f *fakeRepository) SettleWithLock(_ context.Context, r *receivable.Receivable, _ *receivable.Settlement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[r.ID]
	if !ok || stored.Version != r.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	f.items[r.ID] = f.clone(r)
	return nil
}

func (f *fakeRepository) ReplaceSettlementsWithLock(_ context.Context, r *receivable.Receivable) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[r.ID]
	if !ok || stored.Version != r.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	f.items[r.ID] = f.clone(r)
	return nil
}

func (f *fakeRepository) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRepository) SumTotals(_ context.Context, q receivable.TotalsQuery) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sum, ok := f.sums[q]; ok {
		return sum, nil
	}
	return decimal.NewFromInt(-1), nil
}

// fakeDirectory resolves every user to a fixed profile.
type fakeDirectory struct {
	err error
}

func (f *fakeDirectory) Lookup(_ context.Context, userID uuid.UUID) (*appreceivable.UserProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &appreceivable.UserProfile{ID: userID, Name: "Test User", Email: "user@example.com"}, nil
}

// fakeNotifier records paid notifications.
type fakeNotifier struct {
	mu            sync.Mutex
	notifications []appreceivable.SettlementNotification
}

func (f *fakeNotifier) NotifyPaid(_ context.Context, n appreceivable.SettlementNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, n)
	return nil
}

// fakeCache is a plain map-backed aggregate cache.
type fakeCache struct {
	mu     sync.Mutex
	values map[string]decimal.Decimal
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]decimal.Decimal)}
}

func (f *fakeCache) Get(_ context.Context, key string) (decimal.Decimal, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return decimal.Zero, false, nil
	}
	return v, true, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

// fakeRefresher counts manual refresh triggers.
type fakeRefresher struct {
	runs int
}

func (f *fakeRefresher) TriggerManualRun(_ context.Context) {
	f.runs++
}

// ============================================================================
// Fixture
// ============================================================================

type handlerFixture struct {
	engine    *gin.Engine
	repo      *fakeRepository
	notifier  *fakeNotifier
	directory *fakeDirectory
	refresher *fakeRefresher
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	logger := zap.NewNop()
	repo := newFakeRepository()
	directory := &fakeDirectory{}
	notifier := &fakeNotifier{}
	refresher := &fakeRefresher{}

	h := NewReceivableHandler(
		appreceivable.NewReceivableService(repo, logger),
		appreceivable.NewSettlementService(repo, directory, notifier, logger),
		appreceivable.NewTotalsService(repo, newFakeCache(), logger),
		refresher,
	)

	engine := gin.New()
	api := engine.Group("/api/v1")
	h.RegisterRoutes(api)

	return &handlerFixture{
		engine:    engine,
		repo:      repo,
		notifier:  notifier,
		directory: directory,
		refresher: refresher,
	}
}

func (f *handlerFixture) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *handlerFixture) seedReceivable(t *testing.T, total string) *receivable.Receivable {
	t.Helper()

	amount, err := decimal.NewFromString(total)
	require.NoError(t, err)

	r, err := receivable.NewReceivable(uuid.New(), "Acme Ltda", uuid.New(), valueobject.NewMoneyBRL(amount))
	require.NoError(t, err)
	require.NoError(t, f.repo.Save(context.Background(), r))
	return r
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

// ============================================================================
// Create / Get / List
// ============================================================================

func TestReceivableHandlerCreate(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/receivables", gin.H{
		"debtor_id":    uuid.New(),
		"debtor_name":  "Acme Ltda",
		"issued_by":    uuid.New(),
		"total_amount": "1500.00",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestReceivableHandlerCreateInvalidBody(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/receivables", gin.H{
		"debtor_name": "Acme Ltda",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReceivableHandlerCreateNonPositiveTotal(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/receivables", gin.H{
		"debtor_id":    uuid.New(),
		"debtor_name":  "Acme Ltda",
		"issued_by":    uuid.New(),
		"total_amount": "-10.00",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReceivableHandlerGet(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.seedReceivable(t, "1000.00")

	w := f.request(t, http.MethodGet, "/api/v1/receivables/"+r.ID.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestReceivableHandlerGetNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/receivables/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestReceivableHandlerGetInvalidID(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/receivables/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReceivableHandlerList(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedReceivable(t, "100.00")
	f.seedReceivable(t, "200.00")

	w := f.request(t, http.MethodGet, "/api/v1/receivables?page=1&page_size=10", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(2), resp.Meta.Total)
}

// ============================================================================
// Settle
// ============================================================================

func TestReceivableHandlerSettlePartial(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.seedReceivable(t, "1000.00")

	w := f.request(t, http.MethodPost, "/api/v1/receivables/settle", gin.H{
		"receivable_id":  r.ID,
		"acting_user_id": uuid.New(),
		"amount":         "400.00",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data dto.SettleResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Data.Paid)
	assert.True(t, resp.Data.Remaining.Equal(decimal.RequireFromString("600.00")))
	assert.Empty(t, f.notifier.notifications)
}

func TestReceivableHandlerSettleExactRemainingNotifies(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.seedReceivable(t, "1000.00")

	first := f.request(t, http.MethodPost, "/api/v1/receivables/settle", gin.H{
		"receivable_id":  r.ID,
		"acting_user_id": uuid.New(),
		"amount":         "400.00",
	})
	require.Equal(t, http.StatusOK, first.Code)

	second := f.request(t, http.MethodPost, "/api/v1/receivables/settle", gin.H{
		"receivable_id":  r.ID,
		"acting_user_id": uuid.New(),
		"amount":         "600.00",
	})
	require.Equal(t, http.StatusOK, second.Code)

	var resp struct {
		Data dto.SettleResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Paid)
	assert.True(t, resp.Data.Remaining.IsZero())

	require.Len(t, f.notifier.notifications, 1)
	assert.Equal(t, r.ID, f.notifier.notifications[0].ReceivableID)
	assert.Equal(t, "Test User", f.notifier.notifications[0].SettledByName)
}

func TestReceivableHandlerSettleNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/receivables/settle", gin.H{
		"receivable_id":  uuid.New(),
		"acting_user_id": uuid.New(),
		"amount":         "100.00",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestReceivableHandlerSettleAlreadySettled(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.seedReceivable(t, "500.00")

	paid := f.request(t, http.MethodPost, "/api/v1/receivables/settle", gin.H{
		"receivable_id":  r.ID,
		"acting_user_id": uuid.New(),
		"amount":         "500.00",
	})
	require.Equal(t, http.StatusOK, paid.Code)

	w := f.request(t, http.MethodPost, "/api/v1/receivables/settle", gin.H{
		"receivable_id":  r.ID,
		"acting_user_id": uuid.New(),
		"amount":         "1.00",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ALREADY_SETTLED", errorCode(t, w))
}

func TestReceivableHandlerSettleExceedsRemaining(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.seedReceivable(t, "500.00")

	w := f.request(t, http.MethodPost, "/api/v1/receivables/settle", gin.H{
		"receivable_id":  r.ID,
		"acting_user_id": uuid.New(),
		"amount":         "500.01",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, w))
}

func TestReceivableHandlerSettleDirectoryDown(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.seedReceivable(t, "500.00")
	f.directory.err = shared.ErrCommunicationFailure

	w := f.request(t, http.MethodPost, "/api/v1/receivables/settle", gin.H{
		"receivable_id":  r.ID,
		"acting_user_id": uuid.New(),
		"amount":         "100.00",
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "COMMUNICATION_FAILURE", errorCode(t, w))

	// Nothing was written.
	stored, err := f.repo.FindByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Settlements)
}

// ============================================================================
// Edit / Delete
// ============================================================================

func TestReceivableHandlerEditMismatchedIdentifiers(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.seedReceivable(t, "500.00")

	w := f.request(t, http.MethodPut, "/api/v1/receivables/"+r.ID.String(), gin.H{
		"id":          uuid.New(),
		"settlements": []gin.H{},
	})

	assert.Equal(t, http.StatusNotAcceptable, w.Code)
	assert.Equal(t, "MISMATCHED_IDENTIFIERS", errorCode(t, w))
}

func TestReceivableHandlerEditMissingTarget(t *testing.T) {
	f := newHandlerFixture(t)
	id := uuid.New()

	w := f.request(t, http.MethodPut, "/api/v1/receivables/"+id.String(), gin.H{
		"id":          id,
		"settlements": []gin.H{},
	})

	assert.Equal(t, http.StatusNotAcceptable, w.Code)
	assert.Equal(t, "UNMODIFIABLE", errorCode(t, w))
}

func TestReceivableHandlerEditReplacesSettlements(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.seedReceivable(t, "1000.00")

	w := f.request(t, http.MethodPut, "/api/v1/receivables/"+r.ID.String(), gin.H{
		"id":          r.ID,
		"debtor_name": "Acme Holdings",
		"settlements": []gin.H{
			{"settled_by": uuid.New(), "amount": "1000.00"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data dto.ReceivableResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Paid)
	assert.Equal(t, "Acme Holdings", resp.Data.DebtorName)
	assert.Len(t, resp.Data.Settlements, 1)
}

func TestReceivableHandlerEditHistoryExceedsTotal(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.seedReceivable(t, "1000.00")

	w := f.request(t, http.MethodPut, "/api/v1/receivables/"+r.ID.String(), gin.H{
		"id": r.ID,
		"settlements": []gin.H{
			{"settled_by": uuid.New(), "amount": "800.00"},
			{"settled_by": uuid.New(), "amount": "300.00"},
		},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, w))
}

func TestReceivableHandlerDelete(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.seedReceivable(t, "500.00")

	w := f.request(t, http.MethodDelete, "/api/v1/receivables/"+r.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	get := f.request(t, http.MethodGet, "/api/v1/receivables/"+r.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, get.Code)
}

func TestReceivableHandlerDeleteNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodDelete, "/api/v1/receivables/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ============================================================================
// Totals
// ============================================================================

func TestReceivableHandlerTotals(t *testing.T) {
	f := newHandlerFixture(t)
	f.repo.sums[receivable.TotalsQuery{Paid: true}] = decimal.RequireFromString("2500.00")
	f.repo.sums[receivable.TotalsQuery{Paid: false, MonthToDate: true}] = decimal.RequireFromString("300.00")

	paid := f.request(t, http.MethodGet, "/api/v1/receivables/totals/paid", nil)
	require.Equal(t, http.StatusOK, paid.Code)

	var paidResp struct {
		Data dto.TotalsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(paid.Body.Bytes(), &paidResp))
	assert.True(t, paidResp.Data.Total.Equal(decimal.RequireFromString("2500.00")))
	assert.False(t, paidResp.Data.MonthToDate)

	open := f.request(t, http.MethodGet, "/api/v1/receivables/totals/open?month_to_date=true", nil)
	require.Equal(t, http.StatusOK, open.Code)

	var openResp struct {
		Data dto.TotalsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(open.Body.Bytes(), &openResp))
	assert.True(t, openResp.Data.Total.Equal(decimal.RequireFromString("300.00")))
	assert.True(t, openResp.Data.MonthToDate)
}

func TestReceivableHandlerTotalsEmptySlice(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/receivables/totals/open", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data dto.TotalsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Total.Equal(decimal.NewFromInt(-1)))
}

func TestReceivableHandlerRefreshTotals(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/receivables/totals/refresh", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, f.refresher.runs)
}

func TestReceivableHandlerFullLifecycle(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.seedReceivable(t, "300.00")

	for i := 0; i < 3; i++ {
		w := f.request(t, http.MethodPost, "/api/v1/receivables/settle", gin.H{
			"receivable_id":  r.ID,
			"acting_user_id": uuid.New(),
			"amount":         "100.00",
		})
		require.Equal(t, http.StatusOK, w.Code, fmt.Sprintf("settlement %d", i+1))
	}

	get := f.request(t, http.MethodGet, "/api/v1/receivables/"+r.ID.String(), nil)
	require.Equal(t, http.StatusOK, get.Code)

	var resp struct {
		Data dto.ReceivableResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Paid)
	assert.Len(t, resp.Data.Settlements, 3)
	require.Len(t, f.notifier.notifications, 1)
}
