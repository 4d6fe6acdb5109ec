package handler

import (
	"context"

	appreceivable "github.com/finvera/receivables/internal/application/receivable"
	"github.com/finvera/receivables/internal/domain/receivable"
	"github.com/finvera/receivables/internal/domain/shared"
	"github.com/finvera/receivables/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RefreshTrigger runs an out-of-band totals refresh cycle
type RefreshTrigger interface {
	TriggerManualRun(ctx context.Context)
}

// ReceivableHandler serves the receivable HTTP API
type ReceivableHandler struct {
	BaseHandler
	receivables *appreceivable.ReceivableService
	settlements *appreceivable.SettlementService
	totals      *appreceivable.TotalsService
	refresher   RefreshTrigger
}

// NewReceivableHandler creates a new ReceivableHandler
func NewReceivableHandler(
	receivables *appreceivable.ReceivableService,
	settlements *appreceivable.SettlementService,
	totals *appreceivable.TotalsService,
	refresher RefreshTrigger,
) *ReceivableHandler {
	return &ReceivableHandler{
		receivables: receivables,
		settlements: settlements,
		totals:      totals,
		refresher:   refresher,
	}
}

// RegisterRoutes registers receivable endpoints on the router group.
// The settle and totals routes are declared before the :id routes so gin
// does not shadow them with the wildcard segment.
func (h *ReceivableHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/receivables")
	{
		group.POST("", h.Create)
		group.GET("", h.List)
		group.POST("/settle", h.Settle)
		group.GET("/totals/paid", h.PaidTotals)
		group.GET("/totals/open", h.OpenTotals)
		group.POST("/totals/refresh", h.RefreshTotals)
		group.GET("/:id", h.Get)
		group.PUT("/:id", h.Edit)
		group.DELETE("/:id", h.Delete)
	}
}

// Create handles POST /receivables
func (h *ReceivableHandler) Create(c *gin.Context) {
	var req dto.CreateReceivableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	r, err := h.receivables.Create(c.Request.Context(), appreceivable.CreateReceivableRequest{
		DebtorID:    req.DebtorID,
		DebtorName:  req.DebtorName,
		IssuedBy:    req.IssuedBy,
		TotalAmount: req.TotalAmount,
		Settlements: toSettlementInputs(req.Settlements),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ToReceivableResponse(r))
}

// List handles GET /receivables
func (h *ReceivableHandler) List(c *gin.Context) {
	req := dto.ListReceivablesRequest{}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := receivable.Filter{
		Filter:   shared.DefaultFilter(),
		DebtorID: req.DebtorID,
		Paid:     req.Paid,
	}
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	filter.Search = req.Search

	page, err := h.receivables.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]dto.ReceivableResponse, len(page.Items))
	for i := range page.Items {
		items[i] = dto.ToReceivableResponse(&page.Items[i])
	}
	h.SuccessWithMeta(c, items, page.Total, filter.Page, filter.PageSize)
}

// Get handles GET /receivables/:id
func (h *ReceivableHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receivable ID")
		return
	}

	r, err := h.receivables.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToReceivableResponse(r))
}

// Edit handles PUT /receivables/:id
func (h *ReceivableHandler) Edit(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receivable ID")
		return
	}

	var req dto.EditReceivableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	r, err := h.receivables.Edit(c.Request.Context(), appreceivable.EditReceivableRequest{
		TargetID:    targetID,
		BodyID:      req.ID,
		DebtorName:  req.DebtorName,
		Settlements: toSettlementInputs(req.Settlements),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToReceivableResponse(r))
}

// Delete handles DELETE /receivables/:id
func (h *ReceivableHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receivable ID")
		return
	}

	if err := h.receivables.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Settle handles POST /receivables/settle
func (h *ReceivableHandler) Settle(c *gin.Context) {
	var req dto.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.settlements.Settle(c.Request.Context(), appreceivable.SettleRequest{
		ReceivableID: req.ReceivableID,
		ActingUserID: req.ActingUserID,
		Amount:       req.Amount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.SettleResponse{
		SettlementID: result.SettlementID,
		ReceivableID: result.ReceivableID,
		Amount:       result.Amount,
		Remaining:    result.Remaining,
		Paid:         result.Paid,
	})
}

// PaidTotals handles GET /receivables/totals/paid
func (h *ReceivableHandler) PaidTotals(c *gin.Context) {
	monthToDate := c.Query("month_to_date") == "true"

	total, err := h.totals.GetPaidTotal(c.Request.Context(), monthToDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.TotalsResponse{Total: total, MonthToDate: monthToDate})
}

// OpenTotals handles GET /receivables/totals/open
func (h *ReceivableHandler) OpenTotals(c *gin.Context) {
	monthToDate := c.Query("month_to_date") == "true"

	total, err := h.totals.GetOpenTotal(c.Request.Context(), monthToDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.TotalsResponse{Total: total, MonthToDate: monthToDate})
}

// RefreshTotals handles POST /receivables/totals/refresh
func (h *ReceivableHandler) RefreshTotals(c *gin.Context) {
	h.refresher.TriggerManualRun(c.Request.Context())
	h.NoContent(c)
}

func toSettlementInputs(reqs []dto.SettlementRequest) []appreceivable.SettlementInput {
	inputs := make([]appreceivable.SettlementInput, len(reqs))
	for i, s := range reqs {
		inputs[i] = appreceivable.SettlementInput{
			SettledBy: s.SettledBy,
			Amount:    s.Amount,
			SettledAt: s.SettledAt,
		}
	}
	return inputs
}
