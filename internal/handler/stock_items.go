package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/apierror"
	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"
	"github.com/janesh-web3/RMS-demo-sub001/internal/middleware"
	"github.com/janesh-web3/RMS-demo-sub001/internal/repository"
	"github.com/janesh-web3/RMS-demo-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockItemsHandler struct{ svc service.InventoryService }

func NewStockItemsHandler(svc service.InventoryService) *StockItemsHandler {
	return &StockItemsHandler{svc: svc}
}

// Create godoc
// @Summary Register a stock item
// @Tags stock
// @Accept json
// @Produce json
// @Param body body dto.CreateStockItemRequest true "Stock item"
// @Success 201 {object} dto.StockItemResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/stock [post]
func (h *StockItemsHandler) Create(c *gin.Context) {
	var req dto.CreateStockItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateItem(c.Request.Context(), req, middleware.UserIDFromContext(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *StockItemsHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetItem(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockItemsHandler) List(c *gin.Context) {
	filter := dto.StockItemFilter{
		Name:       c.Query("name"),
		Category:   c.Query("category"),
		Status:     c.Query("status"),
		SupplierID: c.Query("supplier_id"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.svc.ListItems(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("could not list stock items"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockItemsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.UpdateStockItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateItem(c.Request.Context(), id, req, middleware.UserIDFromContext(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockItemsHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.DeactivateItem(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *StockItemsHandler) Reactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.ReactivateItem(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// AddStock godoc
// @Summary Post an inflow (purchase, opening stock, supplier return)
// @Tags stock
// @Accept json
// @Produce json
// @Param id path string true "Stock item ID"
// @Param body body dto.AddStockRequest true "Inflow"
// @Success 200 {object} dto.MutationResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/stock/{id}/add [post]
func (h *StockItemsHandler) AddStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.AddStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddStock(c.Request.Context(), id, req, middleware.UserIDFromContext(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdjustStock godoc
// @Summary Post a signed correction (waste, spoilage, recount)
// @Tags stock
// @Accept json
// @Produce json
// @Param id path string true "Stock item ID"
// @Param body body dto.AdjustStockRequest true "Adjustment"
// @Success 200 {object} dto.MutationResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/stock/{id}/adjust [post]
func (h *StockItemsHandler) AdjustStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustStock(c.Request.Context(), id, req, middleware.UserIDFromContext(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Transactions lists ledger rows, optionally filtered by item, type, reason
// and date range.
func (h *StockItemsHandler) Transactions(c *gin.Context) {
	var filter repository.StockTransactionFilter

	if raw := c.Query("stock_item_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid stock_item_id"))
			return
		}
		filter.StockItemID = &id
	}
	filter.Type = c.Query("type")
	filter.Reason = c.Query("reason")
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid from date, want RFC3339"))
			return
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid to date, want RFC3339"))
			return
		}
		filter.To = &t
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))

	resp, err := h.svc.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("could not list transactions"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reconcile replays the ledger for one item and reports any drift against the
// live quantity.
func (h *StockItemsHandler) Reconcile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	ok, live, replayed, err := h.svc.Reconcile(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"consistent":     ok,
		"live_quantity":  live,
		"ledger_balance": replayed,
		"drift":          live.Sub(replayed),
	})
}
