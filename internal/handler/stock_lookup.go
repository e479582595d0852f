package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/apierror"
	"github.com/janesh-web3/RMS-demo-sub001/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Short TTL — stock levels move with every order, the cache only absorbs
// bursts from kitchen displays polling the same items.
const lookupCacheTTL = 30 * time.Second

type stockLookupResponse struct {
	Name     string          `json:"name"`
	Unit     string          `json:"unit"`
	Quantity decimal.Decimal `json:"quantity"`
	LowStock bool            `json:"low_stock"`
	Category string          `json:"category"`
}

// StockLookupHandler serves the kitchen-display quick lookup by item name.
// Read-only, no side effects.
type StockLookupHandler struct {
	repo repository.StockItemRepository
	rdb  *redis.Client
}

func NewStockLookupHandler(repo repository.StockItemRepository, rdb *redis.Client) *StockLookupHandler {
	return &StockLookupHandler{repo: repo, rdb: rdb}
}

// GetByName godoc
// @Summary Quick stock level lookup by item name
// @Tags stock
// @Produce json
// @Param name path string true "Stock item name"
// @Success 200 {object} stockLookupResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/stock/lookup/{name} [get]
func (h *StockLookupHandler) GetByName(c *gin.Context) {
	name := c.Param("name")
	ctx := c.Request.Context()
	cacheKey := "stocklookup:" + name

	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp stockLookupResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	item, err := h.repo.FindByName(ctx, name)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("stock item not found"))
		return
	}

	resp := stockLookupResponse{
		Name:     item.Name,
		Unit:     item.Unit,
		Quantity: item.Quantity,
		LowStock: item.IsLow(),
		Category: item.Category,
	}

	// Populate cache — best effort, ignore errors
	if h.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = h.rdb.Set(context.Background(), cacheKey, b, lookupCacheTTL).Err()
		}
	}

	c.JSON(http.StatusOK, resp)
}
