package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/apierror"
	"github.com/janesh-web3/RMS-demo-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct{ svc service.AnalyticsService }

func NewAnalyticsHandler(svc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// Valuation godoc
// @Summary Total inventory value by category
// @Tags analytics
// @Produce json
// @Success 200 {object} dto.ValuationResponse
// @Router /v1/analytics/valuation [get]
func (h *AnalyticsHandler) Valuation(c *gin.Context) {
	resp, err := h.svc.Valuation(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("could not compute valuation"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalyticsHandler) LowStock(c *gin.Context) {
	resp, err := h.svc.LowStock(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("could not list low stock items"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "count": len(resp)})
}

func (h *AnalyticsHandler) ExpiringSoon(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "0"))
	resp, err := h.svc.ExpiringSoon(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("could not list expiring items"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "count": len(resp)})
}

// UsageStats godoc
// @Summary Consumption per item over a date range, from ledger replay
// @Tags analytics
// @Produce json
// @Param from query string false "RFC3339 start"
// @Param to query string false "RFC3339 end"
// @Success 200 {object} dto.UsageStatsResponse
// @Router /v1/analytics/usage [get]
func (h *AnalyticsHandler) UsageStats(c *gin.Context) {
	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid from date, want RFC3339"))
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid to date, want RFC3339"))
			return
		}
		to = t
	}

	resp, err := h.svc.UsageStats(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("could not compute usage stats"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReorderSuggestions godoc
// @Summary Reorder suggestions projected from trailing usage
// @Tags analytics
// @Produce json
// @Param window query int false "Trailing window in days"
// @Success 200 {object} dto.ReorderResponse
// @Router /v1/analytics/reorder [get]
func (h *AnalyticsHandler) ReorderSuggestions(c *gin.Context) {
	window, _ := strconv.Atoi(c.DefaultQuery("window", "0"))
	resp, err := h.svc.ReorderSuggestions(c.Request.Context(), window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("could not compute reorder suggestions"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
