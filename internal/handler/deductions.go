package handler

import (
	"net/http"

	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"
	"github.com/janesh-web3/RMS-demo-sub001/internal/middleware"
	"github.com/janesh-web3/RMS-demo-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type DeductionsHandler struct {
	svc      service.DeductionService
	reversal service.ReversalService
}

func NewDeductionsHandler(svc service.DeductionService, reversal service.ReversalService) *DeductionsHandler {
	return &DeductionsHandler{svc: svc, reversal: reversal}
}

// CheckAvailability godoc
// @Summary Advisory availability check for a set of ingredient requirements
// @Tags deductions
// @Accept json
// @Produce json
// @Param body body dto.AvailabilityRequest true "Requirements"
// @Success 200 {object} dto.AvailabilityResponse
// @Router /v1/deductions/check [post]
func (h *DeductionsHandler) CheckAvailability(c *gin.Context) {
	var req dto.AvailabilityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeductForOrder godoc
// @Summary Automatic recipe deduction at order creation
// @Tags deductions
// @Accept json
// @Produce json
// @Param body body dto.OrderDeductionRequest true "Order lines"
// @Success 200 {object} dto.DeductionResponse
// @Failure 409 {object} apierror.BatchError
// @Router /v1/deductions/order [post]
func (h *DeductionsHandler) DeductForOrder(c *gin.Context) {
	var req dto.OrderDeductionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.DeductForOrder(c.Request.Context(), req, middleware.UserIDFromContext(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeductManual godoc
// @Summary Manual usage settlement at billing
// @Tags deductions
// @Accept json
// @Produce json
// @Param body body dto.ManualDeductionRequest true "Usage lines"
// @Success 200 {object} dto.DeductionResponse
// @Failure 409 {object} apierror.BatchError
// @Router /v1/deductions/manual [post]
func (h *DeductionsHandler) DeductManual(c *gin.Context) {
	var req dto.ManualDeductionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.DeductManualForBilling(c.Request.Context(), req, middleware.UserIDFromContext(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeductDirect godoc
// @Summary Direct consumption entries on a bill, with unit conversion
// @Tags deductions
// @Accept json
// @Produce json
// @Param body body dto.DirectDeductionRequest true "Direct entries"
// @Success 200 {object} dto.DeductionResponse
// @Failure 409 {object} apierror.BatchError
// @Router /v1/deductions/direct [post]
func (h *DeductionsHandler) DeductDirect(c *gin.Context) {
	var req dto.DirectDeductionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.DeductDirectEntries(c.Request.Context(), req, middleware.UserIDFromContext(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reverse godoc
// @Summary Reverse a prior deduction batch by origin
// @Tags deductions
// @Accept json
// @Produce json
// @Param body body dto.ReversalRequest true "Origin key"
// @Success 200 {object} dto.ReversalResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/deductions/reverse [post]
func (h *DeductionsHandler) Reverse(c *gin.Context) {
	var req dto.ReversalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.reversal.Reverse(c.Request.Context(), req, middleware.UserIDFromContext(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
