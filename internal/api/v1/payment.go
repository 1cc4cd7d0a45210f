package v1

import (
	"net/http"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/service"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service service.PaymentProcessorService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentProcessorService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log}
}

// @Summary Pay an invoice
// @Description Charge an invoice. Retrying with the same transaction_id returns the existing receipt.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payment body dto.InitiatePaymentRequest true "Payment"
// @Success 200 {object} dto.PaymentReceipt
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 502 {object} ierr.ErrorResponse
// @Router /payments/initiate [post]
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req dto.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	resp, err := h.service.InitiatePayment(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Refund a payment
// @Description Refund what is left of a paid charge after chargebacks
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refund body dto.RefundPaymentRequest true "Refund"
// @Success 200 {object} dto.PaymentReceipt
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /payments/refund [post]
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	var req dto.RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	resp, err := h.service.RefundPayment(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Record a chargeback
// @Description Record a full or partial chargeback against a paid charge
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param chargeback body dto.ChargebackRequest true "Chargeback"
// @Success 200 {object} dto.PaymentReceipt
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /payments/chargeback [post]
func (h *PaymentHandler) ProcessChargeback(c *gin.Context) {
	var req dto.ChargebackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	resp, err := h.service.ProcessChargeback(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get a payment by transaction ID
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param transaction_id path string true "Transaction ID"
// @Success 200 {object} dto.PaymentReceipt
// @Failure 404 {object} ierr.ErrorResponse
// @Router /payments/transactions/{transaction_id} [get]
func (h *PaymentHandler) GetPaymentByTransactionID(c *gin.Context) {
	transactionID, ok := requiredParam(c, "transaction_id", "Transaction ID is required")
	if !ok {
		return
	}

	resp, err := h.service.GetPaymentByTransactionID(c.Request.Context(), transactionID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List payments
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param filter query types.PaymentFilter false "Filter"
// @Success 200 {object} dto.ListPaymentsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	var filter types.PaymentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		invalidFilter(c, err)
		return
	}
	filter.QueryFilter = withDefaultPagination(filter.QueryFilter)

	resp, err := h.service.ListPayments(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List supported payment methods
// @Tags Payments
// @Produce json
// @Success 200 {object} dto.ListPaymentMethodsResponse
// @Router /payments/methods [get]
func (h *PaymentHandler) ListPaymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListPaymentMethods(c.Request.Context()))
}
