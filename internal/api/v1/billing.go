package v1

import (
	"net/http"
	"time"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/service"
	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	service service.BillingService
	log     *logger.Logger
}

func NewBillingHandler(service service.BillingService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{service: service, log: log}
}

// @Summary Renew a customer's subscription
// @Description Reactivate the plan of the customer's latest invoice and bill a new period at the current plan price
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /customers/{id}/renew [post]
func (h *BillingHandler) RenewSubscription(c *gin.Context) {
	customerID, ok := requiredParam(c, "id", "Customer ID is required")
	if !ok {
		return
	}

	resp, err := h.service.RenewSubscription(c.Request.Context(), customerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get billing cycle info
// @Description Calendar month cycle of an active customer. date defaults to today.
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Param date query string false "Reference date (YYYY-MM-DD)"
// @Success 200 {object} dto.BillingCycleResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /customers/{id}/billing-cycle [get]
func (h *BillingHandler) GetBillingCycle(c *gin.Context) {
	customerID, ok := requiredParam(c, "id", "Customer ID is required")
	if !ok {
		return
	}

	now := time.Now().UTC()
	if date := c.Query("date"); date != "" {
		parsed, err := time.Parse(time.DateOnly, date)
		if err != nil {
			c.Error(ierr.WithError(err).
				WithHint("date must be formatted as YYYY-MM-DD").
				Mark(ierr.ErrValidation))
			return
		}
		now = parsed
	}

	resp, err := h.service.GetBillingCycleInfo(c.Request.Context(), customerID, now)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Repair a customer's active plan
// @Description Re-derive the active plan from the customer's subscriptions and invoices
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Success 200 {object} dto.CustomerResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /customers/{id}/fix-active-plan [post]
func (h *BillingHandler) FixActivePlan(c *gin.Context) {
	customerID, ok := requiredParam(c, "id", "Customer ID is required")
	if !ok {
		return
	}

	resp, err := h.service.FixCustomerActivePlan(c.Request.Context(), customerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
