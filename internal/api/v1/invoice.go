package v1

import (
	"net/http"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/service"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	service service.InvoiceService
	log     *logger.Logger
}

func NewInvoiceHandler(service service.InvoiceService, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{service: service, log: log}
}

// @Summary Generate an invoice
// @Description Bill a customer for one period of a plan, applying an optional discount code
// @Tags Invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoice body dto.GenerateInvoiceRequest true "Invoice request"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices/generate [post]
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	var req dto.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	resp, err := h.service.GenerateInvoice(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get an invoice
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := requiredParam(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	resp, err := h.service.GetInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param filter query types.InvoiceFilter false "Filter"
// @Success 200 {object} dto.ListInvoicesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var filter types.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		invalidFilter(c, err)
		return
	}
	filter.QueryFilter = withDefaultPagination(filter.QueryFilter)

	resp, err := h.service.ListInvoices(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List unpaid invoices
// @Description List PENDING and OVERDUE invoices
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ListInvoicesResponse
// @Router /invoices/unpaid [get]
func (h *InvoiceHandler) ListUnpaidInvoices(c *gin.Context) {
	resp, err := h.service.ListUnpaidInvoices(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Mark an invoice paid
// @Description Settlement callback. Marking a paid invoice again is rejected.
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id}/mark-paid [put]
func (h *InvoiceHandler) MarkInvoicePaid(c *gin.Context) {
	id, ok := requiredParam(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	resp, err := h.service.MarkInvoicePaid(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel an invoice
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id}/cancel [post]
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	id, ok := requiredParam(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	resp, err := h.service.CancelInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Delete an invoice
// @Description Delete an invoice together with its payments
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	id, ok := requiredParam(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	if err := h.service.DeleteInvoice(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "invoice deleted successfully"})
}
