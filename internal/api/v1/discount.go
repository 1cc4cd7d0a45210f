package v1

import (
	"net/http"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/service"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
)

type DiscountHandler struct {
	service service.DiscountService
	log     *logger.Logger
}

func NewDiscountHandler(service service.DiscountService, log *logger.Logger) *DiscountHandler {
	return &DiscountHandler{service: service, log: log}
}

// @Summary Create a discount
// @Description Create a percentage or fixed discount. Leave customer_id empty for a catalog discount.
// @Tags Discounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param discount body dto.CreateDiscountRequest true "Discount"
// @Success 201 {object} dto.DiscountResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /discounts [post]
func (h *DiscountHandler) CreateDiscount(c *gin.Context) {
	var req dto.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	resp, err := h.service.CreateDiscount(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a discount
// @Tags Discounts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discount ID"
// @Success 200 {object} dto.DiscountResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /discounts/{id} [get]
func (h *DiscountHandler) GetDiscount(c *gin.Context) {
	id, ok := requiredParam(c, "id", "Discount ID is required")
	if !ok {
		return
	}

	resp, err := h.service.GetDiscount(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List discounts
// @Tags Discounts
// @Produce json
// @Security BearerAuth
// @Param filter query types.DiscountFilter false "Filter"
// @Success 200 {object} dto.ListDiscountsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /discounts [get]
func (h *DiscountHandler) ListDiscounts(c *gin.Context) {
	var filter types.DiscountFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		invalidFilter(c, err)
		return
	}
	filter.QueryFilter = withDefaultPagination(filter.QueryFilter)

	resp, err := h.service.ListDiscounts(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List a customer's discounts
// @Tags Discounts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Success 200 {object} dto.ListDiscountsResponse
// @Router /customers/{id}/discounts [get]
func (h *DiscountHandler) ListCustomerDiscounts(c *gin.Context) {
	customerID, ok := requiredParam(c, "id", "Customer ID is required")
	if !ok {
		return
	}

	resp, err := h.service.ListDiscountsByCustomer(c.Request.Context(), customerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Update a discount
// @Tags Discounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discount ID"
// @Param discount body dto.UpdateDiscountRequest true "Discount update"
// @Success 200 {object} dto.DiscountResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /discounts/{id} [put]
func (h *DiscountHandler) UpdateDiscount(c *gin.Context) {
	id, ok := requiredParam(c, "id", "Discount ID is required")
	if !ok {
		return
	}

	var req dto.UpdateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	resp, err := h.service.UpdateDiscount(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Delete a discount
// @Tags Discounts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discount ID"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /discounts/{id} [delete]
func (h *DiscountHandler) DeleteDiscount(c *gin.Context) {
	id, ok := requiredParam(c, "id", "Discount ID is required")
	if !ok {
		return
	}

	if err := h.service.DeleteDiscount(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "discount deleted successfully"})
}

// @Summary Apply a discount to all customers
// @Description Copy a catalog discount to every customer, with a per customer code
// @Tags Discounts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discount ID"
// @Success 200 {object} dto.ApplyDiscountResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /discounts/{id}/apply-all [post]
func (h *DiscountHandler) ApplyToAllCustomers(c *gin.Context) {
	id, ok := requiredParam(c, "id", "Discount ID is required")
	if !ok {
		return
	}

	resp, err := h.service.ApplyDiscountToAllCustomers(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
