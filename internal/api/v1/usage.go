package v1

import (
	"net/http"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/service"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
)

type UsageHandler struct {
	service service.UsageService
	log     *logger.Logger
}

func NewUsageHandler(service service.UsageService, log *logger.Logger) *UsageHandler {
	return &UsageHandler{service: service, log: log}
}

// @Summary Record usage
// @Tags Usage
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param usage body dto.CreateUsageRequest true "Usage record"
// @Success 201 {object} dto.UsageResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /usage [post]
func (h *UsageHandler) CreateUsage(c *gin.Context) {
	var req dto.CreateUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	resp, err := h.service.CreateUsage(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary List a customer's usage
// @Tags Usage
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Param filter query types.UsageFilter false "Filter"
// @Success 200 {object} dto.ListUsageResponse
// @Router /customers/{id}/usage [get]
func (h *UsageHandler) ListUsage(c *gin.Context) {
	customerID, ok := requiredParam(c, "id", "Customer ID is required")
	if !ok {
		return
	}

	var filter types.UsageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		invalidFilter(c, err)
		return
	}
	filter.QueryFilter = withDefaultPagination(filter.QueryFilter)

	resp, err := h.service.ListUsage(c.Request.Context(), customerID, &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
