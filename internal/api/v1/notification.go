package v1

import (
	"net/http"

	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/service"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service service.NotificationService
	log     *logger.Logger
}

func NewNotificationHandler(service service.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, log: log}
}

// @Summary List a customer's notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Param filter query types.NotificationFilter false "Filter"
// @Success 200 {object} dto.ListNotificationsResponse
// @Router /customers/{id}/notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	customerID, ok := requiredParam(c, "id", "Customer ID is required")
	if !ok {
		return
	}

	var filter types.NotificationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		invalidFilter(c, err)
		return
	}
	filter.QueryFilter = withDefaultPagination(filter.QueryFilter)

	resp, err := h.service.ListNotifications(c.Request.Context(), customerID, &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List a customer's unread notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Success 200 {object} dto.ListNotificationsResponse
// @Router /customers/{id}/notifications/unread [get]
func (h *NotificationHandler) ListUnreadNotifications(c *gin.Context) {
	customerID, ok := requiredParam(c, "id", "Customer ID is required")
	if !ok {
		return
	}

	resp, err := h.service.ListUnreadNotifications(c.Request.Context(), customerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Mark a notification read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} dto.NotificationResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, ok := requiredParam(c, "id", "Notification ID is required")
	if !ok {
		return
	}

	resp, err := h.service.MarkAsRead(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
