package dto

import (
	"github.com/flexprice/subscription-billing/internal/domain/notification"
	"github.com/flexprice/subscription-billing/internal/types"
)

type NotificationResponse struct {
	*notification.Notification
}

// ListNotificationsResponse represents the response for listing notifications
type ListNotificationsResponse = types.ListResponse[*NotificationResponse]
