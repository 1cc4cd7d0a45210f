package types

import (
	"time"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/samber/lo"
)

// NotificationType is the kind of event a customer is notified about
type NotificationType string

const (
	NotificationTypePaymentSuccess           NotificationType = "PAYMENT_SUCCESS"
	NotificationTypePaymentFailure           NotificationType = "PAYMENT_FAILURE"
	NotificationTypePaymentRefunded          NotificationType = "PAYMENT_REFUNDED"
	NotificationTypeSubscriptionRenewal      NotificationType = "SUBSCRIPTION_RENEWAL"
	NotificationTypeSubscriptionCancellation NotificationType = "SUBSCRIPTION_CANCELLATION"
	NotificationTypeInvoiceGenerated         NotificationType = "INVOICE_GENERATED"
)

func (t NotificationType) String() string {
	return string(t)
}

func (t NotificationType) Validate() error {
	allowed := []NotificationType{
		NotificationTypePaymentSuccess,
		NotificationTypePaymentFailure,
		NotificationTypePaymentRefunded,
		NotificationTypeSubscriptionRenewal,
		NotificationTypeSubscriptionCancellation,
		NotificationTypeInvoiceGenerated,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid notification type").
			WithHint("Please provide a valid notification type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "UNREAD"
	NotificationStatusRead   NotificationStatus = "READ"
)

type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "EMAIL"
	NotificationChannelSMS   NotificationChannel = "SMS"
)

// NotificationFilter represents filters for notification queries
type NotificationFilter struct {
	*QueryFilter

	CustomerID         string             `json:"customer_id,omitempty" form:"customer_id"`
	Type               NotificationType   `json:"type,omitempty" form:"type"`
	Message            string             `json:"message,omitempty" form:"message"`
	NotificationStatus NotificationStatus `json:"notification_status,omitempty" form:"notification_status"`
}

// NewNotificationFilter creates a new notification filter with default options
func NewNotificationFilter() *NotificationFilter {
	return &NotificationFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitNotificationFilter creates a new notification filter without pagination
func NewNoLimitNotificationFilter() *NotificationFilter {
	return &NotificationFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

func (f NotificationFilter) Validate() error {
	if f.Type != "" {
		if err := f.Type.Validate(); err != nil {
			return err
		}
	}
	return f.QueryFilter.Validate()
}

// NotificationEvent is the message published on the notification topic.
// Recipient contact details are resolved by the producer so that the consumer
// does not need to read the customer back.
type NotificationEvent struct {
	ID         string           `json:"id"`
	TenantID   string           `json:"tenant_id"`
	CustomerID string           `json:"customer_id"`
	Type       NotificationType `json:"type"`
	Subject    string           `json:"subject"`
	Message    string           `json:"message"`
	Email      string           `json:"email,omitempty"`
	Phone      string           `json:"phone,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}
