package notification

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/types"
)

// Notification is a message delivered to a customer over email and SMS
type Notification struct {
	ID                 string                    `db:"id" json:"id"`
	CustomerID         string                    `db:"customer_id" json:"customer_id"`
	Type               types.NotificationType    `db:"type" json:"type"`
	Message            string                    `db:"message" json:"message"`
	NotificationStatus types.NotificationStatus  `db:"notification_status" json:"notification_status"`
	Channel            types.NotificationChannel `db:"channel" json:"channel"`
	EmailSent          bool                      `db:"email_sent" json:"email_sent"`
	SMSSent            bool                      `db:"sms_sent" json:"sms_sent"`
	EmailError         *string                   `db:"email_error" json:"email_error,omitempty"`
	SMSError           *string                   `db:"sms_error" json:"sms_error,omitempty"`
	ReadAt             *time.Time                `db:"read_at" json:"read_at,omitempty"`
	types.BaseModel
}

// MarkRead flags the notification as read at now
func (n *Notification) MarkRead(now time.Time) {
	n.NotificationStatus = types.NotificationStatusRead
	n.ReadAt = &now
}

// MarkUnread resurfaces a notification that was delivered again
func (n *Notification) MarkUnread() {
	n.NotificationStatus = types.NotificationStatusUnread
	n.ReadAt = nil
}
