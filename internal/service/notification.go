package service

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/customer"
	"github.com/flexprice/subscription-billing/internal/domain/notification"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/notification/delivery"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

// NotificationService stores the notifications delivered to customers.
// It is the recorder behind the notification consumer.
type NotificationService interface {
	RecordNotification(ctx context.Context, event *types.NotificationEvent) (*notification.Notification, error)
	UpdateDeliveryStatus(ctx context.Context, notificationID string, results []delivery.Result) error
	ListNotifications(ctx context.Context, customerID string, filter *types.NotificationFilter) (*dto.ListNotificationsResponse, error)
	ListUnreadNotifications(ctx context.Context, customerID string) (*dto.ListNotificationsResponse, error)
	MarkAsRead(ctx context.Context, id string) (*dto.NotificationResponse, error)
}

type notificationService struct {
	ServiceParams
}

func NewNotificationService(params ServiceParams) NotificationService {
	return &notificationService{ServiceParams: params}
}

// RecordNotification stores the event. A repeat of the same message to the same
// customer resurfaces the existing notification as unread instead of adding a row.
func (s *notificationService) RecordNotification(ctx context.Context, event *types.NotificationEvent) (*notification.Notification, error) {
	if event.CustomerID == "" {
		return nil, ierr.NewError("customer_id is required").
			WithHint("Notification must reference a customer").
			Mark(ierr.ErrValidation)
	}
	if err := event.Type.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	filter := types.NewNotificationFilter()
	filter.Limit = lo.ToPtr(1)
	filter.CustomerID = event.CustomerID
	filter.Type = event.Type
	filter.Message = event.Message

	existing, err := s.NotificationRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if len(existing) > 0 {
		n := existing[0]
		n.MarkUnread()
		n.CreatedAt = now
		n.Touch(ctx)
		if err := s.NotificationRepo.Update(ctx, n); err != nil {
			return nil, err
		}
		s.Logger.Debugw("resurfaced duplicate notification",
			"notification_id", n.ID,
			"customer_id", n.CustomerID,
			"type", n.Type,
		)
		return n, nil
	}

	channel := types.NotificationChannelEmail
	if event.Email == "" && event.Phone != "" {
		channel = types.NotificationChannelSMS
	}

	n := &notification.Notification{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_NOTIFICATION),
		CustomerID:         event.CustomerID,
		Type:               event.Type,
		Message:            event.Message,
		NotificationStatus: types.NotificationStatusUnread,
		Channel:            channel,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	n.CreatedAt = now
	n.UpdatedAt = now

	if err := s.NotificationRepo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *notificationService) UpdateDeliveryStatus(ctx context.Context, notificationID string, results []delivery.Result) error {
	n, err := s.NotificationRepo.Get(ctx, notificationID)
	if err != nil {
		return err
	}

	for _, r := range results {
		var errMsg *string
		if r.Err != nil {
			errMsg = lo.ToPtr(r.Err.Error())
		}
		switch r.Channel {
		case types.NotificationChannelEmail:
			n.EmailSent = r.Sent()
			n.EmailError = errMsg
		case types.NotificationChannelSMS:
			n.SMSSent = r.Sent()
			n.SMSError = errMsg
		}
	}
	n.Touch(ctx)

	return s.NotificationRepo.Update(ctx, n)
}

func (s *notificationService) ListNotifications(ctx context.Context, customerID string, filter *types.NotificationFilter) (*dto.ListNotificationsResponse, error) {
	if filter == nil {
		filter = types.NewNotificationFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.CustomerRepo.Get(ctx, customerID); err != nil {
		return nil, err
	}
	filter.CustomerID = customerID

	notifications, err := s.NotificationRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(notifications, func(n *notification.Notification, _ int) *dto.NotificationResponse {
		return &dto.NotificationResponse{Notification: n}
	})
	resp := types.NewListResponse(items, len(items), filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

func (s *notificationService) ListUnreadNotifications(ctx context.Context, customerID string) (*dto.ListNotificationsResponse, error) {
	filter := types.NewNoLimitNotificationFilter()
	filter.NotificationStatus = types.NotificationStatusUnread
	return s.ListNotifications(ctx, customerID, filter)
}

func (s *notificationService) MarkAsRead(ctx context.Context, id string) (*dto.NotificationResponse, error) {
	n, err := s.NotificationRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	n.MarkRead(time.Now().UTC())
	n.Touch(ctx)
	if err := s.NotificationRepo.Update(ctx, n); err != nil {
		return nil, err
	}
	return &dto.NotificationResponse{Notification: n}, nil
}

// notifyCustomer publishes a notification for c. Delivery is best effort,
// a failure is logged and never reaches the caller.
func notifyCustomer(ctx context.Context, params ServiceParams, c *customer.Customer, t types.NotificationType, message string) {
	if params.NotificationPublisher == nil || c == nil {
		return
	}

	event := &types.NotificationEvent{
		TenantID:   types.GetTenantID(ctx),
		CustomerID: c.ID,
		Type:       t,
		Subject:    notification.Subject(t),
		Message:    message,
		Email:      c.Email,
		Phone:      c.Phone,
	}

	if err := params.NotificationPublisher.Publish(ctx, event); err != nil {
		params.Logger.Warnw("failed to publish notification",
			"error", err,
			"customer_id", c.ID,
			"type", t,
		)
	}
}
