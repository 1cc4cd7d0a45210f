package postgres

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/notification"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/types"
)

type notificationRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewNotificationRepository(db *postgres.DB, logger *logger.Logger) notification.Repository {
	return &notificationRepository{db: db, logger: logger}
}

func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (
			id, tenant_id, customer_id, type, message, notification_status, channel,
			email_sent, sms_sent, email_error, sms_error, read_at,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :customer_id, :type, :message, :notification_status, :channel,
			:email_sent, :sms_sent, :email_error, :sms_error, :read_at,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return dbError(err, "failed to create notification")
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id string) (*notification.Notification, error) {
	query := `SELECT * FROM notifications WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	params := baseParams(ctx)
	params["id"] = id
	return getOne[notification.Notification](ctx, r.db, "notification", query, params)
}

func (r *notificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	query := `
		UPDATE notifications SET
			notification_status = :notification_status,
			email_sent = :email_sent,
			sms_sent = :sms_sent,
			email_error = :email_error,
			sms_error = :sms_error,
			read_at = :read_at,
			created_at = :created_at,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	return execOne(ctx, r.db, "notification", n.ID, query, n)
}

func (r *notificationRepository) List(ctx context.Context, filter *types.NotificationFilter) ([]*notification.Notification, error) {
	if filter == nil {
		filter = types.NewNoLimitNotificationFilter()
	}
	query := `SELECT * FROM notifications WHERE tenant_id = :tenant_id AND status = :status`
	params := baseParams(ctx)

	if filter != nil {
		if filter.CustomerID != "" {
			query += " AND customer_id = :customer_id"
			params["customer_id"] = filter.CustomerID
		}
		if filter.Type != "" {
			query += " AND type = :type"
			params["type"] = filter.Type
		}
		if filter.Message != "" {
			query += " AND message = :message"
			params["message"] = filter.Message
		}
		if filter.NotificationStatus != "" {
			query += " AND notification_status = :notification_status"
			params["notification_status"] = filter.NotificationStatus
		}
	}

	query = withPagination(query, params, filter, "created_at")
	return list[notification.Notification](ctx, r.db, "notifications", query, params)
}
