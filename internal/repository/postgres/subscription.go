package postgres

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/types"
)

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

// Create inserts a subscription. A second ACTIVE row for the same customer and plan
// is rejected by a partial unique index and surfaces as ErrAlreadyExists.
func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.UserSubscription) error {
	query := `
		INSERT INTO user_subscriptions (
			id,
			tenant_id,
			customer_id,
			plan_id,
			subscription_status,
			start_date,
			end_date,
			payment_method,
			promo_code,
			original_price,
			discounted_price,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:tenant_id,
			:customer_id,
			:plan_id,
			:subscription_status,
			:start_date,
			:end_date,
			:payment_method,
			:promo_code,
			:original_price,
			:discounted_price,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)`

	r.logger.Debugw("creating subscription",
		"subscription_id", sub.ID,
		"customer_id", sub.CustomerID,
		"plan_id", sub.PlanID,
	)

	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return dbError(err, "failed to create subscription")
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.UserSubscription, error) {
	query := `
		SELECT * FROM user_subscriptions
		WHERE
			id = :id AND
			tenant_id = :tenant_id AND
			status = :status`

	params := baseParams(ctx)
	params["id"] = id
	return getOne[subscription.UserSubscription](ctx, r.db, "subscription", query, params)
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.UserSubscription) error {
	query := `
		UPDATE user_subscriptions
		SET
			subscription_status = :subscription_status,
			end_date = :end_date,
			payment_method = :payment_method,
			promo_code = :promo_code,
			original_price = :original_price,
			discounted_price = :discounted_price,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE
			id = :id AND
			tenant_id = :tenant_id AND
			status = :status`

	r.logger.Debugw("updating subscription",
		"subscription_id", sub.ID,
		"subscription_status", sub.SubscriptionStatus,
	)

	return execOne(ctx, r.db, "subscription", sub.ID, query, sub)
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.UserSubscription, error) {
	if filter == nil {
		filter = types.NewNoLimitSubscriptionFilter()
	}
	query, params := r.filterQuery(ctx, "SELECT *", filter)
	query = withPagination(query, params, filter, "start_date")
	return list[subscription.UserSubscription](ctx, r.db, "subscriptions", query, params)
}

func (r *subscriptionRepository) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	query, params := r.filterQuery(ctx, "SELECT COUNT(*)", filter)
	return count(ctx, r.db, "subscriptions", query, params)
}

func (r *subscriptionRepository) filterQuery(ctx context.Context, selectClause string, filter *types.SubscriptionFilter) (string, map[string]interface{}) {
	query := selectClause + ` FROM user_subscriptions WHERE tenant_id = :tenant_id AND status = :status`
	params := baseParams(ctx)
	if filter == nil {
		return query, params
	}

	if filter.CustomerID != "" {
		query += " AND customer_id = :customer_id"
		params["customer_id"] = filter.CustomerID
	}
	if filter.PlanID != "" {
		query += " AND plan_id = :plan_id"
		params["plan_id"] = filter.PlanID
	}
	if len(filter.SubscriptionStatus) > 0 {
		query += " AND subscription_status = ANY(string_to_array(:subscription_status, ','))"
		params["subscription_status"] = joinIDs(filter.SubscriptionStatus)
	}
	return query, params
}
