package postgres

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/customer"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/types"
)

type customerRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewCustomerRepository(db *postgres.DB, logger *logger.Logger) customer.Repository {
	return &customerRepository{db: db, logger: logger}
}

func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
		INSERT INTO customers (
			id, tenant_id, name, email, phone, active_plan_id, subscription_status, active_payment_method,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :name, :email, :phone, :active_plan_id, :subscription_status, :active_payment_method,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating customer", "customer_id", c.ID, "tenant_id", c.TenantID)

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return dbError(err, "failed to create customer")
	}
	return nil
}

func (r *customerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	query := `SELECT * FROM customers WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	params := baseParams(ctx)
	params["id"] = id
	return getOne[customer.Customer](ctx, r.db, "customer", query, params)
}

func (r *customerRepository) List(ctx context.Context, filter *types.CustomerFilter) ([]*customer.Customer, error) {
	if filter == nil {
		filter = types.NewNoLimitCustomerFilter()
	}
	query, params := r.filterQuery(ctx, "SELECT *", filter)
	query = withPagination(query, params, filter, "created_at")
	return list[customer.Customer](ctx, r.db, "customers", query, params)
}

func (r *customerRepository) Count(ctx context.Context, filter *types.CustomerFilter) (int, error) {
	query, params := r.filterQuery(ctx, "SELECT COUNT(*)", filter)
	return count(ctx, r.db, "customers", query, params)
}

func (r *customerRepository) filterQuery(ctx context.Context, selectClause string, filter *types.CustomerFilter) (string, map[string]interface{}) {
	query := selectClause + ` FROM customers WHERE tenant_id = :tenant_id AND status = :status`
	params := baseParams(ctx)
	if filter == nil {
		return query, params
	}

	if len(filter.CustomerIDs) > 0 {
		query += " AND id = ANY(string_to_array(:customer_ids, ','))"
		params["customer_ids"] = joinIDs(filter.CustomerIDs)
	}
	if filter.Email != "" {
		query += " AND email = :email"
		params["email"] = filter.Email
	}
	if filter.SubscriptionStatus != "" {
		query += " AND subscription_status = :subscription_status"
		params["subscription_status"] = filter.SubscriptionStatus
	}
	return query, params
}

func (r *customerRepository) Update(ctx context.Context, c *customer.Customer) error {
	query := `
		UPDATE customers SET
			name = :name,
			email = :email,
			phone = :phone,
			active_plan_id = :active_plan_id,
			subscription_status = :subscription_status,
			active_payment_method = :active_payment_method,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	r.logger.Debugw("updating customer",
		"customer_id", c.ID,
		"active_plan_id", c.GetActivePlanID(),
		"subscription_status", c.SubscriptionStatus,
	)

	return execOne(ctx, r.db, "customer", c.ID, query, c)
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE customers SET
			status = :deleted_status,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	r.logger.Debugw("deleting customer", "customer_id", id, "tenant_id", types.GetTenantID(ctx))

	params := baseParams(ctx)
	params["id"] = id
	params["deleted_status"] = types.StatusDeleted
	params["updated_by"] = types.GetUserID(ctx)
	return execOne(ctx, r.db, "customer", id, query, params)
}
