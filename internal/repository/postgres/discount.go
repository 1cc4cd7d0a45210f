package postgres

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/discount"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/types"
)

type discountRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewDiscountRepository(db *postgres.DB, logger *logger.Logger) discount.Repository {
	return &discountRepository{db: db, logger: logger}
}

const insertDiscountQuery = `
	INSERT INTO discounts (
		id, tenant_id, name, code, discount_type, amount, start_date, end_date, discount_status,
		usage_limit, customer_id, promoted_code, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :tenant_id, :name, :code, :discount_type, :amount, :start_date, :end_date, :discount_status,
		:usage_limit, :customer_id, :promoted_code, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

func (r *discountRepository) Create(ctx context.Context, d *discount.Discount) error {
	r.logger.Debugw("creating discount", "discount_id", d.ID, "code", d.Code)

	if _, err := r.db.NamedExecContext(ctx, insertDiscountQuery, d); err != nil {
		return dbError(err, "failed to create discount")
	}
	return nil
}

// CreateBulk inserts all discounts with a single multi row statement
func (r *discountRepository) CreateBulk(ctx context.Context, discounts []*discount.Discount) error {
	if len(discounts) == 0 {
		return nil
	}

	r.logger.Debugw("creating discounts in bulk", "count", len(discounts))

	if _, err := r.db.NamedExecContext(ctx, insertDiscountQuery, discounts); err != nil {
		return dbError(err, "failed to create discounts")
	}
	return nil
}

func (r *discountRepository) Get(ctx context.Context, id string) (*discount.Discount, error) {
	query := `SELECT * FROM discounts WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	params := baseParams(ctx)
	params["id"] = id
	return getOne[discount.Discount](ctx, r.db, "discount", query, params)
}

func (r *discountRepository) GetByCode(ctx context.Context, code, customerID string) (*discount.Discount, error) {
	return r.lookup(ctx, "code", code, customerID)
}

func (r *discountRepository) GetByName(ctx context.Context, name, customerID string) (*discount.Discount, error) {
	return r.lookup(ctx, "name", name, customerID)
}

// lookup matches column against value among the customer's own discounts and
// catalog discounts, customer owned rows first, then oldest first
func (r *discountRepository) lookup(ctx context.Context, column, value, customerID string) (*discount.Discount, error) {
	query := `
		SELECT * FROM discounts
		WHERE ` + column + ` = :value AND tenant_id = :tenant_id AND status = :status
			AND (customer_id IS NULL OR customer_id = :customer_id)
		ORDER BY (customer_id IS NULL) ASC, created_at ASC, id ASC
		LIMIT 1`

	params := baseParams(ctx)
	params["value"] = value
	params["customer_id"] = customerID
	return getOne[discount.Discount](ctx, r.db, "discount", query, params)
}

func (r *discountRepository) List(ctx context.Context, filter *types.DiscountFilter) ([]*discount.Discount, error) {
	if filter == nil {
		filter = types.NewNoLimitDiscountFilter()
	}
	query, params := r.filterQuery(ctx, "SELECT *", filter)
	query = withPagination(query, params, filter, "created_at")
	return list[discount.Discount](ctx, r.db, "discounts", query, params)
}

func (r *discountRepository) Count(ctx context.Context, filter *types.DiscountFilter) (int, error) {
	query, params := r.filterQuery(ctx, "SELECT COUNT(*)", filter)
	return count(ctx, r.db, "discounts", query, params)
}

func (r *discountRepository) filterQuery(ctx context.Context, selectClause string, filter *types.DiscountFilter) (string, map[string]interface{}) {
	query := selectClause + ` FROM discounts WHERE tenant_id = :tenant_id AND status = :status`
	params := baseParams(ctx)
	if filter == nil {
		return query, params
	}

	if filter.CustomerID != "" {
		query += " AND customer_id = :customer_id"
		params["customer_id"] = filter.CustomerID
	}
	if filter.TemplatesOnly {
		query += " AND customer_id IS NULL"
	}
	if filter.Code != "" {
		query += " AND code = :code"
		params["code"] = filter.Code
	}
	if filter.Name != "" {
		query += " AND name = :name"
		params["name"] = filter.Name
	}
	if filter.Status != "" {
		query += " AND discount_status = :discount_status"
		params["discount_status"] = filter.Status
	}
	return query, params
}

func (r *discountRepository) Update(ctx context.Context, d *discount.Discount) error {
	query := `
		UPDATE discounts SET
			name = :name,
			code = :code,
			discount_type = :discount_type,
			amount = :amount,
			start_date = :start_date,
			end_date = :end_date,
			discount_status = :discount_status,
			usage_limit = :usage_limit,
			promoted_code = :promoted_code,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	r.logger.Debugw("updating discount", "discount_id", d.ID)

	return execOne(ctx, r.db, "discount", d.ID, query, d)
}

func (r *discountRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE discounts SET
			status = :deleted_status,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	r.logger.Debugw("deleting discount", "discount_id", id)

	params := baseParams(ctx)
	params["id"] = id
	params["deleted_status"] = types.StatusDeleted
	params["updated_by"] = types.GetUserID(ctx)
	return execOne(ctx, r.db, "discount", id, query, params)
}
