package postgres

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/usage"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/types"
)

type usageRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUsageRepository(db *postgres.DB, logger *logger.Logger) usage.Repository {
	return &usageRepository{db: db, logger: logger}
}

func (r *usageRepository) Create(ctx context.Context, record *usage.Record) error {
	query := `
		INSERT INTO usage_records (
			id, tenant_id, customer_id, plan_id, amount, usage_date, details,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :customer_id, :plan_id, :amount, :usage_date, :details,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return dbError(err, "failed to create usage record")
	}
	return nil
}

func (r *usageRepository) List(ctx context.Context, filter *types.UsageFilter) ([]*usage.Record, error) {
	if filter == nil {
		filter = types.NewNoLimitUsageFilter()
	}
	query := `SELECT * FROM usage_records WHERE tenant_id = :tenant_id AND status = :status`
	params := baseParams(ctx)

	if filter != nil {
		if filter.CustomerID != "" {
			query += " AND customer_id = :customer_id"
			params["customer_id"] = filter.CustomerID
		}
		if filter.PlanID != "" {
			query += " AND plan_id = :plan_id"
			params["plan_id"] = filter.PlanID
		}
	}

	query = withPagination(query, params, filter, "usage_date")
	return list[usage.Record](ctx, r.db, "usage records", query, params)
}
