package postgres

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/plan"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/types"
)

type planRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPlanRepository(db *postgres.DB, logger *logger.Logger) plan.Repository {
	return &planRepository{db: db, logger: logger}
}

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	query := `
		INSERT INTO plans (
			id, tenant_id, name, description, price, duration_days, usage_limit,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :name, :description, :price, :duration_days, :usage_limit,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating plan", "plan_id", p.ID, "tenant_id", p.TenantID)

	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return dbError(err, "failed to create plan")
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	query := `SELECT * FROM plans WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	params := baseParams(ctx)
	params["id"] = id
	return getOne[plan.Plan](ctx, r.db, "plan", query, params)
}

func (r *planRepository) List(ctx context.Context, filter *types.PlanFilter) ([]*plan.Plan, error) {
	if filter == nil {
		filter = types.NewNoLimitPlanFilter()
	}
	query, params := r.filterQuery(ctx, "SELECT *", filter)
	query = withPagination(query, params, filter, "created_at")
	return list[plan.Plan](ctx, r.db, "plans", query, params)
}

func (r *planRepository) Count(ctx context.Context, filter *types.PlanFilter) (int, error) {
	query, params := r.filterQuery(ctx, "SELECT COUNT(*)", filter)
	return count(ctx, r.db, "plans", query, params)
}

func (r *planRepository) filterQuery(ctx context.Context, selectClause string, filter *types.PlanFilter) (string, map[string]interface{}) {
	query := selectClause + ` FROM plans WHERE tenant_id = :tenant_id AND status = :status`
	params := baseParams(ctx)

	if filter != nil && len(filter.PlanIDs) > 0 {
		query += " AND id = ANY(string_to_array(:plan_ids, ','))"
		params["plan_ids"] = joinIDs(filter.PlanIDs)
	}
	return query, params
}

func (r *planRepository) Update(ctx context.Context, p *plan.Plan) error {
	query := `
		UPDATE plans SET
			name = :name,
			description = :description,
			price = :price,
			duration_days = :duration_days,
			usage_limit = :usage_limit,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	r.logger.Debugw("updating plan", "plan_id", p.ID, "tenant_id", p.TenantID)

	return execOne(ctx, r.db, "plan", p.ID, query, p)
}

func (r *planRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE plans SET
			status = :deleted_status,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	r.logger.Debugw("deleting plan", "plan_id", id, "tenant_id", types.GetTenantID(ctx))

	params := baseParams(ctx)
	params["id"] = id
	params["deleted_status"] = types.StatusDeleted
	params["updated_by"] = types.GetUserID(ctx)
	return execOne(ctx, r.db, "plan", id, query, params)
}
