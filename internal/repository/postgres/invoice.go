package postgres

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/invoice"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/types"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (
			id, tenant_id, invoice_number, customer_id, plan_id, plan_name, plan_price,
			invoice_date, due_date, invoice_status, amount, payment_method,
			discount_id, discount_code, discount_type, discount_value, discount_amount,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :invoice_number, :customer_id, :plan_id, :plan_name, :plan_price,
			:invoice_date, :due_date, :invoice_status, :amount, :payment_method,
			:discount_id, :discount_code, :discount_type, :discount_value, :discount_amount,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating invoice",
		"invoice_id", inv.ID,
		"customer_id", inv.CustomerID,
		"amount", inv.Amount,
	)

	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		return dbError(err, "failed to create invoice")
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `SELECT * FROM invoices WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	params := baseParams(ctx)
	params["id"] = id
	return getOne[invoice.Invoice](ctx, r.db, "invoice", query, params)
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		UPDATE invoices SET
			plan_id = :plan_id,
			invoice_status = :invoice_status,
			amount = :amount,
			payment_method = :payment_method,
			due_date = :due_date,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	r.logger.Debugw("updating invoice",
		"invoice_id", inv.ID,
		"invoice_status", inv.InvoiceStatus,
	)

	return execOne(ctx, r.db, "invoice", inv.ID, query, inv)
}

func (r *invoiceRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM invoices WHERE id = :id AND tenant_id = :tenant_id`

	r.logger.Debugw("deleting invoice", "invoice_id", id)

	params := baseParams(ctx)
	params["id"] = id
	return execOne(ctx, r.db, "invoice", id, query, params)
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	if filter == nil {
		filter = types.NewNoLimitInvoiceFilter()
	}
	query, params := r.filterQuery(ctx, "SELECT *", filter)
	query = withPagination(query, params, filter, "invoice_date")
	return list[invoice.Invoice](ctx, r.db, "invoices", query, params)
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	query, params := r.filterQuery(ctx, "SELECT COUNT(*)", filter)
	return count(ctx, r.db, "invoices", query, params)
}

func (r *invoiceRepository) GetLatestWithPlan(ctx context.Context, customerID string) (*invoice.Invoice, error) {
	query := `
		SELECT * FROM invoices
		WHERE customer_id = :customer_id
			AND plan_id IS NOT NULL
			AND tenant_id = :tenant_id
			AND status = :status
		ORDER BY invoice_date DESC, created_at DESC
		LIMIT 1`

	params := baseParams(ctx)
	params["customer_id"] = customerID
	return getOne[invoice.Invoice](ctx, r.db, "invoice", query, params)
}

func (r *invoiceRepository) filterQuery(ctx context.Context, selectClause string, filter *types.InvoiceFilter) (string, map[string]interface{}) {
	query := selectClause + ` FROM invoices WHERE tenant_id = :tenant_id AND status = :status`
	params := baseParams(ctx)
	if filter == nil {
		return query, params
	}

	if len(filter.InvoiceIDs) > 0 {
		query += " AND id = ANY(string_to_array(:invoice_ids, ','))"
		params["invoice_ids"] = joinIDs(filter.InvoiceIDs)
	}
	if filter.CustomerID != "" {
		query += " AND customer_id = :customer_id"
		params["customer_id"] = filter.CustomerID
	}
	if filter.PlanID != "" {
		query += " AND plan_id = :plan_id"
		params["plan_id"] = filter.PlanID
	}
	if filter.RequirePlan {
		query += " AND plan_id IS NOT NULL"
	}
	if len(filter.InvoiceStatus) > 0 {
		query += " AND invoice_status = ANY(string_to_array(:invoice_status, ','))"
		params["invoice_status"] = joinIDs(filter.InvoiceStatus)
	}
	return query, params
}
