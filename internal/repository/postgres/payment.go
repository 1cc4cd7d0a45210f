package postgres

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/payment"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/types"
)

// openChargeIndex keeps a second charge off an invoice that is paid or being paid
const openChargeIndex = "idx_payments_invoice_open_charge"

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{db: db, logger: logger}
}

// Create inserts a payment row. A duplicate transaction id surfaces as ErrAlreadyExists,
// a second open charge on the invoice as ErrInvalidOperation.
func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (
			id, tenant_id, invoice_id, customer_id, transaction_type, amount, payment_method,
			payment_status, transaction_id, parent_transaction_id, reason, payment_date,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :invoice_id, :customer_id, :transaction_type, :amount, :payment_method,
			:payment_status, :transaction_id, :parent_transaction_id, :reason, :payment_date,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating payment",
		"payment_id", p.ID,
		"invoice_id", p.InvoiceID,
		"transaction_id", p.TransactionID,
		"transaction_type", p.TransactionType,
	)

	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		if postgres.IsUniqueViolationOn(err, openChargeIndex) {
			return payment.ErrInvoiceHasOpenCharge(p.InvoiceID, err)
		}
		return dbError(err, "failed to create payment")
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	query := `SELECT * FROM payments WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	params := baseParams(ctx)
	params["id"] = id
	return getOne[payment.Payment](ctx, r.db, "payment", query, params)
}

func (r *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	query := `SELECT * FROM payments WHERE transaction_id = :transaction_id AND tenant_id = :tenant_id AND status = :status`

	params := baseParams(ctx)
	params["transaction_id"] = transactionID
	return getOne[payment.Payment](ctx, r.db, "payment", query, params)
}

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	query := `
		UPDATE payments SET
			payment_status = :payment_status,
			payment_method = :payment_method,
			payment_date = :payment_date,
			reason = :reason,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status = :status`

	r.logger.Debugw("updating payment",
		"payment_id", p.ID,
		"transaction_id", p.TransactionID,
		"payment_status", p.PaymentStatus,
	)

	return execOne(ctx, r.db, "payment", p.ID, query, p)
}

func (r *paymentRepository) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	if filter == nil {
		filter = types.NewNoLimitPaymentFilter()
	}
	query, params := r.filterQuery(ctx, "SELECT *", filter)
	query = withPagination(query, params, filter, "payment_date")
	return list[payment.Payment](ctx, r.db, "payments", query, params)
}

func (r *paymentRepository) Count(ctx context.Context, filter *types.PaymentFilter) (int, error) {
	query, params := r.filterQuery(ctx, "SELECT COUNT(*)", filter)
	return count(ctx, r.db, "payments", query, params)
}

func (r *paymentRepository) DeleteByInvoiceID(ctx context.Context, invoiceID string) error {
	query := `DELETE FROM payments WHERE invoice_id = :invoice_id AND tenant_id = :tenant_id`

	r.logger.Debugw("deleting payments of invoice", "invoice_id", invoiceID)

	params := baseParams(ctx)
	params["invoice_id"] = invoiceID
	if _, err := r.db.NamedExecContext(ctx, query, params); err != nil {
		return dbError(err, "failed to delete payments")
	}
	return nil
}

func (r *paymentRepository) filterQuery(ctx context.Context, selectClause string, filter *types.PaymentFilter) (string, map[string]interface{}) {
	query := selectClause + ` FROM payments WHERE tenant_id = :tenant_id AND status = :status`
	params := baseParams(ctx)
	if filter == nil {
		return query, params
	}

	if filter.InvoiceID != "" {
		query += " AND invoice_id = :invoice_id"
		params["invoice_id"] = filter.InvoiceID
	}
	if filter.CustomerID != "" {
		query += " AND customer_id = :customer_id"
		params["customer_id"] = filter.CustomerID
	}
	if filter.ParentTransactionID != "" {
		query += " AND parent_transaction_id = :parent_transaction_id"
		params["parent_transaction_id"] = filter.ParentTransactionID
	}
	if len(filter.TransactionTypes) > 0 {
		query += " AND transaction_type = ANY(string_to_array(:transaction_types, ','))"
		params["transaction_types"] = joinIDs(filter.TransactionTypes)
	}
	if len(filter.PaymentStatus) > 0 {
		query += " AND payment_status = ANY(string_to_array(:payment_status, ','))"
		params["payment_status"] = joinIDs(filter.PaymentStatus)
	}
	return query, params
}
