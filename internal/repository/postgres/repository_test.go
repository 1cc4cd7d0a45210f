package postgres

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/domain/payment"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var baseColumns = []string{"tenant_id", "status", "created_at", "updated_at", "created_by", "updated_by"}

var invoiceColumns = []string{
	"id", "invoice_number", "customer_id", "plan_id", "plan_name", "plan_price", "invoice_date", "due_date",
	"invoice_status", "amount", "payment_method", "discount_id", "discount_code", "discount_type",
	"discount_value", "discount_amount",
}

var paymentColumns = []string{
	"id", "invoice_id", "customer_id", "transaction_type", "amount", "payment_method",
	"payment_status", "transaction_id", "parent_transaction_id", "reason", "payment_date",
}

type RepositorySuite struct {
	suite.Suite
	ctx  context.Context
	db   *postgres.DB
	mock sqlmock.Sqlmock
	log  *logger.Logger
	now  time.Time
}

func TestRepositories(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	mockDB, mock, err := sqlmock.New()
	s.Require().NoError(err)

	s.log, err = logger.NewLogger(config.GetDefaultConfig())
	s.Require().NoError(err)

	s.ctx = types.SetTenantID(context.Background(), types.DefaultTenantID)
	s.db = postgres.New(sqlx.NewDb(mockDB, "postgres"), s.log)
	s.mock = mock
	s.now = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
}

func (s *RepositorySuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func columns(entity []string) []string {
	return append(append([]string{}, entity...), baseColumns...)
}

// row appends the shared base model values to the entity values
func (s *RepositorySuite) row(values ...driver.Value) []driver.Value {
	return append(values, types.DefaultTenantID, "published", s.now, s.now, "", "")
}

func (s *RepositorySuite) TestPlanGet() {
	rows := sqlmock.NewRows(columns([]string{"id", "name", "description", "price", "duration_days", "usage_limit"})).
		AddRow(s.row("plan_1", "Premium", "", "100.00", 30, 2)...)

	s.mock.ExpectQuery(`SELECT \* FROM plans WHERE id = \$1 AND tenant_id = \$2 AND status = \$3`).
		WithArgs("plan_1", types.DefaultTenantID, "published").
		WillReturnRows(rows)

	p, err := NewPlanRepository(s.db, s.log).Get(s.ctx, "plan_1")
	s.Require().NoError(err)
	s.Equal("Premium", p.Name)
	s.True(p.Price.Equal(decimal.NewFromInt(100)))
	s.Equal(30, p.DurationDays)
	s.Equal(2, p.UsageLimit)
	s.Equal(types.DefaultTenantID, p.TenantID)
}

func (s *RepositorySuite) TestPlanGetNotFound() {
	s.mock.ExpectQuery(`SELECT \* FROM plans`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewPlanRepository(s.db, s.log).Get(s.ctx, "missing")
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestCustomerGetWithoutPlan() {
	rows := sqlmock.NewRows(columns([]string{"id", "name", "email", "phone", "active_plan_id", "subscription_status", "active_payment_method"})).
		AddRow(s.row("cust_1", "Asha", "asha@example.com", "", nil, "INACTIVE", "")...)

	s.mock.ExpectQuery(`SELECT \* FROM customers WHERE id = \$1`).WillReturnRows(rows)

	c, err := NewCustomerRepository(s.db, s.log).Get(s.ctx, "cust_1")
	s.Require().NoError(err)
	s.False(c.HasActivePlan())
	s.Equal(types.CustomerSubscriptionStatusInactive, c.SubscriptionStatus)
}

func (s *RepositorySuite) newCharge(transactionID string) *payment.Payment {
	return &payment.Payment{
		ID:              "pay_" + transactionID,
		InvoiceID:       "inv_1",
		CustomerID:      "cust_1",
		TransactionType: types.TransactionTypeCharge,
		Amount:          decimal.NewFromInt(90),
		PaymentStatus:   types.PaymentStatusPending,
		TransactionID:   transactionID,
		PaymentDate:     s.now,
		BaseModel:       types.GetDefaultBaseModel(s.ctx),
	}
}

func (s *RepositorySuite) TestPaymentCreateDuplicateTransaction() {
	s.mock.ExpectExec(`INSERT INTO payments`).
		WillReturnError(&pq.Error{
			Code:       "23505",
			Message:    "duplicate key value violates unique constraint",
			Constraint: "idx_payments_transaction_id",
		})

	err := NewPaymentRepository(s.db, s.log).Create(s.ctx, s.newCharge("TX1"))
	s.True(ierr.IsAlreadyExists(err))
}

func (s *RepositorySuite) TestPaymentCreateSecondOpenCharge() {
	s.mock.ExpectExec(`INSERT INTO payments`).
		WillReturnError(&pq.Error{
			Code:       "23505",
			Message:    "duplicate key value violates unique constraint",
			Constraint: openChargeIndex,
		})

	err := NewPaymentRepository(s.db, s.log).Create(s.ctx, s.newCharge("TX2"))
	s.True(ierr.IsInvalidOperation(err))
	s.False(ierr.IsAlreadyExists(err))
}

func (s *RepositorySuite) TestPaymentGetByTransactionID() {
	rows := sqlmock.NewRows(columns(paymentColumns)).
		AddRow(s.row(
			"pay_2", "inv_1", "cust_1", "REFUND", "90", "CARD",
			"REFUNDED", "REF_TX1", "TX1", "customer request", s.now,
		)...)

	s.mock.ExpectQuery(`SELECT \* FROM payments WHERE transaction_id = \$1 AND tenant_id = \$2 AND status = \$3`).
		WithArgs("REF_TX1", types.DefaultTenantID, "published").
		WillReturnRows(rows)

	p, err := NewPaymentRepository(s.db, s.log).GetByTransactionID(s.ctx, "REF_TX1")
	s.Require().NoError(err)
	s.Equal(types.TransactionTypeRefund, p.TransactionType)
	s.Equal("TX1", lo.FromPtr(p.ParentTransactionID))
	s.Equal("customer request", lo.FromPtr(p.Reason))
	s.True(p.SignedAmount().Equal(decimal.NewFromInt(-90)))
}

func (s *RepositorySuite) TestPaymentGetByTransactionIDNotFound() {
	s.mock.ExpectQuery(`SELECT \* FROM payments WHERE transaction_id = \$1`).
		WithArgs("TX_MISSING", types.DefaultTenantID, "published").
		WillReturnRows(sqlmock.NewRows(columns(paymentColumns)))

	_, err := NewPaymentRepository(s.db, s.log).GetByTransactionID(s.ctx, "TX_MISSING")
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestPaymentCountAppliesFilters() {
	s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payments WHERE tenant_id = \$1 AND status = \$2 AND invoice_id = \$3 AND transaction_type = ANY\(string_to_array\(\$4, ','\)\) AND payment_status = ANY\(string_to_array\(\$5, ','\)\)$`).
		WithArgs(types.DefaultTenantID, "published", "inv_1", "CHARGE", "PENDING,PAID").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	filter := types.NewNoLimitPaymentFilter()
	filter.InvoiceID = "inv_1"
	filter.TransactionTypes = []types.TransactionType{types.TransactionTypeCharge}
	filter.PaymentStatus = []types.PaymentStatus{types.PaymentStatusPending, types.PaymentStatusPaid}

	n, err := NewPaymentRepository(s.db, s.log).Count(s.ctx, filter)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *RepositorySuite) TestInvoiceUpdateMissingRow() {
	s.mock.ExpectExec(`UPDATE invoices SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewInvoiceRepository(s.db, s.log)
	err := repo.Update(s.ctx, newTestInvoice(s.ctx, s.now))
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestInvoiceListAppliesFilters() {
	s.mock.ExpectQuery(`SELECT \* FROM invoices WHERE tenant_id = \$1 AND status = \$2 AND customer_id = \$3 AND invoice_status = ANY\(string_to_array\(\$4, ','\)\) ORDER BY invoice_date DESC, id DESC LIMIT \$5 OFFSET \$6`).
		WithArgs(types.DefaultTenantID, "published", "cust_1", "PENDING", 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	filter := types.NewInvoiceFilter()
	filter.CustomerID = "cust_1"
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusPending}

	invoices, err := NewInvoiceRepository(s.db, s.log).List(s.ctx, filter)
	s.Require().NoError(err)
	s.Empty(invoices)
}

func (s *RepositorySuite) TestInvoiceGetLatestWithPlan() {
	dueDate := s.now.AddDate(0, 0, 30)
	rows := sqlmock.NewRows(columns(invoiceColumns)).
		AddRow(s.row(
			"inv_2", "INV-TEST0002", "cust_1", "plan_1", "Premium", "100", s.now, dueDate,
			"PAID", "85", "CARD", "disc_1", "FEST", "PERCENTAGE", "15", "15",
		)...)

	s.mock.ExpectQuery(`SELECT \* FROM invoices WHERE customer_id = \$1 AND plan_id IS NOT NULL AND tenant_id = \$2 AND status = \$3 ORDER BY invoice_date DESC, created_at DESC LIMIT 1`).
		WithArgs("cust_1", types.DefaultTenantID, "published").
		WillReturnRows(rows)

	inv, err := NewInvoiceRepository(s.db, s.log).GetLatestWithPlan(s.ctx, "cust_1")
	s.Require().NoError(err)
	s.Equal("inv_2", inv.ID)
	s.Equal("plan_1", inv.GetPlanID())
	s.Equal(types.InvoiceStatusPaid, inv.InvoiceStatus)
	s.True(inv.Amount.Equal(decimal.NewFromInt(85)))
	s.Equal("FEST", lo.FromPtr(inv.DiscountCode))
	s.True(dueDate.Equal(inv.DueDate))
}

func (s *RepositorySuite) TestInvoiceGetLatestWithPlanNone() {
	s.mock.ExpectQuery(`SELECT \* FROM invoices WHERE customer_id = \$1 AND plan_id IS NOT NULL`).
		WillReturnRows(sqlmock.NewRows(columns(invoiceColumns)))

	_, err := NewInvoiceRepository(s.db, s.log).GetLatestWithPlan(s.ctx, "cust_1")
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestDiscountGetByCodePrefersCustomerCopy() {
	rows := sqlmock.NewRows(columns([]string{
		"id", "name", "code", "discount_type", "amount", "start_date", "end_date",
		"discount_status", "usage_limit", "customer_id", "promoted_code",
	})).
		AddRow(s.row(
			"disc_2", "Festive", "FEST", "PERCENTAGE", "15", s.now.Add(-time.Hour), s.now.Add(time.Hour),
			"ACTIVE", 0, "cust_1", nil,
		)...)

	s.mock.ExpectQuery(`SELECT \* FROM discounts WHERE code = \$1 AND tenant_id = \$2 AND status = \$3 AND \(customer_id IS NULL OR customer_id = \$4\) ORDER BY \(customer_id IS NULL\) ASC, created_at ASC, id ASC LIMIT 1`).
		WithArgs("FEST", types.DefaultTenantID, "published", "cust_1").
		WillReturnRows(rows)

	d, err := NewDiscountRepository(s.db, s.log).GetByCode(s.ctx, "FEST", "cust_1")
	s.Require().NoError(err)
	s.Equal("disc_2", d.ID)
	s.Equal("cust_1", lo.FromPtr(d.CustomerID))
	s.True(d.IsValid(s.now))
}

func (s *RepositorySuite) TestDiscountGetByNameNotFound() {
	s.mock.ExpectQuery(`SELECT \* FROM discounts WHERE name = \$1`).
		WithArgs("Festive", types.DefaultTenantID, "published", "cust_2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewDiscountRepository(s.db, s.log).GetByName(s.ctx, "Festive", "cust_2")
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestDatabaseErrorIsMarked() {
	s.mock.ExpectQuery(`SELECT \* FROM user_subscriptions`).
		WillReturnError(context.DeadlineExceeded)

	_, err := NewSubscriptionRepository(s.db, s.log).List(s.ctx, nil)
	s.True(ierr.IsDatabase(err))
}
