package service

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/payment"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentProcessorSuite struct {
	billingTestSuite
	invoiceID string
}

func TestPaymentProcessor(t *testing.T) {
	suite.Run(t, new(PaymentProcessorSuite))
}

func (s *PaymentProcessorSuite) SetupTest() {
	s.billingTestSuite.SetupTest()
	s.createPlan("plan_basic", 100, 30, 2)
	s.createCustomer("cust_1")

	inv, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID: "cust_1",
		PlanID:     "plan_basic",
	})
	s.Require().NoError(err)
	s.invoiceID = inv.ID
	s.GetPublisher().Clear()
}

func (s *PaymentProcessorSuite) pay(transactionID string) (*dto.PaymentReceipt, error) {
	return s.payments.InitiatePayment(s.GetContext(), dto.InitiatePaymentRequest{
		InvoiceID:     s.invoiceID,
		PaymentMethod: string(types.PaymentMethodCreditCard),
		TransactionID: transactionID,
	})
}

func (s *PaymentProcessorSuite) TestInitiatePayment() {
	receipt, err := s.pay("TX1")
	s.Require().NoError(err)

	s.Equal(types.PaymentStatusPaid, receipt.PaymentStatus)
	s.Equal(types.TransactionTypeCharge, receipt.TransactionType)
	s.True(decimal.NewFromInt(100).Equal(receipt.Amount))
	s.Equal("Customer cust_1", receipt.CustomerName)

	inv, err := s.invoices.GetInvoice(s.GetContext(), s.invoiceID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, inv.InvoiceStatus)

	cust := s.getCustomer("cust_1")
	s.Equal("plan_basic", cust.GetActivePlanID())
	s.Equal(types.CustomerSubscriptionStatusActive, cust.SubscriptionStatus)
	s.Equal(string(types.PaymentMethodCreditCard), cust.ActivePaymentMethod)

	s.Equal([]types.NotificationType{types.NotificationTypePaymentSuccess}, s.notificationTypes())
}

func (s *PaymentProcessorSuite) TestInitiatePaymentIsIdempotent() {
	first, err := s.pay("TX1")
	s.Require().NoError(err)
	calls := s.settler.calls

	second, err := s.pay("TX1")
	s.Require().NoError(err)
	s.Equal(first.PaymentID, second.PaymentID)
	s.Equal(types.PaymentStatusPaid, second.PaymentStatus)
	s.Equal(calls, s.settler.calls)

	count, err := s.GetStores().PaymentRepo.Count(s.GetContext(), types.NewNoLimitPaymentFilter())
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *PaymentProcessorSuite) TestInitiatePaymentRejectsInvalidRequests() {
	_, err := s.payments.InitiatePayment(s.GetContext(), dto.InitiatePaymentRequest{
		InvoiceID:     s.invoiceID,
		PaymentMethod: "CASH",
		TransactionID: "TX1",
	})
	s.True(ierr.IsValidation(err))

	_, err = s.payments.InitiatePayment(s.GetContext(), dto.InitiatePaymentRequest{
		InvoiceID:     "inv_missing",
		PaymentMethod: string(types.PaymentMethodCard),
		TransactionID: "TX1",
	})
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentProcessorSuite) TestInitiatePaymentOnPaidOrCancelledInvoice() {
	_, err := s.pay("TX1")
	s.Require().NoError(err)

	_, err = s.pay("TX2")
	s.True(ierr.IsInvalidOperation(err))

	other, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID: "cust_1",
		PlanID:     "plan_basic",
	})
	s.Require().NoError(err)

	_, err = s.payments.InitiatePayment(s.GetContext(), dto.InitiatePaymentRequest{
		InvoiceID:     other.ID,
		PaymentMethod: string(types.PaymentMethodCard),
		TransactionID: "TX1",
	})
	s.True(ierr.IsValidation(err), "a transaction id cannot be reused for another invoice")

	_, err = s.invoices.CancelInvoice(s.GetContext(), other.ID)
	s.Require().NoError(err)

	_, err = s.payments.InitiatePayment(s.GetContext(), dto.InitiatePaymentRequest{
		InvoiceID:     other.ID,
		PaymentMethod: string(types.PaymentMethodCard),
		TransactionID: "TX3",
	})
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PaymentProcessorSuite) TestSettlementFailureIsRetryable() {
	s.settler.down = true

	_, err := s.pay("TX1")
	s.Require().Error(err)
	s.True(ierr.IsHTTPClient(err))

	pending, err := s.GetStores().PaymentRepo.GetByTransactionID(s.GetContext(), "TX1")
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusPending, pending.PaymentStatus)

	inv, err := s.invoices.GetInvoice(s.GetContext(), s.invoiceID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPending, inv.InvoiceStatus)
	s.False(s.getCustomer("cust_1").HasActivePlan())
	s.Contains(s.notificationTypes(), types.NotificationTypePaymentFailure)

	_, err = s.pay("TX2")
	s.True(ierr.IsInvalidOperation(err), "a second transaction cannot race the pending one")

	s.settler.down = false
	receipt, err := s.pay("TX1")
	s.Require().NoError(err)
	s.Equal(pending.ID, receipt.PaymentID)
	s.Equal(types.PaymentStatusPaid, receipt.PaymentStatus)
	s.Equal("plan_basic", s.getCustomer("cust_1").GetActivePlanID())
}

// staleCountPayments reports no open charges, like a concurrent reservation
// that has not committed when the count runs
type staleCountPayments struct {
	payment.Repository
}

func (staleCountPayments) Count(context.Context, *types.PaymentFilter) (int, error) {
	return 0, nil
}

func (s *PaymentProcessorSuite) TestSecondChargeIsRejectedByStore() {
	s.settler.down = true
	_, err := s.pay("TX_A")
	s.Require().True(ierr.IsHTTPClient(err))
	s.settler.down = false

	params := s.params
	params.PaymentRepo = staleCountPayments{Repository: s.GetStores().PaymentRepo}
	racing := NewPaymentProcessorService(params, s.settler)

	calls := s.settler.calls
	_, err = racing.InitiatePayment(s.GetContext(), dto.InitiatePaymentRequest{
		InvoiceID:     s.invoiceID,
		PaymentMethod: string(types.PaymentMethodCreditCard),
		TransactionID: "TX_B",
	})
	s.True(ierr.IsInvalidOperation(err), "got %v", err)
	s.Equal(calls, s.settler.calls)

	filter := types.NewNoLimitPaymentFilter()
	filter.InvoiceID = s.invoiceID
	filter.TransactionTypes = []types.TransactionType{types.TransactionTypeCharge}
	charges, err := s.GetStores().PaymentRepo.List(s.GetContext(), filter)
	s.Require().NoError(err)
	s.Require().Len(charges, 1)
	s.Equal("TX_A", charges[0].TransactionID)
}

func (s *PaymentProcessorSuite) TestRefund() {
	_, err := s.pay("TX1")
	s.Require().NoError(err)

	refund, err := s.payments.RefundPayment(s.GetContext(), dto.RefundPaymentRequest{
		TransactionID: "TX1",
		Reason:        "customer request",
	})
	s.Require().NoError(err)
	s.Equal("REF_TX1", refund.TransactionID)
	s.Equal("TX1", refund.ParentTransactionID)
	s.Equal(types.TransactionTypeRefund, refund.TransactionType)
	s.Equal(types.PaymentStatusRefunded, refund.PaymentStatus)
	s.True(decimal.NewFromInt(-100).Equal(refund.Amount))
	s.Equal("customer request", refund.Reason)

	original, err := s.payments.GetPaymentByTransactionID(s.GetContext(), "TX1")
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusRefunded, original.PaymentStatus)
	s.Contains(s.notificationTypes(), types.NotificationTypePaymentRefunded)

	_, err = s.payments.RefundPayment(s.GetContext(), dto.RefundPaymentRequest{TransactionID: "TX1"})
	s.True(ierr.IsInvalidOperation(err), "double refund")

	_, err = s.payments.RefundPayment(s.GetContext(), dto.RefundPaymentRequest{TransactionID: "REF_TX1"})
	s.True(ierr.IsInvalidOperation(err), "a refund row is not refundable")

	_, err = s.payments.RefundPayment(s.GetContext(), dto.RefundPaymentRequest{TransactionID: "TX_UNKNOWN"})
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentProcessorSuite) TestRefundOfPendingPaymentIsRejected() {
	s.settler.down = true
	_, err := s.pay("TX1")
	s.Require().Error(err)

	_, err = s.payments.RefundPayment(s.GetContext(), dto.RefundPaymentRequest{TransactionID: "TX1"})
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PaymentProcessorSuite) TestChargebacks() {
	_, err := s.pay("TX1")
	s.Require().NoError(err)

	_, err = s.payments.ProcessChargeback(s.GetContext(), dto.ChargebackRequest{
		TransactionID: "TX1",
		Amount:        decimal.NewFromInt(150),
	})
	s.True(ierr.IsValidation(err), "over-amount chargeback")

	_, err = s.payments.ProcessChargeback(s.GetContext(), dto.ChargebackRequest{
		TransactionID: "TX1",
		Amount:        decimal.Zero,
	})
	s.True(ierr.IsValidation(err))

	first, err := s.payments.ProcessChargeback(s.GetContext(), dto.ChargebackRequest{
		TransactionID: "TX1",
		Reason:        "disputed",
		Amount:        decimal.NewFromInt(30),
	})
	s.Require().NoError(err)
	s.Equal("CB_TX1", first.TransactionID)
	s.Equal(types.PaymentStatusChargeback, first.PaymentStatus)
	s.True(decimal.NewFromInt(-30).Equal(first.Amount))

	original, err := s.payments.GetPaymentByTransactionID(s.GetContext(), "TX1")
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusPaid, original.PaymentStatus, "partial chargeback leaves the payment paid")

	_, err = s.payments.ProcessChargeback(s.GetContext(), dto.ChargebackRequest{
		TransactionID: "TX1",
		Amount:        decimal.NewFromInt(71),
	})
	s.True(ierr.IsValidation(err), "cumulative chargebacks cannot exceed the payment")

	second, err := s.payments.ProcessChargeback(s.GetContext(), dto.ChargebackRequest{
		TransactionID: "TX1",
		Amount:        decimal.NewFromInt(70),
	})
	s.Require().NoError(err)
	s.Equal("CB_TX1_2", second.TransactionID)

	original, err = s.payments.GetPaymentByTransactionID(s.GetContext(), "TX1")
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusChargeback, original.PaymentStatus)

	_, err = s.payments.RefundPayment(s.GetContext(), dto.RefundPaymentRequest{TransactionID: "TX1"})
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PaymentProcessorSuite) TestRefundAfterPartialChargeback() {
	_, err := s.pay("TX1")
	s.Require().NoError(err)

	_, err = s.payments.ProcessChargeback(s.GetContext(), dto.ChargebackRequest{
		TransactionID: "TX1",
		Amount:        decimal.NewFromInt(40),
	})
	s.Require().NoError(err)

	refund, err := s.payments.RefundPayment(s.GetContext(), dto.RefundPaymentRequest{TransactionID: "TX1"})
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(-60).Equal(refund.Amount))
}

func (s *PaymentProcessorSuite) TestListPaymentsAndMethods() {
	_, err := s.pay("TX1")
	s.Require().NoError(err)
	_, err = s.payments.RefundPayment(s.GetContext(), dto.RefundPaymentRequest{TransactionID: "TX1"})
	s.Require().NoError(err)

	filter := types.NewPaymentFilter()
	filter.InvoiceID = s.invoiceID
	list, err := s.payments.ListPayments(s.GetContext(), filter)
	s.Require().NoError(err)
	s.Len(list.Items, 2)
	for _, item := range list.Items {
		s.Equal("Customer cust_1", item.CustomerName)
	}

	methods := s.payments.ListPaymentMethods(s.GetContext())
	s.Len(methods.Items, len(types.SupportedPaymentMethods()))
	s.Equal("Credit Card", methods.Items[0].DisplayName)
}

// TestEndToEnd walks one customer from invoice to refund
func (s *PaymentProcessorSuite) TestEndToEnd() {
	s.createDiscount("SAVE10", types.DiscountTypePercentage, 10, 30*24*time.Hour)

	invoiceDate := s.GetNow()
	inv, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID:   "cust_1",
		PlanID:       "plan_basic",
		InvoiceDate:  &invoiceDate,
		DiscountCode: "SAVE10",
	})
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(90).Equal(inv.Amount))
	s.True(invoiceDate.AddDate(0, 0, 30).Equal(inv.DueDate))
	s.Equal(types.InvoiceStatusPending, inv.InvoiceStatus)
	s.Require().NotNil(inv.Discount)
	s.Equal("SAVE10", inv.Discount.Code)

	receipt, err := s.payments.InitiatePayment(s.GetContext(), dto.InitiatePaymentRequest{
		InvoiceID:     inv.ID,
		PaymentMethod: string(types.PaymentMethodCard),
		TransactionID: "TX_E2E",
	})
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusPaid, receipt.PaymentStatus)
	s.True(decimal.NewFromInt(90).Equal(receipt.Amount))

	paid, err := s.invoices.GetInvoice(s.GetContext(), inv.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, paid.InvoiceStatus)
	s.Equal("plan_basic", s.getCustomer("cust_1").GetActivePlanID())

	refund, err := s.payments.RefundPayment(s.GetContext(), dto.RefundPaymentRequest{TransactionID: "TX_E2E"})
	s.Require().NoError(err)
	s.Equal("REF_TX_E2E", refund.TransactionID)
	s.True(decimal.NewFromInt(-90).Equal(refund.Amount))

	original, err := s.payments.GetPaymentByTransactionID(s.GetContext(), "TX_E2E")
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusRefunded, original.PaymentStatus)
}
