package service

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/invoice"
	"github.com/flexprice/subscription-billing/internal/domain/notification"
	"github.com/flexprice/subscription-billing/internal/domain/payment"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/settlement"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PaymentProcessorService moves payments through their lifecycle.
//
// A charge is first reserved as a PENDING row, then the invoice is settled
// outside the local transaction, then the payment and the customer's plan are
// confirmed. A failed settlement leaves the reservation in place so the caller
// can retry with the same transaction id.
type PaymentProcessorService interface {
	InitiatePayment(ctx context.Context, req dto.InitiatePaymentRequest) (*dto.PaymentReceipt, error)
	RefundPayment(ctx context.Context, req dto.RefundPaymentRequest) (*dto.PaymentReceipt, error)
	ProcessChargeback(ctx context.Context, req dto.ChargebackRequest) (*dto.PaymentReceipt, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*dto.PaymentReceipt, error)
	ListPayments(ctx context.Context, filter *types.PaymentFilter) (*dto.ListPaymentsResponse, error)
	ListPaymentMethods(ctx context.Context) *dto.ListPaymentMethodsResponse
}

type paymentProcessor struct {
	ServiceParams
	settler settlement.Settler
}

func NewPaymentProcessorService(params ServiceParams, settler settlement.Settler) PaymentProcessorService {
	return &paymentProcessor{
		ServiceParams: params,
		settler:       settler,
	}
}

func (s *paymentProcessor) InitiatePayment(ctx context.Context, req dto.InitiatePaymentRequest) (*dto.PaymentReceipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pending, err := s.PaymentRepo.GetByTransactionID(ctx, req.TransactionID)
	switch {
	case err == nil:
		if pending.TransactionType != types.TransactionTypeCharge || pending.InvoiceID != req.InvoiceID {
			return nil, ierr.NewError("transaction id already used").
				WithHint("Transaction ID is already used by another payment").
				WithReportableDetails(map[string]any{
					"transaction_id": req.TransactionID,
					"invoice_id":     pending.InvoiceID,
				}).
				Mark(ierr.ErrValidation)
		}
		if !pending.IsPendingCharge() {
			s.Logger.Infow("payment already processed, returning existing receipt",
				"transaction_id", req.TransactionID,
				"payment_id", pending.ID,
			)
			return s.receipt(ctx, pending), nil
		}
		s.Logger.Infow("resuming pending payment", "transaction_id", req.TransactionID)
	case ierr.IsNotFound(err):
		pending, err = s.reserve(ctx, req)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.settler.MarkInvoicePaid(ctx, pending.InvoiceID); err != nil {
		s.Metrics.RecordPayment(string(types.TransactionTypeCharge), "failed", pending.Amount.InexactFloat64())
		s.notifyFailure(ctx, pending, err)
		return nil, err
	}

	paid, planName, err := s.confirm(ctx, pending, req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	s.Metrics.RecordPayment(string(paid.TransactionType), string(paid.PaymentStatus), paid.Amount.InexactFloat64())
	s.Logger.Infow("payment completed",
		"payment_id", paid.ID,
		"invoice_id", paid.InvoiceID,
		"transaction_id", paid.TransactionID,
		"amount", paid.Amount.String(),
	)

	receipt := s.receipt(ctx, paid)
	if cust, err := s.CustomerRepo.Get(ctx, paid.CustomerID); err == nil {
		notifyCustomer(ctx, s.ServiceParams, cust, types.NotificationTypePaymentSuccess,
			notification.PaymentSuccessMessage(planName, paid.Amount))
	}
	return receipt, nil
}

// reserve writes the PENDING charge for the invoice
func (s *paymentProcessor) reserve(ctx context.Context, req dto.InitiatePaymentRequest) (*payment.Payment, error) {
	var p *payment.Payment
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.Get(ctx, req.InvoiceID)
		if err != nil {
			return err
		}

		if err := s.checkPayable(ctx, inv); err != nil {
			return err
		}

		p = &payment.Payment{
			ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
			InvoiceID:       inv.ID,
			CustomerID:      inv.CustomerID,
			TransactionType: types.TransactionTypeCharge,
			Amount:          inv.Amount,
			PaymentMethod:   req.PaymentMethod,
			PaymentStatus:   types.PaymentStatusPending,
			TransactionID:   req.TransactionID,
			PaymentDate:     time.Now().UTC(),
			BaseModel:       types.GetDefaultBaseModel(ctx),
		}
		if err := p.Validate(); err != nil {
			return err
		}
		return s.PaymentRepo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Debugw("reserved payment", "payment_id", p.ID, "transaction_id", p.TransactionID)
	return p, nil
}

// checkPayable rejects invoices that are cancelled, paid or already being paid by another transaction
func (s *paymentProcessor) checkPayable(ctx context.Context, inv *invoice.Invoice) error {
	if inv.IsCancelled() {
		return ierr.NewError("invoice is cancelled").
			WithHint("Cancelled invoices cannot be paid").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if inv.IsPaid() {
		return ierr.NewError("invoice already paid").
			WithHint("Invoice is already paid").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	filter := types.NewNoLimitPaymentFilter()
	filter.InvoiceID = inv.ID
	filter.TransactionTypes = []types.TransactionType{types.TransactionTypeCharge}
	filter.PaymentStatus = []types.PaymentStatus{types.PaymentStatusPending, types.PaymentStatusPaid}

	inFlight, err := s.PaymentRepo.Count(ctx, filter)
	if err != nil {
		return err
	}
	if inFlight > 0 {
		return payment.ErrInvoiceHasOpenCharge(inv.ID, nil)
	}
	return nil
}

// confirm marks the charge paid and points the customer at the paid plan
func (s *paymentProcessor) confirm(ctx context.Context, pending *payment.Payment, paymentMethod string) (*payment.Payment, string, error) {
	var (
		p        *payment.Payment
		planName string
	)

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.Get(ctx, pending.InvoiceID)
		if err != nil {
			return err
		}
		if !inv.IsPaid() {
			inv.InvoiceStatus = types.InvoiceStatusPaid
			inv.Touch(ctx)
			if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
				return err
			}
		}

		cust, err := s.CustomerRepo.Get(ctx, inv.CustomerID)
		if err != nil {
			return err
		}

		planID := inv.GetPlanID()
		if planID == "" {
			planID = cust.GetActivePlanID()
		}
		if planID == "" {
			return ierr.NewError("no plan to activate").
				WithHint("Invoice and customer do not reference a plan").
				WithReportableDetails(map[string]any{
					"invoice_id":  inv.ID,
					"customer_id": cust.ID,
				}).
				Mark(ierr.ErrNotFound)
		}
		paidPlan, err := lookupPlan(ctx, s.ServiceParams, planID)
		if err != nil {
			return err
		}
		planName = paidPlan.Name

		p, err = s.PaymentRepo.GetByTransactionID(ctx, pending.TransactionID)
		if err != nil {
			return err
		}
		if p.IsPendingCharge() {
			p.PaymentStatus = types.PaymentStatusPaid
			p.PaymentDate = time.Now().UTC()
			p.Touch(ctx)
			if err := s.PaymentRepo.Update(ctx, p); err != nil {
				return err
			}
		}

		method := paymentMethod
		if method == "" {
			method = p.PaymentMethod
		}
		cust.Activate(paidPlan.ID, method)
		cust.Touch(ctx)
		return s.CustomerRepo.Update(ctx, cust)
	})
	if err != nil {
		return nil, "", err
	}
	return p, planName, nil
}

func (s *paymentProcessor) notifyFailure(ctx context.Context, p *payment.Payment, cause error) {
	s.Logger.Warnw("invoice settlement failed, payment left pending",
		"transaction_id", p.TransactionID,
		"invoice_id", p.InvoiceID,
		"error", cause,
	)

	cust, err := s.CustomerRepo.Get(ctx, p.CustomerID)
	if err != nil {
		return
	}
	planName := ""
	if inv, err := s.InvoiceRepo.Get(ctx, p.InvoiceID); err == nil {
		planName = inv.PlanName
	}
	notifyCustomer(ctx, s.ServiceParams, cust, types.NotificationTypePaymentFailure,
		notification.PaymentFailureMessage(planName, p.Amount, "settlement failed"))
}

func (s *paymentProcessor) RefundPayment(ctx context.Context, req dto.RefundPaymentRequest) (*dto.PaymentReceipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var refund *payment.Payment
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		original, err := s.settledCharge(ctx, req.TransactionID, "refunded")
		if err != nil {
			return err
		}

		chargedBack, _, err := s.chargebacksOf(ctx, original)
		if err != nil {
			return err
		}

		refund = newReversal(ctx, original, types.TransactionTypeRefund, types.PaymentStatusRefunded,
			payment.RefundTransactionID(original.TransactionID), original.Amount.Sub(chargedBack), req.Reason)
		if err := refund.Validate(); err != nil {
			return err
		}
		if err := s.PaymentRepo.Create(ctx, refund); err != nil {
			return err
		}

		original.PaymentStatus = types.PaymentStatusRefunded
		original.Touch(ctx)
		return s.PaymentRepo.Update(ctx, original)
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.RecordPayment(string(refund.TransactionType), string(refund.PaymentStatus), refund.Amount.InexactFloat64())
	s.Logger.Infow("refunded payment",
		"transaction_id", req.TransactionID,
		"refund_transaction_id", refund.TransactionID,
		"amount", refund.Amount.String(),
	)

	if cust, err := s.CustomerRepo.Get(ctx, refund.CustomerID); err == nil {
		notifyCustomer(ctx, s.ServiceParams, cust, types.NotificationTypePaymentRefunded,
			notification.PaymentRefundedMessage(refund.Amount, req.TransactionID))
	}
	return s.receipt(ctx, refund), nil
}

func (s *paymentProcessor) ProcessChargeback(ctx context.Context, req dto.ChargebackRequest) (*dto.PaymentReceipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var chargeback *payment.Payment
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		original, err := s.settledCharge(ctx, req.TransactionID, "charged back")
		if err != nil {
			return err
		}

		chargedBack, count, err := s.chargebacksOf(ctx, original)
		if err != nil {
			return err
		}

		remaining := original.Amount.Sub(chargedBack)
		if req.Amount.GreaterThan(remaining) {
			return ierr.NewError("chargeback amount exceeds payment amount").
				WithHint("Chargeback amount cannot exceed the amount left on the payment").
				WithReportableDetails(map[string]any{
					"transaction_id": req.TransactionID,
					"amount":         req.Amount.String(),
					"remaining":      remaining.String(),
				}).
				Mark(ierr.ErrValidation)
		}

		chargeback = newReversal(ctx, original, types.TransactionTypeChargeback, types.PaymentStatusChargeback,
			payment.ChargebackTransactionID(original.TransactionID, count+1), req.Amount, req.Reason)
		if err := chargeback.Validate(); err != nil {
			return err
		}
		if err := s.PaymentRepo.Create(ctx, chargeback); err != nil {
			return err
		}

		// partial chargebacks leave the original paid until the full amount is taken back
		if chargedBack.Add(req.Amount).Equal(original.Amount) {
			original.PaymentStatus = types.PaymentStatusChargeback
			original.Touch(ctx)
			return s.PaymentRepo.Update(ctx, original)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.RecordPayment(string(chargeback.TransactionType), string(chargeback.PaymentStatus), chargeback.Amount.InexactFloat64())
	s.Logger.Infow("processed chargeback",
		"transaction_id", req.TransactionID,
		"chargeback_transaction_id", chargeback.TransactionID,
		"amount", chargeback.Amount.String(),
	)
	return s.receipt(ctx, chargeback), nil
}

// settledCharge loads the charge behind transactionID and requires it to be PAID
func (s *paymentProcessor) settledCharge(ctx context.Context, transactionID, action string) (*payment.Payment, error) {
	original, err := s.PaymentRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if !original.IsSettledCharge() {
		return nil, ierr.NewErrorf("payment cannot be %s", action).
			WithHintf("Only paid payments can be %s", action).
			WithReportableDetails(map[string]any{
				"transaction_id":   transactionID,
				"payment_status":   original.PaymentStatus,
				"transaction_type": original.TransactionType,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return original, nil
}

// chargebacksOf returns the amount already charged back on original and the number of chargebacks
func (s *paymentProcessor) chargebacksOf(ctx context.Context, original *payment.Payment) (decimal.Decimal, int, error) {
	filter := types.NewNoLimitPaymentFilter()
	filter.ParentTransactionID = original.TransactionID
	filter.TransactionTypes = []types.TransactionType{types.TransactionTypeChargeback}

	chargebacks, err := s.PaymentRepo.List(ctx, filter)
	if err != nil {
		return decimal.Zero, 0, err
	}

	total := lo.Reduce(chargebacks, func(sum decimal.Decimal, p *payment.Payment, _ int) decimal.Decimal {
		return sum.Add(p.Amount)
	}, decimal.Zero)
	return total, len(chargebacks), nil
}

func newReversal(
	ctx context.Context,
	original *payment.Payment,
	transactionType types.TransactionType,
	status types.PaymentStatus,
	transactionID string,
	amount decimal.Decimal,
	reason string,
) *payment.Payment {
	return &payment.Payment{
		ID:                  types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		InvoiceID:           original.InvoiceID,
		CustomerID:          original.CustomerID,
		TransactionType:     transactionType,
		Amount:              amount,
		PaymentMethod:       original.PaymentMethod,
		PaymentStatus:       status,
		TransactionID:       transactionID,
		ParentTransactionID: lo.ToPtr(original.TransactionID),
		Reason:              lo.EmptyableToPtr(reason),
		PaymentDate:         time.Now().UTC(),
		BaseModel:           types.GetDefaultBaseModel(ctx),
	}
}

func (s *paymentProcessor) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*dto.PaymentReceipt, error) {
	p, err := s.PaymentRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return s.receipt(ctx, p), nil
}

func (s *paymentProcessor) ListPayments(ctx context.Context, filter *types.PaymentFilter) (*dto.ListPaymentsResponse, error) {
	if filter == nil {
		filter = types.NewPaymentFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	payments, err := s.PaymentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.PaymentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	items := lo.Map(payments, func(p *payment.Payment, _ int) *dto.PaymentReceipt {
		name, ok := names[p.CustomerID]
		if !ok {
			name = s.customerName(ctx, p.CustomerID)
			names[p.CustomerID] = name
		}
		return dto.NewPaymentReceipt(p, name)
	})
	resp := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

func (s *paymentProcessor) ListPaymentMethods(_ context.Context) *dto.ListPaymentMethodsResponse {
	return &dto.ListPaymentMethodsResponse{
		Items: lo.Map(types.SupportedPaymentMethods(), func(m types.PaymentMethod, _ int) dto.PaymentMethodResponse {
			return dto.PaymentMethodResponse{Code: m, DisplayName: m.DisplayName()}
		}),
	}
}

func (s *paymentProcessor) receipt(ctx context.Context, p *payment.Payment) *dto.PaymentReceipt {
	return dto.NewPaymentReceipt(p, s.customerName(ctx, p.CustomerID))
}

func (s *paymentProcessor) customerName(ctx context.Context, customerID string) string {
	cust, err := s.CustomerRepo.Get(ctx, customerID)
	if err != nil {
		s.Logger.Warnw("customer not found for payment receipt", "customer_id", customerID, "error", err)
		return ""
	}
	return cust.Name
}
