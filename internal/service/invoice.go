package service

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/customer"
	"github.com/flexprice/subscription-billing/internal/domain/discount"
	"github.com/flexprice/subscription-billing/internal/domain/invoice"
	"github.com/flexprice/subscription-billing/internal/domain/notification"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

type InvoiceService interface {
	GenerateInvoice(ctx context.Context, req dto.GenerateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
	ListUnpaidInvoices(ctx context.Context) (*dto.ListInvoicesResponse, error)
	// MarkInvoicePaid is the settlement callback. Paying a paid invoice is an invalid operation.
	MarkInvoicePaid(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	// MarkInvoicePaidIdempotent treats an already paid invoice as success
	MarkInvoicePaidIdempotent(ctx context.Context, id string) error
	CancelInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	// DeleteInvoice removes the invoice together with its payments
	DeleteInvoice(ctx context.Context, id string) error
}

type invoiceService struct {
	ServiceParams
	discounts DiscountService
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams: params,
		discounts:     NewDiscountService(params),
	}
}

func (s *invoiceService) GenerateInvoice(ctx context.Context, req dto.GenerateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	invoiceDate := req.GetInvoiceDate(now)

	cust, err := s.CustomerRepo.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	p, err := lookupPlan(ctx, s.ServiceParams, req.PlanID)
	if err != nil {
		return nil, err
	}

	d, err := s.resolveDiscount(ctx, req.DiscountCode, cust, invoiceDate)
	if err != nil {
		return nil, err
	}

	paymentMethod, err := s.paymentMethodFor(ctx, cust.ID, p.ID)
	if err != nil {
		return nil, err
	}

	inv := newInvoice(ctx, cust, p, invoiceDate, paymentMethod, d)
	if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.Metrics.RecordInvoiceGenerated()
	s.Logger.Infow("generated invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"customer_id", cust.ID,
		"plan_id", p.ID,
		"amount", inv.Amount.String(),
		"discount_applied", inv.HasDiscount(),
	)

	notifyCustomer(ctx, s.ServiceParams, cust, types.NotificationTypeInvoiceGenerated,
		notification.InvoiceGeneratedMessage(inv.InvoiceNumber, inv.Amount, inv.PlanName))

	return dto.NewInvoiceResponse(inv, now), nil
}

// resolveDiscount returns the discount to apply at invoiceDate, or nil when the
// code matches none of the customer's discounts or is not valid at that date.
func (s *invoiceService) resolveDiscount(ctx context.Context, code string, cust *customer.Customer, invoiceDate time.Time) (*discount.Discount, error) {
	d, err := s.discounts.Resolve(ctx, code, cust.ID)
	if err != nil || d == nil {
		return nil, err
	}

	if !d.IsValid(invoiceDate) {
		s.Logger.Infow("discount not valid at invoice date, charging full price",
			"discount_id", d.ID,
			"code", code,
			"invoice_date", invoiceDate,
		)
		return nil, nil
	}
	return d, nil
}

// paymentMethodFor returns the method of the customer's active subscription to the plan
func (s *invoiceService) paymentMethodFor(ctx context.Context, customerID, planID string) (string, error) {
	filter := types.NewSubscriptionFilter()
	filter.Limit = lo.ToPtr(1)
	filter.CustomerID = customerID
	filter.PlanID = planID
	filter.SubscriptionStatus = []types.SubscriptionStatus{types.SubscriptionStatusActive}

	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return "", err
	}
	if len(subs) == 0 || subs[0].PaymentMethod == "" {
		return types.DefaultInvoicePaymentMethod, nil
	}
	return subs[0].PaymentMethod, nil
}

// newInvoice prices a pending invoice of p for cust, applying d when given
func newInvoice(
	ctx context.Context,
	cust *customer.Customer,
	p *plan.Plan,
	invoiceDate time.Time,
	paymentMethod string,
	d *discount.Discount,
) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		InvoiceNumber: types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_INVOICE),
		CustomerID:    cust.ID,
		PlanID:        lo.ToPtr(p.ID),
		PlanName:      p.Name,
		PlanPrice:     p.Price,
		InvoiceDate:   invoiceDate,
		DueDate:       invoice.DueDateFor(invoiceDate, p.DurationDays),
		InvoiceStatus: types.InvoiceStatusPending,
		Amount:        p.Price,
		PaymentMethod: paymentMethod,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}

	if d != nil {
		discountAmount, displayAmount := d.Apply(p.Price)
		inv.Amount = d.ApplyDiscount(p.Price)
		inv.DiscountID = lo.ToPtr(d.ID)
		inv.DiscountCode = lo.ToPtr(d.Code)
		inv.DiscountType = lo.ToPtr(d.DiscountType)
		inv.DiscountValue = lo.ToPtr(displayAmount)
		inv.DiscountAmount = lo.ToPtr(discountAmount)
	}
	return inv
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	if id == "" {
		return nil, ierr.NewError("invoice_id is required").
			WithHint("Invoice ID is required").
			Mark(ierr.ErrValidation)
	}

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv, time.Now().UTC()), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	items := lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
		return dto.NewInvoiceResponse(inv, now)
	})
	resp := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

func (s *invoiceService) ListUnpaidInvoices(ctx context.Context) (*dto.ListInvoicesResponse, error) {
	filter := types.NewNoLimitInvoiceFilter()
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusPending}
	return s.ListInvoices(ctx, filter)
}

func (s *invoiceService) MarkInvoicePaid(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if inv.IsPaid() {
			return ierr.NewError("invoice already paid").
				WithHint("Invoice is already paid").
				WithReportableDetails(map[string]any{
					"invoice_id": id,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		return s.markPaid(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv, time.Now().UTC()), nil
}

func (s *invoiceService) MarkInvoicePaidIdempotent(ctx context.Context, id string) error {
	return s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if inv.IsPaid() {
			return nil
		}
		return s.markPaid(ctx, inv)
	})
}

func (s *invoiceService) markPaid(ctx context.Context, inv *invoice.Invoice) error {
	if inv.IsCancelled() {
		return ierr.NewError("invoice is cancelled").
			WithHint("Cancelled invoices cannot be paid").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	inv.InvoiceStatus = types.InvoiceStatusPaid
	inv.Touch(ctx)
	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return err
	}

	s.Logger.Infow("marked invoice paid", "invoice_id", inv.ID, "customer_id", inv.CustomerID)
	return nil
}

func (s *invoiceService) CancelInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.IsPaid() {
		return nil, ierr.NewError("invoice already paid").
			WithHint("Paid invoices cannot be cancelled, refund the payment instead").
			WithReportableDetails(map[string]any{
				"invoice_id": id,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if !inv.IsCancelled() {
		inv.InvoiceStatus = types.InvoiceStatusCancelled
		inv.Touch(ctx)
		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return nil, err
		}
		s.Logger.Infow("cancelled invoice", "invoice_id", id)
	}
	return dto.NewInvoiceResponse(inv, time.Now().UTC()), nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, id string) error {
	return s.DB.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.InvoiceRepo.Get(ctx, id); err != nil {
			return err
		}
		if err := s.PaymentRepo.DeleteByInvoiceID(ctx, id); err != nil {
			return err
		}
		if err := s.InvoiceRepo.Delete(ctx, id); err != nil {
			return err
		}
		s.Logger.Infow("deleted invoice with its payments", "invoice_id", id)
		return nil
	})
}
