package service

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/customer"
	"github.com/flexprice/subscription-billing/internal/domain/invoice"
	"github.com/flexprice/subscription-billing/internal/domain/notification"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

// BillingService covers customer level billing operations that span
// subscriptions and invoices.
type BillingService interface {
	// RenewSubscription reactivates the plan of the customer's latest invoice and bills a new period
	RenewSubscription(ctx context.Context, customerID string) (*dto.InvoiceResponse, error)
	// GetBillingCycleInfo returns the calendar month cycle of an active customer at now
	GetBillingCycleInfo(ctx context.Context, customerID string, now time.Time) (*dto.BillingCycleResponse, error)
	// FixCustomerActivePlan re-derives the customer's active plan from their subscriptions and invoices
	FixCustomerActivePlan(ctx context.Context, customerID string) (*dto.CustomerResponse, error)
}

type billingService struct {
	ServiceParams
	invoices *invoiceService
}

func NewBillingService(params ServiceParams) BillingService {
	return &billingService{
		ServiceParams: params,
		invoices: &invoiceService{
			ServiceParams: params,
			discounts:     NewDiscountService(params),
		},
	}
}

func (s *billingService) RenewSubscription(ctx context.Context, customerID string) (*dto.InvoiceResponse, error) {
	var (
		inv  *invoice.Invoice
		cust *customer.Customer
		p    *plan.Plan
	)

	now := time.Now().UTC()
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		cust, err = s.CustomerRepo.Get(ctx, customerID)
		if err != nil {
			return err
		}

		latest, err := s.InvoiceRepo.GetLatestWithPlan(ctx, cust.ID)
		if err != nil {
			if ierr.IsNotFound(err) {
				return ierr.WithError(err).
					WithHint("No previous subscription found to renew").
					WithReportableDetails(map[string]any{
						"customer_id": cust.ID,
					}).
					Mark(ierr.ErrNotFound)
			}
			return err
		}

		p, err = lookupPlan(ctx, s.ServiceParams, latest.GetPlanID())
		if err != nil {
			return err
		}

		paymentMethod, err := s.invoices.paymentMethodFor(ctx, cust.ID, p.ID)
		if err != nil {
			return err
		}
		if paymentMethod == types.DefaultInvoicePaymentMethod && cust.ActivePaymentMethod != "" {
			paymentMethod = cust.ActivePaymentMethod
		}

		cust.Activate(p.ID, "")
		cust.Touch(ctx)
		if err := s.CustomerRepo.Update(ctx, cust); err != nil {
			return err
		}

		inv = newInvoice(ctx, cust, p, now, paymentMethod, nil)
		return s.InvoiceRepo.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.RecordInvoiceGenerated()
	s.Logger.Infow("renewed subscription",
		"customer_id", cust.ID,
		"plan_id", p.ID,
		"invoice_id", inv.ID,
		"amount", inv.Amount.String(),
	)

	notifyCustomer(ctx, s.ServiceParams, cust, types.NotificationTypeSubscriptionRenewal,
		notification.SubscriptionRenewalMessage(p.Name, inv.Amount))

	return dto.NewInvoiceResponse(inv, now), nil
}

func (s *billingService) GetBillingCycleInfo(ctx context.Context, customerID string, now time.Time) (*dto.BillingCycleResponse, error) {
	cust, err := s.CustomerRepo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if cust.SubscriptionStatus != types.CustomerSubscriptionStatusActive {
		return nil, ierr.NewError("no active subscription").
			WithHint("Customer has no active subscription").
			WithReportableDetails(map[string]any{
				"customer_id":         cust.ID,
				"subscription_status": cust.SubscriptionStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	cycle := types.CalendarMonthCycle(now)
	resp := &dto.BillingCycleResponse{
		CustomerID:      cust.ID,
		CycleStart:      cycle.Start,
		CycleEnd:        cycle.End,
		NextBillingDate: cycle.Next,
		DaysRemaining:   cycle.DaysRemaining,
	}

	latest, err := s.InvoiceRepo.GetLatestWithPlan(ctx, cust.ID)
	switch {
	case err == nil:
		resp.PlanID = latest.GetPlanID()
		resp.PlanName = latest.PlanName
		resp.PlanPrice = latest.PlanPrice
	case ierr.IsNotFound(err):
		if p, err := lookupPlan(ctx, s.ServiceParams, cust.GetActivePlanID()); err == nil {
			resp.PlanID = p.ID
			resp.PlanName = p.Name
			resp.PlanPrice = p.Price
		}
	default:
		return nil, err
	}
	return resp, nil
}

func (s *billingService) FixCustomerActivePlan(ctx context.Context, customerID string) (*dto.CustomerResponse, error) {
	var cust *customer.Customer
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		cust, err = s.CustomerRepo.Get(ctx, customerID)
		if err != nil {
			return err
		}

		planID, paymentMethod, err := s.derivePlan(ctx, cust.ID)
		if err != nil {
			return err
		}

		if planID == "" {
			s.Logger.Infow("no subscription or invoice to derive active plan from", "customer_id", cust.ID)
			return nil
		}
		if planID == cust.GetActivePlanID() && cust.SubscriptionStatus == types.CustomerSubscriptionStatusActive {
			return nil
		}

		s.Logger.Infow("fixing customer active plan",
			"customer_id", cust.ID,
			"previous_plan_id", cust.GetActivePlanID(),
			"plan_id", planID,
		)
		cust.Activate(planID, paymentMethod)
		cust.Touch(ctx)
		return s.CustomerRepo.Update(ctx, cust)
	})
	if err != nil {
		return nil, err
	}
	return &dto.CustomerResponse{Customer: cust}, nil
}

// derivePlan prefers the most recent active subscription, then the latest invoice with a plan
func (s *billingService) derivePlan(ctx context.Context, customerID string) (string, string, error) {
	filter := types.NewSubscriptionFilter()
	filter.Limit = lo.ToPtr(1)
	filter.CustomerID = customerID
	filter.SubscriptionStatus = []types.SubscriptionStatus{types.SubscriptionStatusActive}

	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return "", "", err
	}
	if len(subs) > 0 {
		return subs[0].PlanID, subs[0].PaymentMethod, nil
	}

	latest, err := s.InvoiceRepo.GetLatestWithPlan(ctx, customerID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return "", "", nil
		}
		return "", "", err
	}
	return latest.GetPlanID(), "", nil
}
