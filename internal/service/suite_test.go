package service

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/customer"
	"github.com/flexprice/subscription-billing/internal/domain/discount"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/settlement"
	"github.com/flexprice/subscription-billing/internal/testutil"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// billingTestSuite wires every service against the in-memory stores
type billingTestSuite struct {
	testutil.BaseServiceTestSuite

	params        ServiceParams
	plans         PlanService
	customers     CustomerService
	discounts     DiscountService
	invoices      InvoiceService
	payments      PaymentProcessorService
	subscriptions SubscriptionService
	billing       BillingService
	sessions      SessionService
	notifications NotificationService
	usage         UsageService

	settler *switchableSettler
}

func (s *billingTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupServices()
}

func (s *billingTestSuite) setupServices() {
	stores := s.GetStores()
	s.params = ServiceParams{
		Logger:                s.GetLogger(),
		Config:                s.GetConfig(),
		DB:                    s.GetDB(),
		Cache:                 s.GetCache(),
		Metrics:               s.GetMetrics(),
		PlanRepo:              stores.PlanRepo,
		CustomerRepo:          stores.CustomerRepo,
		DiscountRepo:          stores.DiscountRepo,
		InvoiceRepo:           stores.InvoiceRepo,
		PaymentRepo:           stores.PaymentRepo,
		SubRepo:               stores.SubscriptionRepo,
		NotificationRepo:      stores.NotificationRepo,
		UsageRepo:             stores.UsageRepo,
		NotificationPublisher: s.GetPublisher(),
		SessionRegistry:       s.GetSessionRegistry(),
	}

	s.plans = NewPlanService(s.params)
	s.customers = NewCustomerService(s.params)
	s.discounts = NewDiscountService(s.params)
	s.invoices = NewInvoiceService(s.params)
	s.settler = &switchableSettler{
		Settler: settlement.NewLocalSettler(s.invoices, s.GetLogger(), s.GetMetrics()),
	}
	s.payments = NewPaymentProcessorService(s.params, s.settler)
	s.subscriptions = NewSubscriptionService(s.params)
	s.billing = NewBillingService(s.params)
	s.sessions = NewSessionService(s.params)
	s.notifications = NewNotificationService(s.params)
	s.usage = NewUsageService(s.params)
}

// switchableSettler fails settlement like an unreachable invoice service while down is set
type switchableSettler struct {
	settlement.Settler
	down  bool
	calls int
}

func (f *switchableSettler) MarkInvoicePaid(ctx context.Context, invoiceID string) error {
	f.calls++
	if f.down {
		return ierr.NewError("invoice service unavailable").
			WithHint("Invoice settlement failed").
			Mark(ierr.ErrHTTPClient)
	}
	return f.Settler.MarkInvoicePaid(ctx, invoiceID)
}

func (s *billingTestSuite) createPlan(id string, price int64, durationDays, usageLimit int) *plan.Plan {
	p := &plan.Plan{
		ID:           id,
		Name:         "Plan " + id,
		Price:        decimal.NewFromInt(price),
		DurationDays: durationDays,
		UsageLimit:   usageLimit,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	return p
}

func (s *billingTestSuite) createCustomer(id string) *customer.Customer {
	c := &customer.Customer{
		ID:                 id,
		Name:               "Customer " + id,
		Email:              id + "@example.com",
		SubscriptionStatus: types.CustomerSubscriptionStatusInactive,
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().CustomerRepo.Create(s.GetContext(), c))
	return c
}

// createDiscount stores a discount valid from a day before now until window after now
func (s *billingTestSuite) createDiscount(code string, discountType types.DiscountType, amount int64, window time.Duration) *discount.Discount {
	d := &discount.Discount{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT),
		Name:           code,
		Code:           code,
		DiscountType:   discountType,
		Amount:         decimal.NewFromInt(amount),
		StartDate:      s.GetNow().Add(-24 * time.Hour),
		EndDate:        s.GetNow().Add(window),
		DiscountStatus: types.DiscountStatusActive,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().DiscountRepo.Create(s.GetContext(), d))
	return d
}

func (s *billingTestSuite) getCustomer(id string) *customer.Customer {
	c, err := s.GetStores().CustomerRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	return c
}

func (s *billingTestSuite) notificationTypes() []types.NotificationType {
	return lo.Map(s.GetPublisher().Events(), func(e *types.NotificationEvent, _ int) types.NotificationType {
		return e.Type
	})
}
