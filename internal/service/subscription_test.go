package service

import (
	"testing"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SubscriptionServiceSuite struct {
	billingTestSuite
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.billingTestSuite.SetupTest()
	s.GetConfig().Billing.CancelClearsActivePlan = false
	s.createPlan("plan_basic", 100, 30, 2)
	s.createPlan("plan_pro", 250, 90, 5)
	s.createCustomer("cust_1")
}

func (s *SubscriptionServiceSuite) subscribe(planID string) *dto.SubscriptionResponse {
	resp, err := s.subscriptions.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID:    "cust_1",
		PlanID:        planID,
		PaymentMethod: string(types.PaymentMethodPaypal),
	})
	s.Require().NoError(err)
	return resp
}

func (s *SubscriptionServiceSuite) TestCreateSubscription() {
	resp := s.subscribe("plan_basic")

	s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
	s.True(resp.StartDate.AddDate(0, 0, 30).Equal(resp.EndDate))
	s.True(decimal.NewFromInt(100).Equal(resp.OriginalPrice))
	s.Equal("plan_basic", resp.Plan.ID)

	cust := s.getCustomer("cust_1")
	s.Equal("plan_basic", cust.GetActivePlanID())
	s.Equal(types.CustomerSubscriptionStatusActive, cust.SubscriptionStatus)

	_, err := s.subscriptions.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID:    "cust_1",
		PlanID:        "plan_basic",
		PaymentMethod: string(types.PaymentMethodPaypal),
	})
	s.True(ierr.IsInvalidOperation(err), "duplicate active subscription")

	_, err = s.subscriptions.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID:    "cust_1",
		PlanID:        "plan_missing",
		PaymentMethod: string(types.PaymentMethodPaypal),
	})
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionServiceSuite) TestCancelKeepsActivePlanByDefault() {
	sub := s.subscribe("plan_basic")

	cancelled, err := s.subscriptions.CancelSubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, cancelled.SubscriptionStatus)
	s.False(cancelled.EndDate.Before(s.GetNow()))

	s.Equal("plan_basic", s.getCustomer("cust_1").GetActivePlanID())
	s.Contains(s.notificationTypes(), types.NotificationTypeSubscriptionCancellation)

	_, err = s.subscriptions.CancelSubscription(s.GetContext(), sub.ID)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestCancelClearsActivePlanWhenConfigured() {
	s.GetConfig().Billing.CancelClearsActivePlan = true
	defer func() { s.GetConfig().Billing.CancelClearsActivePlan = false }()

	basic := s.subscribe("plan_basic")
	pro := s.subscribe("plan_pro")

	_, err := s.subscriptions.CancelSubscription(s.GetContext(), pro.ID)
	s.Require().NoError(err)
	s.Equal("plan_basic", s.getCustomer("cust_1").GetActivePlanID(), "falls back to the remaining subscription")

	_, err = s.subscriptions.CancelSubscription(s.GetContext(), basic.ID)
	s.Require().NoError(err)

	cust := s.getCustomer("cust_1")
	s.False(cust.HasActivePlan())
	s.Equal(types.CustomerSubscriptionStatusInactive, cust.SubscriptionStatus)
}

func (s *SubscriptionServiceSuite) TestChangeSubscriptionPlan() {
	_, err := s.subscriptions.ChangeSubscriptionPlan(s.GetContext(), dto.ChangePlanRequest{
		CustomerID: "cust_1",
		NewPlanID:  "plan_pro",
	})
	s.True(ierr.IsNotFound(err), "no active subscription")

	current := s.subscribe("plan_basic")

	_, err = s.subscriptions.ChangeSubscriptionPlan(s.GetContext(), dto.ChangePlanRequest{
		CustomerID: "cust_1",
		NewPlanID:  "plan_basic",
	})
	s.True(ierr.IsInvalidOperation(err), "same plan")

	next, err := s.subscriptions.ChangeSubscriptionPlan(s.GetContext(), dto.ChangePlanRequest{
		CustomerID: "cust_1",
		NewPlanID:  "plan_pro",
	})
	s.Require().NoError(err)
	s.Equal("plan_pro", next.PlanID)
	s.Equal(string(types.PaymentMethodPaypal), next.PaymentMethod)
	s.True(next.StartDate.AddDate(0, 0, 90).Equal(next.EndDate))

	old, err := s.subscriptions.GetSubscription(s.GetContext(), current.ID)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, old.SubscriptionStatus)
	s.Equal("plan_pro", s.getCustomer("cust_1").GetActivePlanID())

	list, err := s.subscriptions.ListSubscriptions(s.GetContext(), "cust_1", nil)
	s.Require().NoError(err)
	s.Len(list.Items, 2)
}

func (s *SubscriptionServiceSuite) TestChangePlanRejectsPlanHeldByOlderSubscription() {
	pro := s.subscribe("plan_pro")
	basic := s.subscribe("plan_basic")

	_, err := s.subscriptions.ChangeSubscriptionPlan(s.GetContext(), dto.ChangePlanRequest{
		CustomerID: "cust_1",
		NewPlanID:  "plan_pro",
	})
	s.True(ierr.IsInvalidOperation(err))

	list, err := s.subscriptions.ListSubscriptions(s.GetContext(), "cust_1", nil)
	s.Require().NoError(err)
	s.Len(list.Items, 2, "no subscription created")

	activePro := lo.Filter(list.Items, func(sub *dto.SubscriptionResponse, _ int) bool {
		return sub.PlanID == "plan_pro" && sub.SubscriptionStatus == types.SubscriptionStatusActive
	})
	s.Len(activePro, 1)
	s.Equal(pro.ID, activePro[0].ID)

	stillBasic, err := s.subscriptions.GetSubscription(s.GetContext(), basic.ID)
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusActive, stillBasic.SubscriptionStatus, "current subscription left untouched")
}

func (s *SubscriptionServiceSuite) TestApplyPromoCode() {
	sub := s.subscribe("plan_basic")

	promo, err := s.subscriptions.ApplyPromoCode(s.GetContext(), sub.ID, dto.ApplyPromoRequest{PromoCode: "WELCOME"})
	s.Require().NoError(err)
	s.Equal("WELCOME", lo.FromPtr(promo.PromoCode))
	s.True(decimal.NewFromInt(100).Equal(promo.OriginalPrice))
	s.True(decimal.NewFromInt(80).Equal(lo.FromPtr(promo.DiscountedPrice)))

	_, err = s.subscriptions.ApplyPromoCode(s.GetContext(), sub.ID, dto.ApplyPromoRequest{PromoCode: "AGAIN"})
	s.True(ierr.IsInvalidOperation(err), "promo already applied")

	other := s.subscribe("plan_pro")
	_, err = s.subscriptions.CancelSubscription(s.GetContext(), other.ID)
	s.Require().NoError(err)

	_, err = s.subscriptions.ApplyPromoCode(s.GetContext(), other.ID, dto.ApplyPromoRequest{PromoCode: "LATE"})
	s.True(ierr.IsInvalidOperation(err), "cancelled subscription")
}

func (s *SubscriptionServiceSuite) TestIsTrialAvailable() {
	status, err := s.subscriptions.IsTrialAvailable(s.GetContext(), "cust_1")
	s.Require().NoError(err)
	s.True(status.TrialAvailable)

	sub := s.subscribe("plan_basic")
	_, err = s.subscriptions.CancelSubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)

	status, err = s.subscriptions.IsTrialAvailable(s.GetContext(), "cust_1")
	s.Require().NoError(err)
	s.False(status.TrialAvailable, "cancelled subscriptions still use up the trial")

	_, err = s.subscriptions.IsTrialAvailable(s.GetContext(), "cust_missing")
	s.True(ierr.IsNotFound(err))
}
