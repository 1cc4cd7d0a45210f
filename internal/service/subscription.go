package service

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/customer"
	"github.com/flexprice/subscription-billing/internal/domain/notification"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ListSubscriptions(ctx context.Context, customerID string, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error)
	CancelSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	// ChangeSubscriptionPlan cancels the customer's current subscription and starts one on the new plan
	ChangeSubscriptionPlan(ctx context.Context, req dto.ChangePlanRequest) (*dto.SubscriptionResponse, error)
	ApplyPromoCode(ctx context.Context, id string, req dto.ApplyPromoRequest) (*dto.SubscriptionResponse, error)
	// IsTrialAvailable reports whether the customer never held a subscription
	IsTrialAvailable(ctx context.Context, customerID string) (*dto.TrialStatusResponse, error)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{ServiceParams: params}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		sub *subscription.UserSubscription
		p   *plan.Plan
	)
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		cust, err := s.CustomerRepo.Get(ctx, req.CustomerID)
		if err != nil {
			return err
		}

		p, err = lookupPlan(ctx, s.ServiceParams, req.PlanID)
		if err != nil {
			return err
		}

		active, err := s.activeSubscriptions(ctx, cust.ID, p.ID)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return ierr.NewError("active subscription already exists").
				WithHint("Customer already has an active subscription for this plan").
				WithReportableDetails(map[string]any{
					"customer_id":     cust.ID,
					"plan_id":         p.ID,
					"subscription_id": active[0].ID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		sub = newSubscription(ctx, cust.ID, p, req.PaymentMethod, time.Now().UTC())
		if err := s.SubRepo.Create(ctx, sub); err != nil {
			return err
		}

		return s.activateCustomer(ctx, cust, p.ID, req.PaymentMethod)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"customer_id", sub.CustomerID,
		"plan_id", sub.PlanID,
		"end_date", sub.EndDate,
	)
	return &dto.SubscriptionResponse{UserSubscription: sub, Plan: p}, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	if id == "" {
		return nil, ierr.NewError("subscription_id is required").
			WithHint("Subscription ID is required").
			Mark(ierr.ErrValidation)
	}

	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, sub), nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, customerID string, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if customerID != "" {
		if _, err := s.CustomerRepo.Get(ctx, customerID); err != nil {
			return nil, err
		}
		filter.CustomerID = customerID
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.SubRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(subs, func(sub *subscription.UserSubscription, _ int) *dto.SubscriptionResponse {
		return s.toResponse(ctx, sub)
	})
	resp := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	var sub *subscription.UserSubscription
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.SubRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if !sub.IsActive() {
			return ierr.NewError("subscription is not active").
				WithHint("Only active subscriptions can be cancelled").
				WithReportableDetails(map[string]any{
					"subscription_id":     sub.ID,
					"subscription_status": sub.SubscriptionStatus,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		sub.Cancel(time.Now().UTC())
		sub.Touch(ctx)
		if err := s.SubRepo.Update(ctx, sub); err != nil {
			return err
		}

		if !s.Config.Billing.CancelClearsActivePlan {
			return nil
		}
		return s.clearActivePlanIfIdle(ctx, sub.CustomerID)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("cancelled subscription",
		"subscription_id", sub.ID,
		"customer_id", sub.CustomerID,
		"plan_id", sub.PlanID,
	)

	resp := s.toResponse(ctx, sub)
	if cust, err := s.CustomerRepo.Get(ctx, sub.CustomerID); err == nil {
		planName := ""
		if resp.Plan != nil {
			planName = resp.Plan.Name
		}
		notifyCustomer(ctx, s.ServiceParams, cust, types.NotificationTypeSubscriptionCancellation,
			notification.SubscriptionCancellationMessage(planName))
	}
	return resp, nil
}

// clearActivePlanIfIdle deactivates the customer when no active subscription is left
func (s *subscriptionService) clearActivePlanIfIdle(ctx context.Context, customerID string) error {
	remaining, err := s.activeSubscriptions(ctx, customerID, "")
	if err != nil {
		return err
	}

	cust, err := s.CustomerRepo.Get(ctx, customerID)
	if err != nil {
		return err
	}

	if len(remaining) > 0 {
		// point at the most recent subscription still running
		if cust.GetActivePlanID() == remaining[0].PlanID {
			return nil
		}
		cust.Activate(remaining[0].PlanID, remaining[0].PaymentMethod)
	} else {
		cust.Deactivate()
	}
	cust.Touch(ctx)
	return s.CustomerRepo.Update(ctx, cust)
}

func (s *subscriptionService) ChangeSubscriptionPlan(ctx context.Context, req dto.ChangePlanRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		next *subscription.UserSubscription
		p    *plan.Plan
	)
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		cust, err := s.CustomerRepo.Get(ctx, req.CustomerID)
		if err != nil {
			return err
		}

		active, err := s.activeSubscriptions(ctx, cust.ID, "")
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return ierr.NewError("no active subscription").
				WithHint("Customer has no active subscription to change").
				WithReportableDetails(map[string]any{
					"customer_id": cust.ID,
				}).
				Mark(ierr.ErrNotFound)
		}
		current := active[0]

		onTarget, err := s.activeSubscriptions(ctx, cust.ID, req.NewPlanID)
		if err != nil {
			return err
		}
		if len(onTarget) > 0 {
			return ierr.NewError("subscription already on plan").
				WithHint("Customer is already subscribed to this plan").
				WithReportableDetails(map[string]any{
					"subscription_id": onTarget[0].ID,
					"plan_id":         req.NewPlanID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		p, err = lookupPlan(ctx, s.ServiceParams, req.NewPlanID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		current.Cancel(now)
		current.Touch(ctx)
		if err := s.SubRepo.Update(ctx, current); err != nil {
			return err
		}

		next = newSubscription(ctx, cust.ID, p, current.PaymentMethod, now)
		if err := s.SubRepo.Create(ctx, next); err != nil {
			return err
		}

		return s.activateCustomer(ctx, cust, p.ID, current.PaymentMethod)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("changed subscription plan",
		"customer_id", req.CustomerID,
		"subscription_id", next.ID,
		"plan_id", next.PlanID,
	)
	return &dto.SubscriptionResponse{UserSubscription: next, Plan: p}, nil
}

func (s *subscriptionService) ApplyPromoCode(ctx context.Context, id string, req dto.ApplyPromoRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		sub *subscription.UserSubscription
		p   *plan.Plan
	)
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.SubRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if !sub.IsActive() {
			return ierr.NewError("subscription is not active").
				WithHint("Promo codes can only be applied to active subscriptions").
				WithReportableDetails(map[string]any{
					"subscription_id":     sub.ID,
					"subscription_status": sub.SubscriptionStatus,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		if sub.HasPromo() {
			return ierr.NewError("promo code already applied").
				WithHint("A promo code has already been applied to this subscription").
				WithReportableDetails(map[string]any{
					"subscription_id": sub.ID,
					"promo_code":      lo.FromPtr(sub.PromoCode),
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		p, err = lookupPlan(ctx, s.ServiceParams, sub.PlanID)
		if err != nil {
			return err
		}

		sub.ApplyPromo(req.PromoCode, p.Price)
		sub.Touch(ctx)
		return s.SubRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("applied promo code",
		"subscription_id", sub.ID,
		"promo_code", req.PromoCode,
		"discounted_price", lo.FromPtr(sub.DiscountedPrice).String(),
	)
	return &dto.SubscriptionResponse{UserSubscription: sub, Plan: p}, nil
}

func (s *subscriptionService) IsTrialAvailable(ctx context.Context, customerID string) (*dto.TrialStatusResponse, error) {
	if _, err := s.CustomerRepo.Get(ctx, customerID); err != nil {
		return nil, err
	}

	filter := types.NewNoLimitSubscriptionFilter()
	filter.CustomerID = customerID
	count, err := s.SubRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.TrialStatusResponse{
		CustomerID:     customerID,
		TrialAvailable: count == 0,
	}, nil
}

// activeSubscriptions returns the customer's ACTIVE subscriptions, most recent start first.
// An empty planID matches every plan.
func (s *subscriptionService) activeSubscriptions(ctx context.Context, customerID, planID string) ([]*subscription.UserSubscription, error) {
	filter := types.NewNoLimitSubscriptionFilter()
	filter.CustomerID = customerID
	filter.PlanID = planID
	filter.SubscriptionStatus = []types.SubscriptionStatus{types.SubscriptionStatusActive}
	return s.SubRepo.List(ctx, filter)
}

func (s *subscriptionService) activateCustomer(ctx context.Context, cust *customer.Customer, planID, paymentMethod string) error {
	cust.Activate(planID, paymentMethod)
	cust.Touch(ctx)
	return s.CustomerRepo.Update(ctx, cust)
}

func (s *subscriptionService) toResponse(ctx context.Context, sub *subscription.UserSubscription) *dto.SubscriptionResponse {
	resp := &dto.SubscriptionResponse{UserSubscription: sub}
	p, err := lookupPlan(ctx, s.ServiceParams, sub.PlanID)
	if err != nil {
		s.Logger.Debugw("plan not found for subscription", "subscription_id", sub.ID, "plan_id", sub.PlanID)
		return resp
	}
	resp.Plan = p
	return resp
}

func newSubscription(ctx context.Context, customerID string, p *plan.Plan, paymentMethod string, start time.Time) *subscription.UserSubscription {
	return &subscription.UserSubscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		CustomerID:         customerID,
		PlanID:             p.ID,
		SubscriptionStatus: types.SubscriptionStatusActive,
		StartDate:          start,
		EndDate:            start.AddDate(0, 0, p.DurationDays),
		PaymentMethod:      paymentMethod,
		OriginalPrice:      p.Price,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
}
