package dto

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/plan"
	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
	"github.com/shopspring/decimal"
)

type CreateSubscriptionRequest struct {
	CustomerID    string `json:"customer_id" validate:"required"`
	PlanID        string `json:"plan_id" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required,payment_method"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type ChangePlanRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	NewPlanID  string `json:"new_plan_id" validate:"required"`
}

func (r *ChangePlanRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type ApplyPromoRequest struct {
	PromoCode string `json:"promo_code" validate:"required,max=50"`
}

func (r *ApplyPromoRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type SubscriptionResponse struct {
	*subscription.UserSubscription
	Plan *plan.Plan `json:"plan,omitempty"`
}

// ListSubscriptionsResponse represents the response for listing subscriptions
type ListSubscriptionsResponse = types.ListResponse[*SubscriptionResponse]

type TrialStatusResponse struct {
	CustomerID     string `json:"customer_id"`
	TrialAvailable bool   `json:"trial_available"`
}

// BillingCycleResponse describes the calendar month billing cycle of a customer
type BillingCycleResponse struct {
	CustomerID      string          `json:"customer_id"`
	CycleStart      time.Time       `json:"cycle_start"`
	CycleEnd        time.Time       `json:"cycle_end"`
	NextBillingDate time.Time       `json:"next_billing_date"`
	DaysRemaining   int             `json:"days_remaining"`
	PlanID          string          `json:"plan_id,omitempty"`
	PlanName        string          `json:"plan_name,omitempty"`
	PlanPrice       decimal.Decimal `json:"plan_price" swaggertype:"string"`
}
