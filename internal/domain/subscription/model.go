package subscription

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/shopspring/decimal"
)

// UserSubscription is a customer's enrollment in one plan.
// Changing plan cancels the row and creates a new one.
type UserSubscription struct {
	ID                 string                   `db:"id" json:"id"`
	CustomerID         string                   `db:"customer_id" json:"customer_id"`
	PlanID             string                   `db:"plan_id" json:"plan_id"`
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	StartDate          time.Time                `db:"start_date" json:"start_date"`
	EndDate            time.Time                `db:"end_date" json:"end_date"`
	PaymentMethod      string                   `db:"payment_method" json:"payment_method"`
	PromoCode          *string                  `db:"promo_code" json:"promo_code,omitempty"`
	OriginalPrice      decimal.Decimal          `db:"original_price" json:"original_price" swaggertype:"string"`
	DiscountedPrice    *decimal.Decimal         `db:"discounted_price" json:"discounted_price,omitempty" swaggertype:"string"`
	types.BaseModel
}

func (s *UserSubscription) IsActive() bool {
	return s.SubscriptionStatus == types.SubscriptionStatusActive
}

// HasPromo reports whether a promo code was already applied
func (s *UserSubscription) HasPromo() bool {
	return s.PromoCode != nil && *s.PromoCode != ""
}

// Cancel ends the subscription at now
func (s *UserSubscription) Cancel(now time.Time) {
	s.SubscriptionStatus = types.SubscriptionStatusCancelled
	s.EndDate = now
}

// ApplyPromo records code and the promo price computed from planPrice
func (s *UserSubscription) ApplyPromo(code string, planPrice decimal.Decimal) {
	discounted := PromoPrice(planPrice)
	s.PromoCode = &code
	s.OriginalPrice = planPrice
	s.DiscountedPrice = &discounted
}

// PromoPrice returns planPrice reduced by the flat promo percentage
func PromoPrice(planPrice decimal.Decimal) decimal.Decimal {
	keep := decimal.NewFromInt(100 - types.PromoDiscountPercent).Div(decimal.NewFromInt(100))
	return planPrice.Mul(keep)
}
