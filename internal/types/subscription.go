package types

import (
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the lifecycle state of a user subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Please provide a valid subscription status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PromoDiscountPercent is the flat reduction granted by a promo code
const PromoDiscountPercent = 20

// SubscriptionFilter represents filters for subscription queries
type SubscriptionFilter struct {
	*QueryFilter

	CustomerID         string               `json:"customer_id,omitempty" form:"customer_id"`
	PlanID             string               `json:"plan_id,omitempty" form:"plan_id"`
	SubscriptionStatus []SubscriptionStatus `json:"subscription_status,omitempty" form:"subscription_status"`
}

// NewSubscriptionFilter creates a new subscription filter with default options
func NewSubscriptionFilter() *SubscriptionFilter {
	return &SubscriptionFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitSubscriptionFilter creates a new subscription filter without pagination
func NewNoLimitSubscriptionFilter() *SubscriptionFilter {
	return &SubscriptionFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the filter options
func (f SubscriptionFilter) Validate() error {
	for _, s := range f.SubscriptionStatus {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return f.QueryFilter.Validate()
}
