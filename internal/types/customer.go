package types

import (
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/samber/lo"
)

// CustomerSubscriptionStatus is the billing standing of a customer
type CustomerSubscriptionStatus string

const (
	CustomerSubscriptionStatusActive   CustomerSubscriptionStatus = "ACTIVE"
	CustomerSubscriptionStatusInactive CustomerSubscriptionStatus = "INACTIVE"
)

func (s CustomerSubscriptionStatus) String() string {
	return string(s)
}

func (s CustomerSubscriptionStatus) Validate() error {
	allowed := []CustomerSubscriptionStatus{
		CustomerSubscriptionStatusActive,
		CustomerSubscriptionStatusInactive,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid customer subscription status").
			WithHint("Please provide a valid subscription status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CustomerFilter represents filters for customer queries
type CustomerFilter struct {
	*QueryFilter

	CustomerIDs        []string                   `json:"customer_ids,omitempty" form:"customer_ids"`
	Email              string                     `json:"email,omitempty" form:"email"`
	SubscriptionStatus CustomerSubscriptionStatus `json:"subscription_status,omitempty" form:"subscription_status"`
}

// NewCustomerFilter creates a new customer filter with default options
func NewCustomerFilter() *CustomerFilter {
	return &CustomerFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitCustomerFilter creates a new customer filter without pagination
func NewNoLimitCustomerFilter() *CustomerFilter {
	return &CustomerFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the filter options
func (f CustomerFilter) Validate() error {
	if f.SubscriptionStatus != "" {
		if err := f.SubscriptionStatus.Validate(); err != nil {
			return err
		}
	}
	return f.QueryFilter.Validate()
}
