package types

import (
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/samber/lo"
)

// DiscountType decides how the discount amount is interpreted
type DiscountType string

const (
	// DiscountTypePercentage reduces the price by amount percent
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	// DiscountTypeFixed reduces the price by an absolute currency value
	DiscountTypeFixed DiscountType = "FIXED"
)

func (t DiscountType) String() string {
	return string(t)
}

func (t DiscountType) Validate() error {
	allowed := []DiscountType{
		DiscountTypePercentage,
		DiscountTypeFixed,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid discount type").
			WithHint("Please provide a valid discount type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DiscountStatus toggles whether a discount can be applied
type DiscountStatus string

const (
	DiscountStatusActive   DiscountStatus = "ACTIVE"
	DiscountStatusInactive DiscountStatus = "INACTIVE"
)

func (s DiscountStatus) String() string {
	return string(s)
}

func (s DiscountStatus) Validate() error {
	allowed := []DiscountStatus{
		DiscountStatusActive,
		DiscountStatusInactive,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid discount status").
			WithHint("Please provide a valid discount status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DiscountFilter represents filters for discount queries
type DiscountFilter struct {
	*QueryFilter

	CustomerID string `json:"customer_id,omitempty" form:"customer_id"`
	// TemplatesOnly restricts results to catalog discounts that are not owned by a customer
	TemplatesOnly bool           `json:"templates_only,omitempty" form:"templates_only"`
	Code          string         `json:"code,omitempty" form:"code"`
	Name          string         `json:"name,omitempty" form:"name"`
	Status        DiscountStatus `json:"status,omitempty" form:"status"`
}

// NewDiscountFilter creates a new discount filter with default options
func NewDiscountFilter() *DiscountFilter {
	return &DiscountFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitDiscountFilter creates a new discount filter without pagination
func NewNoLimitDiscountFilter() *DiscountFilter {
	return &DiscountFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the filter options
func (f DiscountFilter) Validate() error {
	if f.Status != "" {
		if err := f.Status.Validate(); err != nil {
			return err
		}
	}
	return f.QueryFilter.Validate()
}
