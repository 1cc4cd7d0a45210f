package dto

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/discount"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type CreateDiscountRequest struct {
	Name           string               `json:"name" validate:"required"`
	Code           string               `json:"code" validate:"required"`
	DiscountType   types.DiscountType   `json:"discount_type" validate:"required"`
	Amount         decimal.Decimal      `json:"amount" validate:"gt=0" swaggertype:"string"`
	StartDate      time.Time            `json:"start_date" validate:"required"`
	EndDate        time.Time            `json:"end_date" validate:"required"`
	DiscountStatus types.DiscountStatus `json:"discount_status,omitempty"`
	UsageLimit     int                  `json:"usage_limit" validate:"gte=0"`
	CustomerID     *string              `json:"customer_id,omitempty"`
	PromotedCode   *string              `json:"promoted_code,omitempty"`
}

func (r *CreateDiscountRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.DiscountType.Validate(); err != nil {
		return err
	}
	if r.DiscountStatus != "" {
		if err := r.DiscountStatus.Validate(); err != nil {
			return err
		}
	}
	if !r.EndDate.After(r.StartDate) {
		return invalidField("end_date", "End date must be after start date")
	}
	if r.DiscountType == types.DiscountTypePercentage && r.Amount.GreaterThan(decimal.NewFromInt(100)) {
		return invalidField("amount", "Percentage discounts cannot exceed 100")
	}
	return nil
}

func (r *CreateDiscountRequest) ToDiscount(ctx context.Context) *discount.Discount {
	status := r.DiscountStatus
	if status == "" {
		status = types.DiscountStatusActive
	}
	return &discount.Discount{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT),
		Name:           r.Name,
		Code:           r.Code,
		DiscountType:   r.DiscountType,
		Amount:         r.Amount,
		StartDate:      r.StartDate.UTC(),
		EndDate:        r.EndDate.UTC(),
		DiscountStatus: status,
		UsageLimit:     r.UsageLimit,
		CustomerID:     lo.EmptyableToPtr(lo.FromPtr(r.CustomerID)),
		PromotedCode:   lo.EmptyableToPtr(lo.FromPtr(r.PromotedCode)),
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
}

type UpdateDiscountRequest struct {
	Name           *string               `json:"name,omitempty" validate:"omitempty,min=1"`
	Code           *string               `json:"code,omitempty" validate:"omitempty,min=1"`
	Amount         *decimal.Decimal      `json:"amount,omitempty" swaggertype:"string"`
	StartDate      *time.Time            `json:"start_date,omitempty"`
	EndDate        *time.Time            `json:"end_date,omitempty"`
	DiscountStatus *types.DiscountStatus `json:"discount_status,omitempty"`
	UsageLimit     *int                  `json:"usage_limit,omitempty" validate:"omitempty,gte=0"`
	PromotedCode   *string               `json:"promoted_code,omitempty"`
}

func (r *UpdateDiscountRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Amount != nil && !r.Amount.IsPositive() {
		return invalidField("amount", "Discount amount must be greater than zero")
	}
	if r.DiscountStatus != nil {
		if err := r.DiscountStatus.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Apply copies the set fields onto d and checks the resulting window
func (r *UpdateDiscountRequest) Apply(d *discount.Discount) error {
	if r.Name != nil {
		d.Name = *r.Name
	}
	if r.Code != nil {
		d.Code = *r.Code
	}
	if r.Amount != nil {
		d.Amount = *r.Amount
	}
	if r.StartDate != nil {
		d.StartDate = r.StartDate.UTC()
	}
	if r.EndDate != nil {
		d.EndDate = r.EndDate.UTC()
	}
	if r.DiscountStatus != nil {
		d.DiscountStatus = *r.DiscountStatus
	}
	if r.UsageLimit != nil {
		d.UsageLimit = *r.UsageLimit
	}
	if r.PromotedCode != nil {
		d.PromotedCode = lo.EmptyableToPtr(*r.PromotedCode)
	}
	if !d.EndDate.After(d.StartDate) {
		return invalidField("end_date", "End date must be after start date")
	}
	if d.DiscountType == types.DiscountTypePercentage && d.Amount.GreaterThan(decimal.NewFromInt(100)) {
		return invalidField("amount", "Percentage discounts cannot exceed 100")
	}
	return nil
}

type DiscountResponse struct {
	*discount.Discount
	// Valid reports whether the discount would be applied right now
	Valid bool `json:"valid"`
}

func NewDiscountResponse(d *discount.Discount, now time.Time) *DiscountResponse {
	return &DiscountResponse{Discount: d, Valid: d.IsValid(now)}
}

// ListDiscountsResponse represents the response for listing discounts
type ListDiscountsResponse = types.ListResponse[*DiscountResponse]

// ApplyDiscountResponse lists the per customer copies created from a catalog discount
type ApplyDiscountResponse struct {
	TemplateID string              `json:"template_id"`
	Count      int                 `json:"count"`
	Discounts  []*DiscountResponse `json:"discounts"`
}
