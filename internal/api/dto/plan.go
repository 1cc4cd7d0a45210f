package dto

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/plan"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
	"github.com/shopspring/decimal"
)

type CreatePlanRequest struct {
	Name         string          `json:"name" validate:"required"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price" validate:"gte=0" swaggertype:"string"`
	DurationDays int             `json:"duration_days" validate:"required,gt=0"`
	UsageLimit   int             `json:"usage_limit" validate:"required,gt=0"`
}

func (r *CreatePlanRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreatePlanRequest) ToPlan(ctx context.Context) *plan.Plan {
	return &plan.Plan{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		DurationDays: r.DurationDays,
		UsageLimit:   r.UsageLimit,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
}

type UpdatePlanRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=1"`
	Description  *string          `json:"description,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty" swaggertype:"string"`
	DurationDays *int             `json:"duration_days,omitempty" validate:"omitempty,gt=0"`
	UsageLimit   *int             `json:"usage_limit,omitempty" validate:"omitempty,gt=0"`
}

func (r *UpdatePlanRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Price != nil && r.Price.IsNegative() {
		return invalidField("price", "Price cannot be negative")
	}
	return nil
}

// Apply copies the set fields onto p
func (r *UpdatePlanRequest) Apply(p *plan.Plan) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.DurationDays != nil {
		p.DurationDays = *r.DurationDays
	}
	if r.UsageLimit != nil {
		p.UsageLimit = *r.UsageLimit
	}
}

type PlanResponse struct {
	*plan.Plan
}

// ListPlansResponse represents the response for listing plans
type ListPlansResponse = types.ListResponse[*PlanResponse]
