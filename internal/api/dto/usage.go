package dto

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/usage"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
	"github.com/shopspring/decimal"
)

type CreateUsageRequest struct {
	CustomerID string          `json:"customer_id" validate:"required"`
	PlanID     string          `json:"plan_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"gte=0" swaggertype:"string"`
	UsageDate  *time.Time      `json:"usage_date,omitempty"`
	Details    string          `json:"details" validate:"max=1000"`
}

func (r *CreateUsageRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateUsageRequest) ToRecord(ctx context.Context, now time.Time) *usage.Record {
	date := now
	if r.UsageDate != nil && !r.UsageDate.IsZero() {
		date = r.UsageDate.UTC()
	}
	return &usage.Record{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USAGE),
		CustomerID: r.CustomerID,
		PlanID:     r.PlanID,
		Amount:     r.Amount,
		UsageDate:  date,
		Details:    r.Details,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
}

type UsageResponse struct {
	*usage.Record
}

// ListUsageResponse represents the response for listing usage records
type ListUsageResponse = types.ListResponse[*UsageResponse]
