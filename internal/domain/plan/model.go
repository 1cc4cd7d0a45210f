package plan

import (
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/shopspring/decimal"
)

// Plan is a priced, fixed duration subscription offering
type Plan struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price" swaggertype:"string"`
	// DurationDays is the length of one billing period in days
	DurationDays int `db:"duration_days" json:"duration_days"`
	// UsageLimit is the maximum number of concurrent sessions
	UsageLimit int `db:"usage_limit" json:"usage_limit"`
	types.BaseModel
}
