package usage

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/shopspring/decimal"
)

// Record is one usage entry of a customer on a plan
type Record struct {
	ID         string          `db:"id" json:"id"`
	CustomerID string          `db:"customer_id" json:"customer_id"`
	PlanID     string          `db:"plan_id" json:"plan_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount" swaggertype:"string"`
	UsageDate  time.Time       `db:"usage_date" json:"usage_date"`
	Details    string          `db:"details" json:"details"`
	types.BaseModel
}
