package discount

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount is a percentage or fixed reduction applied at invoice generation.
// A discount without a customer is a catalog template.
type Discount struct {
	ID             string               `db:"id" json:"id"`
	Name           string               `db:"name" json:"name"`
	Code           string               `db:"code" json:"code"`
	DiscountType   types.DiscountType   `db:"discount_type" json:"discount_type"`
	Amount         decimal.Decimal      `db:"amount" json:"amount" swaggertype:"string"`
	StartDate      time.Time            `db:"start_date" json:"start_date"`
	EndDate        time.Time            `db:"end_date" json:"end_date"`
	DiscountStatus types.DiscountStatus `db:"discount_status" json:"discount_status"`
	UsageLimit     int                  `db:"usage_limit" json:"usage_limit"`
	CustomerID     *string              `db:"customer_id" json:"customer_id,omitempty"`
	PromotedCode   *string              `db:"promoted_code" json:"promoted_code,omitempty"`
	types.BaseModel
}

// IsTemplate reports whether the discount belongs to the catalog rather than a customer
func (d *Discount) IsTemplate() bool {
	return d.CustomerID == nil || *d.CustomerID == ""
}

// IsValid reports whether the discount can be applied at now.
// Both window bounds are exclusive.
func (d *Discount) IsValid(now time.Time) bool {
	if d == nil {
		return false
	}
	if d.DiscountStatus != types.DiscountStatusActive {
		return false
	}
	if !d.Amount.IsPositive() {
		return false
	}
	return now.After(d.StartDate) && now.Before(d.EndDate)
}

// CalculateDiscount returns the reduction for basePrice, never more than basePrice itself
func (d *Discount) CalculateDiscount(basePrice decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch d.DiscountType {
	case types.DiscountTypePercentage:
		discount = basePrice.Mul(d.Amount).Div(hundred)
	case types.DiscountTypeFixed:
		discount = d.Amount
	default:
		return decimal.Zero
	}

	if discount.GreaterThan(basePrice) {
		return basePrice
	}
	return discount
}

// Apply returns the reduction for basePrice together with the configured value
// shown to customers, the percentage or the fixed amount.
func (d *Discount) Apply(basePrice decimal.Decimal) (discountAmount, displayAmount decimal.Decimal) {
	return d.CalculateDiscount(basePrice), d.Amount
}

// ApplyDiscount returns the final price after the reduction, floored at zero
func (d *Discount) ApplyDiscount(basePrice decimal.Decimal) decimal.Decimal {
	finalPrice := basePrice.Sub(d.CalculateDiscount(basePrice))
	if finalPrice.IsNegative() {
		return decimal.Zero
	}
	return finalPrice
}

// CloneForCustomer returns an owned copy of a catalog discount
func (d *Discount) CloneForCustomer(customerID string, base types.BaseModel) *Discount {
	clone := *d
	clone.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT)
	clone.CustomerID = &customerID
	clone.BaseModel = base
	return &clone
}
