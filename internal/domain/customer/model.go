package customer

import (
	"github.com/flexprice/subscription-billing/internal/types"
)

// Customer represents a billed customer and their single active plan pointer
type Customer struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
	Phone string `db:"phone" json:"phone"`

	// ActivePlanID is nil when the customer has no plan
	ActivePlanID        *string                          `db:"active_plan_id" json:"active_plan_id,omitempty"`
	SubscriptionStatus  types.CustomerSubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	ActivePaymentMethod string                           `db:"active_payment_method" json:"active_payment_method"`

	types.BaseModel
}

// HasActivePlan reports whether the customer points at a plan
func (c *Customer) HasActivePlan() bool {
	return c.ActivePlanID != nil && *c.ActivePlanID != ""
}

// GetActivePlanID returns the active plan id or an empty string
func (c *Customer) GetActivePlanID() string {
	if !c.HasActivePlan() {
		return ""
	}
	return *c.ActivePlanID
}

// Activate points the customer at planID and marks the subscription active
func (c *Customer) Activate(planID, paymentMethod string) {
	c.ActivePlanID = &planID
	c.SubscriptionStatus = types.CustomerSubscriptionStatusActive
	if paymentMethod != "" {
		c.ActivePaymentMethod = paymentMethod
	}
}

// Deactivate clears the plan pointer
func (c *Customer) Deactivate() {
	c.ActivePlanID = nil
	c.SubscriptionStatus = types.CustomerSubscriptionStatusInactive
}
