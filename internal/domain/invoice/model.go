package invoice

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice is the billing record of one plan period.
// Plan name and price are copied at generation so later plan edits never alter it.
type Invoice struct {
	ID            string              `db:"id" json:"id"`
	InvoiceNumber string              `db:"invoice_number" json:"invoice_number"`
	CustomerID    string              `db:"customer_id" json:"customer_id"`
	PlanID        *string             `db:"plan_id" json:"plan_id,omitempty"`
	PlanName      string              `db:"plan_name" json:"plan_name"`
	PlanPrice     decimal.Decimal     `db:"plan_price" json:"plan_price" swaggertype:"string"`
	InvoiceDate   time.Time           `db:"invoice_date" json:"invoice_date"`
	DueDate       time.Time           `db:"due_date" json:"due_date"`
	InvoiceStatus types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`
	Amount        decimal.Decimal     `db:"amount" json:"amount" swaggertype:"string"`
	PaymentMethod string              `db:"payment_method" json:"payment_method"`

	DiscountID     *string             `db:"discount_id" json:"discount_id,omitempty"`
	DiscountCode   *string             `db:"discount_code" json:"discount_code,omitempty"`
	DiscountType   *types.DiscountType `db:"discount_type" json:"discount_type,omitempty"`
	DiscountValue  *decimal.Decimal    `db:"discount_value" json:"discount_value,omitempty" swaggertype:"string"`
	DiscountAmount *decimal.Decimal    `db:"discount_amount" json:"discount_amount,omitempty" swaggertype:"string"`

	types.BaseModel
}

// EffectiveStatus returns the status seen at now, OVERDUE for pending invoices past due
func (i *Invoice) EffectiveStatus(now time.Time) types.InvoiceStatus {
	return types.EffectiveInvoiceStatus(i.InvoiceStatus, i.DueDate, now)
}

// HasPlan reports whether the invoice still references a plan
func (i *Invoice) HasPlan() bool {
	return i.PlanID != nil && *i.PlanID != ""
}

// GetPlanID returns the referenced plan id or an empty string
func (i *Invoice) GetPlanID() string {
	if !i.HasPlan() {
		return ""
	}
	return *i.PlanID
}

// HasDiscount reports whether a discount was applied at generation
func (i *Invoice) HasDiscount() bool {
	return i.DiscountID != nil
}

// IsPaid reports whether the invoice has been settled
func (i *Invoice) IsPaid() bool {
	return i.InvoiceStatus == types.InvoiceStatusPaid
}

// IsCancelled reports whether the invoice can no longer be paid
func (i *Invoice) IsCancelled() bool {
	return i.InvoiceStatus == types.InvoiceStatusCancelled
}

// DueDateFor returns the due date of an invoice issued at invoiceDate for a plan lasting durationDays
func DueDateFor(invoiceDate time.Time, durationDays int) time.Time {
	return invoiceDate.AddDate(0, 0, durationDays)
}
