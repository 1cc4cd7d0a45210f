package types

import (
	"time"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus is the stored lifecycle state of an invoice.
// OVERDUE is never stored, it is derived on read from the due date.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
)

// DefaultInvoicePaymentMethod marks invoices whose customer has no active subscription for the plan
const DefaultInvoicePaymentMethod = "DEFAULT"

func (s InvoiceStatus) String() string {
	return string(s)
}

// Validate accepts only the statuses that may be persisted
func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusPending,
		InvoiceStatusPaid,
		InvoiceStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// EffectiveInvoiceStatus derives the status a reader should see at now
func EffectiveInvoiceStatus(stored InvoiceStatus, dueDate, now time.Time) InvoiceStatus {
	if stored == InvoiceStatusPending && dueDate.Before(now) {
		return InvoiceStatusOverdue
	}
	return stored
}

// InvoiceFilter represents filters for invoice queries
type InvoiceFilter struct {
	*QueryFilter

	InvoiceIDs    []string        `json:"invoice_ids,omitempty" form:"invoice_ids"`
	CustomerID    string          `json:"customer_id,omitempty" form:"customer_id"`
	PlanID        string          `json:"plan_id,omitempty" form:"plan_id"`
	InvoiceStatus []InvoiceStatus `json:"invoice_status,omitempty" form:"invoice_status"`
	// RequirePlan restricts results to invoices that still reference a plan
	RequirePlan bool `json:"-" form:"-"`
}

// NewInvoiceFilter creates a new invoice filter with default options
func NewInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitInvoiceFilter creates a new invoice filter without pagination
func NewNoLimitInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the filter options
func (f InvoiceFilter) Validate() error {
	for _, s := range f.InvoiceStatus {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return f.QueryFilter.Validate()
}
