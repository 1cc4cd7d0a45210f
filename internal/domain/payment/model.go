package payment

import (
	"fmt"
	"time"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/shopspring/decimal"
)

// Payment is one ledger event against an invoice
type Payment struct {
	// Unique identifier for this payment row
	ID string `db:"id" json:"id"`
	// The invoice this charge or reversal belongs to
	InvoiceID string `db:"invoice_id" json:"invoice_id"`
	// The customer billed by the invoice
	CustomerID string `db:"customer_id" json:"customer_id"`
	// CHARGE for money taken, REFUND or CHARGEBACK for money given back
	TransactionType types.TransactionType `db:"transaction_type" json:"transaction_type"`
	// Always a positive magnitude, the direction comes from TransactionType
	Amount decimal.Decimal `db:"amount" json:"amount" swaggertype:"string"`
	// The payment method used for the charge, copied onto its reversals
	PaymentMethod string `db:"payment_method" json:"payment_method"`
	// The current state of the row
	PaymentStatus types.PaymentStatus `db:"payment_status" json:"payment_status"`
	// Globally unique caller supplied id, REF_ and CB_ derived ids for reversals
	TransactionID string `db:"transaction_id" json:"transaction_id"`
	// The transaction id of the charge a reversal refers to
	ParentTransactionID *string `db:"parent_transaction_id" json:"parent_transaction_id,omitempty"`
	// Free text supplied with a refund or chargeback
	Reason *string `db:"reason" json:"reason,omitempty"`
	// When the charge settled or the reversal was recorded
	PaymentDate time.Time `db:"payment_date" json:"payment_date"`

	types.BaseModel
}

// SignedAmount returns the ledger view of the amount, negative for reversals
func (p *Payment) SignedAmount() decimal.Decimal {
	if p.TransactionType.IsReversal() {
		return p.Amount.Neg()
	}
	return p.Amount
}

// IsSettledCharge reports whether the row is a paid charge that can still be reversed
func (p *Payment) IsSettledCharge() bool {
	return p.TransactionType == types.TransactionTypeCharge && p.PaymentStatus == types.PaymentStatusPaid
}

// IsPendingCharge reports whether the row is a reservation waiting for settlement
func (p *Payment) IsPendingCharge() bool {
	return p.TransactionType == types.TransactionTypeCharge && p.PaymentStatus == types.PaymentStatusPending
}

// HoldsInvoice reports whether the row is the charge that pays its invoice.
// An invoice has at most one such row.
func (p *Payment) HoldsInvoice() bool {
	return p.IsPendingCharge() || p.IsSettledCharge()
}

// Validate checks the row invariants before it is written
func (p *Payment) Validate() error {
	if p.InvoiceID == "" {
		return ierr.NewError("invoice_id is required").
			WithHint("Payment must reference an invoice").
			Mark(ierr.ErrValidation)
	}
	if p.TransactionID == "" {
		return ierr.NewError("transaction_id is required").
			WithHint("Payment must carry a transaction id").
			Mark(ierr.ErrValidation)
	}
	if p.Amount.IsNegative() {
		return ierr.NewError("amount must be a positive magnitude").
			WithHint("Payment amount cannot be negative").
			WithReportableDetails(map[string]any{
				"amount": p.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if err := p.TransactionType.Validate(); err != nil {
		return err
	}
	if err := p.PaymentStatus.Validate(); err != nil {
		return err
	}
	if p.TransactionType.IsReversal() && p.ParentTransactionID == nil {
		return ierr.NewError("parent_transaction_id is required for reversals").
			WithHint("Refunds and chargebacks must reference the original payment").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RefundTransactionID derives the transaction id of the refund of txID
func RefundTransactionID(txID string) string {
	return types.RefundTransactionPrefix + txID
}

// ChargebackTransactionID derives the transaction id of the n-th chargeback of txID, n starting at 1
func ChargebackTransactionID(txID string, n int) string {
	if n <= 1 {
		return types.ChargebackTransactionPrefix + txID
	}
	return fmt.Sprintf("%s%s_%d", types.ChargebackTransactionPrefix, txID, n)
}

// ErrInvoiceHasOpenCharge is returned when an invoice already carries a pending or paid charge
func ErrInvoiceHasOpenCharge(invoiceID string, cause error) error {
	b := ierr.NewError("invoice has a payment in progress")
	if cause != nil {
		b = ierr.WithError(cause).WithMessage("invoice has a payment in progress")
	}
	return b.WithHint("Another payment for this invoice is in progress, retry it with its transaction id").
		WithReportableDetails(map[string]any{
			"invoice_id": invoiceID,
		}).
		Mark(ierr.ErrInvalidOperation)
}
