package types

import (
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/samber/lo"
)

// PaymentStatus represents the status of a payment row
type PaymentStatus string

const (
	// PaymentStatusPending marks a reserved charge whose invoice settlement has not been confirmed
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusPaid       PaymentStatus = "PAID"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
	PaymentStatusChargeback PaymentStatus = "CHARGEBACK"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusPaid,
		PaymentStatusRefunded,
		PaymentStatusChargeback,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment status").
			WithHint("Please provide a valid payment status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TransactionType tags a payment row as a charge or one of its reversals.
// Amounts are always stored as positive magnitudes.
type TransactionType string

const (
	TransactionTypeCharge     TransactionType = "CHARGE"
	TransactionTypeRefund     TransactionType = "REFUND"
	TransactionTypeChargeback TransactionType = "CHARGEBACK"
)

func (t TransactionType) String() string {
	return string(t)
}

func (t TransactionType) Validate() error {
	allowed := []TransactionType{
		TransactionTypeCharge,
		TransactionTypeRefund,
		TransactionTypeChargeback,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid transaction type").
			WithHint("Please provide a valid transaction type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsReversal reports whether the transaction takes money back from a charge
func (t TransactionType) IsReversal() bool {
	return t == TransactionTypeRefund || t == TransactionTypeChargeback
}

// Derived transaction id prefixes for reversal rows
const (
	RefundTransactionPrefix     = "REF_"
	ChargebackTransactionPrefix = "CB_"
)

// PaymentMethod is a supported way for customers to pay
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodPaypal       PaymentMethod = "PAYPAL"
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodCard         PaymentMethod = "CARD"
)

var paymentMethodDisplayNames = map[PaymentMethod]string{
	PaymentMethodCreditCard:   "Credit Card",
	PaymentMethodDebitCard:    "Debit Card",
	PaymentMethodBankTransfer: "Bank Transfer",
	PaymentMethodPaypal:       "PayPal",
	PaymentMethodUPI:          "UPI",
	PaymentMethodCard:         "Card",
}

// SupportedPaymentMethods lists payment methods in display order
func SupportedPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCreditCard,
		PaymentMethodDebitCard,
		PaymentMethodBankTransfer,
		PaymentMethodPaypal,
		PaymentMethodUPI,
		PaymentMethodCard,
	}
}

func (m PaymentMethod) String() string {
	return string(m)
}

// DisplayName returns the human readable name of the payment method
func (m PaymentMethod) DisplayName() string {
	return paymentMethodDisplayNames[m]
}

func (m PaymentMethod) Validate() error {
	if !lo.Contains(SupportedPaymentMethods(), m) {
		return ierr.NewError("invalid payment method").
			WithHint("Please provide a supported payment method").
			WithReportableDetails(map[string]any{
				"allowed": SupportedPaymentMethods(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentFilter represents filters for payment queries
type PaymentFilter struct {
	*QueryFilter

	InvoiceID           string            `json:"invoice_id,omitempty" form:"invoice_id"`
	CustomerID          string            `json:"customer_id,omitempty" form:"customer_id"`
	ParentTransactionID string            `json:"parent_transaction_id,omitempty" form:"parent_transaction_id"`
	TransactionTypes    []TransactionType `json:"transaction_types,omitempty" form:"transaction_types"`
	PaymentStatus       []PaymentStatus   `json:"payment_status,omitempty" form:"payment_status"`
}

// NewPaymentFilter creates a new payment filter with default options
func NewPaymentFilter() *PaymentFilter {
	return &PaymentFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitPaymentFilter creates a new payment filter without pagination
func NewNoLimitPaymentFilter() *PaymentFilter {
	return &PaymentFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the filter options
func (f PaymentFilter) Validate() error {
	for _, t := range f.TransactionTypes {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, s := range f.PaymentStatus {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return f.QueryFilter.Validate()
}
