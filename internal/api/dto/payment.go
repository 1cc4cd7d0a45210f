package dto

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/payment"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
	"github.com/shopspring/decimal"
)

type InitiatePaymentRequest struct {
	InvoiceID     string `json:"invoice_id" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required,payment_method"`
	// TransactionID is supplied by the caller and makes retries idempotent
	TransactionID string `json:"transaction_id" validate:"required,max=100"`
}

func (r *InitiatePaymentRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type RefundPaymentRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	Reason        string `json:"reason" validate:"max=500"`
}

func (r *RefundPaymentRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type ChargebackRequest struct {
	TransactionID string          `json:"transaction_id" validate:"required"`
	Reason        string          `json:"reason" validate:"max=500"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
}

func (r *ChargebackRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if !r.Amount.IsPositive() {
		return invalidField("amount", "Chargeback amount must be greater than zero")
	}
	return nil
}

// PaymentReceipt is the customer facing view of one payment row.
// Amount is signed, negative for refunds and chargebacks.
type PaymentReceipt struct {
	PaymentID           string                `json:"payment_id"`
	InvoiceID           string                `json:"invoice_id"`
	CustomerID          string                `json:"customer_id"`
	CustomerName        string                `json:"customer_name"`
	Amount              decimal.Decimal       `json:"amount" swaggertype:"string"`
	PaymentMethod       string                `json:"payment_method"`
	PaymentStatus       types.PaymentStatus   `json:"payment_status"`
	TransactionType     types.TransactionType `json:"transaction_type"`
	TransactionID       string                `json:"transaction_id"`
	ParentTransactionID string                `json:"parent_transaction_id,omitempty"`
	Reason              string                `json:"reason,omitempty"`
	PaymentDate         time.Time             `json:"payment_date"`
}

func NewPaymentReceipt(p *payment.Payment, customerName string) *PaymentReceipt {
	r := &PaymentReceipt{
		PaymentID:       p.ID,
		InvoiceID:       p.InvoiceID,
		CustomerID:      p.CustomerID,
		CustomerName:    customerName,
		Amount:          p.SignedAmount(),
		PaymentMethod:   p.PaymentMethod,
		PaymentStatus:   p.PaymentStatus,
		TransactionType: p.TransactionType,
		TransactionID:   p.TransactionID,
		PaymentDate:     p.PaymentDate,
	}
	if p.ParentTransactionID != nil {
		r.ParentTransactionID = *p.ParentTransactionID
	}
	if p.Reason != nil {
		r.Reason = *p.Reason
	}
	return r
}

// ListPaymentsResponse represents the response for listing payments
type ListPaymentsResponse = types.ListResponse[*PaymentReceipt]

type PaymentMethodResponse struct {
	Code        types.PaymentMethod `json:"code"`
	DisplayName string              `json:"display_name"`
}

type ListPaymentMethodsResponse struct {
	Items []PaymentMethodResponse `json:"items"`
}
