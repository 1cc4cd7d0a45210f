package dto

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/invoice"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type GenerateInvoiceRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	PlanID     string `json:"plan_id" validate:"required"`
	// InvoiceDate defaults to now when omitted
	InvoiceDate  *time.Time `json:"invoice_date,omitempty"`
	DiscountCode string     `json:"discount_code,omitempty"`
}

func (r *GenerateInvoiceRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// GetInvoiceDate returns the requested invoice date or now
func (r *GenerateInvoiceRequest) GetInvoiceDate(now time.Time) time.Time {
	if r.InvoiceDate == nil || r.InvoiceDate.IsZero() {
		return now
	}
	return r.InvoiceDate.UTC()
}

// InvoiceDiscount is the discount snapshot carried by an invoice
type InvoiceDiscount struct {
	ID     string             `json:"id"`
	Code   string             `json:"code"`
	Type   types.DiscountType `json:"type"`
	Value  decimal.Decimal    `json:"value" swaggertype:"string"`
	Amount decimal.Decimal    `json:"amount" swaggertype:"string"`
}

type InvoiceResponse struct {
	ID            string              `json:"id"`
	InvoiceNumber string              `json:"invoice_number"`
	CustomerID    string              `json:"customer_id"`
	PlanID        string              `json:"plan_id,omitempty"`
	PlanName      string              `json:"plan_name"`
	PlanPrice     decimal.Decimal     `json:"plan_price" swaggertype:"string"`
	Amount        decimal.Decimal     `json:"amount" swaggertype:"string"`
	InvoiceDate   time.Time           `json:"invoice_date"`
	DueDate       time.Time           `json:"due_date"`
	InvoiceStatus types.InvoiceStatus `json:"invoice_status"`
	// EffectiveStatus is OVERDUE for pending invoices past their due date
	EffectiveStatus types.InvoiceStatus `json:"effective_status"`
	PaymentMethod   string              `json:"payment_method"`
	Discount        *InvoiceDiscount    `json:"discount,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func NewInvoiceResponse(inv *invoice.Invoice, now time.Time) *InvoiceResponse {
	resp := &InvoiceResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerID:      inv.CustomerID,
		PlanID:          inv.GetPlanID(),
		PlanName:        inv.PlanName,
		PlanPrice:       inv.PlanPrice,
		Amount:          inv.Amount,
		InvoiceDate:     inv.InvoiceDate,
		DueDate:         inv.DueDate,
		InvoiceStatus:   inv.InvoiceStatus,
		EffectiveStatus: inv.EffectiveStatus(now),
		PaymentMethod:   inv.PaymentMethod,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}

	if inv.HasDiscount() {
		resp.Discount = &InvoiceDiscount{
			ID:     lo.FromPtr(inv.DiscountID),
			Code:   lo.FromPtr(inv.DiscountCode),
			Type:   lo.FromPtr(inv.DiscountType),
			Value:  lo.FromPtr(inv.DiscountValue),
			Amount: lo.FromPtr(inv.DiscountAmount),
		}
	}
	return resp
}

// ListInvoicesResponse represents the response for listing invoices
type ListInvoicesResponse = types.ListResponse[*InvoiceResponse]
