package postgres

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/invoice"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

func newTestInvoice(ctx context.Context, now time.Time) *invoice.Invoice {
	return &invoice.Invoice{
		ID:            "inv_1",
		InvoiceNumber: "INV-TEST0001",
		CustomerID:    "cust_1",
		PlanID:        lo.ToPtr("plan_1"),
		PlanName:      "Premium",
		PlanPrice:     decimal.NewFromInt(100),
		InvoiceDate:   now,
		DueDate:       invoice.DueDateFor(now, 30),
		InvoiceStatus: types.InvoiceStatusPaid,
		Amount:        decimal.NewFromInt(90),
		PaymentMethod: "CARD",
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
}
