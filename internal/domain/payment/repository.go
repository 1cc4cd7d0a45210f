package payment

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/types"
)

// Repository defines the interface for payment persistence
type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	// GetByTransactionID looks up a row by its globally unique transaction id
	GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	Update(ctx context.Context, payment *Payment) error
	List(ctx context.Context, filter *types.PaymentFilter) ([]*Payment, error)
	Count(ctx context.Context, filter *types.PaymentFilter) (int, error)
	// DeleteByInvoiceID removes every row of an invoice
	DeleteByInvoiceID(ctx context.Context, invoiceID string) error
}
