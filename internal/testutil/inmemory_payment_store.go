package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/subscription-billing/internal/domain/payment"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

// InMemoryPaymentStore implements payment.Repository.
// Transaction ids are unique like idx_payments_transaction_id, and an invoice
// holds at most one open charge like idx_payments_invoice_open_charge.
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
	txMu sync.Mutex
}

func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*payment.Payment](),
	}
}

func copyPayment(p *payment.Payment) *payment.Payment {
	c := *p
	return &c
}

func paymentFilterFn(ctx context.Context, p *payment.Payment, filter interface{}) bool {
	if p == nil || !CheckTenantFilter(ctx, p.TenantID) {
		return false
	}

	f, ok := filter.(*types.PaymentFilter)
	if !ok || f == nil {
		return true
	}

	if f.InvoiceID != "" && p.InvoiceID != f.InvoiceID {
		return false
	}
	if f.CustomerID != "" && p.CustomerID != f.CustomerID {
		return false
	}
	if f.ParentTransactionID != "" && lo.FromPtr(p.ParentTransactionID) != f.ParentTransactionID {
		return false
	}
	if len(f.TransactionTypes) > 0 && !lo.Contains(f.TransactionTypes, p.TransactionType) {
		return false
	}
	if len(f.PaymentStatus) > 0 && !lo.Contains(f.PaymentStatus, p.PaymentStatus) {
		return false
	}
	return true
}

func paymentSortFn(i, j *payment.Payment) bool {
	return newerFirst(i.PaymentDate, j.PaymentDate, i.ID, j.ID)
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if _, ok := s.Find(ctx, func(existing *payment.Payment) bool {
		return existing.TransactionID == p.TransactionID
	}, nil); ok {
		return ierr.NewError("payment with this transaction id already exists").
			WithHint("Transaction id has already been used").
			WithReportableDetails(map[string]any{
				"transaction_id": p.TransactionID,
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	if p.HoldsInvoice() {
		if _, ok := s.Find(ctx, func(existing *payment.Payment) bool {
			return existing.InvoiceID == p.InvoiceID && existing.HoldsInvoice()
		}, nil); ok {
			return payment.ErrInvoiceHasOpenCharge(p.InvoiceID, nil)
		}
	}
	return s.InMemoryStore.Create(ctx, p.ID, copyPayment(p))
}

func (s *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, notFound("payment", id)
	}
	return copyPayment(p), nil
}

func (s *InMemoryPaymentStore) GetByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	p, ok := s.Find(ctx, func(p *payment.Payment) bool {
		return p.TransactionID == transactionID && CheckTenantFilter(ctx, p.TenantID)
	}, nil)
	if !ok {
		return nil, notFound("payment", transactionID)
	}
	return copyPayment(p), nil
}

func (s *InMemoryPaymentStore) Update(ctx context.Context, p *payment.Payment) error {
	return s.InMemoryStore.Update(ctx, p.ID, copyPayment(p))
}

func (s *InMemoryPaymentStore) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	items, err := s.InMemoryStore.List(ctx, filter, paymentFilterFn, paymentSortFn)
	return lo.Map(items, func(p *payment.Payment, _ int) *payment.Payment { return copyPayment(p) }), err
}

func (s *InMemoryPaymentStore) Count(ctx context.Context, filter *types.PaymentFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, paymentFilterFn)
}

func (s *InMemoryPaymentStore) DeleteByInvoiceID(ctx context.Context, invoiceID string) error {
	items, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, p *payment.Payment, _ interface{}) bool {
		return p.InvoiceID == invoiceID
	}, nil)
	if err != nil {
		return err
	}
	for _, p := range items {
		if err := s.InMemoryStore.Delete(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}
