package testutil

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/invoice"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	c := *inv
	return &c
}

func invoiceFilterFn(ctx context.Context, inv *invoice.Invoice, filter interface{}) bool {
	if inv == nil || !CheckTenantFilter(ctx, inv.TenantID) {
		return false
	}

	f, ok := filter.(*types.InvoiceFilter)
	if !ok || f == nil {
		return true
	}

	if len(f.InvoiceIDs) > 0 && !lo.Contains(f.InvoiceIDs, inv.ID) {
		return false
	}
	if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
		return false
	}
	if f.PlanID != "" && inv.GetPlanID() != f.PlanID {
		return false
	}
	if len(f.InvoiceStatus) > 0 && !lo.Contains(f.InvoiceStatus, inv.InvoiceStatus) {
		return false
	}
	if f.RequirePlan && !inv.HasPlan() {
		return false
	}
	return true
}

func invoiceSortFn(i, j *invoice.Invoice) bool {
	if i.InvoiceDate.Equal(j.InvoiceDate) {
		return newerFirst(i.CreatedAt, j.CreatedAt, i.ID, j.ID)
	}
	return i.InvoiceDate.After(j.InvoiceDate)
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	return s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, notFound("invoice", id)
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	return s.InMemoryStore.Update(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) Delete(ctx context.Context, id string) error {
	if err := s.InMemoryStore.Delete(ctx, id); err != nil {
		return notFound("invoice", id)
	}
	return nil
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	items, err := s.InMemoryStore.List(ctx, filter, invoiceFilterFn, invoiceSortFn)
	return lo.Map(items, func(inv *invoice.Invoice, _ int) *invoice.Invoice { return copyInvoice(inv) }), err
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, invoiceFilterFn)
}

func (s *InMemoryInvoiceStore) GetLatestWithPlan(ctx context.Context, customerID string) (*invoice.Invoice, error) {
	inv, ok := s.Find(ctx, func(inv *invoice.Invoice) bool {
		return inv.CustomerID == customerID && inv.HasPlan() && CheckTenantFilter(ctx, inv.TenantID)
	}, invoiceSortFn)
	if !ok {
		return nil, notFound("invoice", customerID)
	}
	return copyInvoice(inv), nil
}
