package testutil

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/customer"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

// InMemoryCustomerStore implements customer.Repository
type InMemoryCustomerStore struct {
	*InMemoryStore[*customer.Customer]
}

func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{
		InMemoryStore: NewInMemoryStore[*customer.Customer](),
	}
}

func copyCustomer(c *customer.Customer) *customer.Customer {
	cp := *c
	if c.ActivePlanID != nil {
		cp.ActivePlanID = lo.ToPtr(*c.ActivePlanID)
	}
	return &cp
}

func customerFilterFn(ctx context.Context, c *customer.Customer, filter interface{}) bool {
	if c == nil || !CheckTenantFilter(ctx, c.TenantID) || !isPublished(c.Status) {
		return false
	}

	f, ok := filter.(*types.CustomerFilter)
	if !ok || f == nil {
		return true
	}

	if len(f.CustomerIDs) > 0 && !lo.Contains(f.CustomerIDs, c.ID) {
		return false
	}
	if f.Email != "" && c.Email != f.Email {
		return false
	}
	if f.SubscriptionStatus != "" && c.SubscriptionStatus != f.SubscriptionStatus {
		return false
	}
	return true
}

func customerSortFn(i, j *customer.Customer) bool {
	return newerFirst(i.CreatedAt, j.CreatedAt, i.ID, j.ID)
}

func (s *InMemoryCustomerStore) Create(ctx context.Context, c *customer.Customer) error {
	return s.InMemoryStore.Create(ctx, c.ID, copyCustomer(c))
}

func (s *InMemoryCustomerStore) Get(ctx context.Context, id string) (*customer.Customer, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !isPublished(c.Status) {
		return nil, notFound("customer", id)
	}
	return copyCustomer(c), nil
}

func (s *InMemoryCustomerStore) List(ctx context.Context, filter *types.CustomerFilter) ([]*customer.Customer, error) {
	items, err := s.InMemoryStore.List(ctx, filter, customerFilterFn, customerSortFn)
	return lo.Map(items, func(c *customer.Customer, _ int) *customer.Customer { return copyCustomer(c) }), err
}

func (s *InMemoryCustomerStore) Count(ctx context.Context, filter *types.CustomerFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, customerFilterFn)
}

func (s *InMemoryCustomerStore) Update(ctx context.Context, c *customer.Customer) error {
	return s.InMemoryStore.Update(ctx, c.ID, copyCustomer(c))
}

func (s *InMemoryCustomerStore) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	c.Status = types.StatusDeleted
	return s.InMemoryStore.Update(ctx, id, c)
}
