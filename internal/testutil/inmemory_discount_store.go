package testutil

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/discount"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

// InMemoryDiscountStore implements discount.Repository
type InMemoryDiscountStore struct {
	*InMemoryStore[*discount.Discount]
}

func NewInMemoryDiscountStore() *InMemoryDiscountStore {
	return &InMemoryDiscountStore{
		InMemoryStore: NewInMemoryStore[*discount.Discount](),
	}
}

func copyDiscount(d *discount.Discount) *discount.Discount {
	c := *d
	return &c
}

func discountFilterFn(ctx context.Context, d *discount.Discount, filter interface{}) bool {
	if d == nil || !CheckTenantFilter(ctx, d.TenantID) || !isPublished(d.Status) {
		return false
	}

	f, ok := filter.(*types.DiscountFilter)
	if !ok || f == nil {
		return true
	}

	if f.CustomerID != "" && lo.FromPtr(d.CustomerID) != f.CustomerID {
		return false
	}
	if f.TemplatesOnly && !d.IsTemplate() {
		return false
	}
	if f.Code != "" && d.Code != f.Code {
		return false
	}
	if f.Name != "" && d.Name != f.Name {
		return false
	}
	if f.Status != "" && d.DiscountStatus != f.Status {
		return false
	}
	return true
}

func discountSortFn(i, j *discount.Discount) bool {
	return newerFirst(i.CreatedAt, j.CreatedAt, i.ID, j.ID)
}

// discountLookupOrder matches the lookup order of GetByCode and GetByName:
// the customer's own discounts first, then catalog discounts, oldest first
func discountLookupOrder(i, j *discount.Discount) bool {
	if i.IsTemplate() != j.IsTemplate() {
		return !i.IsTemplate()
	}
	return newerFirst(j.CreatedAt, i.CreatedAt, j.ID, i.ID)
}

func visibleTo(d *discount.Discount, customerID string) bool {
	return d.IsTemplate() || lo.FromPtr(d.CustomerID) == customerID
}

func (s *InMemoryDiscountStore) Create(ctx context.Context, d *discount.Discount) error {
	return s.InMemoryStore.Create(ctx, d.ID, copyDiscount(d))
}

func (s *InMemoryDiscountStore) CreateBulk(ctx context.Context, discounts []*discount.Discount) error {
	for _, d := range discounts {
		if err := s.Create(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryDiscountStore) Get(ctx context.Context, id string) (*discount.Discount, error) {
	d, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !isPublished(d.Status) {
		return nil, notFound("discount", id)
	}
	return copyDiscount(d), nil
}

func (s *InMemoryDiscountStore) GetByCode(ctx context.Context, code, customerID string) (*discount.Discount, error) {
	d, ok := s.Find(ctx, func(d *discount.Discount) bool {
		return d.Code == code && visibleTo(d, customerID) && discountFilterFn(ctx, d, nil)
	}, discountLookupOrder)
	if !ok {
		return nil, notFound("discount", code)
	}
	return copyDiscount(d), nil
}

func (s *InMemoryDiscountStore) GetByName(ctx context.Context, name, customerID string) (*discount.Discount, error) {
	d, ok := s.Find(ctx, func(d *discount.Discount) bool {
		return d.Name == name && visibleTo(d, customerID) && discountFilterFn(ctx, d, nil)
	}, discountLookupOrder)
	if !ok {
		return nil, notFound("discount", name)
	}
	return copyDiscount(d), nil
}

func (s *InMemoryDiscountStore) List(ctx context.Context, filter *types.DiscountFilter) ([]*discount.Discount, error) {
	items, err := s.InMemoryStore.List(ctx, filter, discountFilterFn, discountSortFn)
	return lo.Map(items, func(d *discount.Discount, _ int) *discount.Discount { return copyDiscount(d) }), err
}

func (s *InMemoryDiscountStore) Count(ctx context.Context, filter *types.DiscountFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, discountFilterFn)
}

func (s *InMemoryDiscountStore) Update(ctx context.Context, d *discount.Discount) error {
	return s.InMemoryStore.Update(ctx, d.ID, copyDiscount(d))
}

func (s *InMemoryDiscountStore) Delete(ctx context.Context, id string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	d.Status = types.StatusDeleted
	return s.InMemoryStore.Update(ctx, id, d)
}
