package testutil

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/usage"
	"github.com/flexprice/subscription-billing/internal/types"
)

// InMemoryUsageStore implements usage.Repository
type InMemoryUsageStore struct {
	*InMemoryStore[*usage.Record]
}

func NewInMemoryUsageStore() *InMemoryUsageStore {
	return &InMemoryUsageStore{
		InMemoryStore: NewInMemoryStore[*usage.Record](),
	}
}

func usageFilterFn(ctx context.Context, r *usage.Record, filter interface{}) bool {
	if r == nil || !CheckTenantFilter(ctx, r.TenantID) {
		return false
	}

	f, ok := filter.(*types.UsageFilter)
	if !ok || f == nil {
		return true
	}

	if f.CustomerID != "" && r.CustomerID != f.CustomerID {
		return false
	}
	if f.PlanID != "" && r.PlanID != f.PlanID {
		return false
	}
	return true
}

func (s *InMemoryUsageStore) Create(ctx context.Context, record *usage.Record) error {
	c := *record
	return s.InMemoryStore.Create(ctx, record.ID, &c)
}

func (s *InMemoryUsageStore) List(ctx context.Context, filter *types.UsageFilter) ([]*usage.Record, error) {
	return s.InMemoryStore.List(ctx, filter, usageFilterFn, func(i, j *usage.Record) bool {
		return newerFirst(i.UsageDate, j.UsageDate, i.ID, j.ID)
	})
}
