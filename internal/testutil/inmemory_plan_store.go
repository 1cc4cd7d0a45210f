package testutil

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/plan"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

// InMemoryPlanStore implements plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

// NewInMemoryPlanStore creates a new in-memory plan store
func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.Plan](),
	}
}

func copyPlan(p *plan.Plan) *plan.Plan {
	c := *p
	return &c
}

// planFilterFn implements filtering logic for plans
func planFilterFn(ctx context.Context, p *plan.Plan, filter interface{}) bool {
	if p == nil || !CheckTenantFilter(ctx, p.TenantID) || !isPublished(p.Status) {
		return false
	}

	f, ok := filter.(*types.PlanFilter)
	if !ok || f == nil {
		return true
	}

	if len(f.PlanIDs) > 0 && !lo.Contains(f.PlanIDs, p.ID) {
		return false
	}
	return true
}

// planSortFn implements sorting logic for plans
func planSortFn(i, j *plan.Plan) bool {
	return newerFirst(i.CreatedAt, j.CreatedAt, i.ID, j.ID)
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	return s.InMemoryStore.Create(ctx, p.ID, copyPlan(p))
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !isPublished(p.Status) {
		return nil, notFound("plan", id)
	}
	return copyPlan(p), nil
}

func (s *InMemoryPlanStore) List(ctx context.Context, filter *types.PlanFilter) ([]*plan.Plan, error) {
	items, err := s.InMemoryStore.List(ctx, filter, planFilterFn, planSortFn)
	return lo.Map(items, func(p *plan.Plan, _ int) *plan.Plan { return copyPlan(p) }), err
}

func (s *InMemoryPlanStore) Count(ctx context.Context, filter *types.PlanFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, planFilterFn)
}

func (s *InMemoryPlanStore) Update(ctx context.Context, p *plan.Plan) error {
	return s.InMemoryStore.Update(ctx, p.ID, copyPlan(p))
}

func (s *InMemoryPlanStore) Delete(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Status = types.StatusDeleted
	return s.InMemoryStore.Update(ctx, id, p)
}
