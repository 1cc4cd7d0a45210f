package testutil

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.UserSubscription]
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.UserSubscription](),
	}
}

func copySubscription(sub *subscription.UserSubscription) *subscription.UserSubscription {
	c := *sub
	return &c
}

func subscriptionFilterFn(ctx context.Context, sub *subscription.UserSubscription, filter interface{}) bool {
	if sub == nil || !CheckTenantFilter(ctx, sub.TenantID) {
		return false
	}

	f, ok := filter.(*types.SubscriptionFilter)
	if !ok || f == nil {
		return true
	}

	if f.CustomerID != "" && sub.CustomerID != f.CustomerID {
		return false
	}
	if f.PlanID != "" && sub.PlanID != f.PlanID {
		return false
	}
	if len(f.SubscriptionStatus) > 0 && !lo.Contains(f.SubscriptionStatus, sub.SubscriptionStatus) {
		return false
	}
	return true
}

// subscriptionSortFn returns the most recently started subscription first
func subscriptionSortFn(i, j *subscription.UserSubscription) bool {
	return newerFirst(i.StartDate, j.StartDate, i.ID, j.ID)
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.UserSubscription) error {
	return s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.UserSubscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, notFound("subscription", id)
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.UserSubscription) error {
	return s.InMemoryStore.Update(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.UserSubscription, error) {
	items, err := s.InMemoryStore.List(ctx, filter, subscriptionFilterFn, subscriptionSortFn)
	return lo.Map(items, func(sub *subscription.UserSubscription, _ int) *subscription.UserSubscription {
		return copySubscription(sub)
	}), err
}

func (s *InMemorySubscriptionStore) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, subscriptionFilterFn)
}
