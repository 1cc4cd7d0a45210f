package testutil

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/notification"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

// InMemoryNotificationStore implements notification.Repository
type InMemoryNotificationStore struct {
	*InMemoryStore[*notification.Notification]
}

func NewInMemoryNotificationStore() *InMemoryNotificationStore {
	return &InMemoryNotificationStore{
		InMemoryStore: NewInMemoryStore[*notification.Notification](),
	}
}

func copyNotification(n *notification.Notification) *notification.Notification {
	c := *n
	return &c
}

func notificationFilterFn(ctx context.Context, n *notification.Notification, filter interface{}) bool {
	if n == nil || !CheckTenantFilter(ctx, n.TenantID) {
		return false
	}

	f, ok := filter.(*types.NotificationFilter)
	if !ok || f == nil {
		return true
	}

	if f.CustomerID != "" && n.CustomerID != f.CustomerID {
		return false
	}
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if f.Message != "" && n.Message != f.Message {
		return false
	}
	if f.NotificationStatus != "" && n.NotificationStatus != f.NotificationStatus {
		return false
	}
	return true
}

func notificationSortFn(i, j *notification.Notification) bool {
	return newerFirst(i.CreatedAt, j.CreatedAt, i.ID, j.ID)
}

func (s *InMemoryNotificationStore) Create(ctx context.Context, n *notification.Notification) error {
	return s.InMemoryStore.Create(ctx, n.ID, copyNotification(n))
}

func (s *InMemoryNotificationStore) Get(ctx context.Context, id string) (*notification.Notification, error) {
	n, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, notFound("notification", id)
	}
	return copyNotification(n), nil
}

func (s *InMemoryNotificationStore) Update(ctx context.Context, n *notification.Notification) error {
	return s.InMemoryStore.Update(ctx, n.ID, copyNotification(n))
}

func (s *InMemoryNotificationStore) List(ctx context.Context, filter *types.NotificationFilter) ([]*notification.Notification, error) {
	items, err := s.InMemoryStore.List(ctx, filter, notificationFilterFn, notificationSortFn)
	return lo.Map(items, func(n *notification.Notification, _ int) *notification.Notification {
		return copyNotification(n)
	}), err
}
