package subscription

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/types"
)

// Repository defines the interface for subscription persistence
type Repository interface {
	Create(ctx context.Context, sub *UserSubscription) error
	Get(ctx context.Context, id string) (*UserSubscription, error)
	Update(ctx context.Context, sub *UserSubscription) error
	// List returns subscriptions ordered by start date, most recent first
	List(ctx context.Context, filter *types.SubscriptionFilter) ([]*UserSubscription, error)
	Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error)
}
