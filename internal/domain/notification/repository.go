package notification

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/types"
)

// Repository defines the interface for notification persistence
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id string) (*Notification, error)
	Update(ctx context.Context, n *Notification) error
	// List returns notifications ordered by creation time, most recent first
	List(ctx context.Context, filter *types.NotificationFilter) ([]*Notification, error)
}
