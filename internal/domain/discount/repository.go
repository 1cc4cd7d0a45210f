package discount

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/types"
)

// Repository defines the interface for discount data access
type Repository interface {
	Create(ctx context.Context, discount *Discount) error
	CreateBulk(ctx context.Context, discounts []*Discount) error
	Get(ctx context.Context, id string) (*Discount, error)
	// GetByCode returns the discount with the given code visible to customerID.
	// A discount owned by the customer wins over a catalog discount.
	GetByCode(ctx context.Context, code, customerID string) (*Discount, error)
	// GetByName looks a discount up by name with the same ownership rules as GetByCode
	GetByName(ctx context.Context, name, customerID string) (*Discount, error)
	List(ctx context.Context, filter *types.DiscountFilter) ([]*Discount, error)
	Count(ctx context.Context, filter *types.DiscountFilter) (int, error)
	Update(ctx context.Context, discount *Discount) error
	Delete(ctx context.Context, id string) error
}
