package usage

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/types"
)

type Repository interface {
	Create(ctx context.Context, record *Record) error
	List(ctx context.Context, filter *types.UsageFilter) ([]*Record, error)
}
