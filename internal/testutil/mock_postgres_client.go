package testutil

import (
	"context"
	"sync/atomic"

	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

type txMarker struct{}

// MockPostgresClient runs transactional closures directly against the in-memory stores
type MockPostgresClient struct {
	logger *logger.Logger
	// Transactions counts outermost WithTx calls
	Transactions atomic.Int64
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx executes the given function, reusing an outer transaction when present
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	c.Transactions.Add(1)
	return fn(context.WithValue(ctx, txMarker{}, true))
}
