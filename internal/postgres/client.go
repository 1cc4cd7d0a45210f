package postgres

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/logger"
	"go.uber.org/fx"
)

// IClient defines the transaction boundary used by services
type IClient interface {
	// WithTx wraps the given function in a transaction
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

// Client provides transaction management on top of DB
type Client struct {
	db     *DB
	logger *logger.Logger
}

// Module provides an fx.Option to integrate the database with the application
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewDB,
			NewClient,
		),
	)
}

// NewClient creates a new client wrapper with transaction management
func NewClient(db *DB, logger *logger.Logger) *Client {
	return &Client{
		db:     db,
		logger: logger,
	}
}

// WithTx wraps the given function in a transaction.
// If ctx already carries one it is reused, and the outer caller commits.
func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := GetTx(ctx); ok {
		return fn(ctx)
	}
	return c.db.WithTx(ctx, fn)
}
