package testutil

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/types"
)

// SetupContext returns a context scoped to the default tenant and user with a fresh request id
func SetupContext() context.Context {
	ctx := types.SetTenantID(context.Background(), types.DefaultTenantID)
	ctx = types.SetUserID(ctx, types.DefaultUserID)
	return types.SetRequestID(ctx, types.GenerateUUID())
}
