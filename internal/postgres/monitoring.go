package postgres

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/logger"
	sentryService "github.com/flexprice/subscription-billing/internal/sentry"
	"github.com/getsentry/sentry-go"
)

// SentryClient reports every outermost transaction as a sentry span. Nested
// WithTx calls join the outer transaction and are not traced again.
type SentryClient struct {
	client IClient
	sentry *sentryService.Service
	logger *logger.Logger
}

func NewSentryClient(client *Client, sentry *sentryService.Service, logger *logger.Logger) IClient {
	return &SentryClient{client: client, sentry: sentry, logger: logger}
}

func (c *SentryClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if _, nested := GetTx(ctx); nested {
		return c.client.WithTx(ctx, fn)
	}

	span, spanCtx := c.sentry.StartDBSpan(ctx, "postgres.transaction", map[string]interface{}{
		"operation": "transaction",
	})
	err := c.client.WithTx(spanCtx, fn)
	if span != nil {
		if err != nil {
			span.Status = sentry.SpanStatusInternalError
		} else {
			span.Status = sentry.SpanStatusOK
		}
		span.Finish()
	}
	return err
}
