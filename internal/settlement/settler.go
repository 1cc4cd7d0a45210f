package settlement

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/auth"
	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/httpclient"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/metrics"
	"github.com/flexprice/subscription-billing/internal/sentry"
	"github.com/flexprice/subscription-billing/internal/types"
)

// Settler marks an invoice paid on behalf of the payment processor.
// Implementations must be idempotent: settling an already paid invoice succeeds.
type Settler interface {
	MarkInvoicePaid(ctx context.Context, invoiceID string) error
}

// InvoiceMarker is the in-process invoice settlement target
type InvoiceMarker interface {
	MarkInvoicePaidIdempotent(ctx context.Context, invoiceID string) error
}

// NewSettler returns the settler selected by settlement.mode
func NewSettler(
	cfg *config.Configuration,
	marker InvoiceMarker,
	logger *logger.Logger,
	sentry *sentry.Service,
	metrics *metrics.Metrics,
) Settler {
	if cfg.Settlement.Mode == types.SettlementModeHTTP {
		client := httpclient.NewDefaultClient(httpclient.ClientConfig{
			Timeout:      cfg.Settlement.Timeout,
			RetryMax:     1,
			RetryWaitMin: 50 * time.Millisecond,
			RetryWaitMax: 500 * time.Millisecond,
		}, logger)
		tokens := auth.NewProvider(cfg.Settlement.JWTSecret, time.Hour)
		return NewHTTPSettler(cfg.Settlement, client, tokens, logger, sentry, metrics)
	}
	return NewLocalSettler(marker, logger, metrics)
}

type localSettler struct {
	marker  InvoiceMarker
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewLocalSettler settles invoices by calling the invoice service directly
func NewLocalSettler(marker InvoiceMarker, logger *logger.Logger, metrics *metrics.Metrics) Settler {
	return &localSettler{marker: marker, logger: logger, metrics: metrics}
}

func (s *localSettler) MarkInvoicePaid(ctx context.Context, invoiceID string) error {
	start := time.Now()
	err := s.marker.MarkInvoicePaidIdempotent(ctx, invoiceID)
	s.metrics.RecordSettlement(string(types.SettlementModeLocal), time.Since(start).Seconds(), err)
	if err != nil {
		s.logger.Errorw("local invoice settlement failed", "invoice_id", invoiceID, "error", err)
	}
	return err
}
