package settlement

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/subscription-billing/internal/auth"
	"github.com/flexprice/subscription-billing/internal/config"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/httpclient"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/metrics"
	"github.com/flexprice/subscription-billing/internal/sentry"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/sony/gobreaker/v2"
)

const (
	breakerName      = "invoice-settlement"
	settlementUserID = "billing-settlement"
)

type httpSettler struct {
	baseURL string
	retry   config.RetryConfig
	client  httpclient.Client
	tokens  *auth.Provider
	breaker *gobreaker.CircuitBreaker[*httpclient.Response]
	logger  *logger.Logger
	sentry  *sentry.Service
	metrics *metrics.Metrics
}

// NewHTTPSettler settles invoices through PUT {base_url}/v1/invoices/{id}/mark-paid.
// Each attempt runs through the circuit breaker and failed attempts are retried
// with exponential backoff while the failure is transient.
func NewHTTPSettler(
	cfg config.SettlementConfig,
	client httpclient.Client,
	tokens *auth.Provider,
	logger *logger.Logger,
	sentry *sentry.Service,
	metrics *metrics.Metrics,
) Settler {
	s := &httpSettler{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		retry:   cfg.Retry,
		client:  client,
		tokens:  tokens,
		logger:  logger,
		sentry:  sentry,
		metrics: metrics,
	}

	threshold := cfg.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	s.breaker = gobreaker.NewCircuitBreaker[*httpclient.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// client side rejections say nothing about the health of the invoice service
		IsSuccessful: func(err error) bool {
			return err == nil || isAlreadyPaid(err) || !httpclient.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Infow("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.RecordBreakerState(name, int(to))
		},
	})

	return s
}

func (s *httpSettler) MarkInvoicePaid(ctx context.Context, invoiceID string) error {
	span, ctx := s.sentry.StartSettlementSpan(ctx, invoiceID)
	if span != nil {
		defer span.Finish()
	}

	start := time.Now()
	err := s.markInvoicePaid(ctx, invoiceID)
	s.metrics.RecordSettlement(string(types.SettlementModeHTTP), time.Since(start).Seconds(), err)
	if err != nil {
		s.sentry.CaptureException(err)
	}
	return err
}

func (s *httpSettler) markInvoicePaid(ctx context.Context, invoiceID string) error {
	token, err := s.tokens.GenerateToken(settlementUserID, types.GetTenantID(ctx))
	if err != nil {
		return err
	}

	req := &httpclient.Request{
		Method: http.MethodPut,
		URL:    fmt.Sprintf("%s/v1/invoices/%s/mark-paid", s.baseURL, invoiceID),
		Headers: map[string]string{
			types.HeaderAuthorization: "Bearer " + token,
			types.HeaderRequestID:     types.GetRequestID(ctx),
		},
	}

	attempt := 0
	operation := func() error {
		attempt++
		_, err := s.breaker.Execute(func() (*httpclient.Response, error) {
			return s.client.Send(ctx, req)
		})
		if err == nil || isAlreadyPaid(err) {
			return nil
		}
		if ierr.Is(err, gobreaker.ErrOpenState) || ierr.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		if !httpclient.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		s.logger.Warnw("invoice settlement attempt failed, retrying",
			"invoice_id", invoiceID,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, s.backoffPolicy(ctx), notify); err != nil {
		s.logger.Errorw("invoice settlement failed",
			"invoice_id", invoiceID,
			"attempts", attempt,
			"error", err,
		)
		return ierr.WithError(err).
			WithHint("Invoice settlement failed, retry the payment with the same transaction id").
			WithReportableDetails(map[string]any{
				"invoice_id": invoiceID,
				"attempts":   attempt,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	return nil
}

func (s *httpSettler) backoffPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if s.retry.InitialInterval > 0 {
		b.InitialInterval = s.retry.InitialInterval
	}
	if s.retry.MaxInterval > 0 {
		b.MaxInterval = s.retry.MaxInterval
	}
	b.MaxElapsedTime = 0

	retries := s.retry.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// isAlreadyPaid recognises the invoice service rejecting a second mark-paid
func isAlreadyPaid(err error) bool {
	httpErr, ok := httpclient.IsHTTPError(err)
	if !ok {
		return false
	}
	if httpErr.StatusCode != http.StatusConflict && httpErr.StatusCode != http.StatusBadRequest {
		return false
	}
	return strings.Contains(strings.ToLower(string(httpErr.Response)), "already paid")
}
