package router

import (
	"github.com/flexprice/subscription-billing/internal/httpclient"
	"github.com/flexprice/subscription-billing/internal/logger"
)

func shouldRetry(logger *logger.Logger, err error) bool {
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		retry := httpclient.IsRetryable(err)
		logger.Debugw("http error in handler",
			"status_code", httpErr.StatusCode,
			"retry", retry,
			"error", httpErr,
		)
		return retry
	}

	return httpclient.IsRetryable(err)
}
