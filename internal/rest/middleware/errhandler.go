package middleware

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
)

const defaultDisplayMessage = "An unexpected error occurred"

// ErrorHandler renders the last error a handler attached to the context
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)

		fields := []interface{}{
			"error", err,
			"status", status,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", types.GetRequestID(c.Request.Context()),
		}
		if status >= 500 {
			log.Errorw("request failed", fields...)
		} else {
			log.Debugw("request rejected", fields...)
		}

		if c.Writer.Written() {
			return
		}

		response := ierr.ErrorResponse{
			Success: false,
			Error: ierr.ErrorDetail{
				Display: getDisplayMessage(err),
				Code:    ierr.CodeFromErr(err),
				Details: getSafeDetails(err),
			},
		}
		c.AbortWithStatusJSON(status, response)
	}
}

func getDisplayMessage(err error) string {
	// GetAllHints is a post-order traversal, the first hint is the innermost one
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return defaultDisplayMessage
}

func getSafeDetails(err error) map[string]any {
	details := make(map[string]any)

	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			jsonStr, ok := strings.CutPrefix(payload, "__json__:")
			if !ok {
				continue
			}
			var jsonDetails map[string]any
			if err := json.Unmarshal([]byte(jsonStr), &jsonDetails); err != nil {
				continue
			}
			for k, v := range jsonDetails {
				details[k] = v
			}
		}
	}

	if len(details) == 0 {
		return nil
	}
	return details
}
