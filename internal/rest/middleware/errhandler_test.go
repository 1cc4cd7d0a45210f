package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flexprice/subscription-billing/internal/config"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, handler gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.NewLogger(config.GetDefaultConfig())
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestIDMiddleware, ErrorHandler(log))
	r.GET("/test", handler)
	return r
}

func serve(r *gin.Engine) (*httptest.ResponseRecorder, ierr.ErrorResponse) {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	var resp ierr.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetails map[string]any
	}{
		{
			name: "invalid state with details",
			err: ierr.NewError("payment already refunded").
				WithHint("Only paid payments can be refunded").
				WithReportableDetails(map[string]any{"transaction_id": "TX1"}).
				Mark(ierr.ErrInvalidOperation),
			wantStatus:  http.StatusBadRequest,
			wantCode:    ierr.ErrCodeInvalidOperation,
			wantMessage: "Only paid payments can be refunded",
			wantDetails: map[string]any{"transaction_id": "TX1"},
		},
		{
			name:        "not found",
			err:         ierr.NewError("invoice not found").WithHint("Invoice not found").Mark(ierr.ErrNotFound),
			wantStatus:  http.StatusNotFound,
			wantCode:    ierr.ErrCodeNotFound,
			wantMessage: "Invoice not found",
		},
		{
			name:        "settlement outage",
			err:         ierr.NewError("dial tcp: refused").WithHint("Invoice settlement failed").Mark(ierr.ErrHTTPClient),
			wantStatus:  http.StatusBadGateway,
			wantCode:    ierr.ErrCodeHTTPClient,
			wantMessage: "Invoice settlement failed",
		},
		{
			name:        "unmarked error hides internals",
			err:         errors.New("pq: connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    ierr.ErrCodeSystemError,
			wantMessage: defaultDisplayMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestEngine(t, func(c *gin.Context) {
				c.Error(tt.err)
			})

			rec, resp := serve(r)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMessage, resp.Error.Display)
			assert.Equal(t, tt.wantDetails, resp.Error.Details)
			assert.NotEmpty(t, rec.Header().Get(types.HeaderRequestID))
		})
	}
}

func TestErrorHandlerKeepsWrittenResponse(t *testing.T) {
	r := newTestEngine(t, func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
		c.Error(errors.New("late failure"))
	})

	rec, _ := serve(r)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"queued"}`, rec.Body.String())
}

func TestErrorHandlerPassesSuccess(t *testing.T) {
	r := newTestEngine(t, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec, _ := serve(r)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
