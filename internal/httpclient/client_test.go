package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReturnsBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("X-Request-ID", "req_1")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewDefaultClient(ClientConfig{Timeout: time.Second}, nil)
	resp, err := client.Send(context.Background(), &Request{
		Method:  http.MethodPut,
		URL:     srv.URL,
		Headers: map[string]string{"Authorization": "Bearer token"},
		Body:    []byte(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, "req_1", resp.Headers["X-Request-Id"])
}

func TestSendMapsStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewDefaultClient(ClientConfig{Timeout: time.Second}, nil)
	_, err := client.Send(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	require.Error(t, err)

	httpErr, ok := IsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.True(t, ierr.IsHTTPClient(err))
	assert.True(t, IsRetryable(err))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(NewError(http.StatusNotFound, nil)))
	assert.True(t, IsRetryable(NewError(http.StatusTooManyRequests, nil)))
	assert.False(t, IsRetryable(ierr.NewError("bad").Mark(ierr.ErrValidation)))
}
