package errors

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewError("invoice not found").Mark(ErrNotFound), http.StatusNotFound},
		{"validation", NewError("bad amount").Mark(ErrValidation), http.StatusBadRequest},
		{"invalid state", NewError("already refunded").Mark(ErrInvalidOperation), http.StatusBadRequest},
		{"already exists", NewError("duplicate").Mark(ErrAlreadyExists), http.StatusConflict},
		{"external call", NewError("settlement down").Mark(ErrHTTPClient), http.StatusBadGateway},
		{"unmarked", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromErr(tt.err))
		})
	}
}

func TestBuilderKeepsHintAndMark(t *testing.T) {
	err := NewError("payment not refundable").
		WithHint("Only paid payments can be refunded").
		WithReportableDetails(map[string]any{"transaction_id": "TX1"}).
		Mark(ErrInvalidOperation)

	assert.True(t, IsInvalidOperation(err))
	assert.False(t, IsNotFound(err))
	assert.Contains(t, errors.GetAllHints(err), "Only paid payments can be refunded")
	assert.Equal(t, ErrCodeInvalidOperation, CodeFromErr(err))
}

func TestWrappedErrorKeepsMark(t *testing.T) {
	base := NewError("customer not found").Mark(ErrNotFound)
	wrapped := WithError(base).WithMessage("generating invoice").Mark(ErrNotFound)

	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, ErrCodeNotFound, CodeFromErr(wrapped))
}
