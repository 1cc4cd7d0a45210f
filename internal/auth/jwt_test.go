package auth

import (
	"context"
	"testing"
	"time"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	p := NewProvider("s3cret", time.Hour)

	token, err := p.GenerateToken("svc_payments", "")
	require.NoError(t, err)

	claims, err := p.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "svc_payments", claims.UserID)
	assert.Equal(t, types.DefaultTenantID, claims.TenantID)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	token, err := NewProvider("one", time.Hour).GenerateToken("u1", "t1")
	require.NoError(t, err)

	_, err = NewProvider("two", time.Hour).ValidateToken(context.Background(), token)
	assert.True(t, ierr.IsPermissionDenied(err))
}

func TestGenerateTokenWithoutSecret(t *testing.T) {
	_, err := NewProvider("", 0).GenerateToken("u1", "t1")
	assert.Error(t, err)
}
