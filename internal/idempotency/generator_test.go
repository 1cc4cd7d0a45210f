package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyIsStable(t *testing.T) {
	g := NewGenerator()
	params := map[string]interface{}{"customer_id": "cust_1", "type": "PAYMENT_SUCCESS"}

	first := g.GenerateKey(ScopeNotification, params)
	second := g.GenerateKey(ScopeNotification, map[string]interface{}{"type": "PAYMENT_SUCCESS", "customer_id": "cust_1"})

	assert.Equal(t, first, second)
	assert.Contains(t, first, "notification-")
	assert.True(t, g.Matches(ScopeNotification, params, first))
	assert.NotEqual(t, first, g.GenerateKey(ScopePayment, params))
}
