package config

import (
	"testing"

	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, types.SettlementModeLocal, cfg.Settlement.Mode)
	assert.False(t, cfg.Billing.CancelClearsActivePlan)
}

func TestHTTPSettlementRequiresBaseURL(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Settlement.Mode = types.SettlementModeHTTP
	assert.Error(t, cfg.Validate())

	cfg.Settlement.BaseURL = "http://billing.internal"
	cfg.Settlement.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestRedisSessionsRequireURL(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Session.Backend = types.SessionBackendRedis
	assert.Error(t, cfg.Validate())
}

func TestGetDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     5432,
		User:     "u",
		Password: "p",
		DBName:   "billing",
		SSLMode:  "disable",
	}
	assert.Equal(t, "user=u password=p dbname=billing host=db port=5432 sslmode=disable", cfg.GetDSN())
}
