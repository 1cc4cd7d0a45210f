package config

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/types"
)

// SettlementConfig configures how payment initiation marks invoices paid
type SettlementConfig struct {
	Mode    types.SettlementMode `mapstructure:"mode" validate:"required,oneof=local http"`
	BaseURL string               `mapstructure:"base_url" validate:"required_if=Mode http"`
	// JWTSecret signs the bearer token sent to the mark-paid endpoint
	JWTSecret string        `mapstructure:"jwt_secret" validate:"required_if=Mode http"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retry     RetryConfig   `mapstructure:"retry"`
	Breaker   BreakerConfig `mapstructure:"breaker"`
}

type RetryConfig struct {
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

type BreakerConfig struct {
	MaxRequests uint32        `mapstructure:"max_requests"`
	Interval    time.Duration `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// FailureThreshold is the number of consecutive failures that opens the breaker
	FailureThreshold uint32 `mapstructure:"failure_threshold"`
}

// SessionConfig selects the active session registry
type SessionConfig struct {
	Backend  types.SessionBackend `mapstructure:"backend" validate:"required,oneof=memory redis"`
	RedisURL string               `mapstructure:"redis_url" validate:"required_if=Backend redis"`
}
