package config

import (
	"time"

	"github.com/flexprice/subscription-billing/internal/types"
)

// NotificationConfig represents the configuration for the notification bus
type NotificationConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Topic   string           `mapstructure:"topic" default:"notifications"`
	PubSub  types.PubSubType `mapstructure:"pubsub" validate:"omitempty,oneof=memory kafka" default:"memory"`
	// MaxRetries bounds redelivery attempts of a failed notification before it is poisoned
	MaxRetries      int           `mapstructure:"max_retries" default:"3"`
	InitialInterval time.Duration `mapstructure:"initial_interval" default:"1s"`
	// PoisonTopic receives notifications that exhausted their retries
	PoisonTopic string `mapstructure:"poison_topic" default:"notifications_poison"`

	Email EmailConfig `mapstructure:"email"`
}

// EmailConfig configures the Resend email channel. When disabled, email
// notifications are written to the log instead.
type EmailConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	APIKey      string `mapstructure:"api_key" validate:"required_if=Enabled true"`
	FromAddress string `mapstructure:"from_address" validate:"required_if=Enabled true"`
	ReplyTo     string `mapstructure:"reply_to" validate:"omitempty,email"`
}
