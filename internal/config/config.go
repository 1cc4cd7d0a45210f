package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment   DeploymentConfig   `mapstructure:"deployment" validate:"required"`
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Auth         AuthConfig         `mapstructure:"auth" validate:"required"`
	Kafka        KafkaConfig        `mapstructure:"kafka" validate:"required"`
	Logging      LoggingConfig      `mapstructure:"logging" validate:"required"`
	Postgres     PostgresConfig     `mapstructure:"postgres" validate:"required"`
	Notification NotificationConfig `mapstructure:"notification" validate:"required"`
	Settlement   SettlementConfig   `mapstructure:"settlement" validate:"required"`
	Session      SessionConfig      `mapstructure:"session" validate:"required"`
	Cache        CacheConfig        `mapstructure:"cache" validate:"required"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
	Billing      BillingConfig      `mapstructure:"billing"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required,oneof=local api consumer"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
	// LoginRateLimit is the sustained login requests per second allowed per client IP
	LoginRateLimit float64 `mapstructure:"login_rate_limit" validate:"gte=0"`
	LoginRateBurst int     `mapstructure:"login_rate_burst" validate:"gte=0"`
}

type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Secret  string `mapstructure:"secret" validate:"required_if=Enabled true"`
}

type KafkaConfig struct {
	Brokers       []string             `mapstructure:"brokers"`
	ConsumerGroup string               `mapstructure:"consumer_group"`
	ClientID      string               `mapstructure:"client_id"`
	TLS           bool                 `mapstructure:"tls"`
	UseSASL       bool                 `mapstructure:"use_sasl"`
	SASLMechanism sarama.SASLMechanism `mapstructure:"sasl_mechanism"`
	SASLUser      string               `mapstructure:"sasl_user"`
	SASLPassword  string               `mapstructure:"sasl_password"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host" validate:"required"`
	Port                   int    `mapstructure:"port" validate:"required"`
	User                   string `mapstructure:"user" validate:"required"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname" validate:"required"`
	SSLMode                string `mapstructure:"sslmode" validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" default:"60"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" default:"1.0"`
}

// BillingConfig holds product level switches for the billing engine
type BillingConfig struct {
	// CancelClearsActivePlan clears the customer's active plan when their last active subscription is cancelled
	CancelClearsActivePlan bool `mapstructure:"cancel_clears_active_plan"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional, real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billing")

	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts, tests or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server: ServerConfig{
			Address:        ":8080",
			LoginRateLimit: 5,
			LoginRateBurst: 10,
		},
		Logging: LoggingConfig{Level: types.LogLevelDebug},
		Postgres: PostgresConfig{
			Host:         "localhost",
			Port:         5432,
			User:         "billing",
			DBName:       "billing",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Notification: NotificationConfig{
			Enabled:         true,
			Topic:           "notifications",
			PubSub:          types.MemoryPubSub,
			MaxRetries:      3,
			InitialInterval: time.Second,
			PoisonTopic:     "notifications_poison",
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:29092"},
			ConsumerGroup: "billing-notifications",
			ClientID:      "billing",
		},
		Settlement: SettlementConfig{
			Mode:    types.SettlementModeLocal,
			Timeout: 10 * time.Second,
			Retry: RetryConfig{
				MaxRetries:      3,
				InitialInterval: 200 * time.Millisecond,
				MaxInterval:     2 * time.Second,
			},
			Breaker: BreakerConfig{
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Session: SessionConfig{Backend: types.SessionBackendMemory},
		Cache:   CacheConfig{Enabled: true, TTL: 10 * time.Minute},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
