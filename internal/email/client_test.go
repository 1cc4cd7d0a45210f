package email

import (
	"context"
	"testing"

	"github.com/flexprice/subscription-billing/internal/config"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewClientDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.EmailConfig
	}{
		{"disabled", config.EmailConfig{Enabled: false, APIKey: "re_123"}},
		{"missing api key", config.EmailConfig{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.cfg)
			assert.False(t, c.IsEnabled())

			_, err := c.Send(context.Background(), "a@example.com", "subject", "body")
			assert.True(t, ierr.Is(err, ierr.ErrSystem))
		})
	}
}

func TestNewClientEnabled(t *testing.T) {
	c := NewClient(config.EmailConfig{Enabled: true, APIKey: "re_123", FromAddress: "billing@example.com"})
	assert.True(t, c.IsEnabled())

	var nilClient *Client
	assert.False(t, nilClient.IsEnabled())
}
