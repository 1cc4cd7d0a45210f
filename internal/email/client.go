package email

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/config"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/resend/resend-go/v2"
)

// Client sends transactional email through Resend. A client built from a
// disabled config or without an API key reports IsEnabled false and refuses to send.
type Client struct {
	client      *resend.Client
	enabled     bool
	fromAddress string
	replyTo     string
}

func NewClient(cfg config.EmailConfig) *Client {
	if !cfg.Enabled || cfg.APIKey == "" {
		return &Client{enabled: false}
	}

	return &Client{
		client:      resend.NewClient(cfg.APIKey),
		enabled:     true,
		fromAddress: cfg.FromAddress,
		replyTo:     cfg.ReplyTo,
	}
}

// IsEnabled returns whether the email client is enabled
func (c *Client) IsEnabled() bool {
	return c != nil && c.enabled
}

// Send delivers a plain text email and returns the provider message id
func (c *Client) Send(ctx context.Context, to, subject, text string) (string, error) {
	if !c.IsEnabled() {
		return "", ierr.NewError("email client is disabled").
			WithHint("Email delivery is not configured").
			Mark(ierr.ErrSystem)
	}

	params := &resend.SendEmailRequest{
		From:    c.fromAddress,
		To:      []string{to},
		Subject: subject,
		Text:    text,
	}
	if c.replyTo != "" {
		params.ReplyTo = c.replyTo
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to send email").
			WithReportableDetails(map[string]any{"to": to}).
			Mark(ierr.ErrHTTPClient)
	}
	return sent.Id, nil
}
