package delivery

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/email"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/types"
)

// Sender delivers a rendered notification over one channel
type Sender interface {
	Channel() types.NotificationChannel
	Send(ctx context.Context, event *types.NotificationEvent) error
}

// Result is the outcome of delivering a notification over one channel
type Result struct {
	Channel types.NotificationChannel
	Err     error
}

// Sent reports whether delivery over the channel succeeded
func (r Result) Sent() bool {
	return r.Err == nil
}

type emailSender struct {
	client *email.Client
	logger *logger.Logger
}

// NewEmailSender returns a sender that mails through client, or writes the
// email to the log when client is disabled
func NewEmailSender(client *email.Client, logger *logger.Logger) Sender {
	return &emailSender{client: client, logger: logger}
}

func (s *emailSender) Channel() types.NotificationChannel {
	return types.NotificationChannelEmail
}

func (s *emailSender) Send(ctx context.Context, event *types.NotificationEvent) error {
	if event.Email == "" {
		return ierr.NewError("customer has no email address").
			WithHint("Email notification skipped").
			WithReportableDetails(map[string]any{"customer_id": event.CustomerID}).
			Mark(ierr.ErrValidation)
	}

	if !s.client.IsEnabled() {
		s.logger.Infow("email notification logged",
			"customer_id", event.CustomerID,
			"to", event.Email,
			"subject", event.Subject,
			"type", event.Type,
		)
		return nil
	}

	messageID, err := s.client.Send(ctx, event.Email, event.Subject, event.Message)
	if err != nil {
		return err
	}
	s.logger.Infow("email notification sent",
		"customer_id", event.CustomerID,
		"message_id", messageID,
		"type", event.Type,
	)
	return nil
}

type smsSender struct {
	logger *logger.Logger
}

// NewSMSSender returns a sender that hands text messages to the log
func NewSMSSender(logger *logger.Logger) Sender {
	return &smsSender{logger: logger}
}

func (s *smsSender) Channel() types.NotificationChannel {
	return types.NotificationChannelSMS
}

func (s *smsSender) Send(ctx context.Context, event *types.NotificationEvent) error {
	if event.Phone == "" {
		return ierr.NewError("customer has no phone number").
			WithHint("SMS notification skipped").
			WithReportableDetails(map[string]any{"customer_id": event.CustomerID}).
			Mark(ierr.ErrValidation)
	}
	s.logger.Infow("sms notification sent",
		"customer_id", event.CustomerID,
		"to", event.Phone,
		"type", event.Type,
	)
	return nil
}
