package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/subscription-billing/internal/config"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/idempotency"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/metrics"
	"github.com/flexprice/subscription-billing/internal/pubsub"
	"github.com/flexprice/subscription-billing/internal/types"
)

// Publisher produces notification events for asynchronous delivery
type Publisher interface {
	Publish(ctx context.Context, event *types.NotificationEvent) error
	Close() error
}

type notificationPublisher struct {
	pubSub    pubsub.PubSub
	config    *config.NotificationConfig
	generator *idempotency.Generator
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

func NewPublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) Publisher {
	return &notificationPublisher{
		pubSub:    pubSub,
		config:    &cfg.Notification,
		generator: idempotency.NewGenerator(),
		metrics:   metrics,
		logger:    logger,
	}
}

func (p *notificationPublisher) Publish(ctx context.Context, event *types.NotificationEvent) error {
	if !p.config.Enabled {
		p.logger.Debugw("notifications disabled, dropping event",
			"customer_id", event.CustomerID,
			"type", event.Type,
		)
		return nil
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.TenantID == "" {
		event.TenantID = types.GetTenantID(ctx)
	}
	if event.ID == "" {
		// the same message for the same customer maps to one id so brokers can dedup redeliveries
		event.ID = p.generator.GenerateKey(idempotency.ScopeNotification, map[string]interface{}{
			"customer_id": event.CustomerID,
			"type":        event.Type,
			"message":     event.Message,
			"timestamp":   event.Timestamp.UnixNano(),
		})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal notification").
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("tenant_id", event.TenantID)
	msg.Metadata.Set("customer_id", event.CustomerID)
	msg.Metadata.Set("request_id", types.GetRequestID(ctx))

	err = p.pubSub.Publish(ctx, p.config.Topic, msg)
	p.metrics.RecordNotificationPublished(string(event.Type), err)
	if err != nil {
		p.logger.Errorw("failed to publish notification",
			"error", err,
			"notification_id", event.ID,
			"customer_id", event.CustomerID,
			"type", event.Type,
		)
		return ierr.WithError(err).
			WithHint("Failed to publish notification").
			Mark(ierr.ErrHTTPClient)
	}

	p.logger.Debugw("published notification",
		"notification_id", event.ID,
		"customer_id", event.CustomerID,
		"type", event.Type,
		"topic", p.config.Topic,
	)
	return nil
}

func (p *notificationPublisher) Close() error {
	return p.pubSub.Close()
}
