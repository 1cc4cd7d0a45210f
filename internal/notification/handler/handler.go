package handler

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/domain/notification"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/metrics"
	"github.com/flexprice/subscription-billing/internal/notification/delivery"
	"github.com/flexprice/subscription-billing/internal/pubsub"
	pubsubRouter "github.com/flexprice/subscription-billing/internal/pubsub/router"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/sourcegraph/conc/pool"
)

// Recorder persists notifications and their delivery outcome
type Recorder interface {
	RecordNotification(ctx context.Context, event *types.NotificationEvent) (*notification.Notification, error)
	UpdateDeliveryStatus(ctx context.Context, notificationID string, results []delivery.Result) error
}

// Handler consumes notification events
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
	ProcessMessage(msg *message.Message) error
}

type handler struct {
	pubSub   pubsub.PubSub
	config   *config.NotificationConfig
	recorder Recorder
	senders  []delivery.Sender
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	recorder Recorder,
	senders []delivery.Sender,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) Handler {
	return &handler{
		pubSub:   pubSub,
		config:   &cfg.Notification,
		recorder: recorder,
		senders:  senders,
		metrics:  metrics,
		logger:   logger,
	}
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"notification_handler",
		h.config.Topic,
		h.pubSub,
		h.ProcessMessage,
	)
}

// ProcessMessage stores one notification and fans it out to every channel
func (h *handler) ProcessMessage(msg *message.Message) error {
	var event types.NotificationEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal notification event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil // Don't retry on unmarshal errors
	}

	ctx := types.SetTenantID(msg.Context(), event.TenantID)
	ctx = types.SetRequestID(ctx, msg.Metadata.Get("request_id"))

	n, err := h.recorder.RecordNotification(ctx, &event)
	if err != nil {
		return err
	}

	results := h.deliver(ctx, &event)

	if err := h.recorder.UpdateDeliveryStatus(ctx, n.ID, results); err != nil {
		return err
	}

	h.logger.Infow("notification processed",
		"notification_id", n.ID,
		"customer_id", event.CustomerID,
		"type", event.Type,
		"message_uuid", msg.UUID,
	)
	return nil
}

// deliver sends the event over all channels concurrently. Channel failures
// are recorded on the notification and never fail the message.
func (h *handler) deliver(ctx context.Context, event *types.NotificationEvent) []delivery.Result {
	p := pool.NewWithResults[delivery.Result]().WithMaxGoroutines(len(h.senders) + 1)
	for _, sender := range h.senders {
		sender := sender
		p.Go(func() delivery.Result {
			err := sender.Send(ctx, event)
			h.metrics.RecordNotificationDelivered(string(sender.Channel()), err)
			if err != nil {
				h.logger.Warnw("notification delivery failed",
					"channel", sender.Channel(),
					"customer_id", event.CustomerID,
					"error", err,
				)
			}
			return delivery.Result{Channel: sender.Channel(), Err: err}
		})
	}
	return p.Wait()
}
