package router

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/pubsub"
	"github.com/flexprice/subscription-billing/internal/sentry"
)

// Router manages all message routing
type Router struct {
	router *message.Router
	logger *logger.Logger
	sentry *sentry.Service
	config *config.NotificationConfig
}

// NewRouter creates a new message router. Messages that keep failing after
// the configured retries are forwarded to the poison topic on poison.
func NewRouter(cfg *config.Configuration, poison pubsub.Publisher, logger *logger.Logger, sentry *sentry.Service) (*Router, error) {
	wmLogger := pubsub.NewLoggerAdapter(logger)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}

	poisonTopic := cfg.Notification.PoisonTopic
	if poisonTopic == "" {
		poisonTopic = cfg.Notification.Topic + "_poison"
	}
	poisonQueue, err := middleware.PoisonQueue(pubsub.AsWatermillPublisher(poison), poisonTopic)
	if err != nil {
		return nil, err
	}

	initial := cfg.Notification.InitialInterval
	if initial <= 0 {
		initial = time.Second
	}

	// Add middleware in correct order
	router.AddMiddleware(
		poisonQueue,
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:          cfg.Notification.MaxRetries,
			InitialInterval:     initial,
			MaxInterval:         30 * initial,
			Multiplier:          2,
			RandomizationFactor: 0.5,
			Logger:              wmLogger,
			OnRetryHook: func(retryNum int, delay time.Duration) {
				logger.Infow("retrying message",
					"retry_number", retryNum,
					"max_retries", cfg.Notification.MaxRetries,
					"delay", delay,
				)
			},
		}.Middleware,
	)

	return &Router{
		router: router,
		logger: logger,
		sentry: sentry,
		config: &cfg.Notification,
	}, nil
}

// AddNoPublishHandler adds a handler that doesn't publish messages.
// Failures that a retry cannot fix are logged and acknowledged.
func (r *Router) AddNoPublishHandler(
	handlerName string,
	topicName string,
	subscriber message.Subscriber,
	handlerFunc func(msg *message.Message) error,
	middlewares ...message.HandlerMiddleware,
) {
	handler := r.router.AddNoPublisherHandler(
		handlerName,
		topicName,
		subscriber,
		func(msg *message.Message) error {
			span, ctx := r.sentry.StartConsumerSpan(msg.Context(), topicName)
			if span != nil {
				msg.SetContext(ctx)
				defer span.Finish()
			}

			err := handlerFunc(msg)
			if err == nil {
				return nil
			}

			r.sentry.CaptureException(err)
			r.logger.Errorw("handler failed",
				"error", err,
				"handler", handlerName,
				"correlation_id", middleware.MessageCorrelationID(msg),
				"message_uuid", msg.UUID,
			)
			if !shouldRetry(r.logger, err) {
				return nil
			}
			return err
		},
	)

	for _, middleware := range middlewares {
		handler.AddMiddleware(middleware)
	}
}

// Run starts the router and blocks until ctx is cancelled or Close is called
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("starting router")
	return r.router.Run(ctx)
}

// Running is closed once all handlers are subscribed
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Close gracefully shuts down the router
func (r *Router) Close() error {
	r.logger.Info("closing router")
	return r.router.Close()
}
