package notification

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/email"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/notification/delivery"
	"github.com/flexprice/subscription-billing/internal/notification/handler"
	"github.com/flexprice/subscription-billing/internal/notification/publisher"
	"github.com/flexprice/subscription-billing/internal/pubsub"
	"github.com/flexprice/subscription-billing/internal/pubsub/kafka"
	"github.com/flexprice/subscription-billing/internal/pubsub/memory"
	pubsubRouter "github.com/flexprice/subscription-billing/internal/pubsub/router"
	"github.com/flexprice/subscription-billing/internal/sentry"
	"github.com/flexprice/subscription-billing/internal/types"
	"go.uber.org/fx"
)

// Module provides all notification-related dependencies
var Module = fx.Options(
	fx.Provide(
		providePubSub,
		provideSenders,
		publisher.NewPublisher,
		handler.NewHandler,
		provideRouter,
	),
)

func providePubSub(lc fx.Lifecycle, cfg *config.Configuration, logger *logger.Logger) (pubsub.PubSub, error) {
	var ps pubsub.PubSub
	switch cfg.Notification.PubSub {
	case types.KafkaPubSub:
		kps, err := kafka.NewPubSub(cfg, logger)
		if err != nil {
			return nil, err
		}
		ps = kps
	default:
		ps = memory.NewPubSub(logger)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return ps.Close()
		},
	})
	return ps, nil
}

func provideSenders(cfg *config.Configuration, logger *logger.Logger) []delivery.Sender {
	return []delivery.Sender{
		delivery.NewEmailSender(email.NewClient(cfg.Notification.Email), logger),
		delivery.NewSMSSender(logger),
	}
}

func provideRouter(
	cfg *config.Configuration,
	ps pubsub.PubSub,
	logger *logger.Logger,
	sentry *sentry.Service,
) (*pubsubRouter.Router, error) {
	return pubsubRouter.NewRouter(cfg, ps, logger, sentry)
}

// RegisterConsumer attaches the notification handler to the router and runs
// the router for the lifetime of the application.
func RegisterConsumer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	router *pubsubRouter.Router,
	h handler.Handler,
	logger *logger.Logger,
) {
	if !cfg.Notification.Enabled {
		logger.Info("notification consumer disabled")
		return
	}

	h.RegisterHandler(router)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := router.Run(context.Background()); err != nil {
					logger.Errorw("notification router stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return router.Close()
		},
	})
}
