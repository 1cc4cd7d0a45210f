package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flexprice/subscription-billing/internal/api"
	v1 "github.com/flexprice/subscription-billing/internal/api/v1"
	"github.com/flexprice/subscription-billing/internal/cache"
	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/metrics"
	"github.com/flexprice/subscription-billing/internal/notification"
	"github.com/flexprice/subscription-billing/internal/notification/handler"
	"github.com/flexprice/subscription-billing/internal/postgres"
	pubsubRouter "github.com/flexprice/subscription-billing/internal/pubsub/router"
	"github.com/flexprice/subscription-billing/internal/repository"
	"github.com/flexprice/subscription-billing/internal/sentry"
	"github.com/flexprice/subscription-billing/internal/service"
	"github.com/flexprice/subscription-billing/internal/session"
	"github.com/flexprice/subscription-billing/internal/settlement"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title Subscription Billing API
// @version 1.0
// @description Plans, invoices, payments, subscriptions and device sessions
// @BasePath /v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter the token in the format *Bearer &lt;token&gt;*

const shutdownTimeout = 10 * time.Second

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewSentryClient,

			// Repositories
			repository.NewPlanRepository,
			repository.NewCustomerRepository,
			repository.NewDiscountRepository,
			repository.NewInvoiceRepository,
			repository.NewPaymentRepository,
			repository.NewSubscriptionRepository,
			repository.NewNotificationRepository,
			repository.NewUsageRepository,

			// Sessions
			session.NewRegistry,
		),
		fx.Invoke(validator.NewValidator),
		sentry.Module(),
		metrics.Module(),
		postgres.Module(),
		notification.Module,
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewPlanService,
			service.NewCustomerService,
			service.NewDiscountService,
			service.NewInvoiceService,
			service.NewPaymentProcessorService,
			service.NewSubscriptionService,
			service.NewBillingService,
			service.NewSessionService,
			service.NewNotificationService,
			service.NewUsageService,

			provideNotificationRecorder,
			provideInvoiceMarker,
			settlement.NewSettler,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

// provideNotificationRecorder lets the notification consumer persist through the service layer
func provideNotificationRecorder(s service.NotificationService) handler.Recorder {
	return s
}

// provideInvoiceMarker is the in-process settlement target
func provideInvoiceMarker(s service.InvoiceService) settlement.InvoiceMarker {
	return s
}

func provideHandlers(
	logger *logger.Logger,
	planService service.PlanService,
	customerService service.CustomerService,
	discountService service.DiscountService,
	invoiceService service.InvoiceService,
	paymentProcessorService service.PaymentProcessorService,
	subscriptionService service.SubscriptionService,
	billingService service.BillingService,
	sessionService service.SessionService,
	notificationService service.NotificationService,
	usageService service.UsageService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Plan:         v1.NewPlanHandler(planService, logger),
		Customer:     v1.NewCustomerHandler(customerService, logger),
		Discount:     v1.NewDiscountHandler(discountService, logger),
		Invoice:      v1.NewInvoiceHandler(invoiceService, logger),
		Payment:      v1.NewPaymentHandler(paymentProcessorService, logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, logger),
		Billing:      v1.NewBillingHandler(billingService, logger),
		Session:      v1.NewSessionHandler(sessionService, logger),
		Notification: v1.NewNotificationHandler(notificationService, logger),
		Usage:        v1.NewUsageHandler(usageService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger, m *metrics.Metrics) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger, m)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	notificationHandler handler.Handler,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		notification.RegisterConsumer(lc, cfg, router, notificationHandler, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeConsumer:
		notification.RegisterConsumer(lc, cfg, router, notificationHandler, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
