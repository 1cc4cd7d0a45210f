package service

import (
	"github.com/flexprice/subscription-billing/internal/cache"
	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/domain/customer"
	"github.com/flexprice/subscription-billing/internal/domain/discount"
	"github.com/flexprice/subscription-billing/internal/domain/invoice"
	"github.com/flexprice/subscription-billing/internal/domain/notification"
	"github.com/flexprice/subscription-billing/internal/domain/payment"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	"github.com/flexprice/subscription-billing/internal/domain/usage"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/metrics"
	"github.com/flexprice/subscription-billing/internal/notification/publisher"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/session"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger  *logger.Logger
	Config  *config.Configuration
	DB      postgres.IClient
	Cache   cache.Cache
	Metrics *metrics.Metrics

	// Repositories
	PlanRepo         plan.Repository
	CustomerRepo     customer.Repository
	DiscountRepo     discount.Repository
	InvoiceRepo      invoice.Repository
	PaymentRepo      payment.Repository
	SubRepo          subscription.Repository
	NotificationRepo notification.Repository
	UsageRepo        usage.Repository

	// Publishers
	NotificationPublisher publisher.Publisher

	// Sessions
	SessionRegistry session.Registry
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	metrics *metrics.Metrics,
	planRepo plan.Repository,
	customerRepo customer.Repository,
	discountRepo discount.Repository,
	invoiceRepo invoice.Repository,
	paymentRepo payment.Repository,
	subRepo subscription.Repository,
	notificationRepo notification.Repository,
	usageRepo usage.Repository,
	notificationPublisher publisher.Publisher,
	sessionRegistry session.Registry,
) ServiceParams {
	return ServiceParams{
		Logger:                logger,
		Config:                config,
		DB:                    db,
		Cache:                 cache,
		Metrics:               metrics,
		PlanRepo:              planRepo,
		CustomerRepo:          customerRepo,
		DiscountRepo:          discountRepo,
		InvoiceRepo:           invoiceRepo,
		PaymentRepo:           paymentRepo,
		SubRepo:               subRepo,
		NotificationRepo:      notificationRepo,
		UsageRepo:             usageRepo,
		NotificationPublisher: notificationPublisher,
		SessionRegistry:       sessionRegistry,
	}
}
