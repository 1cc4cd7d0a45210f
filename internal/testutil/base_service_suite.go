package testutil

import (
	"context"
	"time"

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
	"github.com/flexprice/subscription-billing/internal/session"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	PlanRepo         plan.Repository
	CustomerRepo     customer.Repository
	DiscountRepo     discount.Repository
	InvoiceRepo      invoice.Repository
	PaymentRepo      payment.Repository
	SubscriptionRepo subscription.Repository
	NotificationRepo notification.Repository
	UsageRepo        usage.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	publisher *InMemoryNotificationPublisher
	sessions  session.Registry
	db        *MockPostgresClient
	cache     cache.Cache
	metrics   *metrics.Metrics
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
	s.metrics = metrics.NewNopMetrics()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		PlanRepo:         NewInMemoryPlanStore(),
		CustomerRepo:     NewInMemoryCustomerStore(),
		DiscountRepo:     NewInMemoryDiscountStore(),
		InvoiceRepo:      NewInMemoryInvoiceStore(),
		PaymentRepo:      NewInMemoryPaymentStore(),
		SubscriptionRepo: NewInMemorySubscriptionStore(),
		NotificationRepo: NewInMemoryNotificationStore(),
		UsageRepo:        NewInMemoryUsageStore(),
	}

	s.db = NewMockPostgresClient(s.logger)
	s.cache = cache.NewInMemoryCache(s.config)
	s.publisher = NewInMemoryNotificationPublisher()
	s.sessions = session.NewMemoryRegistry()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.PlanRepo.(*InMemoryPlanStore).Clear()
	s.stores.CustomerRepo.(*InMemoryCustomerStore).Clear()
	s.stores.DiscountRepo.(*InMemoryDiscountStore).Clear()
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.PaymentRepo.(*InMemoryPaymentStore).Clear()
	s.stores.SubscriptionRepo.(*InMemorySubscriptionStore).Clear()
	s.stores.NotificationRepo.(*InMemoryNotificationStore).Clear()
	s.stores.UsageRepo.(*InMemoryUsageStore).Clear()
	s.publisher.Clear()
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetPublisher returns the recording notification publisher
func (s *BaseServiceTestSuite) GetPublisher() *InMemoryNotificationPublisher {
	return s.publisher
}

// GetSessionRegistry returns the in-memory session registry
func (s *BaseServiceTestSuite) GetSessionRegistry() session.Registry {
	return s.sessions
}

// GetDB returns the pass-through transaction client
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

// GetCache returns the plan cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetMetrics returns metrics backed by a private registry
func (s *BaseServiceTestSuite) GetMetrics() *metrics.Metrics {
	return s.metrics
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the time the current test started
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
