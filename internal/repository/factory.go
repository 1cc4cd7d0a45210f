package repository

import (
	"github.com/flexprice/subscription-billing/internal/domain/customer"
	"github.com/flexprice/subscription-billing/internal/domain/discount"
	"github.com/flexprice/subscription-billing/internal/domain/invoice"
	"github.com/flexprice/subscription-billing/internal/domain/notification"
	"github.com/flexprice/subscription-billing/internal/domain/payment"
	"github.com/flexprice/subscription-billing/internal/domain/plan"
	"github.com/flexprice/subscription-billing/internal/domain/subscription"
	"github.com/flexprice/subscription-billing/internal/domain/usage"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
	postgresRepo "github.com/flexprice/subscription-billing/internal/repository/postgres"
)

func NewPlanRepository(db *postgres.DB, logger *logger.Logger) plan.Repository {
	return postgresRepo.NewPlanRepository(db, logger)
}

func NewCustomerRepository(db *postgres.DB, logger *logger.Logger) customer.Repository {
	return postgresRepo.NewCustomerRepository(db, logger)
}

func NewDiscountRepository(db *postgres.DB, logger *logger.Logger) discount.Repository {
	return postgresRepo.NewDiscountRepository(db, logger)
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(db, logger)
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewNotificationRepository(db *postgres.DB, logger *logger.Logger) notification.Repository {
	return postgresRepo.NewNotificationRepository(db, logger)
}

func NewUsageRepository(db *postgres.DB, logger *logger.Logger) usage.Repository {
	return postgresRepo.NewUsageRepository(db, logger)
}
