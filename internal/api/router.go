package api

import (
	v1 "github.com/flexprice/subscription-billing/internal/api/v1"
	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/metrics"
	"github.com/flexprice/subscription-billing/internal/rest/middleware"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Plan         *v1.PlanHandler
	Customer     *v1.CustomerHandler
	Discount     *v1.DiscountHandler
	Invoice      *v1.InvoiceHandler
	Payment      *v1.PaymentHandler
	Subscription *v1.SubscriptionHandler
	Billing      *v1.BillingHandler
	Session      *v1.SessionHandler
	Notification *v1.NotificationHandler
	Usage        *v1.UsageHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger, m *metrics.Metrics) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		gin.Recovery(),
		middleware.MetricsMiddleware(m),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	loginLimiter := middleware.NewLoginRateLimiter(cfg)

	v1Group := router.Group("/v1")
	v1Group.Use(middleware.AuthenticateMiddleware(cfg, logger))
	registerV1Routes(v1Group, handlers, loginLimiter)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers, loginLimiter *middleware.LoginRateLimiter) {
	plans := router.Group("/plans")
	{
		plans.POST("", handlers.Plan.CreatePlan)
		plans.GET("", handlers.Plan.GetPlans)
		plans.GET("/:id", handlers.Plan.GetPlan)
		plans.PUT("/:id", handlers.Plan.UpdatePlan)
		plans.DELETE("/:id", handlers.Plan.DeletePlan)
	}

	customers := router.Group("/customers")
	{
		customers.POST("", handlers.Customer.CreateCustomer)
		customers.GET("", handlers.Customer.GetCustomers)
		customers.GET("/:id", handlers.Customer.GetCustomer)
		customers.PUT("/:id", handlers.Customer.UpdateCustomer)
		customers.DELETE("/:id", handlers.Customer.DeleteCustomer)

		customers.GET("/:id/subscriptions", handlers.Subscription.ListCustomerSubscriptions)
		customers.GET("/:id/trial-status", handlers.Subscription.GetTrialStatus)
		customers.POST("/:id/renew", handlers.Billing.RenewSubscription)
		customers.GET("/:id/billing-cycle", handlers.Billing.GetBillingCycle)
		customers.POST("/:id/fix-active-plan", handlers.Billing.FixActivePlan)
		customers.GET("/:id/sessions", handlers.Session.ListSessions)
		customers.GET("/:id/can-login", handlers.Session.CanLogin)
		customers.GET("/:id/discounts", handlers.Discount.ListCustomerDiscounts)
		customers.GET("/:id/notifications", handlers.Notification.ListNotifications)
		customers.GET("/:id/notifications/unread", handlers.Notification.ListUnreadNotifications)
		customers.GET("/:id/usage", handlers.Usage.ListUsage)
	}

	discounts := router.Group("/discounts")
	{
		discounts.POST("", handlers.Discount.CreateDiscount)
		discounts.GET("", handlers.Discount.ListDiscounts)
		discounts.GET("/:id", handlers.Discount.GetDiscount)
		discounts.PUT("/:id", handlers.Discount.UpdateDiscount)
		discounts.DELETE("/:id", handlers.Discount.DeleteDiscount)
		discounts.POST("/:id/apply-all", handlers.Discount.ApplyToAllCustomers)
	}

	invoices := router.Group("/invoices")
	{
		invoices.POST("/generate", handlers.Invoice.GenerateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/unpaid", handlers.Invoice.ListUnpaidInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.PUT("/:id/mark-paid", handlers.Invoice.MarkInvoicePaid)
		invoices.POST("/:id/cancel", handlers.Invoice.CancelInvoice)
		invoices.DELETE("/:id", handlers.Invoice.DeleteInvoice)
	}

	payments := router.Group("/payments")
	{
		payments.POST("/initiate", handlers.Payment.InitiatePayment)
		payments.POST("/refund", handlers.Payment.RefundPayment)
		payments.POST("/chargeback", handlers.Payment.ProcessChargeback)
		payments.GET("", handlers.Payment.ListPayments)
		payments.GET("/methods", handlers.Payment.ListPaymentMethods)
		payments.GET("/transactions/:transaction_id", handlers.Payment.GetPaymentByTransactionID)
	}

	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.POST("/change-plan", handlers.Subscription.ChangePlan)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.POST("/:id/cancel", handlers.Subscription.CancelSubscription)
		subscriptions.POST("/:id/promo", handlers.Subscription.ApplyPromoCode)
	}

	sessions := router.Group("/sessions")
	{
		sessions.POST("", handlers.Session.AddSession)
		sessions.POST("/login", loginLimiter.Handler(), handlers.Session.Login)
		sessions.POST("/logout", handlers.Session.Logout)
	}

	router.POST("/notifications/:id/read", handlers.Notification.MarkAsRead)
	router.POST("/usage", handlers.Usage.CreateUsage)
}
