package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	v1 "github.com/flexprice/subscription-billing/internal/api/v1"
	"github.com/flexprice/subscription-billing/internal/auth"
	"github.com/flexprice/subscription-billing/internal/config"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/service"
	"github.com/flexprice/subscription-billing/internal/settlement"
	"github.com/flexprice/subscription-billing/internal/testutil"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	testutil.BaseServiceTestSuite
	handlers Handlers
	router   *gin.Engine
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.BaseServiceTestSuite.SetupSuite()
}

func (s *RouterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	params := service.ServiceParams{
		Logger:                s.GetLogger(),
		Config:                s.GetConfig(),
		DB:                    s.GetDB(),
		Cache:                 s.GetCache(),
		Metrics:               s.GetMetrics(),
		PlanRepo:              stores.PlanRepo,
		CustomerRepo:          stores.CustomerRepo,
		DiscountRepo:          stores.DiscountRepo,
		InvoiceRepo:           stores.InvoiceRepo,
		PaymentRepo:           stores.PaymentRepo,
		SubRepo:               stores.SubscriptionRepo,
		NotificationRepo:      stores.NotificationRepo,
		UsageRepo:             stores.UsageRepo,
		NotificationPublisher: s.GetPublisher(),
		SessionRegistry:       s.GetSessionRegistry(),
	}

	log := s.GetLogger()
	invoices := service.NewInvoiceService(params)
	settler := settlement.NewLocalSettler(invoices, log, s.GetMetrics())

	s.handlers = Handlers{
		Health:       v1.NewHealthHandler(log),
		Plan:         v1.NewPlanHandler(service.NewPlanService(params), log),
		Customer:     v1.NewCustomerHandler(service.NewCustomerService(params), log),
		Discount:     v1.NewDiscountHandler(service.NewDiscountService(params), log),
		Invoice:      v1.NewInvoiceHandler(invoices, log),
		Payment:      v1.NewPaymentHandler(service.NewPaymentProcessorService(params, settler), log),
		Subscription: v1.NewSubscriptionHandler(service.NewSubscriptionService(params), log),
		Billing:      v1.NewBillingHandler(service.NewBillingService(params), log),
		Session:      v1.NewSessionHandler(service.NewSessionService(params), log),
		Notification: v1.NewNotificationHandler(service.NewNotificationService(params), log),
		Usage:        v1.NewUsageHandler(service.NewUsageService(params), log),
	}
	s.router = NewRouter(s.handlers, s.GetConfig(), log, s.GetMetrics())
}

func (s *RouterSuite) do(router *gin.Engine, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) decode(rec *httptest.ResponseRecorder, out any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func (s *RouterSuite) decodeError(rec *httptest.ResponseRecorder) ierr.ErrorResponse {
	var resp ierr.ErrorResponse
	s.decode(rec, &resp)
	s.False(resp.Success)
	return resp
}

func (s *RouterSuite) createPlan(price int64) *dto.PlanResponse {
	rec := s.do(s.router, http.MethodPost, "/v1/plans", map[string]any{
		"name":          "Premium",
		"price":         price,
		"duration_days": 30,
		"usage_limit":   2,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var p dto.PlanResponse
	s.decode(rec, &p)
	return &p
}

func (s *RouterSuite) createCustomer(email string) *dto.CustomerResponse {
	rec := s.do(s.router, http.MethodPost, "/v1/customers", map[string]any{
		"name":  "Asha",
		"email": email,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var c dto.CustomerResponse
	s.decode(rec, &c)
	return &c
}

func (s *RouterSuite) TestHealthAssignsRequestID() {
	rec := s.do(s.router, http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get(types.HeaderRequestID))

	rec = s.do(s.router, http.MethodGet, "/health", nil, types.HeaderRequestID, "req-1")
	s.Equal("req-1", rec.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestInvoiceToRefundOverHTTP() {
	p := s.createPlan(100)
	c := s.createCustomer("asha@example.com")

	now := time.Now().UTC()
	rec := s.do(s.router, http.MethodPost, "/v1/discounts", map[string]any{
		"name":          "Ten off",
		"code":          "SAVE10",
		"discount_type": types.DiscountTypePercentage,
		"amount":        10,
		"start_date":    now.Add(-24 * time.Hour),
		"end_date":      now.Add(30 * 24 * time.Hour),
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(s.router, http.MethodPost, "/v1/invoices/generate", map[string]any{
		"customer_id":   c.ID,
		"plan_id":       p.ID,
		"discount_code": "SAVE10",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var inv dto.InvoiceResponse
	s.decode(rec, &inv)
	s.True(decimal.NewFromInt(90).Equal(inv.Amount), inv.Amount.String())
	s.Equal(types.InvoiceStatusPending, inv.InvoiceStatus)

	pay := map[string]any{
		"invoice_id":     inv.ID,
		"payment_method": types.PaymentMethodUPI,
		"transaction_id": "TX1",
	}
	rec = s.do(s.router, http.MethodPost, "/v1/payments/initiate", pay)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var receipt dto.PaymentReceipt
	s.decode(rec, &receipt)
	s.Equal(types.PaymentStatusPaid, receipt.PaymentStatus)

	// a retry with the same transaction id returns the same receipt
	rec = s.do(s.router, http.MethodPost, "/v1/payments/initiate", pay)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var retried dto.PaymentReceipt
	s.decode(rec, &retried)
	s.Equal(receipt.PaymentID, retried.PaymentID)

	rec = s.do(s.router, http.MethodGet, "/v1/invoices/"+inv.ID, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &inv)
	s.Equal(types.InvoiceStatusPaid, inv.InvoiceStatus)

	rec = s.do(s.router, http.MethodPost, "/v1/payments/refund", map[string]any{"transaction_id": "TX1"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var refund dto.PaymentReceipt
	s.decode(rec, &refund)
	s.Equal("REF_TX1", refund.TransactionID)
	s.True(decimal.NewFromInt(-90).Equal(refund.Amount), refund.Amount.String())

	rec = s.do(s.router, http.MethodPost, "/v1/payments/refund", map[string]any{"transaction_id": "TX1"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(ierr.ErrCodeInvalidOperation, s.decodeError(rec).Error.Code)

	rec = s.do(s.router, http.MethodGet, "/v1/payments/transactions/TX1", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &receipt)
	s.Equal(types.PaymentStatusRefunded, receipt.PaymentStatus)

	s.Len(s.GetPublisher().EventsOfType(types.NotificationTypePaymentSuccess), 1)
}

func (s *RouterSuite) TestErrorsRenderStandardShape() {
	rec := s.do(s.router, http.MethodGet, "/v1/invoices/inv_missing", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	resp := s.decodeError(rec)
	s.Equal(ierr.ErrCodeNotFound, resp.Error.Code)
	s.NotEmpty(resp.Error.Display)

	req := httptest.NewRequest(http.MethodPost, "/v1/plans", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
	resp = s.decodeError(rec)
	s.Equal(ierr.ErrCodeValidation, resp.Error.Code)
	s.Equal("Invalid request format", resp.Error.Display)
}

func (s *RouterSuite) TestChargebackValidation() {
	rec := s.do(s.router, http.MethodPost, "/v1/payments/chargeback", map[string]any{
		"transaction_id": "TX1",
		"amount":         0,
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(ierr.ErrCodeValidation, s.decodeError(rec).Error.Code)
}

func (s *RouterSuite) TestSubscriptionAndTrialRoutes() {
	p := s.createPlan(100)
	c := s.createCustomer("ravi@example.com")

	rec := s.do(s.router, http.MethodGet, "/v1/customers/"+c.ID+"/trial-status", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var trial dto.TrialStatusResponse
	s.decode(rec, &trial)
	s.True(trial.TrialAvailable)

	rec = s.do(s.router, http.MethodPost, "/v1/subscriptions", map[string]any{
		"customer_id":    c.ID,
		"plan_id":        p.ID,
		"payment_method": types.PaymentMethodUPI,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(s.router, http.MethodGet, "/v1/customers/"+c.ID+"/trial-status", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &trial)
	s.False(trial.TrialAvailable)

	rec = s.do(s.router, http.MethodGet, "/v1/customers/"+c.ID+"/subscriptions", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var subs dto.ListSubscriptionsResponse
	s.decode(rec, &subs)
	s.Len(subs.Items, 1)

	rec = s.do(s.router, http.MethodGet, "/v1/customers/"+c.ID+"/billing-cycle?date=2024-01-16", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var cycle dto.BillingCycleResponse
	s.decode(rec, &cycle)
	s.Equal(15, cycle.DaysRemaining)

	rec = s.do(s.router, http.MethodGet, "/v1/customers/"+c.ID+"/billing-cycle?date=16-01-2024", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterSuite) TestLoginLimitAndRateLimit() {
	c := s.createCustomer("meera@example.com")
	login := func(router *gin.Engine, device string) *httptest.ResponseRecorder {
		return s.do(router, http.MethodPost, "/v1/sessions/login", map[string]any{
			"customer_id": c.ID,
			"device_id":   device,
			"login_type":  types.LoginTypeWeb,
		})
	}

	rec := login(s.router, "tv-1")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var resp dto.LoginResponse
	s.decode(rec, &resp)
	s.True(resp.Allowed)

	rec = s.do(s.router, http.MethodGet, "/v1/customers/"+c.ID+"/sessions", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var sessions dto.ListSessionsResponse
	s.decode(rec, &sessions)
	s.Equal(1, sessions.Count)

	cfg := *s.GetConfig()
	cfg.Server.LoginRateLimit = 0.001
	cfg.Server.LoginRateBurst = 1
	throttled := NewRouter(s.handlers, &cfg, s.GetLogger(), s.GetMetrics())

	s.Equal(http.StatusOK, login(throttled, "phone-1").Code)
	rec = login(throttled, "phone-2")
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.NotEmpty(rec.Header().Get("Retry-After"))
}

func (s *RouterSuite) TestCanLoginThenAddSession() {
	p := s.createPlan(100)
	c := s.createCustomer("nila@example.com")

	rec := s.do(s.router, http.MethodPost, "/v1/subscriptions", map[string]any{
		"customer_id":    c.ID,
		"plan_id":        p.ID,
		"payment_method": types.PaymentMethodUPI,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	canLogin := func() dto.CanLoginResponse {
		rec := s.do(s.router, http.MethodGet, "/v1/customers/"+c.ID+"/can-login", nil)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		var resp dto.CanLoginResponse
		s.decode(rec, &resp)
		return resp
	}

	for _, device := range []string{"tv-1", "phone-1"} {
		resp := canLogin()
		s.True(resp.Allowed)
		s.Equal(c.ID, resp.CustomerID)

		rec = s.do(s.router, http.MethodPost, "/v1/sessions/login", map[string]any{
			"customer_id": c.ID,
			"device_id":   device,
			"login_type":  types.LoginTypeWeb,
		})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	}
	s.False(canLogin().Allowed, "plan allows two sessions")

	rec = s.do(s.router, http.MethodPost, "/v1/sessions", map[string]any{
		"customer_id": c.ID,
		"device_id":   "tv-1",
		"login_type":  types.LoginTypeWeb,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(s.router, http.MethodGet, "/v1/customers/"+c.ID+"/sessions", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var sessions dto.ListSessionsResponse
	s.decode(rec, &sessions)
	s.Equal(2, sessions.Count, "checking does not register a session and a known device replaces its entry")

	rec = s.do(s.router, http.MethodGet, "/v1/customers/cust_missing/can-login", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RouterSuite) TestAuthentication() {
	cfg := *s.GetConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, Secret: "test-secret"}
	secured := NewRouter(s.handlers, &cfg, s.GetLogger(), s.GetMetrics())

	rec := s.do(secured, http.MethodGet, "/v1/plans", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(secured, http.MethodGet, "/v1/plans", nil, types.HeaderAuthorization, "Token abc")
	s.Equal(http.StatusUnauthorized, rec.Code)

	token, err := auth.NewProvider("test-secret", time.Hour).GenerateToken("ops", types.DefaultTenantID)
	s.Require().NoError(err)
	rec = s.do(secured, http.MethodGet, "/v1/plans", nil, types.HeaderAuthorization, "Bearer "+token)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	// health stays public
	s.Equal(http.StatusOK, s.do(secured, http.MethodGet, "/health", nil).Code)
}

func (s *RouterSuite) TestMetricsEndpoint() {
	s.do(s.router, http.MethodGet, "/health", nil)

	rec := s.do(s.router, http.MethodGet, "/metrics", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `billing_http_requests_total{method="GET",path="/health",status="200"}`)
}
