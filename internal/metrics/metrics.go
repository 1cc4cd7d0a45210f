package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

const namespace = "billing"

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Payment metrics
	PaymentsTotal       *prometheus.CounterVec
	PaymentAmountTotal  *prometheus.CounterVec
	InvoicesGenerated   prometheus.Counter
	SettlementAttempts  *prometheus.CounterVec
	SettlementDuration  prometheus.Histogram
	CircuitBreakerState *prometheus.GaugeVec

	// Session metrics
	SessionLoginsTotal *prometheus.CounterVec
	ActiveSessions     prometheus.Gauge

	// Notification metrics
	NotificationsPublished *prometheus.CounterVec
	NotificationsDelivered *prometheus.CounterVec
}

func Module() fx.Option {
	return fx.Options(
		fx.Provide(prometheus.NewRegistry),
		fx.Provide(NewMetrics),
	)
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		PaymentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_total",
				Help:      "Payment ledger rows written by transaction type and outcome",
			},
			[]string{"transaction_type", "status"},
		),
		PaymentAmountTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_amount_total",
				Help:      "Sum of payment magnitudes by transaction type",
			},
			[]string{"transaction_type"},
		),
		InvoicesGenerated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoices_generated_total",
				Help:      "Total number of generated invoices",
			},
		),
		SettlementAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settlement_attempts_total",
				Help:      "Invoice settlement calls by mode and result",
			},
			[]string{"mode", "result"},
		),
		SettlementDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "settlement_duration_seconds",
				Help:      "Invoice settlement duration in seconds, retries included",
				Buckets:   prometheus.DefBuckets,
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),

		SessionLoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_logins_total",
				Help:      "Login attempts by outcome",
			},
			[]string{"result"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Sessions added minus sessions removed since start",
			},
		),

		NotificationsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_published_total",
				Help:      "Notifications published by type and result",
			},
			[]string{"type", "result"},
		),
		NotificationsDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_delivered_total",
				Help:      "Notification deliveries by channel and result",
			},
			[]string{"channel", "result"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PaymentsTotal,
		m.PaymentAmountTotal,
		m.InvoicesGenerated,
		m.SettlementAttempts,
		m.SettlementDuration,
		m.CircuitBreakerState,
		m.SessionLoginsTotal,
		m.ActiveSessions,
		m.NotificationsPublished,
		m.NotificationsDelivered,
	)

	return m
}

// NewNopMetrics returns metrics registered on a private registry, for tests and scripts
func NewNopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordPayment counts one ledger row and its magnitude
func (m *Metrics) RecordPayment(transactionType, status string, amount float64) {
	if m == nil {
		return
	}
	m.PaymentsTotal.WithLabelValues(transactionType, status).Inc()
	if amount > 0 {
		m.PaymentAmountTotal.WithLabelValues(transactionType).Add(amount)
	}
}

// RecordSettlement records the outcome of one settlement call
func (m *Metrics) RecordSettlement(mode string, seconds float64, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.SettlementAttempts.WithLabelValues(mode, result).Inc()
	m.SettlementDuration.Observe(seconds)
}

// RecordBreakerState exports a breaker state transition
func (m *Metrics) RecordBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordLogin counts a login decision and tracks the session gauge
func (m *Metrics) RecordLogin(allowed bool) {
	if m == nil {
		return
	}
	if allowed {
		m.SessionLoginsTotal.WithLabelValues("allowed").Inc()
		m.ActiveSessions.Inc()
		return
	}
	m.SessionLoginsTotal.WithLabelValues("denied").Inc()
}

// RecordLogout decrements the session gauge
func (m *Metrics) RecordLogout() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

// RecordNotificationPublished counts a publish attempt
func (m *Metrics) RecordNotificationPublished(notificationType string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.NotificationsPublished.WithLabelValues(notificationType, result).Inc()
}

// RecordNotificationDelivered counts a channel delivery
func (m *Metrics) RecordNotificationDelivered(channel string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.NotificationsDelivered.WithLabelValues(channel, result).Inc()
}

// RecordInvoiceGenerated counts a generated invoice
func (m *Metrics) RecordInvoiceGenerated() {
	if m == nil {
		return
	}
	m.InvoicesGenerated.Inc()
}

// RecordHTTPRequest counts a served request and observes its latency
func (m *Metrics) RecordHTTPRequest(method, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}
