package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordPayment("CHARGE", "PAID", 90)
	m.RecordPayment("REFUND", "REFUNDED", 90)
	m.RecordSettlement("http", 0.2, errors.New("boom"))
	m.RecordLogin(true)
	m.RecordLogin(true)
	m.RecordLogin(false)
	m.RecordLogout()
	m.RecordNotificationPublished("PAYMENT_SUCCESS", nil)
	m.RecordInvoiceGenerated()
	m.RecordHTTPRequest("POST", "/v1/payments/initiate", 502, 0.05)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/v1/payments/initiate", "502")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PaymentsTotal.WithLabelValues("CHARGE", "PAID")))
	assert.Equal(t, float64(90), testutil.ToFloat64(m.PaymentAmountTotal.WithLabelValues("REFUND")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SettlementAttempts.WithLabelValues("http", "failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionLoginsTotal.WithLabelValues("denied")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InvoicesGenerated))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordPayment("CHARGE", "PAID", 1)
		m.RecordLogin(true)
		m.RecordSettlement("local", 0, nil)
		m.RecordHTTPRequest("GET", "/health", 200, 0)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewNopMetrics()
	m.RecordInvoiceGenerated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "billing_invoices_generated_total 1"))
}
