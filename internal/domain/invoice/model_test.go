package invoice

import (
	"testing"
	"time"

	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestDueDateFor(t *testing.T) {
	issued := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	due := DueDateFor(issued, 30)

	assert.Equal(t, time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC), due)
	assert.Equal(t, 30*24*time.Hour, due.Sub(issued))
}

func TestInvoice_EffectiveStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status types.InvoiceStatus
		due    time.Time
		want   types.InvoiceStatus
	}{
		{"pending before due", types.InvoiceStatusPending, now.Add(time.Hour), types.InvoiceStatusPending},
		{"pending past due", types.InvoiceStatusPending, now.Add(-time.Hour), types.InvoiceStatusOverdue},
		{"paid past due", types.InvoiceStatusPaid, now.Add(-time.Hour), types.InvoiceStatusPaid},
		{"cancelled past due", types.InvoiceStatusCancelled, now.Add(-time.Hour), types.InvoiceStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{InvoiceStatus: tt.status, DueDate: tt.due}
			assert.Equal(t, tt.want, inv.EffectiveStatus(now))
		})
	}
}
