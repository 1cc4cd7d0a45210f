package discount

import (
	"testing"
	"time"

	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newDiscount(t types.DiscountType, amount string, start, end time.Time) *Discount {
	return &Discount{
		Code:           "SAVE",
		DiscountType:   t,
		Amount:         decimal.RequireFromString(amount),
		StartDate:      start,
		EndDate:        end,
		DiscountStatus: types.DiscountStatusActive,
	}
}

func TestDiscount_IsValid(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, -1)
	end := now.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		mutate func(d *Discount)
		at     time.Time
		want   bool
	}{
		{name: "active inside window", at: now, want: true},
		{name: "inactive", mutate: func(d *Discount) { d.DiscountStatus = types.DiscountStatusInactive }, at: now, want: false},
		{name: "zero amount", mutate: func(d *Discount) { d.Amount = decimal.Zero }, at: now, want: false},
		{name: "negative amount", mutate: func(d *Discount) { d.Amount = decimal.NewFromInt(-5) }, at: now, want: false},
		{name: "before start", at: start.Add(-time.Second), want: false},
		{name: "exactly at start", at: start, want: false},
		{name: "exactly at end", at: end, want: false},
		{name: "after end", at: end.Add(time.Hour), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDiscount(types.DiscountTypePercentage, "10", start, end)
			if tt.mutate != nil {
				tt.mutate(d)
			}
			assert.Equal(t, tt.want, d.IsValid(tt.at))
		})
	}

	var missing *Discount
	assert.False(t, missing.IsValid(now))
}

func TestDiscount_Apply(t *testing.T) {
	now := time.Now()
	price := decimal.NewFromInt(100)

	tests := []struct {
		name         string
		discountType types.DiscountType
		amount       string
		wantDiscount string
		wantFinal    string
	}{
		{"percentage", types.DiscountTypePercentage, "10", "10", "90"},
		{"fractional percentage", types.DiscountTypePercentage, "12.5", "12.5", "87.5"},
		{"fixed", types.DiscountTypeFixed, "25", "25", "75"},
		{"fixed larger than price is clamped", types.DiscountTypeFixed, "150", "100", "0"},
		{"percentage above hundred is clamped", types.DiscountTypePercentage, "120", "100", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDiscount(tt.discountType, tt.amount, now.Add(-time.Hour), now.Add(time.Hour))

			discountAmount, display := d.Apply(price)
			assert.True(t, decimal.RequireFromString(tt.wantDiscount).Equal(discountAmount), "discount %s", discountAmount)
			assert.True(t, d.Amount.Equal(display))
			assert.True(t, decimal.RequireFromString(tt.wantFinal).Equal(d.ApplyDiscount(price)))
		})
	}
}

func TestDiscount_CloneForCustomer(t *testing.T) {
	now := time.Now()
	template := newDiscount(types.DiscountTypeFixed, "5", now, now.Add(time.Hour))
	template.ID = "disc_template"
	assert.True(t, template.IsTemplate())

	clone := template.CloneForCustomer("cust_1", types.BaseModel{TenantID: types.DefaultTenantID})
	assert.NotEqual(t, template.ID, clone.ID)
	assert.False(t, clone.IsTemplate())
	assert.Equal(t, "cust_1", *clone.CustomerID)
	assert.True(t, template.IsTemplate())
}
