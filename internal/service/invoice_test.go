package service

import (
	"testing"
	"time"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/payment"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceSuite struct {
	billingTestSuite
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.billingTestSuite.SetupTest()
	s.createPlan("plan_basic", 100, 30, 2)
	s.createCustomer("cust_1")
}

func (s *InvoiceServiceSuite) TestGenerateInvoiceDiscounts() {
	otherCustomer := s.createCustomer("cust_2")

	s.createDiscount("SAVE10", types.DiscountTypePercentage, 10, 48*time.Hour)
	s.createDiscount("FLAT30", types.DiscountTypeFixed, 30, 48*time.Hour)
	s.createDiscount("HUGE", types.DiscountTypeFixed, 150, 48*time.Hour)
	expired := s.createDiscount("EXPIRED", types.DiscountTypePercentage, 50, -time.Hour)
	s.Require().True(expired.EndDate.Before(s.GetNow()))
	inactive := s.createDiscount("PAUSED", types.DiscountTypePercentage, 50, 48*time.Hour)
	inactive.DiscountStatus = types.DiscountStatusInactive
	s.Require().NoError(s.GetStores().DiscountRepo.Update(s.GetContext(), inactive))
	owned := s.createDiscount("MINE", types.DiscountTypePercentage, 50, 48*time.Hour)
	owned.CustomerID = lo.ToPtr(otherCustomer.ID)
	s.Require().NoError(s.GetStores().DiscountRepo.Update(s.GetContext(), owned))

	testCases := []struct {
		name         string
		code         string
		wantAmount   decimal.Decimal
		wantDiscount bool
	}{
		{name: "no_code", code: "", wantAmount: decimal.NewFromInt(100)},
		{name: "percentage", code: "SAVE10", wantAmount: decimal.NewFromInt(90), wantDiscount: true},
		{name: "fixed", code: "FLAT30", wantAmount: decimal.NewFromInt(70), wantDiscount: true},
		{name: "fixed_above_price_floors_at_zero", code: "HUGE", wantAmount: decimal.Zero, wantDiscount: true},
		{name: "unknown_code_charges_full_price", code: "NOPE", wantAmount: decimal.NewFromInt(100)},
		{name: "expired_code_charges_full_price", code: "EXPIRED", wantAmount: decimal.NewFromInt(100)},
		{name: "inactive_code_charges_full_price", code: "PAUSED", wantAmount: decimal.NewFromInt(100)},
		{name: "code_of_another_customer_charges_full_price", code: "MINE", wantAmount: decimal.NewFromInt(100)},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			resp, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
				CustomerID:   "cust_1",
				PlanID:       "plan_basic",
				DiscountCode: tc.code,
			})
			s.Require().NoError(err)
			s.True(tc.wantAmount.Equal(resp.Amount), "amount %s", resp.Amount)
			s.True(decimal.NewFromInt(100).Equal(resp.PlanPrice))
			s.Equal(tc.wantDiscount, resp.Discount != nil)
			s.Equal(types.InvoiceStatusPending, resp.InvoiceStatus)
		})
	}
}

func (s *InvoiceServiceSuite) TestGenerateInvoiceDueDateAndPaymentMethod() {
	invoiceDate := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	resp, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID:  "cust_1",
		PlanID:      "plan_basic",
		InvoiceDate: &invoiceDate,
	})
	s.Require().NoError(err)
	s.True(invoiceDate.AddDate(0, 0, 30).Equal(resp.DueDate))
	s.Equal(types.DefaultInvoicePaymentMethod, resp.PaymentMethod)
	s.Equal(types.InvoiceStatusOverdue, resp.EffectiveStatus)
	s.Contains(resp.InvoiceNumber, types.SHORT_ID_PREFIX_INVOICE)

	_, err = s.subscriptions.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID:    "cust_1",
		PlanID:        "plan_basic",
		PaymentMethod: string(types.PaymentMethodUPI),
	})
	s.Require().NoError(err)

	resp, err = s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID: "cust_1",
		PlanID:     "plan_basic",
	})
	s.Require().NoError(err)
	s.Equal(string(types.PaymentMethodUPI), resp.PaymentMethod)
	s.Equal(types.InvoiceStatusPending, resp.EffectiveStatus)
	s.Contains(s.notificationTypes(), types.NotificationTypeInvoiceGenerated)
}

func (s *InvoiceServiceSuite) TestGenerateInvoiceMissingReferences() {
	_, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID: "cust_missing",
		PlanID:     "plan_basic",
	})
	s.True(ierr.IsNotFound(err))

	_, err = s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID: "cust_1",
		PlanID:     "plan_missing",
	})
	s.True(ierr.IsNotFound(err))

	_, err = s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{PlanID: "plan_basic"})
	s.True(ierr.IsValidation(err))
}

func (s *InvoiceServiceSuite) TestGenerateInvoiceSurvivesPublisherOutage() {
	s.GetPublisher().Fail = true

	resp, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID: "cust_1",
		PlanID:     "plan_basic",
	})
	s.Require().NoError(err)
	s.NotEmpty(resp.ID)
	s.Empty(s.GetPublisher().Events())
}

func (s *InvoiceServiceSuite) TestMarkPaidAndCancel() {
	resp, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID: "cust_1",
		PlanID:     "plan_basic",
	})
	s.Require().NoError(err)

	paid, err := s.invoices.MarkInvoicePaid(s.GetContext(), resp.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, paid.InvoiceStatus)

	_, err = s.invoices.MarkInvoicePaid(s.GetContext(), resp.ID)
	s.True(ierr.IsInvalidOperation(err))
	s.NoError(s.invoices.MarkInvoicePaidIdempotent(s.GetContext(), resp.ID))

	_, err = s.invoices.CancelInvoice(s.GetContext(), resp.ID)
	s.True(ierr.IsInvalidOperation(err))

	pending, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID: "cust_1",
		PlanID:     "plan_basic",
	})
	s.Require().NoError(err)

	cancelled, err := s.invoices.CancelInvoice(s.GetContext(), pending.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusCancelled, cancelled.InvoiceStatus)

	_, err = s.invoices.CancelInvoice(s.GetContext(), pending.ID)
	s.NoError(err)

	_, err = s.invoices.MarkInvoicePaid(s.GetContext(), pending.ID)
	s.True(ierr.IsInvalidOperation(err))

	unpaid, err := s.invoices.ListUnpaidInvoices(s.GetContext())
	s.Require().NoError(err)
	s.Empty(unpaid.Items)
}

func (s *InvoiceServiceSuite) TestDeleteInvoiceRemovesPayments() {
	resp, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID: "cust_1",
		PlanID:     "plan_basic",
	})
	s.Require().NoError(err)

	_, err = s.payments.InitiatePayment(s.GetContext(), dto.InitiatePaymentRequest{
		InvoiceID:     resp.ID,
		PaymentMethod: string(types.PaymentMethodCard),
		TransactionID: "TX_DELETE",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.invoices.DeleteInvoice(s.GetContext(), resp.ID))

	_, err = s.invoices.GetInvoice(s.GetContext(), resp.ID)
	s.True(ierr.IsNotFound(err))

	_, err = s.GetStores().PaymentRepo.GetByTransactionID(s.GetContext(), "TX_DELETE")
	s.True(ierr.IsNotFound(err))

	var remaining []*payment.Payment
	remaining, err = s.GetStores().PaymentRepo.List(s.GetContext(), types.NewNoLimitPaymentFilter())
	s.Require().NoError(err)
	s.Empty(remaining)
}

func (s *InvoiceServiceSuite) TestListInvoicesFiltersAndPages() {
	s.createCustomer("cust_2")

	var ids []string
	for i := 0; i < 3; i++ {
		resp, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
			CustomerID: "cust_1",
			PlanID:     "plan_basic",
		})
		s.Require().NoError(err)
		ids = append(ids, resp.ID)
	}
	_, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID: "cust_2",
		PlanID:     "plan_basic",
	})
	s.Require().NoError(err)

	_, err = s.invoices.MarkInvoicePaid(s.GetContext(), ids[0])
	s.Require().NoError(err)

	filter := types.NewInvoiceFilter()
	filter.CustomerID = "cust_1"
	filter.Limit = lo.ToPtr(2)

	page, err := s.invoices.ListInvoices(s.GetContext(), filter)
	s.Require().NoError(err)
	s.Len(page.Items, 2)
	s.Equal(3, page.Pagination.Total)
	s.Equal(2, page.Pagination.Limit)
	for _, item := range page.Items {
		s.Equal("cust_1", item.CustomerID)
	}

	paidFilter := types.NewInvoiceFilter()
	paidFilter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusPaid}
	paid, err := s.invoices.ListInvoices(s.GetContext(), paidFilter)
	s.Require().NoError(err)
	s.Require().Len(paid.Items, 1)
	s.Equal(ids[0], paid.Items[0].ID)

	unpaid, err := s.invoices.ListUnpaidInvoices(s.GetContext())
	s.Require().NoError(err)
	s.Len(unpaid.Items, 3)

	bad := types.NewInvoiceFilter()
	bad.Limit = lo.ToPtr(0)
	_, err = s.invoices.ListInvoices(s.GetContext(), bad)
	s.True(ierr.IsValidation(err))
}

func (s *InvoiceServiceSuite) TestGenerateInvoiceUsesCustomersOwnDiscountCopy() {
	s.createCustomer("cust_2")

	template, err := s.discounts.CreateDiscount(s.GetContext(), dto.CreateDiscountRequest{
		Name:         "Festive",
		Code:         "FEST",
		DiscountType: types.DiscountTypePercentage,
		Amount:       decimal.NewFromInt(15),
		StartDate:    s.GetNow().Add(-time.Hour),
		EndDate:      s.GetNow().Add(48 * time.Hour),
	})
	s.Require().NoError(err)

	_, err = s.discounts.ApplyDiscountToAllCustomers(s.GetContext(), template.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.discounts.DeleteDiscount(s.GetContext(), template.ID))

	for _, customerID := range []string{"cust_1", "cust_2"} {
		resp, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
			CustomerID:   customerID,
			PlanID:       "plan_basic",
			DiscountCode: "FEST",
		})
		s.Require().NoError(err)
		s.True(decimal.NewFromInt(85).Equal(resp.Amount), "%s amount %s", customerID, resp.Amount)
		s.NotNil(resp.Discount, customerID)
	}

	owned := s.createDiscount("SOLO", types.DiscountTypeFixed, 40, 48*time.Hour)
	owned.CustomerID = lo.ToPtr("cust_2")
	s.Require().NoError(s.GetStores().DiscountRepo.Update(s.GetContext(), owned))
	catalog := s.createDiscount("SOLO", types.DiscountTypeFixed, 10, 48*time.Hour)
	s.Require().True(catalog.IsTemplate())

	resp, err := s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID:   "cust_2",
		PlanID:       "plan_basic",
		DiscountCode: "SOLO",
	})
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(60).Equal(resp.Amount), "amount %s", resp.Amount)

	resp, err = s.invoices.GenerateInvoice(s.GetContext(), dto.GenerateInvoiceRequest{
		CustomerID:   "cust_1",
		PlanID:       "plan_basic",
		DiscountCode: "SOLO",
	})
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(90).Equal(resp.Amount), "amount %s", resp.Amount)
}
