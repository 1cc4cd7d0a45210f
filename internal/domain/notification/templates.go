package notification

import (
	"fmt"

	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/shopspring/decimal"
)

// PaymentSuccessMessage renders the message sent after a charge settles
func PaymentSuccessMessage(planName string, amount decimal.Decimal) string {
	return fmt.Sprintf("Payment successful for your %s subscription. Amount: Rs%s. Thank you for your payment!",
		planName, amount.StringFixed(2))
}

// PaymentFailureMessage renders the message sent when a charge could not be settled
func PaymentFailureMessage(planName string, amount decimal.Decimal, reason string) string {
	return fmt.Sprintf("Payment failed for your %s subscription. Amount: Rs%s. Reason: %s",
		planName, amount.StringFixed(2), reason)
}

// PaymentRefundedMessage renders the message sent after a refund
func PaymentRefundedMessage(amount decimal.Decimal, transactionID string) string {
	return fmt.Sprintf("A refund of Rs%s has been processed for transaction %s.",
		amount.StringFixed(2), transactionID)
}

// SubscriptionRenewalMessage renders the message sent when a subscription renews
func SubscriptionRenewalMessage(planName string, amount decimal.Decimal) string {
	return fmt.Sprintf("Your subscription for %s will be renewed soon. Amount: Rs%s",
		planName, amount.StringFixed(2))
}

// SubscriptionCancellationMessage renders the message sent when a subscription is cancelled
func SubscriptionCancellationMessage(planName string) string {
	return fmt.Sprintf("Your subscription for %s has been cancelled. Thank you for being with us!", planName)
}

// InvoiceGeneratedMessage renders the message sent for a new invoice
func InvoiceGeneratedMessage(invoiceNumber string, amount decimal.Decimal, planName string) string {
	return fmt.Sprintf("Invoice %s generated for your %s subscription. Amount: Rs%s.",
		invoiceNumber, planName, amount.StringFixed(2))
}

// Subject returns the email subject line for a notification type
func Subject(t types.NotificationType) string {
	switch t {
	case types.NotificationTypePaymentSuccess:
		return "Payment Successful"
	case types.NotificationTypePaymentFailure:
		return "Payment Failed"
	case types.NotificationTypePaymentRefunded:
		return "Payment Refunded"
	case types.NotificationTypeSubscriptionRenewal:
		return "Subscription Renewed"
	case types.NotificationTypeSubscriptionCancellation:
		return "Subscription Cancelled"
	case types.NotificationTypeInvoiceGenerated:
		return "New Invoice"
	default:
		return "Notification"
	}
}
