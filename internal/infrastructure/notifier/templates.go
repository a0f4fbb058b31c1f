package notifier

import (
	"fmt"
	"strings"

	"github.com/LavaJover/shvark-storefront-orders/internal/config"
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
)

type messageContext struct {
	store config.Store
	meta  map[string]any
}

func (m messageContext) str(key, fallback string) string {
	if v, ok := m.meta[key]; ok {
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" && s != "<nil>" {
			return s
		}
	}
	return fallback
}

// accounts prefers accounts carried in the job metadata over the current
// store configuration.
func (m messageContext) accounts() []config.PaymentAccount {
	raw, ok := m.meta[MetaPaymentAccounts].([]any)
	if !ok {
		if typed, ok := m.meta[MetaPaymentAccounts].([]config.PaymentAccount); ok {
			return typed
		}
		return m.store.PaymentAccounts
	}
	out := make([]config.PaymentAccount, 0, len(raw))
	for _, item := range raw {
		acc, ok := item.(map[string]any)
		if !ok {
			continue
		}
		get := func(k string) string {
			s, _ := acc[k].(string)
			return s
		}
		out = append(out, config.PaymentAccount{
			Bank:          get("bank"),
			Holder:        get("holder"),
			AccountNumber: get("account_number"),
			Clabe:         get("clabe"),
		})
	}
	return out
}

type template func(o *domain.Order, m messageContext) string

var templates = map[domain.NotificationType]template{
	domain.NotifyOrderReceived:    orderReceived,
	domain.NotifyOrderConfirmed:   orderConfirmed,
	domain.NotifyProofReceived:    proofReceived,
	domain.NotifyPaymentApproved:  paymentApproved,
	domain.NotifyPaymentRejected:  paymentRejected,
	domain.NotifyOrderPreparing:   orderPreparing,
	domain.NotifyOrderShipped:     orderShipped,
	domain.NotifyReceiptConfirmed: receiptConfirmed,
	domain.NotifyOrderDelivered:   orderDelivered,
	domain.NotifyOrderCancelled:   orderCancelled,
	domain.NotifyPaymentReminder:  paymentReminder,
}

func header(b *strings.Builder, greeting, title string, o *domain.Order) {
	fmt.Fprintf(b, "%s %s!\n\n*%s*\nOrder #%s\n\n", greeting, o.Customer.Name, title, o.Number)
}

func footer(b *strings.Builder, m messageContext) string {
	fmt.Fprintf(b, "\n\n_%s_", m.store.Name)
	return b.String()
}

func orderReceived(o *domain.Order, m messageContext) string {
	var b strings.Builder
	header(&b, "Hi", "Order received", o)
	b.WriteString("We received your order and will confirm stock and details shortly.\n\n*Summary:*\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %dx %s\n", it.Quantity, it.Name)
	}
	fmt.Fprintf(&b, "\n*Total:* $%.2f", o.Financials.Total)
	return footer(&b, m)
}

func orderConfirmed(o *domain.Order, m messageContext) string {
	var b strings.Builder
	header(&b, "Hi", "Order confirmed", o)
	b.WriteString("Your order has been validated and confirmed.\n\n*Summary:*\n")
	fmt.Fprintf(&b, "Subtotal: $%.2f\n", o.Financials.Subtotal)
	if o.Financials.Tax > 0 {
		fmt.Fprintf(&b, "Tax: $%.2f\n", o.Financials.Tax)
	}
	if o.Financials.ShippingCost > 0 {
		fmt.Fprintf(&b, "Shipping: $%.2f\n", o.Financials.ShippingCost)
	}
	fmt.Fprintf(&b, "*TOTAL TO PAY: $%.2f*", o.Financials.Total)

	if accounts := m.accounts(); len(accounts) > 0 {
		b.WriteString("\n\n*Transfer details:*\n")
		for i, acc := range accounts {
			fmt.Fprintf(&b, "\n*%d. %s*\nHolder: %s\n", i+1, acc.Bank, acc.Holder)
			if acc.AccountNumber != "" {
				fmt.Fprintf(&b, "Account: %s\n", acc.AccountNumber)
			}
			if acc.Clabe != "" {
				fmt.Fprintf(&b, "CLABE: %s\n", acc.Clabe)
			}
		}
	}
	b.WriteString("\n\n*Next step:* send us your payment receipt to continue with your order.")
	return footer(&b, m)
}

func proofReceived(o *domain.Order, m messageContext) string {
	var b strings.Builder
	header(&b, "Hi", "Receipt received", o)
	b.WriteString("We received your payment receipt. We will validate it in the next few hours.")
	return footer(&b, m)
}

func paymentApproved(o *domain.Order, m messageContext) string {
	var b strings.Builder
	header(&b, "Hi", "Payment confirmed", o)
	b.WriteString("Your payment was validated. We are now preparing your order and will let you know when it ships.")
	return footer(&b, m)
}

func paymentRejected(o *domain.Order, m messageContext) string {
	var b strings.Builder
	header(&b, "Hello", "Payment not validated", o)
	fmt.Fprintf(&b, "We could not validate your payment receipt.\n\n*Reason:* %s\n\n",
		m.str(MetaReason, "The receipt could not be validated"))
	b.WriteString("Please send a new receipt or contact us if you have questions.")
	return footer(&b, m)
}

func orderPreparing(o *domain.Order, m messageContext) string {
	var b strings.Builder
	header(&b, "Hi", "Preparing your order", o)
	b.WriteString("Your order is being prepared and will be ready to ship soon.")
	return footer(&b, m)
}

func orderShipped(o *domain.Order, m messageContext) string {
	carrier, tracking, trackingURL := m.str(MetaCarrier, ""), m.str(MetaTrackingNumber, ""), m.str(MetaTrackingURL, "")
	if o.Shipment != nil {
		if carrier == "" {
			carrier = o.Shipment.Carrier
		}
		if tracking == "" {
			tracking = o.Shipment.TrackingNumber
		}
		if trackingURL == "" {
			trackingURL = o.Shipment.TrackingURL
		}
	}

	var b strings.Builder
	header(&b, "Hi", "Order on its way", o)
	b.WriteString("Your order is on its way!")
	if carrier != "" && tracking != "" {
		fmt.Fprintf(&b, "\n\n*Shipping details:*\nCarrier: %s\nTracking: %s", carrier, tracking)
		if trackingURL != "" {
			fmt.Fprintf(&b, "\n%s", trackingURL)
		}
	}
	b.WriteString("\n\nOnce it arrives, please confirm the receipt from your order page.")
	return footer(&b, m)
}

func receiptConfirmed(o *domain.Order, m messageContext) string {
	var b strings.Builder
	header(&b, "Hi", "Receipt confirmed", o)
	b.WriteString("Thanks for confirming you received your order. We hope you enjoy it!")
	return footer(&b, m)
}

func orderDelivered(o *domain.Order, m messageContext) string {
	var b strings.Builder
	header(&b, "Hi", "Order completed", o)
	b.WriteString("Your order is now complete. Thank you for shopping with us!")
	return footer(&b, m)
}

func orderCancelled(o *domain.Order, m messageContext) string {
	reason := m.str(MetaReason, o.CancellationReason)
	if reason == "" {
		reason = "Cancelled on request"
	}
	var b strings.Builder
	header(&b, "Hello", "Order cancelled", o)
	fmt.Fprintf(&b, "Your order has been cancelled.\n\n*Reason:* %s\n\nIf you have questions, contact us.", reason)
	return footer(&b, m)
}

func paymentReminder(o *domain.Order, m messageContext) string {
	var b strings.Builder
	header(&b, "Hello", "Payment reminder", o)
	fmt.Fprintf(&b, "Your order is confirmed but we have not received your payment receipt yet (%sh elapsed).\n\n",
		m.str(MetaHoursElapsed, "24"))
	fmt.Fprintf(&b, "*Total:* $%.2f\n\nPlease send your receipt to continue.", o.Financials.Total)
	return footer(&b, m)
}
