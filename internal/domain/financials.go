package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Totals may differ by less than half a cent; a one cent gap is a mismatch.
var totalsEpsilon = decimal.New(5, -3)

type Financials struct {
	Subtotal     float64
	Tax          float64
	ShippingCost float64
	Total        float64
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// LineTotal returns quantity × unit price rounded to cents.
func LineTotal(quantity int, unitPrice float64) float64 {
	return toFloat(money(unitPrice).Mul(decimal.NewFromInt(int64(quantity))))
}

// ItemsSubtotal sums quantity × unit price over items.
func ItemsSubtotal(items []LineItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(money(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return toFloat(sum)
}

// TaxFor returns the invoice tax for a subtotal, zero when no invoice is required.
func TaxFor(subtotal, rate float64, requiresInvoice bool) float64 {
	if !requiresInvoice {
		return 0
	}
	return toFloat(money(subtotal).Mul(money(rate)))
}

func (f Financials) ExpectedTotal() float64 {
	return toFloat(money(f.Subtotal).Add(money(f.Tax)).Add(money(f.ShippingCost)))
}

// Check enforces non-negative amounts and total == subtotal + tax + shipping.
func (f Financials) Check() error {
	amounts := []struct {
		field string
		value float64
	}{
		{"subtotal", f.Subtotal},
		{"tax", f.Tax},
		{"shipping_cost", f.ShippingCost},
		{"total", f.Total},
	}
	for _, a := range amounts {
		if a.value < 0 {
			return NewValidationError(CodeInvalidTotals, a.field, "amount cannot be negative")
		}
	}

	expected := money(f.Subtotal).Add(money(f.Tax)).Add(money(f.ShippingCost))
	if money(f.Total).Sub(expected).Abs().GreaterThan(totalsEpsilon) {
		return NewValidationError(CodeTotalMismatch, "total",
			fmt.Sprintf("total %.2f does not match subtotal + tax + shipping (%s)", f.Total, expected.StringFixed(2)))
	}
	return nil
}

// CheckItems verifies the subtotal against the line items.
func (f Financials) CheckItems(items []LineItem) error {
	sum := ItemsSubtotal(items)
	if money(f.Subtotal).Sub(money(sum)).Abs().GreaterThan(totalsEpsilon) {
		return NewValidationError(CodeTotalMismatch, "subtotal",
			fmt.Sprintf("subtotal %.2f does not match the sum of the items (%.2f)", f.Subtotal, sum))
	}
	return nil
}

// CheckTax verifies the submitted tax against the store rate and the
// invoice flag.
func (f Financials) CheckTax(rate float64, requiresInvoice bool) error {
	expected := TaxFor(f.Subtotal, rate, requiresInvoice)
	if money(f.Tax).Sub(money(expected)).Abs().GreaterThan(totalsEpsilon) {
		return NewValidationError(CodeTotalMismatch, "tax",
			fmt.Sprintf("tax %.2f does not match the store rate for this order (%.2f)", f.Tax, expected))
	}
	return nil
}

// RecomputeTotal re-derives only the grand total, keeping the stored tax.
func (o *Order) RecomputeTotal() {
	o.Financials.Total = o.Financials.ExpectedTotal()
}

// RecomputeTotals re-derives line totals, subtotal, tax and total.
func (o *Order) RecomputeTotals(taxRate float64) {
	for i := range o.Items {
		o.Items[i].LineTotal = LineTotal(o.Items[i].Quantity, o.Items[i].UnitPrice)
	}
	o.Financials.Subtotal = ItemsSubtotal(o.Items)
	o.Financials.Tax = TaxFor(o.Financials.Subtotal, taxRate, o.RequiresInvoice)
	o.Financials.Total = o.Financials.ExpectedTotal()
}
