package service

import (
	"math"

	"ovidio_backend/internal/quotes/transport"
)

// defaultTaxRate applies when a catalog item carries no usable rate. The
// distributor sells almost everything at the general 21% bracket; 10.5% is
// the only other rate that occurs.
const defaultTaxRate = 21.0

// roundMoney rounds to the nearest cent.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// normalizeItem fills the defaults the chat pipeline may leave empty.
func normalizeItem(item transport.Item) transport.Item {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if item.TaxRate != 10.5 && item.TaxRate != 21 {
		item.TaxRate = defaultTaxRate
	}
	return item
}

// CalculateTotals normalizes the line items, computes per-line tax and
// returns the items with their tax amounts filled plus the quotation
// totals. Tax is computed per line and summed; rounding happens once per
// amount.
func CalculateTotals(items []transport.Item) ([]transport.Item, transport.Totals) {
	out := make([]transport.Item, 0, len(items))
	var totals transport.Totals

	for i, item := range items {
		item = normalizeItem(item)
		item.SortOrder = i

		lineSubtotal := item.UnitPrice * float64(item.Quantity)
		item.TaxAmount = roundMoney(lineSubtotal * item.TaxRate / 100)

		totals.Subtotal += lineSubtotal
		totals.TaxTotal += item.TaxAmount
		out = append(out, item)
	}

	totals.Subtotal = roundMoney(totals.Subtotal)
	totals.TaxTotal = roundMoney(totals.TaxTotal)
	totals.Total = roundMoney(totals.Subtotal + totals.TaxTotal)
	return out, totals
}
