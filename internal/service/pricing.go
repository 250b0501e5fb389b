package service

import (
	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Shipping rules. Orders strictly below the threshold pay the flat fee.
var (
	FreeShippingThreshold = decimal.NewFromInt(500)
	StandardShippingCost  = decimal.NewFromInt(100)
)

// ShippingCost returns the shipping fee for a cart or order subtotal.
func ShippingCost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.LessThan(FreeShippingThreshold) {
		return StandardShippingCost
	}
	return decimal.Zero
}

// Totals holds the monetary summary of a set of lines.
type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Total        decimal.Decimal `json:"total"`
}

func computeTotals(lines []model.OrderLine) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	shipping := ShippingCost(subtotal)
	return Totals{Subtotal: subtotal, ShippingCost: shipping, Total: subtotal.Add(shipping)}
}
