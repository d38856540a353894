package pricing

import (
	"github.com/storefront-labs/order-svc/internal/service/models/money"
	"github.com/storefront-labs/order-svc/internal/service/models/orderitem"
)

const (
	// TaxRatePct is the flat tax rate applied to the items subtotal.
	TaxRatePct = 8

	// FreeShippingThreshold is the items subtotal above which shipping is
	// free. Exactly at the threshold the flat fee still applies.
	FreeShippingThreshold = money.Cents(100_00)

	// FlatShippingFee is charged below or at the free-shipping threshold.
	FlatShippingFee = money.Cents(12_99)
)

// Totals holds the computed price breakdown of an order.
type Totals struct {
	ItemsPrice    money.Cents
	TaxPrice      money.Cents
	ShippingPrice money.Cents
	TotalPrice    money.Cents
}

// ComputeTotals derives the order totals from priced line items. Pure and
// deterministic; totals are always recomputed server-side and never taken
// from the client.
func ComputeTotals(items []orderitem.OrderItem) Totals {
	var itemsPrice money.Cents
	for i := range items {
		itemsPrice += items[i].Subtotal()
	}

	taxPrice := money.Percent(itemsPrice, TaxRatePct)

	shippingPrice := FlatShippingFee
	if itemsPrice > FreeShippingThreshold {
		shippingPrice = 0
	}

	return Totals{
		ItemsPrice:    itemsPrice,
		TaxPrice:      taxPrice,
		ShippingPrice: shippingPrice,
		TotalPrice:    itemsPrice + taxPrice + shippingPrice,
	}
}
