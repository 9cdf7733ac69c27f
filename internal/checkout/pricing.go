package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/mayagift/giftbloom-backend/pkg/config"
)

// Quote is the full price breakdown for an order, every component rounded
// to two decimal places, half up.
type Quote struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Total          decimal.Decimal `json:"total"`
}

// ComputeQuote prices an order: tax is the configured VAT rate applied to
// the subtotal, delivery is a flat charge. Pure; no I/O.
func ComputeQuote(subtotal decimal.Decimal, pricing config.PricingConfig) Quote {
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(pricing.VAT()).Round(2)
	delivery := pricing.Delivery().Round(2)
	return Quote{
		Subtotal:       subtotal,
		Tax:            tax,
		DeliveryCharge: delivery,
		Total:          subtotal.Add(tax).Add(delivery),
	}
}
