package checkout

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mayagift/giftbloom-backend/pkg/config"
)

func defaultPricing() config.PricingConfig {
	return config.PricingConfig{VATRate: "0.13", DeliveryCharge: "100", Currency: "npr"}
}

func TestComputeQuote(t *testing.T) {
	cases := []struct {
		name     string
		subtotal string
		tax      string
		total    string
	}{
		{"two bouquets", "3000", "390.00", "3490.00"},
		{"rounds half up", "99.50", "12.94", "212.44"}, // 12.935 → 12.94
		{"zero subtotal", "0", "0.00", "100.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quote := ComputeQuote(decimal.RequireFromString(tc.subtotal), defaultPricing())
			if want := decimal.RequireFromString(tc.tax); !quote.Tax.Equal(want) {
				t.Fatalf("tax = %s, want %s", quote.Tax, want)
			}
			if want := decimal.RequireFromString("100"); !quote.DeliveryCharge.Equal(want) {
				t.Fatalf("delivery = %s, want %s", quote.DeliveryCharge, want)
			}
			if want := decimal.RequireFromString(tc.total); !quote.Total.Equal(want) {
				t.Fatalf("total = %s, want %s", quote.Total, want)
			}
			if !quote.Total.Equal(quote.Subtotal.Add(quote.Tax).Add(quote.DeliveryCharge)) {
				t.Fatal("total must equal subtotal + tax + delivery")
			}
		})
	}
}
