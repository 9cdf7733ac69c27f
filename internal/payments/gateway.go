package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway charges a payment method for an order total. Implementations
// must be synchronous: by the time AuthorizeAndCapture returns without
// error the funds are captured (or, for cash on delivery, deferred by
// contract) and the returned reference identifies the charge.
type Gateway interface {
	AuthorizeAndCapture(ctx context.Context, amountMinor int64, currency, methodToken string, metadata map[string]string) (reference string, err error)

	// Refund releases a previously captured charge identified by the
	// reference AuthorizeAndCapture returned. Processors that never
	// captured anything treat this as a no-op.
	Refund(ctx context.Context, reference string) error
}

// MinorUnits converts a decimal monetary amount to the minor-unit integer
// payment processors expect (3490.00 → 349000).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
