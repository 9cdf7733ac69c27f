package errors

import "fmt"

// StockDetails is the structured payload attached to INSUFFICIENT_STOCK
// errors so clients never have to parse gift names out of message text.
type StockDetails struct {
	GiftID    string `json:"gift_id"`
	GiftName  string `json:"gift_name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientStock builds the conflict error for a gift that cannot cover
// the requested quantity.
func InsufficientStock(giftID, giftName string, requested, available int) *Error {
	return New(CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", giftName)).
		WithDetails(StockDetails{
			GiftID:    giftID,
			GiftName:  giftName,
			Requested: requested,
			Available: available,
		})
}
