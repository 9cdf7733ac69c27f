package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mayagift/giftbloom-backend/pkg/db/models"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
)

// reserveStock decrements stock for every order line inside the caller's
// transaction. The decrement is conditional on sufficient stock, so two
// concurrent checkouts can never drive a gift negative; the loser of the
// race gets INSUFFICIENT_STOCK and the transaction rolls back.
func reserveStock(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	for _, item := range items {
		result := tx.WithContext(ctx).
			Model(&models.Gift{}).
			Where("id = ? AND stock >= ?", item.GiftID, item.Quantity).
			Update("stock", gorm.Expr("stock - ?", item.Quantity))
		if result.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "decrement stock")
		}
		if result.RowsAffected == 0 {
			available := currentStock(ctx, tx, item.GiftID)
			return pkgerrors.InsufficientStock(item.GiftID.String(), item.GiftName, item.Quantity, available)
		}
	}
	return nil
}

func currentStock(ctx context.Context, tx *gorm.DB, giftID uuid.UUID) int {
	var gift models.Gift
	if err := tx.WithContext(ctx).Select("stock").First(&gift, "id = ?", giftID).Error; err != nil {
		return 0
	}
	return gift.Stock
}
