package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem freezes one purchased line: the gift's name and unit price at
// checkout plus the personalization copied verbatim from the cart. Later
// edits to the live Gift never touch these rows.
type OrderItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	GiftID         uuid.UUID       `gorm:"column:gift_id;type:uuid;not null;index"`
	GiftName       string          `gorm:"column:gift_name;type:text;not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Message        *string         `gorm:"column:message"`
	SelectedAddOns []string        `gorm:"column:selected_addons;type:jsonb;serializer:json"`
	DeliveryDate   *time.Time      `gorm:"column:delivery_date"`
	CustomImageKey *string         `gorm:"column:custom_image_key"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotal returns unit price multiplied by quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
