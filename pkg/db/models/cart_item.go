package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one gift line in a cart, including the shopper's
// personalization. (cart_id, gift_id) is unique; adding the same gift again
// merges quantities instead of duplicating the line.
type CartItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CartID         uuid.UUID  `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_gift"`
	GiftID         uuid.UUID  `gorm:"column:gift_id;type:uuid;not null;uniqueIndex:idx_cart_gift"`
	Gift           *Gift      `gorm:"foreignKey:GiftID"`
	Quantity       int        `gorm:"column:quantity;not null"`
	Message        *string    `gorm:"column:message"`
	SelectedAddOns []string   `gorm:"column:selected_addons;type:jsonb;serializer:json"`
	DeliveryDate   *time.Time `gorm:"column:delivery_date"`
	CustomImageKey *string    `gorm:"column:custom_image_key"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
