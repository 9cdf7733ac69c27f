package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mayagift/giftbloom-backend/pkg/enums"
)

// Order is the immutable record of a completed purchase. Totals and the
// shipping destination are denormalized at creation; only status and
// payment fields may change afterwards.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status         enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'PENDING'"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentRef     *string             `gorm:"column:payment_ref"`
	Currency       string              `gorm:"column:currency;type:text;not null"`
	Subtotal       decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax            decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null"`
	DeliveryCharge decimal.Decimal     `gorm:"column:delivery_charge;type:numeric(12,2);not null"`
	Total          decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`

	// Shipping snapshot, copied from the saved address or inline payload.
	ShipRecipient  string  `gorm:"column:ship_recipient;type:text;not null"`
	ShipLine1      string  `gorm:"column:ship_line1;type:text;not null"`
	ShipLine2      *string `gorm:"column:ship_line2"`
	ShipCity       string  `gorm:"column:ship_city;type:text;not null"`
	ShipState      string  `gorm:"column:ship_state;type:text;not null"`
	ShipPostalCode string  `gorm:"column:ship_postal_code;type:text;not null"`
	ShipCountry    string  `gorm:"column:ship_country;type:text;not null"`
	ShipPhone      string  `gorm:"column:ship_phone;type:text;not null"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
