package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is a saved shipping destination owned by a user. Ownership is
// re-checked at order time.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Recipient  string    `gorm:"column:recipient;type:text;not null"`
	Line1      string    `gorm:"column:line1;type:text;not null"`
	Line2      *string   `gorm:"column:line2"`
	City       string    `gorm:"column:city;type:text;not null"`
	State      string    `gorm:"column:state;type:text;not null"`
	PostalCode string    `gorm:"column:postal_code;type:text;not null"`
	Country    string    `gorm:"column:country;type:text;not null"`
	Phone      string    `gorm:"column:phone;type:text;not null"`
	IsDefault  bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
