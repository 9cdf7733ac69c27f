package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Gift represents a catalog listing. Stock is only ever decremented through
// the conditional update in the checkout stock reserver; price changes never
// propagate to historical orders.
type Gift struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name         string          `gorm:"column:name;type:text;not null"`
	Description  *string         `gorm:"column:description"`
	CategoryID   uuid.UUID       `gorm:"column:category_id;type:uuid;not null;index"`
	Category     *Category       `gorm:"foreignKey:CategoryID"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock        int             `gorm:"column:stock;not null;default:0"`
	AllowMessage bool            `gorm:"column:allow_message;not null;default:false"`
	AllowAddOns  bool            `gorm:"column:allow_addons;not null;default:false"`
	AllowImage   bool            `gorm:"column:allow_image;not null;default:false"`
	AddOnLabels  []string        `gorm:"column:addon_labels;type:jsonb;serializer:json"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	Images       []GiftImage     `gorm:"foreignKey:GiftID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (g *Gift) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// PrimaryImage returns the image flagged primary, or the first one.
func (g *Gift) PrimaryImage() *GiftImage {
	for i := range g.Images {
		if g.Images[i].IsPrimary {
			return &g.Images[i]
		}
	}
	if len(g.Images) > 0 {
		return &g.Images[0]
	}
	return nil
}
