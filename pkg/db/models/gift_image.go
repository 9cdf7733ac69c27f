package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GiftImage stores one hosted image for a gift. StorageKey is the opaque
// object key at the image host; deleting a gift cascades its images.
type GiftImage struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	GiftID     uuid.UUID  `gorm:"column:gift_id;type:uuid;not null;index"`
	StorageKey string     `gorm:"column:storage_key;type:text;not null"`
	URL        string     `gorm:"column:url;type:text;not null"`
	IsPrimary  bool       `gorm:"column:is_primary;not null;default:false"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	DeletedAt  *time.Time `gorm:"column:deleted_at"`
}

func (i *GiftImage) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
