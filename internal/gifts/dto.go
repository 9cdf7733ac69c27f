package gifts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayagift/giftbloom-backend/pkg/db/models"
)

// CategoryDTO is the transport shape for a browse category.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	ImageKey    *string   `json:"image_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GiftImageDTO is one hosted catalog image.
type GiftImageDTO struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	IsPrimary bool      `json:"is_primary"`
}

// GiftDTO is the catalog listing sent to clients. Price is a decimal string.
type GiftDTO struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	CategoryID   uuid.UUID       `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	AllowMessage bool            `json:"allow_message"`
	AllowAddOns  bool            `json:"allow_addons"`
	AllowImage   bool            `json:"allow_image"`
	AddOnLabels  []string        `json:"addon_labels,omitempty"`
	IsActive     bool            `json:"is_active"`
	Images       []GiftImageDTO  `json:"images"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// GiftListResult pages the catalog.
type GiftListResult struct {
	Gifts      []GiftDTO `json:"gifts"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func categoryFromModel(c *models.Category) *CategoryDTO {
	if c == nil {
		return nil
	}
	return &CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ImageKey:    c.ImageKey,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func giftFromModel(g *models.Gift) *GiftDTO {
	if g == nil {
		return nil
	}
	dto := &GiftDTO{
		ID:           g.ID,
		Name:         g.Name,
		Description:  g.Description,
		CategoryID:   g.CategoryID,
		Price:        g.Price,
		Stock:        g.Stock,
		AllowMessage: g.AllowMessage,
		AllowAddOns:  g.AllowAddOns,
		AllowImage:   g.AllowImage,
		AddOnLabels:  append([]string(nil), g.AddOnLabels...),
		IsActive:     g.IsActive,
		Images:       make([]GiftImageDTO, 0, len(g.Images)),
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
	if g.Category != nil {
		dto.CategoryName = g.Category.Name
	}
	for _, img := range g.Images {
		dto.Images = append(dto.Images, GiftImageDTO{
			ID:        img.ID,
			URL:       img.URL,
			IsPrimary: img.IsPrimary,
		})
	}
	return dto
}
